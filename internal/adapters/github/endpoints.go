package github

import (
	"context"
	"encoding/base64"
	json "encoding/json/v2"
	"fmt"
	"net/url"
	"strings"
)

// OwnerByLogin fetches a user or organization document by login
func (c *Client) OwnerByLogin(ctx context.Context, login string) (OwnerDoc, error) {
	resp, err := c.Get(ctx, "/users/"+url.PathEscape(login), nil)
	if err != nil {
		return OwnerDoc{}, err
	}
	var out OwnerDoc
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return OwnerDoc{}, err
	}
	return out, nil
}

// OrgMembers walks every page of an organization's member listing
func (c *Client) OrgMembers(ctx context.Context, org string) ([]OwnerDoc, error) {
	params := url.Values{"per_page": {"100"}}
	pages, err := c.getPaged(ctx, fmt.Sprintf("/orgs/%s/members", url.PathEscape(org)), params)
	if err != nil {
		return nil, err
	}
	var out []OwnerDoc
	for _, body := range pages {
		var page []OwnerDoc
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, err
		}
		out = append(out, page...)
	}
	return out, nil
}

// OwnerRepos walks every page of an owner's repository listing.
// Entries flagged as forks are silently dropped
func (c *Client) OwnerRepos(ctx context.Context, login string) ([]RepoDoc, error) {
	params := url.Values{"per_page": {"100"}}
	pages, err := c.getPaged(ctx, fmt.Sprintf("/users/%s/repos", url.PathEscape(login)), params)
	if err != nil {
		return nil, err
	}
	var out []RepoDoc
	for _, body := range pages {
		var page []RepoDoc
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, err
		}
		for _, r := range page {
			if r.Fork {
				continue
			}
			out = append(out, r)
		}
	}
	return out, nil
}

// RepoInfo fetches a repository's metadata document
func (c *Client) RepoInfo(ctx context.Context, fullName string) (RepoDoc, error) {
	resp, err := c.Get(ctx, "/repos/"+fullName, nil)
	if err != nil {
		return RepoDoc{}, err
	}
	var out RepoDoc
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return RepoDoc{}, err
	}
	return out, nil
}

// RepoTree fetches the recursive file tree of a repository at a branch,
// keeping only blob entries
func (c *Client) RepoTree(ctx context.Context, fullName, branch string) ([]Blob, error) {
	path := fmt.Sprintf("/repos/%s/git/trees/%s", fullName, url.PathEscape(branch))
	resp, err := c.Get(ctx, path, url.Values{"recursive": {"1"}})
	if err != nil {
		return nil, err
	}
	var doc treeDoc
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return nil, err
	}
	if doc.Truncated {
		c.log.Warn().Str("repo", fullName).Msg("github tree listing truncated")
	}
	blobs := make([]Blob, 0, len(doc.Tree))
	for _, e := range doc.Tree {
		if e.Type != "blob" {
			continue
		}
		blobs = append(blobs, Blob{Path: e.Path, Size: e.Size, SHA: e.SHA})
	}
	return blobs, nil
}

// FileContent fetches the raw content of a single file at ref.
// This is a lazy display-only read path; the analysis pipeline never calls it
func (c *Client) FileContent(ctx context.Context, fullName, filePath, ref string) ([]byte, error) {
	p := fmt.Sprintf("/repos/%s/contents/%s", fullName, filePath)
	params := url.Values{}
	if ref != "" {
		params.Set("ref", ref)
	}
	resp, err := c.Get(ctx, p, params)
	if err != nil {
		return nil, err
	}
	var doc contentDoc
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return nil, err
	}
	if doc.Encoding == "base64" {
		// the API wraps base64 payloads with newlines
		return base64.StdEncoding.DecodeString(strings.ReplaceAll(doc.Content, "\n", ""))
	}
	return []byte(doc.Content), nil
}
