package github

import (
	"context"
	"net/url"
	"strings"
)

// nextPageRel extracts the rel="next" target from a Link header value.
// Returns "" when there is no next page
func nextPageRel(link string) string {
	for _, part := range strings.Split(link, ",") {
		seg := strings.Split(part, ";")
		if len(seg) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(seg[0]), "<>")
		for _, attr := range seg[1:] {
			if strings.TrimSpace(attr) == `rel="next"` {
				return target
			}
		}
	}
	return ""
}

// getPaged walks every page of a listing endpoint, one page at a time,
// returning the raw body of each page in order. Pagination is never
// parallelized within a single logical listing
func (c *Client) getPaged(ctx context.Context, path string, params url.Values) ([][]byte, error) {
	var pages [][]byte
	next := path
	for next != "" {
		resp, err := c.Get(ctx, next, params)
		if err != nil {
			return nil, err
		}
		pages = append(pages, resp.Body)

		next = ""
		params = nil // follow-up URLs carry their own query
		if target := nextPageRel(resp.Header.Get("Link")); target != "" {
			rel, err := c.relativize(target)
			if err != nil {
				return nil, err
			}
			next = rel
		}
	}
	return pages, nil
}

// relativize strips the configured base URL from an absolute next-page link
func (c *Client) relativize(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	base, err := url.Parse(c.opts.BaseURL)
	if err != nil {
		return "", err
	}
	rel := strings.TrimPrefix(u.Path, base.Path)
	if u.RawQuery != "" {
		rel += "?" + u.RawQuery
	}
	return rel, nil
}
