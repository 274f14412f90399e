package github

import (
	"context"
	"strings"
	"sync"

	perr "leakhound/internal/platform/errors"
)

// accessBlockedMarker appears in 403 bodies for repositories GitHub has
// administratively disabled (DMCA and similar). Treated as an empty tree
const accessBlockedMarker = "Repository access blocked"

// Owner is a remote user or organization with memoized listing accessors.
// An instance may be shared across workers; each lazy fetch runs at most once
type Owner struct {
	doc OwnerDoc
	c   *Client

	reposOnce sync.Once
	repos     []*Repository
	reposErr  error

	membersOnce sync.Once
	members     []OwnerDoc
	membersErr  error
}

// NewOwner wraps a fetched owner document
func NewOwner(c *Client, doc OwnerDoc) *Owner { return &Owner{doc: doc, c: c} }

// Doc returns the underlying owner document
func (o *Owner) Doc() OwnerDoc { return o.doc }

// Login returns the owner's login
func (o *Owner) Login() string { return o.doc.Login }

// IsOrganization reports whether the owner is an organization
func (o *Owner) IsOrganization() bool { return o.doc.Type == "Organization" }

// DisplayName returns the profile name, falling back to the login
func (o *Owner) DisplayName() string {
	if strings.TrimSpace(o.doc.Name) == "" {
		return o.doc.Login
	}
	return o.doc.Name
}

// Repositories lists the owner's non-fork repositories, fetched once and
// cached on the instance for the rest of the run
func (o *Owner) Repositories(ctx context.Context) ([]*Repository, error) {
	o.reposOnce.Do(func() {
		docs, err := o.c.OwnerRepos(ctx, o.doc.Login)
		if err != nil {
			o.reposErr = err
			return
		}
		o.repos = make([]*Repository, 0, len(docs))
		for _, d := range docs {
			o.repos = append(o.repos, &Repository{doc: d, c: o.c})
		}
	})
	return o.repos, o.reposErr
}

// Members lists an organization's member documents, fetched once and cached.
// Calling it on a user is a programmer error
func (o *Owner) Members(ctx context.Context) ([]OwnerDoc, error) {
	if !o.IsOrganization() {
		return nil, perr.InvalidArgf("owner %s is not an organization", o.doc.Login)
	}
	o.membersOnce.Do(func() {
		o.members, o.membersErr = o.c.OrgMembers(ctx, o.doc.Login)
	})
	return o.members, o.membersErr
}

// Repository is a remote repository with a memoized tree snapshot
type Repository struct {
	doc RepoDoc
	c   *Client

	contentsOnce sync.Once
	contents     []Blob
	contentsErr  error
}

// NewRepository wraps a fetched repository document
func NewRepository(c *Client, doc RepoDoc) *Repository { return &Repository{doc: doc, c: c} }

// Doc returns the underlying repository document
func (r *Repository) Doc() RepoDoc { return r.doc }

// FullName returns "owner/name"
func (r *Repository) FullName() string { return r.doc.FullName }

// DefaultBranch returns the branch the tree snapshot is taken at
func (r *Repository) DefaultBranch() string {
	if r.doc.DefaultBranch == "" {
		return "master"
	}
	return r.doc.DefaultBranch
}

// Contents fetches the recursive blob listing at the default branch, once.
// Empty (409) and missing (404) repositories read as an empty listing, as
// does the access-blocked 403 marker; every other error propagates
func (r *Repository) Contents(ctx context.Context) ([]Blob, error) {
	r.contentsOnce.Do(func() {
		blobs, err := r.c.RepoTree(ctx, r.doc.FullName, r.DefaultBranch())
		if err != nil {
			if emptyTreeError(err) {
				return
			}
			r.contentsErr = err
			return
		}
		r.contents = blobs
	})
	return r.contents, r.contentsErr
}

// FileContent reads one file's raw content at the default branch (display only)
func (r *Repository) FileContent(ctx context.Context, path string) ([]byte, error) {
	return r.c.FileContent(ctx, r.doc.FullName, path, r.DefaultBranch())
}

// emptyTreeError reports whether a tree fetch error means "no contents"
// rather than a real failure
func emptyTreeError(err error) bool {
	if IsStatus(err, 404) || IsStatus(err, 409) {
		return true
	}
	return IsStatus(err, 403) && strings.Contains(StatusBody(err), accessBlockedMarker)
}
