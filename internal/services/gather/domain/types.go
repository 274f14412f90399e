// Package domain defines the gathering service's types and ports
package domain

import (
	"path"
	"strings"
)

// OwnerKind distinguishes user accounts from organizations
type OwnerKind string

// OwnerKind values mirror the hosting API's type field
const (
	KindUser         OwnerKind = "User"
	KindOrganization OwnerKind = "Organization"
)

// Owner is a discovered user or organization
type Owner struct {
	Login       string
	Kind        OwnerKind
	DisplayName string
	URL         string
	AvatarURL   string
	Email       string
	Location    string
	Bio         string
}

// Repository is a discovered non-fork repository
type Repository struct {
	OwnerLogin    string
	Name          string
	FullName      string
	Description   string
	Homepage      string
	HTMLURL       string
	DefaultBranch string
	Private       bool
}

// Blob is one file descriptor in a repository tree snapshot
type Blob struct {
	Path string
	Size int64
	SHA  string
}

// largeBlobThreshold is the size above which a blob is considered large
const largeBlobThreshold = 102_400

// testIndicators mark paths that likely belong to test scaffolding
var testIndicators = []string{"test", "spec", "fixture", "mock", "stub", "fake", "demo", "sample"}

// Filename returns the final path element
func (b Blob) Filename() string { return path.Base(b.Path) }

// Extension returns the extension without the dot, keeping stored case;
// dotfiles read as extensionless
func (b Blob) Extension() string {
	base := path.Base(b.Path)
	ext := path.Ext(base)
	if ext == base || ext == "" {
		return ""
	}
	return ext[1:]
}

// IsTestRelated reports whether the path smells like test scaffolding
func (b Blob) IsTestRelated() bool {
	lower := strings.ToLower(b.Path)
	for _, ind := range testIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

// IsLarge reports whether the blob exceeds the large-blob threshold
func (b Blob) IsLarge() bool { return b.Size > largeBlobThreshold }

// HTMLURL builds the display URL for the blob within its repository
func (b Blob) HTMLURL(repoHTMLURL, branch string) string {
	return repoHTMLURL + "/blob/" + branch + "/" + b.Path
}

// HistoryURL builds the commit-history display URL for the blob
func (b Blob) HistoryURL(repoHTMLURL, branch string) string {
	return repoHTMLURL + "/commits/" + branch + "/" + b.Path
}
