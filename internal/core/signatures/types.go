// Package signatures loads, validates, and matches the sensitive-file
// signature library against repository file paths
package signatures

import (
	"path"
	"regexp"
	"strings"
)

// Part names the blob attribute a rule inspects
type Part string

// Part values
const (
	PartPath      Part = "path"
	PartFilename  Part = "filename"
	PartExtension Part = "extension"
)

// Kind names the comparison a rule applies
type Kind string

// Kind values
const (
	// KindMatch is case-sensitive exact equality
	KindMatch Kind = "match"
	// KindRegex is a case-insensitive unanchored search
	KindRegex Kind = "regex"
)

// Signature is one classification rule with its human-readable labels
type Signature struct {
	Part        Part   `json:"part"`
	Kind        Kind   `json:"type"`
	Pattern     string `json:"pattern"`
	Caption     string `json:"caption"`
	Description string `json:"description"`

	re *regexp.Regexp // compiled for KindRegex
}

// IgnoreRule suppresses classification for matching blobs; same shape as a
// signature minus the labels
type IgnoreRule struct {
	Part    Part   `json:"part"`
	Kind    Kind   `json:"type"`
	Pattern string `json:"pattern"`

	re *regexp.Regexp
}

// Flag is the result of one signature matching one blob
type Flag struct {
	Caption     string
	Description string
}

// PartValue extracts the named attribute from a blob path.
// Extension keeps the case exactly as stored in the tree, so
// "keys/server.PEM" yields extension "PEM"
func PartValue(blobPath string, part Part) string {
	switch part {
	case PartFilename:
		return path.Base(blobPath)
	case PartExtension:
		base := path.Base(blobPath)
		ext := path.Ext(base)
		if ext == base {
			// dotfiles like ".netrc" have no extension
			return ""
		}
		return strings.TrimPrefix(ext, ".")
	default:
		return blobPath
	}
}

// matches applies the match/regex test shared by signatures and ignore rules
func matches(kind Kind, pattern string, re *regexp.Regexp, haystack string) bool {
	if kind == KindMatch {
		return haystack == pattern
	}
	return re.MatchString(haystack)
}
