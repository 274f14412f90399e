// Package domain defines the assessment pipeline's types and ports
package domain

import (
	"time"

	gatherdom "leakhound/internal/services/gather/domain"
)

// Assessment is one complete run of the pipeline over a set of targets
type Assessment struct {
	ID        string
	Name      string
	Endpoint  string
	Finished  bool
	CreatedAt time.Time

	OwnersCount       int
	RepositoriesCount int
	BlobsCount        int
	FindingsCount     int
}

// Finding is one signature flag raised against a persisted blob
type Finding struct {
	Caption     string
	Description string
}

// BlobRecord is a persisted blob with its fingerprint and raised flags
type BlobRecord struct {
	AssessmentID string
	OwnerID      int64
	RepositoryID int64

	Path        string
	Size        int64
	SHA         string
	Fingerprint string

	Findings []Finding
}

// RepoResult summarizes one repository's trip through the pipeline
type RepoResult struct {
	Repository gatherdom.Repository
	Blobs      int
	Findings   int
	Err        error
}

// Summary is what a finished (or failed partway) run reports back
type Summary struct {
	Assessment Assessment
	Unknown    []string
}

// RunParams carries per-run inputs the caller decides at invocation time
type RunParams struct {
	Name     string
	Endpoint string
	Targets  []string
}
