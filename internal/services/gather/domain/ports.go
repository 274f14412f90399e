package domain

import "context"

// RepoGatherFunc is invoked once per owner whose repositories were listed
type RepoGatherFunc func(owner Owner, repos []Repository)

// RepoErrorFunc is invoked once per owner whose repository listing failed;
// the caller decides whether to log and continue
type RepoErrorFunc func(owner Owner, err error)

// GathererPort is the gathering service's public surface
type GathererPort interface {
	// GatherOwners resolves the given logins into owners, expanding
	// organizations into their members. Unresolvable logins are recorded
	// rather than failing the run
	GatherOwners(ctx context.Context, logins []string) error

	// GatherRepositories lists every gathered owner's non-fork
	// repositories concurrently. Per-owner outcomes are delivered through
	// the callbacks; onEach and onErr may be nil
	GatherRepositories(ctx context.Context, onEach RepoGatherFunc, onErr RepoErrorFunc) error

	// BlobsForRepository returns the flattened default-branch tree of a
	// previously gathered repository; unreadable trees read as empty
	BlobsForRepository(ctx context.Context, repo Repository) ([]Blob, error)

	Owners() []Owner
	Repositories() []Repository
	RepositoriesFor(login string) []Repository
	UnknownLogins() []string
}
