// Package service contains the account and repository gathering workflows
package service

import (
	"context"
	"sync"

	"leakhound/internal/modkit"
	perr "leakhound/internal/platform/errors"
	"leakhound/internal/services/gather/domain"

	gh "leakhound/internal/adapters/github"
)

// Service defines the gathering service contract
type Service interface {
	domain.GathererPort
}

// Config carries runtime knobs for the gathering workers
type Config struct {
	Workers int
}

// Svc implements the gathering service
type Svc struct {
	deps   modkit.Deps
	config Config
	gh     *gh.Client

	mu            sync.Mutex
	owners        []*gh.Owner
	ownersByLogin map[string]*gh.Owner
	reposByOwner  map[string][]*gh.Repository
	reposByName   map[string]*gh.Repository
	repos         []*gh.Repository
	unknown       []string
}

// New constructs a gathering service around the given API client
func New(deps modkit.Deps, client *gh.Client, cfg Config) *Svc {
	if client == nil {
		panic("gather.Service requires a non nil client")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	return &Svc{
		deps:          deps,
		config:        cfg,
		gh:            client,
		ownersByLogin: make(map[string]*gh.Owner),
		reposByOwner:  make(map[string][]*gh.Repository),
		reposByName:   make(map[string]*gh.Repository),
	}
}

var _ Service = (*Svc)(nil)

// GatherOwners resolves logins into owners, expanding organizations into
// their members. Logins that do not resolve are recorded as unknown and the
// run continues
func (s *Svc) GatherOwners(ctx context.Context, logins []string) error {
	for _, login := range logins {
		doc, err := s.gh.OwnerByLogin(ctx, login)
		if err != nil {
			if gh.IsStatus(err, 404) {
				s.recordUnknown(login)
				continue
			}
			return err
		}
		owner := gh.NewOwner(s.gh, doc)
		if !s.recordOwner(owner) {
			continue
		}
		if owner.IsOrganization() {
			if err := s.gatherMembers(ctx, owner); err != nil {
				return err
			}
		}
	}
	return nil
}

// gatherMembers fans member lookups out over a bounded worker pool; a single
// collector goroutine owns the accumulator so workers never touch shared state
func (s *Svc) gatherMembers(ctx context.Context, org *gh.Owner) error {
	members, err := org.Members(ctx)
	if err != nil {
		return err
	}

	type result struct {
		login string
		owner *gh.Owner
		err   error
	}

	jobs := make(chan string)
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for login := range jobs {
				doc, err := s.gh.OwnerByLogin(ctx, login)
				var owner *gh.Owner
				if err == nil {
					owner = gh.NewOwner(s.gh, doc)
				}
				results <- result{login: login, owner: owner, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, m := range members {
			select {
			case jobs <- m.Login:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for res := range results {
		switch {
		case res.err != nil && gh.IsStatus(res.err, 404):
			s.recordUnknown(res.login)
		case res.err != nil:
			if firstErr == nil {
				firstErr = res.err
			}
		default:
			s.recordOwner(res.owner)
		}
	}
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// GatherRepositories lists every gathered owner's repositories over the
// worker pool. Per-owner outcomes are handed to the callbacks; listing
// failures do not stop sibling owners
func (s *Svc) GatherRepositories(ctx context.Context, onEach domain.RepoGatherFunc, onErr domain.RepoErrorFunc) error {
	s.mu.Lock()
	owners := make([]*gh.Owner, len(s.owners))
	copy(owners, s.owners)
	s.mu.Unlock()

	type result struct {
		owner *gh.Owner
		repos []*gh.Repository
		err   error
	}

	jobs := make(chan *gh.Owner)
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for owner := range jobs {
				repos, err := owner.Repositories(ctx)
				results <- result{owner: owner, repos: repos, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, o := range owners {
			select {
			case jobs <- o:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if res.err != nil {
			if onErr != nil {
				onErr(ownerView(res.owner), res.err)
			}
			continue
		}
		s.recordRepos(res.owner, res.repos)
		if onEach != nil {
			onEach(ownerView(res.owner), repoViews(res.repos))
		}
	}
	return ctx.Err()
}

// BlobsForRepository returns the flattened default-branch tree of a gathered
// repository. Empty, missing and access-blocked repositories read as empty
func (s *Svc) BlobsForRepository(ctx context.Context, repo domain.Repository) ([]domain.Blob, error) {
	s.mu.Lock()
	remote, ok := s.reposByName[repo.FullName]
	s.mu.Unlock()
	if !ok {
		return nil, perr.NotFoundf("repository %q was not gathered", repo.FullName)
	}

	raw, err := remote.Contents(ctx)
	if err != nil {
		return nil, err
	}
	blobs := make([]domain.Blob, 0, len(raw))
	for _, b := range raw {
		blobs = append(blobs, domain.Blob{Path: b.Path, Size: b.Size, SHA: b.SHA})
	}
	return blobs, nil
}

// Owners returns the gathered owners in discovery order
func (s *Svc) Owners() []domain.Owner {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Owner, 0, len(s.owners))
	for _, o := range s.owners {
		out = append(out, ownerView(o))
	}
	return out
}

// Repositories returns every gathered repository across all owners
func (s *Svc) Repositories() []domain.Repository {
	s.mu.Lock()
	defer s.mu.Unlock()
	return repoViews(s.repos)
}

// RepositoriesFor returns the gathered repositories for one owner login
func (s *Svc) RepositoriesFor(login string) []domain.Repository {
	s.mu.Lock()
	defer s.mu.Unlock()
	return repoViews(s.reposByOwner[login])
}

// UnknownLogins returns the logins that did not resolve to any account
func (s *Svc) UnknownLogins() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.unknown))
	copy(out, s.unknown)
	return out
}

// recordOwner appends the owner unless its login was already gathered
func (s *Svc) recordOwner(owner *gh.Owner) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.ownersByLogin[owner.Login()]; seen {
		return false
	}
	s.ownersByLogin[owner.Login()] = owner
	s.owners = append(s.owners, owner)
	return true
}

func (s *Svc) recordUnknown(login string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unknown = append(s.unknown, login)
}

func (s *Svc) recordRepos(owner *gh.Owner, repos []*gh.Repository) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reposByOwner[owner.Login()] = repos
	for _, r := range repos {
		s.reposByName[r.FullName()] = r
		s.repos = append(s.repos, r)
	}
}
