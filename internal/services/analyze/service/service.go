// Package service contains the assessment pipeline
package service

import (
	"context"
	"strings"
	"sync"

	"leakhound/internal/core/signatures"
	"leakhound/internal/modkit"
	"leakhound/internal/modkit/repokit"
	perr "leakhound/internal/platform/errors"
	pstrings "leakhound/internal/platform/strings"
	"leakhound/internal/services/analyze/domain"
	"leakhound/internal/services/analyze/repo"

	gatherdom "leakhound/internal/services/gather/domain"
)

// Service defines the assessment pipeline contract
type Service interface {
	domain.RunnerPort
}

// Config carries runtime knobs for the pipeline workers
type Config struct {
	Workers int
}

// Svc implements the assessment pipeline
type Svc struct {
	Repo     repo.Storage
	Binder   repokit.Binder[repo.Storage]
	db       repokit.TxRunner
	deps     modkit.Deps
	config   Config
	sigs     *signatures.Set
	source   gatherdom.GathererPort
	progress domain.ProgressPort
}

// New constructs the assessment pipeline service
func New(
	deps modkit.Deps,
	cfg Config,
	sigs *signatures.Set,
	source gatherdom.GathererPort,
	progress domain.ProgressPort,
) *Svc {
	if deps.PG == nil {
		panic("analyze.Service requires a non nil TxRunner")
	}
	if sigs == nil {
		panic("analyze.Service requires a signature set")
	}
	if source == nil {
		panic("analyze.Service requires a gatherer")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	if progress == nil {
		progress = domain.NopProgress{}
	}

	b := repo.NewPG()
	return &Svc{
		Repo:     repokit.MustBind(b, deps.PG),
		Binder:   b,
		db:       deps.PG,
		deps:     deps,
		config:   cfg,
		sigs:     sigs,
		source:   source,
		progress: progress,
	}
}

var _ Service = (*Svc)(nil)

// Run implements domain.RunnerPort
func (s *Svc) Run(ctx context.Context, params domain.RunParams) (domain.Summary, error) {
	if len(params.Targets) == 0 {
		return domain.Summary{}, perr.InvalidArgf("no targets given")
	}
	if s.sigs.Len() == 0 {
		return domain.Summary{}, perr.Validationf("signature set is empty")
	}

	name := params.Name
	if name == "" {
		name = strings.Join(params.Targets, ", ")
	}
	assessment, err := s.Repo.CreateAssessment(ctx, name, params.Endpoint)
	if err != nil {
		return domain.Summary{}, err
	}

	s.progress.Phase("Gathering accounts")
	if err := s.source.GatherOwners(ctx, params.Targets); err != nil {
		return domain.Summary{Assessment: assessment}, err
	}
	for _, login := range s.source.UnknownLogins() {
		s.progress.Warn("Unknown login: %s", login)
	}

	owners := s.source.Owners()
	if len(owners) == 0 {
		return domain.Summary{Assessment: assessment, Unknown: s.source.UnknownLogins()},
			perr.NotFoundf("no accounts found for the given targets")
	}

	ownerIDs := make(map[string]int64, len(owners))
	for _, o := range owners {
		id, err := s.Repo.SaveOwner(ctx, assessment.ID, o)
		if err != nil {
			return domain.Summary{Assessment: assessment}, err
		}
		ownerIDs[o.Login] = id
	}
	s.progress.Info("Gathered %s", pstrings.Pluralize(len(owners), "account", "accounts"))

	s.progress.Phase("Gathering repositories")
	err = s.source.GatherRepositories(ctx,
		func(owner gatherdom.Owner, repos []gatherdom.Repository) {
			s.progress.Info("Found %s for %s",
				pstrings.Pluralize(len(repos), "repository", "repositories"), owner.Login)
		},
		func(owner gatherdom.Owner, err error) {
			s.progress.Error("Could not list repositories for %s: %v", owner.Login, err)
		},
	)
	if err != nil {
		return domain.Summary{Assessment: assessment}, err
	}
	if len(s.source.Repositories()) == 0 {
		return domain.Summary{Assessment: assessment, Unknown: s.source.UnknownLogins()},
			perr.NotFoundf("no repositories found for the given targets")
	}

	falsePositives, err := s.Repo.FalsePositiveFingerprints(ctx)
	if err != nil {
		return domain.Summary{Assessment: assessment}, err
	}

	s.progress.Phase("Analyzing repositories")
	for _, o := range owners {
		repos := s.source.RepositoriesFor(o.Login)
		if len(repos) == 0 {
			continue
		}
		s.analyzeOwner(ctx, assessment.ID, ownerIDs[o.Login], o, repos, falsePositives)
	}

	if err := s.Repo.MarkFinished(ctx, assessment.ID); err != nil {
		return domain.Summary{Assessment: assessment}, err
	}
	final, err := s.Repo.GetAssessment(ctx, assessment.ID)
	if err != nil {
		return domain.Summary{Assessment: assessment}, err
	}
	return domain.Summary{Assessment: final, Unknown: s.source.UnknownLogins()}, nil
}

// analyzeOwner pushes one owner's repositories through the worker pool.
// Repository failures are reported and skipped so siblings keep going
func (s *Svc) analyzeOwner(
	ctx context.Context,
	assessmentID string,
	ownerID int64,
	owner gatherdom.Owner,
	repos []gatherdom.Repository,
	falsePositives map[string]struct{},
) {
	jobs := make(chan gatherdom.Repository)
	results := make(chan domain.RepoResult)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range jobs {
				results <- s.analyzeRepository(ctx, assessmentID, ownerID, r, falsePositives)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, r := range repos {
			select {
			case jobs <- r:
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
		if res.Err != nil {
			s.progress.Error("Could not analyze %s: %v", res.Repository.FullName, res.Err)
			continue
		}
		s.progress.Info("%s: %s, %s",
			res.Repository.FullName,
			pstrings.Pluralize(res.Blobs, "blob", "blobs"),
			pstrings.Pluralize(res.Findings, "finding", "findings"))
	}
}

// analyzeRepository classifies every blob in a repository's default-branch
// tree and persists the repository, its blobs and the rolled-up counters in
// one transaction, so a mid-repo failure leaves no partial rows behind.
// Known false-positive fingerprints skip classification but the blob row is
// still written
func (s *Svc) analyzeRepository(
	ctx context.Context,
	assessmentID string,
	ownerID int64,
	r gatherdom.Repository,
	falsePositives map[string]struct{},
) domain.RepoResult {
	out := domain.RepoResult{Repository: r}

	blobs, err := s.source.BlobsForRepository(ctx, r)
	if err != nil {
		out.Err = err
		return out
	}

	out.Err = repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		st := s.Binder.Bind(q)

		repoID, err := st.SaveRepository(ctx, assessmentID, ownerID, r)
		if err != nil {
			return err
		}

		saved, findings := 0, 0
		for _, b := range blobs {
			rec := domain.BlobRecord{
				AssessmentID: assessmentID,
				OwnerID:      ownerID,
				RepositoryID: repoID,
				Path:         b.Path,
				Size:         b.Size,
				SHA:          b.SHA,
				Fingerprint:  Fingerprint(r.FullName, b.Path, b.SHA),
			}
			if _, known := falsePositives[rec.Fingerprint]; !known {
				for _, f := range s.sigs.Observe(b.Path) {
					rec.Findings = append(rec.Findings, domain.Finding{
						Caption:     f.Caption,
						Description: f.Description,
					})
				}
			}
			if _, err := st.SaveBlob(ctx, rec); err != nil {
				return err
			}
			saved++
			if len(rec.Findings) > 0 {
				// one finding per flagged blob regardless of how many signatures hit
				findings++
			}
		}

		if err := st.BumpCounts(ctx, assessmentID, ownerID, repoID, saved, findings); err != nil {
			return err
		}
		out.Blobs, out.Findings = saved, findings
		return nil
	})
	return out
}
