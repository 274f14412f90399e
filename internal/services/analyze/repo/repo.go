// Package repo provides the assessment repository implementation.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"leakhound/internal/modkit/repokit"
	perr "leakhound/internal/platform/errors"
	"leakhound/internal/services/analyze/domain"

	gatherdom "leakhound/internal/services/gather/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the assessment repository
type Storage interface {
	CreateAssessment(ctx context.Context, name, endpoint string) (domain.Assessment, error)
	SaveOwner(ctx context.Context, assessmentID string, o gatherdom.Owner) (int64, error)
	SaveRepository(ctx context.Context, assessmentID string, ownerID int64, r gatherdom.Repository) (int64, error)
	SaveBlob(ctx context.Context, rec domain.BlobRecord) (int64, error)

	// BumpCounts applies one repository's blob and finding totals up the
	// tree: repository, owner and assessment counters move together
	BumpCounts(ctx context.Context, assessmentID string, ownerID, repoID int64, blobs, findings int) error

	FalsePositiveFingerprints(ctx context.Context) (map[string]struct{}, error)
	MarkFinished(ctx context.Context, assessmentID string) error
	GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error)
}

// CreateAssessment implements Storage
func (s *pg) CreateAssessment(ctx context.Context, name, endpoint string) (domain.Assessment, error) {
	a := domain.Assessment{
		ID:        uuid.NewString(),
		Name:      name,
		Endpoint:  endpoint,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO assessments (id, name, endpoint, finished, created_at)
		VALUES ($1, $2, $3, FALSE, $4)`,
		a.ID, a.Name, a.Endpoint, a.CreatedAt,
	)
	if err != nil {
		return domain.Assessment{}, perr.Wrap(err, perr.ErrorCodeDB, "create assessment failed")
	}
	return a, nil
}

// SaveOwner implements Storage; the assessment owner counter moves with it
func (s *pg) SaveOwner(ctx context.Context, assessmentID string, o gatherdom.Owner) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx, `
		INSERT INTO owners
			(assessment_id, login, kind, display_name, url, avatar_url, email, location, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		assessmentID, o.Login, string(o.Kind), o.DisplayName, o.URL, o.AvatarURL, o.Email, o.Location, o.Bio,
	).Scan(&id)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeDB, "save owner %s failed", o.Login)
	}
	_, err = s.q.Exec(ctx,
		`UPDATE assessments SET owners_count = owners_count + 1 WHERE id = $1`, assessmentID)
	if err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeDB, "bump assessment owners failed")
	}
	return id, nil
}

// SaveRepository implements Storage; owner and assessment repo counters move with it
func (s *pg) SaveRepository(
	ctx context.Context,
	assessmentID string,
	ownerID int64,
	r gatherdom.Repository,
) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx, `
		INSERT INTO repositories
			(assessment_id, owner_id, name, full_name, description, homepage,
			html_url, default_branch, private)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		assessmentID, ownerID, r.Name, r.FullName, r.Description, r.Homepage,
		r.HTMLURL, r.DefaultBranch, r.Private,
	).Scan(&id)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeDB, "save repository %s failed", r.FullName)
	}
	_, err = s.q.Exec(ctx, `
		UPDATE assessments SET repositories_count = repositories_count + 1 WHERE id = $1`,
		assessmentID)
	if err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeDB, "bump assessment repositories failed")
	}
	_, err = s.q.Exec(ctx, `
		UPDATE owners SET repositories_count = repositories_count + 1 WHERE id = $1`,
		ownerID)
	if err != nil {
		return 0, perr.Wrap(err, perr.ErrorCodeDB, "bump owner repositories failed")
	}
	return id, nil
}

// SaveBlob implements Storage, persisting the blob row and its flags together
func (s *pg) SaveBlob(ctx context.Context, rec domain.BlobRecord) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx, `
		INSERT INTO blobs
			(assessment_id, owner_id, repository_id, path, size, sha, fingerprint, flags_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		rec.AssessmentID, rec.OwnerID, rec.RepositoryID,
		rec.Path, rec.Size, rec.SHA, rec.Fingerprint, len(rec.Findings),
	).Scan(&id)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeDB, "save blob %s failed", rec.Path)
	}
	for _, f := range rec.Findings {
		_, err := s.q.Exec(ctx, `
			INSERT INTO flags (assessment_id, blob_id, caption, description)
			VALUES ($1, $2, $3, $4)`,
			rec.AssessmentID, id, f.Caption, f.Description)
		if err != nil {
			return 0, perr.Wrapf(err, perr.ErrorCodeDB, "save flag for blob %s failed", rec.Path)
		}
	}
	return id, nil
}

// BumpCounts implements Storage
func (s *pg) BumpCounts(
	ctx context.Context,
	assessmentID string,
	ownerID, repoID int64,
	blobs, findings int,
) error {
	if blobs == 0 && findings == 0 {
		return nil
	}
	_, err := s.q.Exec(ctx, `
		UPDATE repositories
		SET blobs_count = blobs_count + $2, findings_count = findings_count + $3
		WHERE id = $1`,
		repoID, blobs, findings)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "bump repository counts failed")
	}
	_, err = s.q.Exec(ctx, `
		UPDATE owners
		SET blobs_count = blobs_count + $2, findings_count = findings_count + $3
		WHERE id = $1`,
		ownerID, blobs, findings)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "bump owner counts failed")
	}
	_, err = s.q.Exec(ctx, `
		UPDATE assessments
		SET blobs_count = blobs_count + $2, findings_count = findings_count + $3
		WHERE id = $1`,
		assessmentID, blobs, findings)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "bump assessment counts failed")
	}
	return nil
}

// FalsePositiveFingerprints implements Storage
func (s *pg) FalsePositiveFingerprints(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.q.Query(ctx, `SELECT fingerprint FROM false_positives`)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "list false positives failed")
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeDB, "scan false positive failed")
		}
		out[fp] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "iterate false positives failed")
	}
	return out, nil
}

// MarkFinished implements Storage
func (s *pg) MarkFinished(ctx context.Context, assessmentID string) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE assessments SET finished = TRUE WHERE id = $1`, assessmentID)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "mark finished failed")
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("assessment %s not found", assessmentID)
	}
	return nil
}

// GetAssessment implements Storage
func (s *pg) GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error) {
	var a domain.Assessment
	err := s.q.QueryRow(ctx, `
		SELECT id, name, endpoint, finished, created_at,
			owners_count, repositories_count, blobs_count, findings_count
		FROM assessments WHERE id = $1`,
		assessmentID,
	).Scan(
		&a.ID, &a.Name, &a.Endpoint, &a.Finished, &a.CreatedAt,
		&a.OwnersCount, &a.RepositoriesCount, &a.BlobsCount, &a.FindingsCount,
	)
	if err != nil {
		return domain.Assessment{}, perr.Wrapf(err, perr.ErrorCodeDB, "get assessment %s failed", assessmentID)
	}
	return a, nil
}
