package repo

import (
	"context"

	"leakhound/internal/modkit/repokit"
	perr "leakhound/internal/platform/errors"
)

// ddl is the assessment tree schema, applied idempotently at startup
const ddl = `
CREATE TABLE IF NOT EXISTS assessments (
	id                  UUID PRIMARY KEY,
	name                TEXT NOT NULL,
	endpoint            TEXT NOT NULL DEFAULT '',
	finished            BOOLEAN NOT NULL DEFAULT FALSE,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	owners_count        INTEGER NOT NULL DEFAULT 0,
	repositories_count  INTEGER NOT NULL DEFAULT 0,
	blobs_count         INTEGER NOT NULL DEFAULT 0,
	findings_count      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS owners (
	id                  BIGSERIAL PRIMARY KEY,
	assessment_id       UUID NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
	login               TEXT NOT NULL,
	kind                TEXT NOT NULL,
	display_name        TEXT NOT NULL DEFAULT '',
	url                 TEXT NOT NULL DEFAULT '',
	avatar_url          TEXT NOT NULL DEFAULT '',
	email               TEXT NOT NULL DEFAULT '',
	location            TEXT NOT NULL DEFAULT '',
	bio                 TEXT NOT NULL DEFAULT '',
	repositories_count  INTEGER NOT NULL DEFAULT 0,
	blobs_count         INTEGER NOT NULL DEFAULT 0,
	findings_count      INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS owners_assessment_idx ON owners (assessment_id);

CREATE TABLE IF NOT EXISTS repositories (
	id              BIGSERIAL PRIMARY KEY,
	assessment_id   UUID NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
	owner_id        BIGINT NOT NULL REFERENCES owners(id) ON DELETE CASCADE,
	name            TEXT NOT NULL,
	full_name       TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	homepage        TEXT NOT NULL DEFAULT '',
	html_url        TEXT NOT NULL DEFAULT '',
	default_branch  TEXT NOT NULL DEFAULT 'master',
	private         BOOLEAN NOT NULL DEFAULT FALSE,
	blobs_count     INTEGER NOT NULL DEFAULT 0,
	findings_count  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS repositories_assessment_idx ON repositories (assessment_id);
CREATE INDEX IF NOT EXISTS repositories_owner_idx ON repositories (owner_id);

CREATE TABLE IF NOT EXISTS blobs (
	id             BIGSERIAL PRIMARY KEY,
	assessment_id  UUID NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
	owner_id       BIGINT NOT NULL REFERENCES owners(id) ON DELETE CASCADE,
	repository_id  BIGINT NOT NULL REFERENCES repositories(id) ON DELETE CASCADE,
	path           TEXT NOT NULL,
	size           BIGINT NOT NULL DEFAULT 0,
	sha            TEXT NOT NULL DEFAULT '',
	fingerprint    TEXT NOT NULL,
	flags_count    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS blobs_repository_idx ON blobs (repository_id);
CREATE INDEX IF NOT EXISTS blobs_fingerprint_idx ON blobs (fingerprint);

CREATE TABLE IF NOT EXISTS flags (
	id             BIGSERIAL PRIMARY KEY,
	assessment_id  UUID NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
	blob_id        BIGINT NOT NULL REFERENCES blobs(id) ON DELETE CASCADE,
	caption        TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS flags_blob_idx ON flags (blob_id);

CREATE TABLE IF NOT EXISTS false_positives (
	fingerprint  TEXT PRIMARY KEY,
	path         TEXT NOT NULL DEFAULT '',
	full_name    TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema applies the assessment schema; safe to run on every start
func EnsureSchema(ctx context.Context, q repokit.Queryer) error {
	if _, err := q.Exec(ctx, ddl); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "apply schema failed")
	}
	return nil
}
