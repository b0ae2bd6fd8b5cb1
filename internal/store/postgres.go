package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wandero/activity-ingest-service/internal/domain"
)

// pool is the subset of pgxpool.Pool the store uses, so unit tests can
// substitute a pgxmock pool.
type pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// Postgres implements Upserter on a pgx connection pool.
type Postgres struct {
	pool pool
}

// NewPostgres connects a pool to the given database URL.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	p, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Postgres{pool: p}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS activities (
	id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	title        TEXT        NOT NULL,
	description  TEXT        NOT NULL DEFAULT '',
	location     TEXT        NOT NULL DEFAULT '',
	date_time    TIMESTAMPTZ NOT NULL,
	price        NUMERIC(10,2),
	age_group    TEXT        NOT NULL DEFAULT 'all-ages',
	category     TEXT        NOT NULL DEFAULT 'general',
	organizer    TEXT        NOT NULL DEFAULT '',
	external_url TEXT        NOT NULL UNIQUE,
	image_url    TEXT,
	tags         TEXT[]      NOT NULL DEFAULT '{}',
	latitude     DOUBLE PRECISION,
	longitude    DOUBLE PRECISION,
	source       TEXT        NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activities_category  ON activities(category);
CREATE INDEX IF NOT EXISTS idx_activities_location  ON activities(location);
CREATE INDEX IF NOT EXISTS idx_activities_date_time ON activities(date_time);
`

// Migrate creates the activities table and its query indexes.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

const upsertSQL = `
INSERT INTO activities (
	title, description, location, date_time, price, age_group, category,
	organizer, external_url, image_url, tags, latitude, longitude, source,
	created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
ON CONFLICT (external_url) DO NOTHING`

// UpsertBatch inserts the batch in one transaction with insert-or-ignore
// semantics on external_url, and returns how many rows were actually
// inserted. A record whose URL already exists is dropped entirely — fields
// are not refreshed, so a listing that changed on the source site keeps its
// original row until its URL changes.
func (s *Postgres) UpsertBatch(ctx context.Context, activities []domain.CanonicalActivity) (int, error) {
	if len(activities) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", ErrUpsertFailed, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	inserted := 0
	for _, act := range activities {
		tag, err := tx.Exec(ctx, upsertSQL,
			act.Title,
			act.Description,
			act.Location,
			act.DateTime,
			act.Price,
			act.AgeGroup,
			act.Category,
			act.Organizer,
			act.ExternalURL,
			nullIfEmpty(act.ImageURL),
			act.Tags,
			act.Latitude,
			act.Longitude,
			act.Source,
			act.CreatedAt,
			act.UpdatedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("%w: insert %s: %v", ErrUpsertFailed, act.ExternalURL, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", ErrUpsertFailed, err)
	}

	return inserted, nil
}

// Ping reports store reachability, used by the readiness endpoint.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
