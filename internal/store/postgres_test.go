package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandero/activity-ingest-service/internal/domain"
)

// newMockStore creates a Postgres store backed by pgxmock for unit testing.
func newMockStore(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &Postgres{pool: mock}, mock
}

func testActivity(url string) domain.CanonicalActivity {
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	price := 5.5
	lat, lng := 53.8008, -1.5491
	return domain.CanonicalActivity{
		Title:       "Family Science Day",
		Description: "Family Science Day",
		Location:    "Leeds City Museum",
		DateTime:    now,
		Price:       &price,
		AgeGroup:    "all-ages",
		Category:    "general",
		Organizer:   "Eventbrite",
		ExternalURL: url,
		Tags:        []string{"kids", "family"},
		Latitude:    &lat,
		Longitude:   &lng,
		Source:      "eventbrite",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func expectInsert(mock pgxmock.PgxPoolIface, url string, rowsAffected int64) {
	mock.ExpectExec(`INSERT INTO activities`).
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			url,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", rowsAffected))
}

func TestUpsertBatch_InsertsAll(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	expectInsert(mock, "https://www.eventbrite.com/e/1", 1)
	expectInsert(mock, "https://www.eventbrite.com/e/2", 1)
	mock.ExpectCommit()

	inserted, err := s.UpsertBatch(context.Background(), []domain.CanonicalActivity{
		testActivity("https://www.eventbrite.com/e/1"),
		testActivity("https://www.eventbrite.com/e/2"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBatch_DuplicatesIgnored(t *testing.T) {
	s, mock := newMockStore(t)

	// Conflicting rows report zero rows affected under DO NOTHING.
	mock.ExpectBegin()
	expectInsert(mock, "https://www.eventbrite.com/e/1", 0)
	expectInsert(mock, "https://www.eventbrite.com/e/2", 1)
	mock.ExpectCommit()

	inserted, err := s.UpsertBatch(context.Background(), []domain.CanonicalActivity{
		testActivity("https://www.eventbrite.com/e/1"),
		testActivity("https://www.eventbrite.com/e/2"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted, "only newly inserted rows are counted")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBatch_Idempotent(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	expectInsert(mock, "https://www.eventbrite.com/e/1", 0)
	mock.ExpectCommit()

	inserted, err := s.UpsertBatch(context.Background(), []domain.CanonicalActivity{
		testActivity("https://www.eventbrite.com/e/1"),
	})
	require.NoError(t, err)
	assert.Zero(t, inserted, "re-ingesting an unchanged batch inserts nothing")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBatch_EmptyBatch(t *testing.T) {
	s, mock := newMockStore(t)

	inserted, err := s.UpsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet(), "no statements issued for an empty batch")
}

func TestUpsertBatch_InsertFailureRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO activities`).
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(errors.New("value too long for type"))
	mock.ExpectRollback()

	_, err := s.UpsertBatch(context.Background(), []domain.CanonicalActivity{
		testActivity("https://www.eventbrite.com/e/1"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpsertFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertBatch_BeginFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := s.UpsertBatch(context.Background(), []domain.CanonicalActivity{
		testActivity("https://www.eventbrite.com/e/1"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpsertFailed)
}

func TestUpsertBatch_CommitFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	expectInsert(mock, "https://www.eventbrite.com/e/1", 1)
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := s.UpsertBatch(context.Background(), []domain.CanonicalActivity{
		testActivity("https://www.eventbrite.com/e/1"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpsertFailed)
}

func TestMigrate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS activities`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
