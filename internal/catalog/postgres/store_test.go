package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/listing-resolver/internal/catalog"
)

var columns = []string{"id", "identifier", "title", "description", "image", "source_url", "strategy", "resolved_at"}

func sampleRecord() catalog.Record {
	return catalog.Record{
		ID:          "0190c5d4-0000-7000-8000-000000000001",
		Identifier:  "B0ABCDEFGH",
		Title:       "Widget",
		Description: "Blue",
		Image:       "https://images.marketplace.example/images/I/71abc.jpg",
		SourceURL:   "https://marketplace.example/dp/B0ABCDEFGH",
		Strategy:    "markup",
		ResolvedAt:  time.Unix(1700000000, 0).UTC(),
	}
}

func TestStore_SaveUpserts(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "listings")
	require.NoError(t, err)

	rec := sampleRecord()
	existingID := "0190c5d4-0000-7000-8000-0000000000aa"
	mock.ExpectQuery(`(?s)INSERT INTO listings .* ON CONFLICT \(identifier\) DO UPDATE`).
		WithArgs(rec.ID, rec.Identifier, rec.Title, rec.Description, rec.Image, rec.SourceURL, rec.Strategy, rec.ResolvedAt).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(
			existingID, rec.Identifier, rec.Title, rec.Description, rec.Image, rec.SourceURL, rec.Strategy, rec.ResolvedAt,
		))

	saved, err := store.Save(context.Background(), rec)
	require.NoError(t, err)
	require.Equal(t, existingID, saved.ID)
	require.Equal(t, rec.Title, saved.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveRequiresKeys(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)
	_, err = store.Save(context.Background(), catalog.Record{Identifier: "B0ABCDEFGH"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveQueryError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "catalog.listings")
	require.NoError(t, err)

	mock.ExpectQuery(`INSERT INTO catalog.listings`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	_, err = store.Save(context.Background(), sampleRecord())
	require.ErrorContains(t, err, "upsert listing")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Get(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "listings")
	require.NoError(t, err)

	rec := sampleRecord()
	mock.ExpectQuery(`SELECT .* FROM listings WHERE identifier = \$1`).
		WithArgs("B0ABCDEFGH").
		WillReturnRows(pgxmock.NewRows(columns).AddRow(
			rec.ID, rec.Identifier, rec.Title, rec.Description, rec.Image, rec.SourceURL, rec.Strategy, rec.ResolvedAt,
		))
	mock.ExpectQuery(`SELECT .* FROM listings WHERE identifier = \$1`).
		WithArgs("B0MISSING0").
		WillReturnError(pgx.ErrNoRows)

	got, err := store.Get(context.Background(), "b0abcdefgh")
	require.NoError(t, err)
	require.Equal(t, rec, got)

	_, err = store.Get(context.Background(), "B0MISSING0")
	require.ErrorIs(t, err, catalog.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_EnsureSchema(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "listings")
	require.NoError(t, err)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS listings`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{})
	require.ErrorContains(t, err, "db.dsn")

	_, err = New(context.Background(), Config{DSN: "postgres://localhost/x", Table: "bad name"})
	require.ErrorContains(t, err, "invalid table name")

	_, err = NewWithPool(nil, "listings")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	_, err = NewWithPool(mock, "listings;drop")
	require.Error(t, err)
}

func TestStore_Ping(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)

	mock.ExpectPing()
	require.NoError(t, store.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	require.ErrorContains(t, store.Ping(context.Background()), "ping postgres")
	require.NoError(t, mock.ExpectationsWereMet())
}
