// Package postgres provides the Postgres-backed catalog store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/listing-resolver/internal/catalog"
)

const defaultTable = "listings"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

const recordColumns = `id, identifier, title, description, image, source_url, strategy, resolved_at`

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// Store implements catalog.Store on a single table keyed by identifier.
type Store struct {
	pool  pool
	table string
}

// New connects to Postgres using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: p, table: table}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(p pool, table string) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &Store{pool: p, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the listings table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id          TEXT PRIMARY KEY,
	identifier  CHAR(10) NOT NULL UNIQUE,
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	image       TEXT NOT NULL DEFAULT '',
	source_url  TEXT NOT NULL,
	strategy    TEXT NOT NULL,
	resolved_at TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure listings schema: %w", err)
	}
	return nil
}

// Save implements catalog.Store. A conflicting identifier updates the row in
// place and keeps its id.
func (s *Store) Save(ctx context.Context, record catalog.Record) (catalog.Record, error) {
	if record.ID == "" || record.Identifier == "" {
		return catalog.Record{}, fmt.Errorf("record id and identifier are required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (identifier) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	image = EXCLUDED.image,
	source_url = EXCLUDED.source_url,
	strategy = EXCLUDED.strategy,
	resolved_at = EXCLUDED.resolved_at
RETURNING %s`, s.table, recordColumns, recordColumns)

	row := s.pool.QueryRow(ctx, query,
		record.ID,
		record.Identifier,
		record.Title,
		record.Description,
		record.Image,
		record.SourceURL,
		record.Strategy,
		record.ResolvedAt,
	)
	saved, err := scanRecord(row)
	if err != nil {
		return catalog.Record{}, fmt.Errorf("upsert listing: %w", err)
	}
	return saved, nil
}

// Get implements catalog.Store.
func (s *Store) Get(ctx context.Context, identifier string) (catalog.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE identifier = $1`, recordColumns, s.table)
	rec, err := scanRecord(s.pool.QueryRow(ctx, query, strings.ToUpper(identifier)))
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Record{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Record{}, fmt.Errorf("select listing: %w", err)
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (catalog.Record, error) {
	var rec catalog.Record
	err := row.Scan(
		&rec.ID,
		&rec.Identifier,
		&rec.Title,
		&rec.Description,
		&rec.Image,
		&rec.SourceURL,
		&rec.Strategy,
		&rec.ResolvedAt,
	)
	if err != nil {
		return catalog.Record{}, err
	}
	rec.Identifier = strings.TrimSpace(rec.Identifier)
	rec.ResolvedAt = rec.ResolvedAt.UTC()
	return rec, nil
}
