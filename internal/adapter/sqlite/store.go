// Package sqlite stores snow pits in a single SQLite database. Each pit is one
// row holding its persisted JSON record, keyed by collection and id, with an
// explicit position so collections keep their insertion order.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/snowpit-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS snowpits (
	site     TEXT    NOT NULL,
	season   TEXT    NOT NULL,
	date     TEXT    NOT NULL,
	id       TEXT    NOT NULL,
	position INTEGER NOT NULL,
	record   TEXT    NOT NULL,
	PRIMARY KEY (site, season, date, id)
);
CREATE INDEX IF NOT EXISTS snowpits_order ON snowpits (site, season, date, position);
`

// Store implements domain.Store and domain.Catalog on SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway and a single
	// connection keeps in-memory databases shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Load(ctx context.Context, c domain.Collection) ([]domain.SnowPit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM snowpits WHERE site = ? AND season = ? AND date = ? ORDER BY position`,
		c.Site, c.Season, c.Date)
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", c, err)
	}
	defer rows.Close()

	pits := []domain.SnowPit{}
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scan snow pit: %w", err)
		}
		var pit domain.SnowPit
		if err := json.Unmarshal([]byte(record), &pit); err != nil {
			return nil, fmt.Errorf("decode snow pit in %s: %w", c, err)
		}
		pits = append(pits, pit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read collection %s: %w", c, err)
	}
	return pits, nil
}

func (s *Store) Upsert(ctx context.Context, c domain.Collection, pit domain.SnowPit) (domain.Action, error) {
	record, err := json.Marshal(pit)
	if err != nil {
		return "", fmt.Errorf("encode snow pit: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx,
		`UPDATE snowpits SET record = ? WHERE site = ? AND season = ? AND date = ? AND id = ?`,
		string(record), c.Site, c.Season, c.Date, pit.ID)
	if err != nil {
		return "", fmt.Errorf("update snow pit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("update snow pit: %w", err)
	}

	action := domain.ActionUpdated
	if n == 0 {
		action = domain.ActionCreated
		_, err = tx.ExecContext(ctx, `
			INSERT INTO snowpits (site, season, date, id, position, record)
			SELECT ?, ?, ?, ?, COALESCE(MAX(position) + 1, 0), ?
			FROM snowpits WHERE site = ? AND season = ? AND date = ?`,
			c.Site, c.Season, c.Date, pit.ID, string(record),
			c.Site, c.Season, c.Date)
		if err != nil {
			return "", fmt.Errorf("insert snow pit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit snow pit: %w", err)
	}
	s.logger.Debug("snow pit saved", "collection", c.String(), "pit_id", pit.ID, "action", action)
	return action, nil
}

func (s *Store) Delete(ctx context.Context, c domain.Collection, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx,
		`DELETE FROM snowpits WHERE site = ? AND season = ? AND date = ? AND id = ?`,
		c.Site, c.Season, c.Date, id)
	if err != nil {
		return false, fmt.Errorf("delete snow pit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete snow pit: %w", err)
	}
	if n == 0 {
		return false, domain.ErrPitNotFound
	}

	var left int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snowpits WHERE site = ? AND season = ? AND date = ?`,
		c.Site, c.Season, c.Date).Scan(&left)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("count collection %s: %w", c, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete: %w", err)
	}
	if left == 0 {
		s.logger.Info("collection emptied", "collection", c.String())
	}
	return left == 0, nil
}

func (s *Store) Collections(ctx context.Context) ([]domain.Collection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT site, season, date FROM snowpits ORDER BY site, season, date`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var out []domain.Collection
	for rows.Next() {
		var c domain.Collection
		if err := rows.Scan(&c.Site, &c.Season, &c.Date); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return out, nil
}
