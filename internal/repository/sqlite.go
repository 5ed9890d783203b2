package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mr1hm/go-asteroid-impact/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// :memory: databases are per-connection.
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS asteroids (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			diameter_min_m REAL NOT NULL,
			diameter_max_m REAL NOT NULL,
			is_potentially_hazardous INTEGER NOT NULL DEFAULT 0,
			close_approach_data BLOB,
			fetched_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_asteroids_fetched_at ON asteroids(fetched_at);
		CREATE INDEX IF NOT EXISTS idx_asteroids_hazardous ON asteroids(is_potentially_hazardous);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDB) Upsert(ctx context.Context, rec *models.AsteroidRecord, fetchedAt time.Time) error {
	approaches, err := json.Marshal(rec.CloseApproachData)
	if err != nil {
		return fmt.Errorf("error encoding close approaches: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO asteroids (id, name, diameter_min_m, diameter_max_m, is_potentially_hazardous, close_approach_data, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			diameter_min_m = excluded.diameter_min_m,
			diameter_max_m = excluded.diameter_max_m,
			is_potentially_hazardous = excluded.is_potentially_hazardous,
			close_approach_data = excluded.close_approach_data,
			fetched_at = excluded.fetched_at`,
		rec.ID, rec.Name, rec.DiameterMinM, rec.DiameterMaxM,
		rec.IsPotentiallyHazardous, approaches, fetchedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("error upserting asteroid %s: %w", rec.ID, err)
	}
	return nil
}

// GetByID returns nil, nil when the id is not cached.
func (s *SQLiteDB) GetByID(ctx context.Context, id string) (*CachedAsteroid, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, diameter_min_m, diameter_max_m, is_potentially_hazardous, close_approach_data, fetched_at
		FROM asteroids WHERE id = ?`, id)

	cached, err := scanAsteroid(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading asteroid %s: %w", id, err)
	}
	return cached, nil
}

func (s *SQLiteDB) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM asteroids WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("error checking asteroid %s: %w", id, err)
	}
	return n > 0, nil
}

// List returns cached asteroids matching opts, ordered by their first close
// approach inside the window and then by id.
func (s *SQLiteDB) List(ctx context.Context, opts Filter) ([]models.AsteroidRecord, error) {
	query := `SELECT id, name, diameter_min_m, diameter_max_m, is_potentially_hazardous, close_approach_data, fetched_at FROM asteroids`
	if opts.HazardousOnly {
		query += " WHERE is_potentially_hazardous = 1"
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing asteroids: %w", err)
	}
	defer rows.Close()

	var (
		records []models.AsteroidRecord
		firsts  = map[string]string{}
	)
	for rows.Next() {
		cached, err := scanAsteroid(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning asteroid: %w", err)
		}
		// Approach dates live in the JSON column, so the window is applied here.
		first, ok := opts.firstApproach(&cached.Record)
		if !ok {
			continue
		}
		firsts[cached.Record.ID] = first
		records = append(records, cached.Record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return firsts[records[i].ID] < firsts[records[j].ID]
	})
	return records, nil
}

func (s *SQLiteDB) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM asteroids WHERE fetched_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("error pruning asteroids: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsteroid(sc scanner) (*CachedAsteroid, error) {
	var (
		c          CachedAsteroid
		approaches []byte
		fetchedAt  int64
	)
	err := sc.Scan(
		&c.Record.ID, &c.Record.Name, &c.Record.DiameterMinM, &c.Record.DiameterMaxM,
		&c.Record.IsPotentiallyHazardous, &approaches, &fetchedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(approaches) > 0 {
		if err := json.Unmarshal(approaches, &c.Record.CloseApproachData); err != nil {
			return nil, fmt.Errorf("error decoding close approaches: %w", err)
		}
	}
	c.FetchedAt = time.Unix(fetchedAt, 0).UTC()
	return &c, nil
}
