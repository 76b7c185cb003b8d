// Package storage persists food logs and tracker samples in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vitalsync/backend/internal/domain"
	_ "modernc.org/sqlite"
)

// Store is a SQLite backed FoodLogRepository and TimeseriesRepository
type Store struct {
	conn *sql.DB
}

var (
	_ domain.FoodLogRepository    = (*Store)(nil)
	_ domain.TimeseriesRepository = (*Store)(nil)
)

// Open opens (creating if needed) the database at path and initializes the schema
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY under load.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS food_entries (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		date TEXT NOT NULL,
		time TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		protein REAL NOT NULL DEFAULT 0,
		carbs REAL NOT NULL DEFAULT 0,
		fat REAL NOT NULL DEFAULT 0,
		calories REAL NOT NULL DEFAULT 0,
		micronutrients TEXT NOT NULL DEFAULT '{}',
		source TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_food_owner_date ON food_entries(owner_id, date);

	CREATE TABLE IF NOT EXISTS timeseries (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		date TEXT NOT NULL DEFAULT '',
		metrics TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_timeseries_owner ON timeseries(owner_id);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// SaveFoodEntry inserts the entry, assigning an ID when it has none. Saving
// over another owner's entry fails with ErrNotFound.
func (s *Store) SaveFoodEntry(ctx context.Context, ownerID string, entry domain.FoodEntry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	micros, err := json.Marshal(entry.Micronutrients)
	if err != nil {
		return "", fmt.Errorf("encoding micronutrients: %w", err)
	}
	if entry.Micronutrients == nil {
		micros = []byte("{}")
	}

	// An existing id may only be rewritten by the owner that created it
	query := `
	INSERT INTO food_entries
		(id, owner_id, date, time, name, protein, carbs, fat, calories, micronutrients, source, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		date = excluded.date,
		time = excluded.time,
		name = excluded.name,
		protein = excluded.protein,
		carbs = excluded.carbs,
		fat = excluded.fat,
		calories = excluded.calories,
		micronutrients = excluded.micronutrients,
		source = excluded.source
	WHERE food_entries.owner_id = excluded.owner_id
	`
	result, err := s.conn.ExecContext(ctx, query,
		entry.ID, ownerID, entry.Date, entry.Time, entry.Name,
		float64(entry.Protein), float64(entry.Carbs), float64(entry.Fat), float64(entry.Calories),
		string(micros), entry.Source, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("inserting food entry: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("inserting food entry: %w", err)
	}
	if n == 0 {
		return "", fmt.Errorf("%w: food entry %s", domain.ErrNotFound, entry.ID)
	}
	return entry.ID, nil
}

// ListFoodEntries returns up to limit entries, newest date first.
// A limit of zero or less returns everything.
func (s *Store) ListFoodEntries(ctx context.Context, ownerID string, limit int) ([]domain.FoodEntry, error) {
	query := `
	SELECT id, date, time, name, protein, carbs, fat, calories, micronutrients, source
	FROM food_entries
	WHERE owner_id = ?
	ORDER BY date DESC, time DESC, created_at DESC
	`
	args := []interface{}{ownerID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying food entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.FoodEntry
	for rows.Next() {
		var (
			e                         domain.FoodEntry
			protein, carbs, fat, cals float64
			micros                    string
		)
		if err := rows.Scan(&e.ID, &e.Date, &e.Time, &e.Name, &protein, &carbs, &fat, &cals, &micros, &e.Source); err != nil {
			return nil, fmt.Errorf("scanning food entry: %w", err)
		}
		e.Protein = domain.Quantity(protein)
		e.Carbs = domain.Quantity(carbs)
		e.Fat = domain.Quantity(fat)
		e.Calories = domain.Quantity(cals)
		if err := json.Unmarshal([]byte(micros), &e.Micronutrients); err != nil {
			return nil, fmt.Errorf("decoding micronutrients for %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveRecord upserts a tracker sample keyed by its identifier
func (s *Store) SaveRecord(ctx context.Context, record domain.TimeseriesRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: empty record id", domain.ErrInvalidRecordID)
	}
	metrics, err := json.Marshal(record.Metrics)
	if err != nil {
		return fmt.Errorf("encoding metrics: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO timeseries (id, owner_id, timestamp, date, metrics, source)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = s.conn.ExecContext(ctx, query,
		record.ID, record.OwnerID, record.Timestamp.UTC().Format(time.RFC3339Nano),
		record.Date, string(metrics), record.Source,
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// ListRecords returns every record of the owner ordered by identifier
func (s *Store) ListRecords(ctx context.Context, ownerID string) ([]domain.TimeseriesRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
	SELECT id, owner_id, timestamp, date, metrics, source
	FROM timeseries
	WHERE owner_id = ?
	ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []domain.TimeseriesRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (domain.TimeseriesRecord, error) {
	var (
		r        domain.TimeseriesRecord
		ts, blob string
	)
	if err := row.Scan(&r.ID, &r.OwnerID, &ts, &r.Date, &blob, &r.Source); err != nil {
		return r, fmt.Errorf("scanning record: %w", err)
	}
	var err error
	if r.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return r, fmt.Errorf("parsing timestamp of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(blob), &r.Metrics); err != nil {
		return r, fmt.Errorf("decoding metrics of %s: %w", r.ID, err)
	}
	return r, nil
}
