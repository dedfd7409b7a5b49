// Package store provides persistent storage for user-defined colormaps
// using SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Record is a stored colormap definition.
type Record struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	// Stops holds resolved (position, r, g, b, a) rows.
	Stops [][5]float64 `json:"stops"`
	// Source is the color specification as submitted, kept for display.
	Source    json.RawMessage `json:"source,omitempty"`
	FillMode  string          `json:"fill_mode"`
	Gamma     float64         `json:"gamma"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store provides persistent storage for colormaps using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// NewStore creates a new SQLite-based colormap store. MemoryPath gives a
// database that lives as long as the Store.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != MemoryPath {
		// Ensure directory exists
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for sqlite: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if dbPath == MemoryPath {
		// Every connection would get its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS colormaps (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		display_name TEXT DEFAULT '',
		stops_json TEXT NOT NULL,
		source_json TEXT DEFAULT '',
		fill_mode TEXT DEFAULT 'neighboring',
		gamma REAL NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_colormaps_updated ON colormaps(updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save inserts rec, or replaces the definition stored under the same name.
// On return rec carries the stored ID and timestamps.
func (s *Store) Save(rec *Record) error {
	if rec.Name == "" {
		return errors.New("colormap record needs a name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stopsJSON, err := json.Marshal(rec.Stops)
	if err != nil {
		return fmt.Errorf("failed to marshal stops: %w", err)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Gamma == 0 {
		rec.Gamma = 1
	}
	now := time.Now().UTC().Truncate(time.Second)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	_, err = s.db.Exec(`
		INSERT INTO colormaps (id, name, display_name, stops_json, source_json, fill_mode, gamma, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			display_name = excluded.display_name,
			stops_json = excluded.stops_json,
			source_json = excluded.source_json,
			fill_mode = excluded.fill_mode,
			gamma = excluded.gamma,
			updated_at = excluded.updated_at
	`,
		rec.ID,
		rec.Name,
		rec.DisplayName,
		string(stopsJSON),
		string(rec.Source),
		rec.FillMode,
		rec.Gamma,
		rec.CreatedAt.Format(time.RFC3339),
		rec.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return err
	}

	// An update keeps the original id and creation time.
	var createdAtStr string
	err = s.db.QueryRow("SELECT id, created_at FROM colormaps WHERE name = ?", rec.Name).Scan(&rec.ID, &createdAtStr)
	if err != nil {
		return err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAtStr)
	return nil
}

const selectColumns = `id, name, display_name, stops_json, source_json, fill_mode, gamma, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var stopsJSON, sourceJSON, createdAtStr, updatedAtStr string
	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.DisplayName,
		&stopsJSON,
		&sourceJSON,
		&rec.FillMode,
		&rec.Gamma,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(stopsJSON), &rec.Stops); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stops of %q: %w", rec.Name, err)
	}
	if sourceJSON != "" {
		rec.Source = json.RawMessage(sourceJSON)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAtStr)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAtStr)
	return &rec, nil
}

// Get retrieves a colormap by name. It returns nil, nil when there is none.
func (s *Store) Get(name string) (*Record, error) {
	row := s.db.QueryRow(`SELECT `+selectColumns+` FROM colormaps WHERE name = ?`, name)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// List returns every stored colormap ordered by name.
func (s *Store) List() ([]*Record, error) {
	rows, err := s.db.Query(`SELECT ` + selectColumns + ` FROM colormaps ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes a colormap and reports whether it existed.
func (s *Store) Delete(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec("DELETE FROM colormaps WHERE name = ?", name)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// Count returns the number of stored colormaps.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM colormaps").Scan(&n)
	return n, err
}
