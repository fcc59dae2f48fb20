// Package store persists viewing state across sessions.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Registered database/sql driver names.
const (
	// DriverCGO is the cgo binding of SQLite.
	DriverCGO = "sqlite3"
	// DriverPure is the pure Go port, for builds without cgo.
	DriverPure = "sqlite"
)

// DefaultPath returns the default database location under the user's cache
// directory.
func DefaultPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "carousel", "state.db")
}

// Position is the remembered index of a deck.
type Position struct {
	Deck      string
	Index     int
	Mobile    bool
	UpdatedAt time.Time
}

// DB handles state persistence
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates the state database at the given path
func OpenDB(dbPath string) (*DB, error) {
	return OpenDBWithDriver(DriverCGO, dbPath)
}

// OpenDBWithDriver is OpenDB with an explicit SQLite driver.
func OpenDBWithDriver(driver, dbPath string) (*DB, error) {
	switch driver {
	case "":
		driver = DriverCGO
	case DriverCGO, DriverPure:
	default:
		return nil, fmt.Errorf("unknown sqlite driver %q", driver)
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sdb := &DB{db: db}
	if err := sdb.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS positions (
		deck TEXT PRIMARY KEY,
		slide_index INTEGER NOT NULL,
		mobile INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS views (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		deck TEXT NOT NULL,
		slide_index INTEGER NOT NULL,
		viewed_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_views_deck ON views(deck);
	`

	_, err := d.db.Exec(schema)
	return err
}

// SavePosition remembers the current index of a deck.
func (d *DB) SavePosition(p Position) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	_, err := d.db.Exec(`
		INSERT INTO positions (deck, slide_index, mobile, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(deck) DO UPDATE SET
			slide_index = excluded.slide_index,
			mobile = excluded.mobile,
			updated_at = excluded.updated_at
	`, p.Deck, p.Index, p.Mobile, p.UpdatedAt)
	return err
}

// Position returns the remembered position of a deck. The boolean is false
// when the deck was never seen.
func (d *DB) Position(deck string) (Position, bool, error) {
	p := Position{Deck: deck}
	err := d.db.QueryRow(`
		SELECT slide_index, mobile, updated_at
		FROM positions
		WHERE deck = ?
	`, deck).Scan(&p.Index, &p.Mobile, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Position{}, false, nil
	}
	if err != nil {
		return Position{}, false, err
	}
	return p, true, nil
}

// RecordView appends a view of a slide to the history.
func (d *DB) RecordView(deck string, index int) error {
	_, err := d.db.Exec(`
		INSERT INTO views (deck, slide_index, viewed_at)
		VALUES (?, ?, ?)
	`, deck, index, time.Now())
	return err
}

// ViewCounts returns how often each slide of a deck was shown.
func (d *DB) ViewCounts(deck string) (map[int]int, error) {
	rows, err := d.db.Query(`
		SELECT slide_index, COUNT(*)
		FROM views
		WHERE deck = ?
		GROUP BY slide_index
	`, deck)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var index, n int
		if err := rows.Scan(&index, &n); err != nil {
			return nil, err
		}
		counts[index] = n
	}
	return counts, rows.Err()
}

// RecentDecks returns the most recently viewed decks, newest first.
func (d *DB) RecentDecks(limit int) ([]Position, error) {
	rows, err := d.db.Query(`
		SELECT deck, slide_index, mobile, updated_at
		FROM positions
		ORDER BY updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.Deck, &p.Index, &p.Mobile, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
