package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrBookNotFound = errors.New("book not found")
	ErrLoanNotFound = errors.New("loan not found")
	ErrEmailTaken   = errors.New("email already in use")
	ErrNoCopies     = errors.New("no copies available")
)

type Store struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	role TEXT NOT NULL DEFAULT 'user',
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS books (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	total_copies INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS loans (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
	checkout_date DATETIME NOT NULL,
	due_date DATETIME NOT NULL,
	returned_date DATETIME
);

CREATE INDEX IF NOT EXISTS idx_loans_open ON loans(book_id) WHERE returned_date IS NULL;
`

// Open opens (or creates) the SQLite database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_loc=UTC", path)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// InventoryStats aggregates the librarian dashboard numbers. Borrowed and
// overdue counts come from the open loans as they stand right now.
type InventoryStats struct {
	Titles    int `json:"titles"`
	Copies    int `json:"copies"`
	Borrowed  int `json:"borrowed"`
	Available int `json:"available"`
	Overdue   int `json:"overdue"`
}

func (s *Store) InventoryStats(ctx context.Context) (InventoryStats, error) {
	var stats InventoryStats
	if err := s.db.GetContext(ctx, &stats.Titles, `SELECT COUNT(*) FROM books`); err != nil {
		return stats, err
	}
	if err := s.db.GetContext(ctx, &stats.Copies, `SELECT COALESCE(SUM(total_copies), 0) FROM books`); err != nil {
		return stats, err
	}
	open, err := s.OpenLoans(ctx)
	if err != nil {
		return stats, err
	}
	stats.Borrowed = len(open)
	now := timeNow()
	for i := range open {
		if open[i].IsOverdueAt(now) {
			stats.Overdue++
		}
	}
	stats.Available = stats.Copies - stats.Borrowed
	if stats.Available < 0 {
		stats.Available = 0
	}
	return stats, nil
}
