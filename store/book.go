package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/luminalib/lumina/models"
)

// bookColumns selects books together with their open-loan count so the
// derived availability is always computed from current loan state.
const bookColumns = `
	b.id, b.title, b.author, b.total_copies,
	(SELECT COUNT(*) FROM loans l WHERE l.book_id = b.id AND l.returned_date IS NULL) AS borrowed_count
`

func (s *Store) CreateBook(ctx context.Context, book *models.Book) error {
	if book.TotalCopies < 1 {
		book.TotalCopies = 1
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO books (title, author, total_copies) VALUES (?, ?, ?)`,
		book.Title, book.Author, book.TotalCopies)
	if err != nil {
		return err
	}
	book.ID, err = res.LastInsertId()
	return err
}

func (s *Store) BookByID(ctx context.Context, id int64) (*models.Book, error) {
	var b models.Book
	err := s.db.GetContext(ctx, &b, `SELECT `+bookColumns+` FROM books b WHERE b.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SearchBooks returns books whose title or author contains query as a
// case-insensitive substring, ordered by title. An empty query returns the
// whole inventory.
func (s *Store) SearchBooks(ctx context.Context, query string) ([]models.Book, error) {
	books := []models.Book{}
	if query == "" {
		err := s.db.SelectContext(ctx, &books, `SELECT `+bookColumns+` FROM books b ORDER BY b.title`)
		return books, err
	}
	like := "%" + query + "%"
	err := s.db.SelectContext(ctx, &books,
		`SELECT `+bookColumns+` FROM books b
		 WHERE lower(b.title) LIKE lower(?) OR lower(b.author) LIKE lower(?)
		 ORDER BY b.title`,
		like, like)
	return books, err
}
