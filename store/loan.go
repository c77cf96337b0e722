package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/luminalib/lumina/models"
)

func timeNow() time.Time {
	return time.Now().UTC()
}

// LoanWithRefs is a loan joined with the book and user it references, for
// dashboard listings.
type LoanWithRefs struct {
	models.Loan
	BookTitle  string `db:"book_title" json:"bookTitle"`
	BookAuthor string `db:"book_author" json:"bookAuthor"`
	UserName   string `db:"user_name" json:"userName"`
	UserEmail  string `db:"user_email" json:"userEmail"`
}

const loanRefColumns = `
	l.id, l.user_id, l.book_id, l.checkout_date, l.due_date, l.returned_date,
	b.title AS book_title, b.author AS book_author,
	u.name AS user_name, u.email AS user_email
`

// CheckoutBook opens a loan for user against book, running the
// availability check and the insert in one transaction so two checkouts
// cannot both take the last copy. Returns ErrNoCopies when every copy is
// already out.
func (s *Store) CheckoutBook(ctx context.Context, userID string, bookID int64, durationDays int) (*models.Loan, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var total int
	err = tx.GetContext(ctx, &total, `SELECT total_copies FROM books WHERE id = ?`, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	var borrowed int
	if err := tx.GetContext(ctx, &borrowed,
		`SELECT COUNT(*) FROM loans WHERE book_id = ? AND returned_date IS NULL`, bookID); err != nil {
		return nil, err
	}
	if total-borrowed <= 0 {
		return nil, ErrNoCopies
	}

	loan := models.NewLoan(userID, bookID, durationDays)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO loans (user_id, book_id, checkout_date, due_date) VALUES (?, ?, ?, ?)`,
		loan.UserID, loan.BookID, loan.CheckoutDate, loan.DueDate)
	if err != nil {
		return nil, err
	}
	if loan.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *Store) LoanByID(ctx context.Context, id int64) (*models.Loan, error) {
	var l models.Loan
	err := s.db.GetContext(ctx, &l, `SELECT * FROM loans WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CloseLoan sets the loan's returned date. Closing an already-closed loan
// is a no-op; the original returned date is kept.
func (s *Store) CloseLoan(ctx context.Context, id int64) (*models.Loan, error) {
	loan, err := s.LoanByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if loan.Open() {
		loan.Close(timeNow())
		if _, err := s.db.ExecContext(ctx,
			`UPDATE loans SET returned_date = ? WHERE id = ? AND returned_date IS NULL`,
			loan.ReturnedDate, loan.ID); err != nil {
			return nil, err
		}
	}
	return loan, nil
}

// LoanWithRefsByID returns one loan joined with its book and user.
func (s *Store) LoanWithRefsByID(ctx context.Context, id int64) (*LoanWithRefs, error) {
	var l LoanWithRefs
	err := s.db.GetContext(ctx, &l,
		`SELECT `+loanRefColumns+` FROM loans l
		 JOIN books b ON b.id = l.book_id
		 JOIN users u ON u.id = l.user_id
		 WHERE l.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// OpenLoans returns all active loans ordered by due date, soonest first.
func (s *Store) OpenLoans(ctx context.Context) ([]LoanWithRefs, error) {
	loans := []LoanWithRefs{}
	err := s.db.SelectContext(ctx, &loans,
		`SELECT `+loanRefColumns+` FROM loans l
		 JOIN books b ON b.id = l.book_id
		 JOIN users u ON u.id = l.user_id
		 WHERE l.returned_date IS NULL
		 ORDER BY l.due_date`)
	return loans, err
}

// LoansForUser returns every loan belonging to userID, open or closed,
// ordered by due date.
func (s *Store) LoansForUser(ctx context.Context, userID string) ([]LoanWithRefs, error) {
	loans := []LoanWithRefs{}
	err := s.db.SelectContext(ctx, &loans,
		`SELECT `+loanRefColumns+` FROM loans l
		 JOIN books b ON b.id = l.book_id
		 JOIN users u ON u.id = l.user_id
		 WHERE l.user_id = ?
		 ORDER BY l.due_date`, userID)
	return loans, err
}
