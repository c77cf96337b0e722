package models

import "time"

// Loan records one book lent to one user for a bounded period. It stays
// open until ReturnedDate is set, and closing is terminal.
type Loan struct {
	ID           int64      `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"userId"`
	BookID       int64      `db:"book_id" json:"bookId"`
	CheckoutDate time.Time  `db:"checkout_date" json:"checkoutDate"`
	DueDate      time.Time  `db:"due_date" json:"dueDate"`
	ReturnedDate *time.Time `db:"returned_date" json:"returnedDate"`
}

// NewLoan opens a loan checked out now and due durationDays later. It does
// not check availability; callers verify copies are free before creating.
func NewLoan(userID string, bookID int64, durationDays int) *Loan {
	now := time.Now().UTC()
	return &Loan{
		UserID:       userID,
		BookID:       bookID,
		CheckoutDate: now,
		DueDate:      now.AddDate(0, 0, durationDays),
	}
}

func (l *Loan) Open() bool {
	return l.ReturnedDate == nil
}

// Close sets the returned date to now. Closing an already-closed loan is a
// no-op, so the first returned date is never overwritten.
func (l *Loan) Close(now time.Time) {
	if l.ReturnedDate != nil {
		return
	}
	t := now.UTC()
	l.ReturnedDate = &t
}

// IsOverdueAt reports whether the loan is open and past due as of now.
// This is derived at read time, so the answer can change between reads.
func (l *Loan) IsOverdueAt(now time.Time) bool {
	return l.ReturnedDate == nil && now.After(l.DueDate)
}
