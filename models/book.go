package models

type Book struct {
	ID          int64  `db:"id" json:"id"`
	Title       string `db:"title" json:"title"`
	Author      string `db:"author" json:"author"`
	TotalCopies int    `db:"total_copies" json:"totalCopies"`

	// BorrowedCount is the number of open loans against this book. It is
	// recomputed from the loans table on every read, never stored.
	BorrowedCount int `db:"borrowed_count" json:"borrowedCount"`
}

// AvailableCopies is TotalCopies minus the open loans, floored at zero so
// an over-allocated book never reports a negative count.
func (b *Book) AvailableCopies() int {
	available := b.TotalCopies - b.BorrowedCount
	if available < 0 {
		return 0
	}
	return available
}
