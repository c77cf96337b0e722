package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoanDueDate(t *testing.T) {
	before := time.Now().UTC()
	loan := NewLoan("user-1", 42, 14)
	after := time.Now().UTC()

	assert.Equal(t, "user-1", loan.UserID)
	assert.Equal(t, int64(42), loan.BookID)
	assert.Nil(t, loan.ReturnedDate)
	assert.True(t, loan.Open())

	require.False(t, loan.CheckoutDate.Before(before))
	require.False(t, loan.CheckoutDate.After(after))
	assert.Equal(t, loan.CheckoutDate.AddDate(0, 0, 14), loan.DueDate)
}

func TestLoanCloseIsIdempotent(t *testing.T) {
	loan := NewLoan("user-1", 1, 7)
	first := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	loan.Close(first)
	require.NotNil(t, loan.ReturnedDate)
	assert.Equal(t, first, *loan.ReturnedDate)

	// A second close must not move the returned date.
	loan.Close(first.Add(48 * time.Hour))
	assert.Equal(t, first, *loan.ReturnedDate)
}

func TestLoanIsOverdueAt(t *testing.T) {
	due := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		returned *time.Time
		now      time.Time
		want     bool
	}{
		{"open_before_due", nil, due.AddDate(0, 0, -1), false},
		{"open_at_due", nil, due, false},
		{"open_past_due", nil, due.AddDate(0, 0, 1), true},
		{"open_15_days_after_14_day_loan", nil, due.AddDate(0, 0, 15), true},
		{"closed_past_due", &due, due.AddDate(0, 0, 30), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			loan := &Loan{DueDate: due, ReturnedDate: tc.returned}
			assert.Equal(t, tc.want, loan.IsOverdueAt(tc.now))
		})
	}
}

func TestClosedLoanNeverOverdueAgain(t *testing.T) {
	loan := NewLoan("user-1", 1, 14)
	past := loan.DueDate.AddDate(0, 0, 10)
	require.True(t, loan.IsOverdueAt(past))

	loan.Close(past)
	assert.False(t, loan.IsOverdueAt(past))
	assert.False(t, loan.IsOverdueAt(past.AddDate(1, 0, 0)))
}
