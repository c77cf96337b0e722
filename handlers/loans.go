package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/luminalib/lumina/middleware"
	"github.com/luminalib/lumina/models"
	"github.com/luminalib/lumina/store"
)

type LoansHandler struct {
	DB               *store.Store
	LoanDurationDays int
}

type LoanResponse struct {
	Loan    *models.Loan `json:"loan"`
	Message string       `json:"message"`
}

// Checkout lends a book to the caller. POST /api/books/{id}/checkout
func (h *LoansHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	bookID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid book id")
		return
	}
	book, err := h.DB.BookByID(r.Context(), bookID)
	if errors.Is(err, store.ErrBookNotFound) {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "checkout failed")
		return
	}
	if book.AvailableCopies() <= 0 {
		writeError(w, http.StatusConflict, "all copies are currently checked out")
		return
	}

	loan, err := h.DB.CheckoutBook(r.Context(), userID, bookID, h.LoanDurationDays)
	if errors.Is(err, store.ErrNoCopies) {
		writeError(w, http.StatusConflict, "all copies are currently checked out")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "checkout failed")
		return
	}
	writeJSON(w, http.StatusCreated, LoanResponse{
		Loan:    loan,
		Message: fmt.Sprintf("You now have '%s' until %s.", book.Title, loan.DueDate.Format("2006-01-02")),
	})
}

// Return closes a loan. Only the loan's owner or a librarian may return
// it; closing an already-closed loan succeeds without changing anything.
// POST /api/loans/{id}/return
func (h *LoansHandler) Return(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	loanID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan id")
		return
	}
	loan, err := h.DB.LoanByID(r.Context(), loanID)
	if errors.Is(err, store.ErrLoanNotFound) {
		writeError(w, http.StatusNotFound, "loan not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "return failed")
		return
	}
	if loan.UserID != userID && middleware.RoleFromContext(r.Context()) != models.RoleLibrarian {
		writeError(w, http.StatusForbidden, "not your loan")
		return
	}

	alreadyClosed := !loan.Open()
	loan, err = h.DB.CloseLoan(r.Context(), loanID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "return failed")
		return
	}
	message := "Book returned. Thank you!"
	if alreadyClosed {
		message = "Loan already closed."
	}
	writeJSON(w, http.StatusOK, LoanResponse{Loan: loan, Message: message})
}

// List returns the caller's loans, soonest due first. GET /api/loans
func (h *LoansHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	loans, err := h.DB.LoansForUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list loans")
		return
	}
	writeJSON(w, http.StatusOK, loans)
}
