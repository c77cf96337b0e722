package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/luminalib/lumina/middleware"
	"github.com/luminalib/lumina/models"
	"github.com/luminalib/lumina/service"
	"github.com/luminalib/lumina/store"
)

// DashboardHandler serves the librarian-only operations. Routes using it
// sit behind middleware.RequireLibrarian.
type DashboardHandler struct {
	DB               *store.Store
	Mailer           *service.Mailer
	LoanDurationDays int
}

type DashboardResponse struct {
	Stats       store.InventoryStats `json:"stats"`
	ActiveLoans []store.LoanWithRefs `json:"activeLoans"`
	Users       []models.User        `json:"users"`
	Books       []bookResponse       `json:"books"`
}

// Overview aggregates inventory stats, active loans, users and books for
// the librarian dashboard. GET /api/dashboard
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	stats, err := h.DB.InventoryStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	loans, err := h.DB.OpenLoans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	users, err := h.DB.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	books, err := h.DB.SearchBooks(r.Context(), "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, DashboardResponse{
		Stats:       stats,
		ActiveLoans: loans,
		Users:       users,
		Books:       toBookResponses(books),
	})
}

type AddBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Copies int    `json:"copies"`
}

// AddBook adds a title to the inventory. Copies below 1 (or omitted)
// clamp to a single copy. POST /api/books
func (h *DashboardHandler) AddBook(w http.ResponseWriter, r *http.Request) {
	var req AddBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	if req.Title == "" || req.Author == "" {
		writeError(w, http.StatusBadRequest, "title and author are required")
		return
	}
	if req.Copies < 1 {
		req.Copies = 1
	}

	book := &models.Book{Title: req.Title, Author: req.Author, TotalCopies: req.Copies}
	if err := h.DB.CreateBook(r.Context(), book); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add book")
		return
	}
	writeJSON(w, http.StatusCreated, toBookResponse(*book))
}

type ManualCheckoutRequest struct {
	UserEmail string `json:"userEmail"`
	BookID    int64  `json:"bookId"`
}

// ManualCheckout lends a book on a reader's behalf, resolving them by
// email. POST /api/loans/manual
func (h *DashboardHandler) ManualCheckout(w http.ResponseWriter, r *http.Request) {
	var req ManualCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	user, err := h.DB.UserByEmail(r.Context(), req.UserEmail)
	if errors.Is(err, store.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "user or book not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "checkout failed")
		return
	}
	book, err := h.DB.BookByID(r.Context(), req.BookID)
	if errors.Is(err, store.ErrBookNotFound) {
		writeError(w, http.StatusNotFound, "user or book not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "checkout failed")
		return
	}
	if book.AvailableCopies() <= 0 {
		writeError(w, http.StatusConflict, "no copies available")
		return
	}

	loan, err := h.DB.CheckoutBook(r.Context(), user.ID, book.ID, h.LoanDurationDays)
	if errors.Is(err, store.ErrNoCopies) {
		writeError(w, http.StatusConflict, "no copies available")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "checkout failed")
		return
	}
	writeJSON(w, http.StatusCreated, LoanResponse{
		Loan:    loan,
		Message: fmt.Sprintf("%s now has '%s'.", user.Name, book.Title),
	})
}

// Remind emails the user of an overdue loan. POST /api/loans/{id}/remind
func (h *DashboardHandler) Remind(w http.ResponseWriter, r *http.Request) {
	if h.Mailer == nil || !h.Mailer.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "reminders not configured")
		return
	}
	loanID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan id")
		return
	}
	loan, err := h.DB.LoanWithRefsByID(r.Context(), loanID)
	if errors.Is(err, store.ErrLoanNotFound) {
		writeError(w, http.StatusNotFound, "loan not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reminder failed")
		return
	}
	if !loan.IsOverdueAt(time.Now().UTC()) {
		writeError(w, http.StatusBadRequest, "loan is not overdue")
		return
	}

	if err := h.Mailer.SendOverdueNotice(*loan); err != nil {
		log.Printf("overdue reminder for loan %d: %v", loanID, err)
		writeError(w, http.StatusInternalServerError, "failed to send reminder")
		return
	}
	log.Printf("overdue reminder for loan %d sent by %s", loanID, middleware.EmailFromContext(r.Context()))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Reminder sent to " + loan.UserEmail})
}
