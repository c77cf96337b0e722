package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminalib/lumina/handlers"
	"github.com/luminalib/lumina/middleware"
	"github.com/luminalib/lumina/models"
	"github.com/luminalib/lumina/service"
	"github.com/luminalib/lumina/store"
)

const testSecret = "test-secret"

type env struct {
	srv *httptest.Server
	db  *store.Store
}

// newEnv wires the same router main does, against a throwaway database.
func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "lumina.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	authHandler := &handlers.AuthHandler{DB: db, JWTSecret: testSecret}
	catalogHandler := &handlers.CatalogHandler{Catalog: service.NewCatalog(db, nil)}
	loansHandler := &handlers.LoansHandler{DB: db, LoanDurationDays: 14}
	dashboardHandler := &handlers.DashboardHandler{
		DB:               db,
		Mailer:           service.NewMailer("", 587, "", "", ""),
		LoanDurationDays: 14,
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/register", authHandler.Register)
		r.Get("/catalog", catalogHandler.Search)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(testSecret))
			r.Get("/me", authHandler.Me)
			r.Post("/books/{id}/checkout", loansHandler.Checkout)
			r.Post("/loans/{id}/return", loansHandler.Return)
			r.Get("/loans", loansHandler.List)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireLibrarian)
				r.Get("/dashboard", dashboardHandler.Overview)
				r.Post("/books", dashboardHandler.AddBook)
				r.Post("/loans/manual", dashboardHandler.ManualCheckout)
				r.Post("/loans/{id}/remind", dashboardHandler.Remind)
			})
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &env{srv: srv, db: db}
}

func (e *env) addUser(t *testing.T, name, email, role string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email, Role: role}
	require.NoError(t, u.SetPassword("password"))
	require.NoError(t, e.db.CreateUser(context.Background(), u))
	return u
}

func (e *env) addBook(t *testing.T, title, author string, copies int) *models.Book {
	t.Helper()
	b := &models.Book{Title: title, Author: author, TotalCopies: copies}
	require.NoError(t, e.db.CreateBook(context.Background(), b))
	return b
}

// do issues a request and decodes the JSON body into a generic map.
func (e *env) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func (e *env) login(t *testing.T, email string) string {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": email, "password": "password"})
	require.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "Reader", "reader@lumina.local", models.RoleUser)

	status, _ := e.do(t, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "reader@lumina.local", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = e.do(t, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "ghost@lumina.local", "password": "password"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := e.do(t, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "READER@lumina.local", "password": "password"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.RoleUser, body["role"])
}

func TestMe(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "Reader", "reader@lumina.local", models.RoleUser)

	status, _ := e.do(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := e.do(t, http.MethodGet, "/api/me", e.login(t, "reader@lumina.local"), nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Reader", body["name"])
	assert.NotContains(t, body, "passwordHash")
}

func TestRegister(t *testing.T) {
	e := newEnv(t)

	status, body := e.do(t, http.MethodPost, "/api/auth/register", "",
		map[string]string{"name": "New Reader", "email": "new@lumina.local", "password": "password"})
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.RoleUser, body["role"], "registration never grants librarian")

	status, _ = e.do(t, http.MethodPost, "/api/auth/register", "",
		map[string]string{"name": "Dup", "email": "NEW@lumina.local", "password": "password"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = e.do(t, http.MethodPost, "/api/auth/register", "",
		map[string]string{"name": "", "email": "x@lumina.local", "password": "password"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCatalogIsPublic(t *testing.T) {
	e := newEnv(t)
	e.addBook(t, "Clean Architecture", "Robert C. Martin", 3)

	status, body := e.do(t, http.MethodGet, "/api/catalog?q=clean", "", nil)
	assert.Equal(t, http.StatusOK, status)
	local, ok := body["local"].([]any)
	require.True(t, ok)
	require.Len(t, local, 1)
	first := local[0].(map[string]any)
	assert.Equal(t, "Clean Architecture", first["title"])
	assert.Equal(t, float64(3), first["availableCopies"])
	assert.Empty(t, body["external"])
}

func TestCheckoutLastCopyTwice(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "Reader", "reader@lumina.local", models.RoleUser)
	book := e.addBook(t, "Rare Volume", "Anon", 1)
	token := e.login(t, "reader@lumina.local")

	path := fmt.Sprintf("/api/books/%d/checkout", book.ID)
	status, body := e.do(t, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusCreated, status)
	assert.Contains(t, body["message"], "Rare Volume")

	status, _ = e.do(t, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusConflict, status)

	got, err := e.db.BookByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.BorrowedCount, "the rejected checkout must not create a loan")
}

func TestCheckoutRequiresAuth(t *testing.T) {
	e := newEnv(t)
	book := e.addBook(t, "Rare Volume", "Anon", 1)

	status, _ := e.do(t, http.MethodPost, fmt.Sprintf("/api/books/%d/checkout", book.ID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = e.do(t, http.MethodPost, "/api/books/9999/checkout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCheckoutUnknownBook(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "Reader", "reader@lumina.local", models.RoleUser)
	token := e.login(t, "reader@lumina.local")

	status, _ := e.do(t, http.MethodPost, "/api/books/9999/checkout", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestReturnAuthorization(t *testing.T) {
	e := newEnv(t)
	owner := e.addUser(t, "Owner", "owner@lumina.local", models.RoleUser)
	e.addUser(t, "Stranger", "stranger@lumina.local", models.RoleUser)
	e.addUser(t, "Priya", "librarian@lumina.local", models.RoleLibrarian)
	book := e.addBook(t, "Rare Volume", "Anon", 1)

	loan, err := e.db.CheckoutBook(context.Background(), owner.ID, book.ID, 14)
	require.NoError(t, err)
	path := fmt.Sprintf("/api/loans/%d/return", loan.ID)

	// A non-owning, non-librarian caller is rejected and nothing changes.
	status, _ := e.do(t, http.MethodPost, path, e.login(t, "stranger@lumina.local"), nil)
	assert.Equal(t, http.StatusForbidden, status)
	reloaded, err := e.db.LoanByID(context.Background(), loan.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Open())

	// The librarian may return anyone's loan.
	status, body := e.do(t, http.MethodPost, path, e.login(t, "librarian@lumina.local"), nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Book returned. Thank you!", body["message"])

	// The owner returning an already-closed loan is a no-op, not an error.
	status, body = e.do(t, http.MethodPost, path, e.login(t, "owner@lumina.local"), nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Loan already closed.", body["message"])
}

func TestReturnUnknownLoan(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "Reader", "reader@lumina.local", models.RoleUser)
	token := e.login(t, "reader@lumina.local")

	status, _ := e.do(t, http.MethodPost, "/api/loans/9999/return", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAddBook(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "Priya", "librarian@lumina.local", models.RoleLibrarian)
	e.addUser(t, "Reader", "reader@lumina.local", models.RoleUser)
	librarian := e.login(t, "librarian@lumina.local")

	// Librarian only.
	status, _ := e.do(t, http.MethodPost, "/api/books", e.login(t, "reader@lumina.local"),
		map[string]any{"title": "X", "author": "Y"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = e.do(t, http.MethodPost, "/api/books", librarian,
		map[string]any{"title": "", "author": "Y"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = e.do(t, http.MethodPost, "/api/books", librarian,
		map[string]any{"title": "X", "author": ""})
	assert.Equal(t, http.StatusBadRequest, status)

	// Copies of zero (or omitted) clamp to a single copy.
	status, body := e.do(t, http.MethodPost, "/api/books", librarian,
		map[string]any{"title": "Zero Copies", "author": "Anon", "copies": 0})
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, float64(1), body["totalCopies"])

	status, body = e.do(t, http.MethodPost, "/api/books", librarian,
		map[string]any{"title": "No Copies Field", "author": "Anon"})
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, float64(1), body["totalCopies"])
}

func TestManualCheckout(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "Priya", "librarian@lumina.local", models.RoleLibrarian)
	reader := e.addUser(t, "Arjun Reader", "reader@lumina.local", models.RoleUser)
	book := e.addBook(t, "Rare Volume", "Anon", 1)
	librarian := e.login(t, "librarian@lumina.local")

	status, _ := e.do(t, http.MethodPost, "/api/loans/manual", librarian,
		map[string]any{"userEmail": "ghost@lumina.local", "bookId": book.ID})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = e.do(t, http.MethodPost, "/api/loans/manual", librarian,
		map[string]any{"userEmail": reader.Email, "bookId": 9999})
	assert.Equal(t, http.StatusNotFound, status)

	status, body := e.do(t, http.MethodPost, "/api/loans/manual", librarian,
		map[string]any{"userEmail": "READER@lumina.local", "bookId": book.ID})
	assert.Equal(t, http.StatusCreated, status)
	assert.Contains(t, body["message"], "Arjun Reader")

	// The one copy is now out.
	status, _ = e.do(t, http.MethodPost, "/api/loans/manual", librarian,
		map[string]any{"userEmail": reader.Email, "bookId": book.ID})
	assert.Equal(t, http.StatusConflict, status)
}

func TestDashboardOverview(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "Priya", "librarian@lumina.local", models.RoleLibrarian)
	reader := e.addUser(t, "Reader", "reader@lumina.local", models.RoleUser)
	book := e.addBook(t, "Rare Volume", "Anon", 2)
	_, err := e.db.CheckoutBook(context.Background(), reader.ID, book.ID, 14)
	require.NoError(t, err)

	status, body := e.do(t, http.MethodGet, "/api/dashboard", e.login(t, "librarian@lumina.local"), nil)
	require.Equal(t, http.StatusOK, status)

	stats, ok := body["stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), stats["titles"])
	assert.Equal(t, float64(2), stats["copies"])
	assert.Equal(t, float64(1), stats["borrowed"])
	assert.Equal(t, float64(1), stats["available"])
	assert.Equal(t, float64(0), stats["overdue"])

	active, ok := body["activeLoans"].([]any)
	require.True(t, ok)
	require.Len(t, active, 1)
	assert.Equal(t, "Rare Volume", active[0].(map[string]any)["bookTitle"])
}

func TestRemindWithoutSMTP(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "Priya", "librarian@lumina.local", models.RoleLibrarian)

	status, _ := e.do(t, http.MethodPost, "/api/loans/1/remind", e.login(t, "librarian@lumina.local"), nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestUserLoanList(t *testing.T) {
	e := newEnv(t)
	reader := e.addUser(t, "Reader", "reader@lumina.local", models.RoleUser)
	book := e.addBook(t, "Rare Volume", "Anon", 1)
	loan, err := e.db.CheckoutBook(context.Background(), reader.ID, book.ID, 14)
	require.NoError(t, err)
	token := e.login(t, "reader@lumina.local")

	req, err := http.NewRequest(http.MethodGet, e.srv.URL+"/api/loans", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loans []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loans))
	require.Len(t, loans, 1)
	assert.Equal(t, float64(loan.ID), loans[0]["id"])
	assert.Equal(t, "Rare Volume", loans[0]["bookTitle"])
}
