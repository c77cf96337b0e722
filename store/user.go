package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/luminalib/lumina/models"
)

// NormalizeEmail lower-cases and trims an email so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser inserts user, assigning a fresh id. Returns ErrEmailTaken when
// the normalized email is already registered.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = NormalizeEmail(user.Email)
	if _, err := s.UserByEmail(ctx, user.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	user.ID = uuid.NewString()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, role, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.Role, user.PasswordHash, user.CreatedAt)
	return err
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE email = ?`, NormalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY name`)
	return users, err
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}
