package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role constants for user authorization.
const (
	RoleUser      = "user"
	RoleLibrarian = "librarian"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Role         string    `db:"role" json:"role"` // user or librarian
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// SetPassword stores a bcrypt hash of password. The plaintext is never kept.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether candidate matches the stored hash.
func (u *User) CheckPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(candidate)) == nil
}

func (u *User) IsLibrarian() bool {
	return u.Role == RoleLibrarian
}
