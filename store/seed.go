package store

import (
	"context"
	"log"

	"github.com/luminalib/lumina/models"
)

// Seed inserts the demo librarian, reader and starter inventory. It is a
// no-op whenever any user already exists.
func (s *Store) Seed(ctx context.Context) error {
	n, err := s.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	users := []struct {
		name, email, role, password string
	}{
		{"Priya Librarian", "librarian@lumina.local", models.RoleLibrarian, "password"},
		{"Arjun Reader", "user@lumina.local", models.RoleUser, "password"},
	}
	for _, u := range users {
		user := &models.User{Name: u.name, Email: u.email, Role: u.role}
		if err := user.SetPassword(u.password); err != nil {
			return err
		}
		if err := s.CreateUser(ctx, user); err != nil {
			return err
		}
	}

	books := []models.Book{
		{Title: "Clean Architecture", Author: "Robert C. Martin", TotalCopies: 3},
		{Title: "Atomic Habits", Author: "James Clear", TotalCopies: 4},
		{Title: "The Pragmatic Programmer", Author: "Andrew Hunt", TotalCopies: 2},
		{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", TotalCopies: 5},
	}
	for i := range books {
		if err := s.CreateBook(ctx, &books[i]); err != nil {
			return err
		}
	}
	log.Println("seeded demo users and books")
	return nil
}
