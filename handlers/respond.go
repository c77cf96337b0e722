package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/luminalib/lumina/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// bookResponse is a book plus its derived availability.
type bookResponse struct {
	models.Book
	AvailableCopies int `json:"availableCopies"`
}

func toBookResponse(b models.Book) bookResponse {
	return bookResponse{Book: b, AvailableCopies: b.AvailableCopies()}
}

func toBookResponses(books []models.Book) []bookResponse {
	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	return out
}
