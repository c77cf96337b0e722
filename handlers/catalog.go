package handlers

import (
	"net/http"
	"strings"

	"github.com/luminalib/lumina/service"
)

type CatalogHandler struct {
	Catalog *service.Catalog
}

type CatalogResponse struct {
	Query    string                 `json:"query"`
	Local    []bookResponse         `json:"local"`
	External []service.ExternalBook `json:"external"`
}

// Search serves the public catalog: local inventory plus best-effort
// external suggestions. GET /api/catalog?q=
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	results, err := h.Catalog.Search(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to search catalog")
		return
	}
	writeJSON(w, http.StatusOK, CatalogResponse{
		Query:    query,
		Local:    toBookResponses(results.Local),
		External: results.External,
	})
}
