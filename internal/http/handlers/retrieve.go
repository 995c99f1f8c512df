package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetImage serves a stored artifact from the output directory.
func (a *App) GetImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	path, err := a.Output.Path(filename)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "image not found")
		return
	}
	http.ServeFile(w, r, path)
}
