package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/KonstantinBelenko/sexy-parrot/internal/jobs"
)

// GetJob returns the current state of a tracked job.
func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	rec, err := a.Jobs.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("failed to load job")
		a.error(w, http.StatusInternalServerError, "internal", "error retrieving job")
		return
	}
	a.json(w, http.StatusOK, rec)
}
