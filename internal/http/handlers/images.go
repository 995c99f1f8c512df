package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/KonstantinBelenko/sexy-parrot/internal/generation"
	"github.com/KonstantinBelenko/sexy-parrot/internal/jobs"
)

// GenerateImage runs the prompt-to-image pipeline and returns URLs to the
// locally cached results.
func (a *App) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var req generation.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}
	if req.Model == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "model is required")
		return
	}

	jobID := uuid.NewString()
	log := a.Logger.With().Str("job_id", jobID).Logger()
	log.Info().Str("model", req.Model).Msg("image generation started")

	if a.Jobs != nil {
		if err := a.Jobs.Put(r.Context(), &jobs.Record{
			ID:     jobID,
			Type:   "txt2img",
			Status: jobs.StatusPending,
			Text:   req.Prompt,
		}); err != nil {
			log.Warn().Err(err).Msg("failed to record job")
		}
	}

	resp, err := a.Orchestrator.Generate(r.Context(), req, baseURL(r))
	if err != nil {
		a.failJob(r, jobID, err)
		switch {
		case errors.Is(err, generation.ErrUnknownModel):
			a.error(w, http.StatusBadRequest, "bad_request", "model "+req.Model+" not found in models library")
		case errors.Is(err, generation.ErrTokenMissing):
			a.error(w, http.StatusInternalServerError, "not_configured", "civitai api token is not configured")
		case errors.Is(err, generation.ErrNoImages):
			a.error(w, http.StatusInternalServerError, "generation_failed", "failed to generate any images")
		default:
			log.Error().Err(err).Msg("unhandled generation error")
			a.error(w, http.StatusInternalServerError, "internal", "failed to generate images")
		}
		return
	}

	if a.Jobs != nil {
		_, _ = a.Jobs.Update(r.Context(), jobID, func(rec *jobs.Record) {
			rec.Status = jobs.StatusCompleted
			rec.Images = append(rec.Images, resp.ImageURLs...)
		})
	}

	a.json(w, http.StatusOK, resp)
}

func (a *App) failJob(r *http.Request, jobID string, cause error) {
	if a.Jobs == nil {
		return
	}
	_, _ = a.Jobs.Update(r.Context(), jobID, func(rec *jobs.Record) {
		rec.Status = jobs.StatusFailed
		rec.Error = cause.Error()
	})
}
