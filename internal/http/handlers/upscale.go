package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/KonstantinBelenko/sexy-parrot/internal/generation"
	"github.com/KonstantinBelenko/sexy-parrot/internal/imageops"
	"github.com/KonstantinBelenko/sexy-parrot/internal/storage"
)

type upscaleRequest struct {
	ScaleFactor          float64 `json:"scale_factor,omitempty"`
	Upscaler             string  `json:"upscaler,omitempty"`
	DenoiseStrength      float64 `json:"denoise_strength,omitempty"`
	EnhanceFaces         bool    `json:"enhance_faces,omitempty"`
	PreserveOriginalSize bool    `json:"preserve_original_size,omitempty"`
}

type upscaleResponse struct {
	URL            string  `json:"url"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	OriginalWidth  int     `json:"original_width"`
	OriginalHeight int     `json:"original_height"`
	ScaleFactor    float64 `json:"scale_factor"`
	Upscaler       string  `json:"upscaler"`
}

// UpscaleImage enlarges a previously stored image by a scale factor.
func (a *App) UpscaleImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	var req upscaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.ScaleFactor == 0 {
		req.ScaleFactor = 2.0
	}
	if req.Upscaler == "" {
		req.Upscaler = "4x-UltraSharp"
	}

	data, err := a.Output.Read(r.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "file "+filename+" not found")
			return
		}
		a.Logger.Error().Err(err).Str("filename", filename).Msg("failed to read stored image")
		a.error(w, http.StatusInternalServerError, "internal", "failed to read stored image")
		return
	}

	original, err := imageops.Dimensions(data)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to open image")
		return
	}

	a.Logger.Info().
		Str("filename", filename).
		Float64("scale_factor", req.ScaleFactor).
		Str("upscaler", req.Upscaler).
		Msg("image upscaling started")

	result, err := imageops.Upscale(data, req.ScaleFactor, req.PreserveOriginalSize)
	if err != nil {
		a.Logger.Error().Err(err).Msg("upscale failed")
		a.error(w, http.StatusInternalServerError, "upscale_failed", "failed to upscale image")
		return
	}

	outName := fmt.Sprintf("upscaled_%s.png", uuid.NewString())
	if _, err := a.Output.Write(r.Context(), outName, result.Data); err != nil {
		a.Logger.Error().Err(err).Msg("failed to save upscaled image")
		a.error(w, http.StatusInternalServerError, "storage_failed", "failed to save upscaled image")
		return
	}

	a.json(w, http.StatusOK, upscaleResponse{
		URL:            joinBase(baseURL(r), generation.ImagePathPrefix+outName),
		Width:          result.Width,
		Height:         result.Height,
		OriginalWidth:  original.Width,
		OriginalHeight: original.Height,
		ScaleFactor:    req.ScaleFactor,
		Upscaler:       req.Upscaler,
	})
}
