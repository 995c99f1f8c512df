package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/KonstantinBelenko/sexy-parrot/internal/generation"
	"github.com/KonstantinBelenko/sexy-parrot/internal/imageops"
)

type resizeRequest struct {
	Image               string `json:"image"` // URL or base64
	Width               int    `json:"width,omitempty"`
	Height              int    `json:"height,omitempty"`
	Device              string `json:"device,omitempty"`
	MaintainAspectRatio *bool  `json:"maintain_aspect_ratio,omitempty"`
	FitMethod           string `json:"fit_method,omitempty"`
	OutputFormat        string `json:"output_format,omitempty"`
	BackgroundColor     string `json:"background_color,omitempty"`
}

type resizeResponse struct {
	URL            string `json:"url"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	OriginalWidth  int    `json:"original_width"`
	OriginalHeight int    `json:"original_height"`
	FitMethod      string `json:"fit_method"`
	Format         string `json:"format"`
}

// ResizeImage resizes an image, given either a URL or a base64 payload, to
// explicit dimensions or a device preset.
func (a *App) ResizeImage(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	a.resize(w, r, req)
}

// Wallpaper is ResizeImage with the dimensions forced to a device preset.
func (a *App) Wallpaper(w http.ResponseWriter, r *http.Request) {
	device := chi.URLParam(r, "device")
	if _, ok := imageops.DeviceResolutions[strings.ToLower(device)]; !ok {
		a.error(w, http.StatusBadRequest, "bad_request",
			"invalid device, available devices: "+strings.Join(imageops.DeviceNames(), ", "))
		return
	}

	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Device = device
	req.Width, req.Height = 0, 0
	a.resize(w, r, req)
}

func (a *App) resize(w http.ResponseWriter, r *http.Request, req resizeRequest) {
	if req.Image == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "image is required")
		return
	}

	data, err := a.loadImagePayload(r, req.Image)
	if err != nil {
		a.Logger.Error().Err(err).Msg("failed to load source image")
		a.error(w, http.StatusBadRequest, "bad_request", "could not load source image")
		return
	}

	original, err := imageops.Dimensions(data)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "could not decode source image")
		return
	}

	maintain := true
	if req.MaintainAspectRatio != nil {
		maintain = *req.MaintainAspectRatio
	}
	fitMethod := req.FitMethod
	if fitMethod == "" {
		fitMethod = "contain"
	}
	format := req.OutputFormat
	if format == "" {
		format = "png"
	}

	result, err := imageops.Resize(data, imageops.ResizeOptions{
		Width:               req.Width,
		Height:              req.Height,
		Device:              req.Device,
		MaintainAspectRatio: maintain,
		FitMethod:           mapFitMethod(fitMethod),
		OutputFormat:        format,
		BackgroundColor:     req.BackgroundColor,
	})
	if err != nil {
		switch {
		case errors.Is(err, imageops.ErrUnknownDevice):
			a.error(w, http.StatusBadRequest, "bad_request",
				"invalid device preset, available presets: "+strings.Join(imageops.DeviceNames(), ", "))
		case errors.Is(err, imageops.ErrMissingDimensions):
			a.error(w, http.StatusBadRequest, "bad_request", "you must specify either width, height, or a device preset")
		case errors.Is(err, imageops.ErrInvalidImage),
			errors.Is(err, imageops.ErrInvalidColor),
			errors.Is(err, imageops.ErrUnsupportedFormat):
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		default:
			a.Logger.Error().Err(err).Msg("resize failed")
			a.error(w, http.StatusInternalServerError, "resize_failed", "failed to resize image")
		}
		return
	}

	filename := fmt.Sprintf("resized_%s.%s", uuid.NewString(), imageops.FileExtension(result.Format))
	if _, err := a.Output.Write(r.Context(), filename, result.Data); err != nil {
		a.Logger.Error().Err(err).Msg("failed to save resized image")
		a.error(w, http.StatusInternalServerError, "storage_failed", "failed to save resized image")
		return
	}

	a.Logger.Info().Int("width", result.Width).Int("height", result.Height).Msg("image resized")

	a.json(w, http.StatusOK, resizeResponse{
		URL:            joinBase(baseURL(r), generation.ImagePathPrefix+filename),
		Width:          result.Width,
		Height:         result.Height,
		OriginalWidth:  original.Width,
		OriginalHeight: original.Height,
		FitMethod:      fitMethod,
		Format:         strings.ToLower(result.Format),
	})
}

// mapFitMethod translates the wire-level fit names onto the transform
// vocabulary: cover crops, contain pads, fill stretches.
func mapFitMethod(method string) string {
	switch strings.ToLower(method) {
	case "cover":
		return "fill"
	case "contain":
		return "pad"
	case "fill":
		return "stretch"
	default:
		return method
	}
}

// loadImagePayload accepts an http(s) URL, a data URI, or raw base64.
func (a *App) loadImagePayload(r *http.Request, image string) ([]byte, error) {
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return a.fetchImage(r, image)
	}
	payload := image
	if strings.HasPrefix(payload, "data:") {
		idx := strings.IndexByte(payload, ',')
		if idx < 0 {
			return nil, errors.New("malformed data uri")
		}
		payload = payload[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	return data, nil
}
