package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/KonstantinBelenko/sexy-parrot/internal/catalog"
	"github.com/KonstantinBelenko/sexy-parrot/internal/generation"
	"github.com/KonstantinBelenko/sexy-parrot/internal/imageops"
)

type remixRequest struct {
	ImageURL       string  `json:"image_url"`
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Model          string  `json:"model"`
	NumImages      int     `json:"num_images,omitempty"`
	Strength       float64 `json:"strength,omitempty"`
}

type remixData struct {
	Prompt          string                    `json:"prompt"`
	OriginalPrompt  string                    `json:"original_prompt"`
	NegativePrompt  string                    `json:"negative_prompt,omitempty"`
	Model           string                    `json:"model"`
	Strength        float64                   `json:"strength"`
	SourceImage     string                    `json:"source_image"`
	AdditionalLoras catalog.ModifierSelection `json:"additional_loras,omitempty"`
}

type remixResponse struct {
	ImageURLs     []string  `json:"image_urls"`
	CivitaiJobIDs []string  `json:"civitai_job_ids"`
	RemixData     remixData `json:"remix_data"`
}

// RemixImage produces local variations of a source image. The prompt is still
// run through the enhancer so the response carries the provenance a future
// img2img call would use.
func (a *App) RemixImage(w http.ResponseWriter, r *http.Request) {
	var req remixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.ImageURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "image_url is required")
		return
	}

	strength := clampFloat(req.Strength, 0.3, 1.0, 0.7)
	numImages := clampInt(req.NumImages, 1, 4, 4)

	enhancedPrompt := req.Prompt
	var suggested catalog.ModifierSelection
	if a.Enhancer != nil && req.Prompt != "" {
		enhanced, err := a.Enhancer.Enhance(r.Context(), req.Prompt)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("prompt enhancement failed, using original prompt")
		}
		if enhanced.Prompt != "" {
			enhancedPrompt = enhanced.Prompt
		}
		suggested = enhanced.Modifiers
	}

	source, err := a.fetchImage(r, req.ImageURL)
	if err != nil {
		a.Logger.Error().Err(err).Str("url", req.ImageURL).Msg("failed to fetch source image")
		a.error(w, http.StatusBadRequest, "bad_request", "could not fetch source image")
		return
	}

	// Keep the source around so a remix can be traced back to its input.
	if a.Uploads != nil {
		if _, err := a.Uploads.Write(r.Context(), fmt.Sprintf("source_%s.png", uuid.NewString()), source); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to archive source image")
		}
	}

	urls := make([]string, numImages)
	g, gctx := errgroup.WithContext(r.Context())
	base := baseURL(r)
	for i := 0; i < numImages; i++ {
		i := i
		g.Go(func() error {
			data, err := imageops.Variation(source, i, strength)
			if err != nil {
				a.Logger.Error().Err(err).Int("variation", i).Msg("variation failed")
				return nil
			}
			filename := fmt.Sprintf("remix_%s.png", uuid.NewString())
			if _, err := a.Output.Write(gctx, filename, data); err != nil {
				a.Logger.Error().Err(err).Int("variation", i).Msg("failed to save variation")
				return nil
			}
			urls[i] = joinBase(base, generation.ImagePathPrefix+filename)
			return nil
		})
	}
	_ = g.Wait()

	collected := make([]string, 0, numImages)
	for _, u := range urls {
		if u != "" {
			collected = append(collected, u)
		}
	}
	if len(collected) == 0 {
		a.error(w, http.StatusInternalServerError, "remix_failed", "failed to generate image variations")
		return
	}

	jobIDs := make([]string, len(collected))
	for i := range jobIDs {
		jobIDs[i] = "placeholder"
	}

	a.json(w, http.StatusOK, remixResponse{
		ImageURLs:     collected,
		CivitaiJobIDs: jobIDs,
		RemixData: remixData{
			Prompt:          enhancedPrompt,
			OriginalPrompt:  req.Prompt,
			NegativePrompt:  req.NegativePrompt,
			Model:           req.Model,
			Strength:        strength,
			SourceImage:     req.ImageURL,
			AdditionalLoras: suggested,
		},
	})
}

// fetchImage downloads a remote source image, or reads it from the local
// output store when the URL points back at this server's /image route.
func (a *App) fetchImage(r *http.Request, url string) ([]byte, error) {
	client := a.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source image returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func clampFloat(v, min, max, fallback float64) float64 {
	if v == 0 {
		v = fallback
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampInt(v, min, max, fallback int) int {
	if v == 0 {
		v = fallback
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
