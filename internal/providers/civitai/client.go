// Package civitai is a thin client for the Civitai orchestration API: it
// submits text-to-image jobs in synchronous wait mode and downloads result
// blobs.
package civitai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/KonstantinBelenko/sexy-parrot/internal/catalog"
)

const (
	defaultBaseURL = "https://orchestration.civitai.com"
	jobsPath       = "/v2/consumer/jobs"

	// Scheduler and clip-skip are fixed across all requests.
	scheduler = "EulerA"
	clipSkip  = 2

	// RandomSeed tells the provider to pick a seed itself, so images in the
	// same batch differ.
	RandomSeed = -1
)

// GenerationParams is the core per-image parameter block.
type GenerationParams struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negativePrompt"`
	Scheduler      string  `json:"scheduler"`
	Steps          int     `json:"steps"`
	CFGScale       float64 `json:"cfgScale"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	ClipSkip       int     `json:"clipSkip"`
	Seed           int64   `json:"seed"`
}

// TextToImageInput is a full job submission. AdditionalNetworks sits at the
// top level of the payload, not inside params.
type TextToImageInput struct {
	Model              string                    `json:"model"`
	Params             GenerationParams          `json:"params"`
	AdditionalNetworks catalog.ModifierSelection `json:"additionalNetworks,omitempty"`
}

// JobResult reports whether a finished job produced a retrievable artifact.
type JobResult struct {
	Available bool   `json:"available"`
	BlobURL   string `json:"blobUrl"`
}

// Job is one unit of work the provider accepted.
type Job struct {
	JobID  string     `json:"jobId"`
	Result *JobResult `json:"result"`
}

// SubmitResponse is the provider's answer to a job submission.
type SubmitResponse struct {
	Token string `json:"token"`
	Jobs  []Job  `json:"jobs"`
}

// ClientOptions configures a Client.
type ClientOptions struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client submits generation jobs and downloads their artifacts. The HTTP
// client carries no timeout: in wait mode the provider holds the connection
// open until the job reaches a terminal state, and the request context is the
// only local bound.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient builds a Client. An empty token is permitted; callers must check
// Configured before submitting.
func NewClient(opts ClientOptions) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		token:   opts.Token,
		baseURL: baseURL,
		http:    httpClient,
		logger:  opts.Logger,
	}
}

// Configured reports whether an API token is present.
func (c *Client) Configured() bool {
	return c.token != ""
}

// SubmitAndWait submits a text-to-image job with wait=true and blocks until
// the provider reports a terminal state.
func (c *Client) SubmitAndWait(ctx context.Context, input TextToImageInput) (*SubmitResponse, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("civitai: encode job input: %w", err)
	}

	url := c.baseURL + jobsPath + "?wait=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("civitai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("civitai: submit job: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("civitai: submit returned status %d: %s", resp.StatusCode, snippet)
	}

	var out SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("civitai: decode job response: %w", err)
	}
	return &out, nil
}

// Download fetches a result artifact. Blob URLs are pre-signed, so no
// authorization header is sent.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("civitai: build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("civitai: download artifact: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("civitai: download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// NewSeedParams fills the fixed parameter fields around the caller's values.
func NewSeedParams(prompt, negativePrompt string, steps int, cfgScale float64, width, height int) GenerationParams {
	return GenerationParams{
		Prompt:         prompt,
		NegativePrompt: negativePrompt,
		Scheduler:      scheduler,
		Steps:          steps,
		CFGScale:       cfgScale,
		Width:          width,
		Height:         height,
		ClipSkip:       clipSkip,
		Seed:           RandomSeed,
	}
}
