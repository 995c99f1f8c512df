// Package generation coordinates the prompt-to-image pipeline: resolve the
// final prompt and modifier set, fan out parallel provider jobs, persist the
// artifacts, and fold the outcomes into a single response.
package generation

import (
	"context"
	"errors"

	"github.com/KonstantinBelenko/sexy-parrot/internal/catalog"
	"github.com/KonstantinBelenko/sexy-parrot/internal/providers/civitai"
	"github.com/KonstantinBelenko/sexy-parrot/internal/providers/prompt"
)

// Request carries caller-supplied generation parameters. Zero values take
// the documented defaults during generation.
type Request struct {
	Prompt             string                    `json:"prompt"`
	NegativePrompt     string                    `json:"negative_prompt,omitempty"`
	Model              string                    `json:"model"`
	ModelURN           string                    `json:"model_urn,omitempty"`
	Width              int                       `json:"width,omitempty"`
	Height             int                       `json:"height,omitempty"`
	Steps              int                       `json:"num_inference_steps,omitempty"`
	GuidanceScale      float64                   `json:"guidance_scale,omitempty"`
	NumImages          int                       `json:"num_images,omitempty"`
	AdditionalNetworks catalog.ModifierSelection `json:"additional_networks,omitempty"`
}

// Data is the provenance block returned with every successful generation.
type Data struct {
	Prompt         string                    `json:"prompt"`
	OriginalPrompt string                    `json:"original_prompt"`
	PromptEnhanced bool                      `json:"prompt_enhanced"`
	NegativePrompt string                    `json:"negative_prompt,omitempty"`
	Model          string                    `json:"model"`
	Loras          catalog.ModifierSelection `json:"loras,omitempty"`
}

// Response aggregates the outcomes of all parallel generation tasks.
type Response struct {
	ImageURLs      []string `json:"image_urls"`
	CivitaiJobIDs  []string `json:"civitai_job_ids"`
	GenerationData Data     `json:"generation_data"`
}

// Outcome is one task's result. A failed task leaves both fields empty; a
// task whose job was accepted but produced no artifact carries only JobID.
type Outcome struct {
	JobID    string
	LocalURL string
}

// Errors the orchestrator surfaces to its caller. Everything else is
// absorbed at the task or enhancer boundary.
var (
	ErrUnknownModel = errors.New("generation: model not found in models library")
	ErrTokenMissing = errors.New("generation: civitai api token is not configured")
	ErrNoImages     = errors.New("generation: failed to generate any images")
)

// Enhancer is the slice of the prompt service the orchestrator needs.
type Enhancer interface {
	Enhance(ctx context.Context, rawPrompt string) (prompt.Enhancement, error)
}

// ImageClient is the slice of the provider client the orchestrator needs.
type ImageClient interface {
	Configured() bool
	SubmitAndWait(ctx context.Context, input civitai.TextToImageInput) (*civitai.SubmitResponse, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// BlobStore persists downloaded artifacts.
type BlobStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}
