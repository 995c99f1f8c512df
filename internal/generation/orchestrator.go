package generation

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/KonstantinBelenko/sexy-parrot/internal/catalog"
)

// Defaults applied to unset request fields.
const (
	defaultDimension     = 512
	defaultSteps         = 30
	defaultGuidanceScale = 7.5

	minImages = 1
	maxImages = 10
)

// DefaultNegativePrompt suppresses the usual defects when the caller gives no
// negative prompt of their own.
const DefaultNegativePrompt = "(deformed iris, deformed pupils, semi-realistic, cgi, 3d, render, sketch, cartoon, drawing, anime, mutated hands and fingers:1.4), (deformed, distorted, disfigured:1.3)"

// Orchestrator runs the full pipeline for one request.
type Orchestrator struct {
	catalog  *catalog.Catalog
	enhancer Enhancer
	client   ImageClient
	store    BlobStore
	logger   zerolog.Logger
}

// NewOrchestrator wires the pipeline's collaborators together.
func NewOrchestrator(cat *catalog.Catalog, enhancer Enhancer, client ImageClient, store BlobStore, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		catalog:  cat,
		enhancer: enhancer,
		client:   client,
		store:    store,
		logger:   logger,
	}
}

// Generate resolves the prompt and modifier set, fans out the requested
// number of generation tasks, and folds their outcomes. It fails only on an
// unknown model, a missing provider credential, or when every task failed.
func (o *Orchestrator) Generate(ctx context.Context, req Request, baseURL string) (*Response, error) {
	model, ok := o.catalog.BaseModel(req.Model)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, req.Model)
	}
	modelURN := req.ModelURN
	if modelURN == "" {
		modelURN = model.URN
	}

	// Modifier precedence: explicit caller selection, then trigger-word
	// matches, then (below) the enhancer's suggestions. An explicit caller
	// choice is never overridden.
	networks := req.AdditionalNetworks
	if len(networks) == 0 {
		if matched := o.catalog.FindModifiers(req.Prompt); len(matched) > 0 {
			o.logger.Info().Int("count", len(matched)).Msg("identified LoRAs in prompt")
			networks = matched
		}
	}

	originalPrompt := req.Prompt
	workingPrompt := originalPrompt
	if o.enhancer != nil {
		enhanced, err := o.enhancer.Enhance(ctx, originalPrompt)
		if err != nil {
			// Enhancement is best effort; the fallback values in enhanced are
			// the original prompt and an empty selection.
			o.logger.Warn().Err(err).Msg("prompt enhancement failed, using original prompt")
		}
		if len(networks) == 0 && len(enhanced.Modifiers) > 0 {
			o.logger.Info().Int("count", len(enhanced.Modifiers)).Msg("using LoRAs suggested by enhancer")
			networks = enhanced.Modifiers
		}
		if enhanced.Prompt != "" {
			workingPrompt = enhanced.Prompt
		}
	}

	numImages := clampImages(req.NumImages)

	if !o.client.Configured() {
		return nil, ErrTokenMissing
	}

	params := taskParams{
		modelURN:       modelURN,
		prompt:         workingPrompt,
		negativePrompt: coalesce(req.NegativePrompt, DefaultNegativePrompt),
		steps:          coalesceInt(req.Steps, defaultSteps),
		guidanceScale:  coalesceFloat(req.GuidanceScale, defaultGuidanceScale),
		width:          coalesceInt(req.Width, defaultDimension),
		height:         coalesceInt(req.Height, defaultDimension),
		networks:       networks,
		baseURL:        baseURL,
	}

	o.logger.Info().
		Str("model", req.Model).
		Int("num_images", numImages).
		Msg("generating images in parallel")

	// Fan out one task per image. Tasks absorb their own failures and never
	// return an error, so the group always waits for every sibling; results
	// land in a slot per task, which keeps submission order.
	outcomes := make([]Outcome, numImages)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < numImages; i++ {
		i := i
		g.Go(func() error {
			outcomes[i] = o.runTask(gctx, i, numImages, params)
			return nil
		})
	}
	_ = g.Wait()

	urls := make([]string, 0, numImages)
	jobIDs := make([]string, 0, numImages)
	for _, out := range outcomes {
		if out.JobID != "" {
			jobIDs = append(jobIDs, out.JobID)
		}
		if out.LocalURL != "" {
			urls = append(urls, out.LocalURL)
		}
	}

	if len(urls) == 0 {
		return nil, ErrNoImages
	}

	return &Response{
		ImageURLs:     urls,
		CivitaiJobIDs: jobIDs,
		GenerationData: Data{
			Prompt:         workingPrompt,
			OriginalPrompt: originalPrompt,
			PromptEnhanced: workingPrompt != originalPrompt,
			NegativePrompt: req.NegativePrompt,
			Model:          req.Model,
			Loras:          networks,
		},
	}, nil
}

func clampImages(n int) int {
	if n < minImages {
		return minImages
	}
	if n > maxImages {
		return maxImages
	}
	return n
}

// joinURL appends a relative path to the caller's base URL.
func joinURL(base, rel string) string {
	if base == "" {
		return "/" + rel
	}
	if u, err := url.Parse(base); err == nil {
		return u.JoinPath(rel).String()
	}
	return strings.TrimRight(base, "/") + "/" + rel
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func coalesceInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func coalesceFloat(v, fallback float64) float64 {
	if v > 0 {
		return v
	}
	return fallback
}
