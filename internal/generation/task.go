package generation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/KonstantinBelenko/sexy-parrot/internal/catalog"
	"github.com/KonstantinBelenko/sexy-parrot/internal/providers/civitai"
)

// ImagePathPrefix is the route prefix generated files are served under.
const ImagePathPrefix = "image/"

// taskParams is the read-only state every task in one request shares.
type taskParams struct {
	modelURN       string
	prompt         string
	negativePrompt string
	steps          int
	guidanceScale  float64
	width          int
	height         int
	networks       catalog.ModifierSelection
	baseURL        string
}

// runTask generates a single image: submit in wait mode, extract the artifact
// URL, download, persist, and build the locally-servable URL. It never fails;
// every error is logged and collapses to an empty (or job-ID-only) Outcome.
func (o *Orchestrator) runTask(ctx context.Context, index, total int, p taskParams) Outcome {
	log := o.logger.With().Str("image", fmt.Sprintf("%d/%d", index+1, total)).Logger()

	input := civitai.TextToImageInput{
		Model:  p.modelURN,
		Params: civitai.NewSeedParams(p.prompt, p.negativePrompt, p.steps, p.guidanceScale, p.width, p.height),
	}
	if len(p.networks) > 0 {
		input.AdditionalNetworks = p.networks
	}

	log.Info().Msg("sending to civitai")
	resp, err := o.client.SubmitAndWait(ctx, input)
	if err != nil {
		log.Error().Err(err).Msg("job submission failed")
		return Outcome{}
	}
	if resp == nil || len(resp.Jobs) == 0 {
		log.Error().Msg("no jobs in civitai response")
		return Outcome{}
	}

	job := resp.Jobs[0]
	out := Outcome{JobID: job.JobID}

	if job.Result == nil || !job.Result.Available || job.Result.BlobURL == "" {
		log.Error().Str("job_id", job.JobID).Msg("job completed but no image URL found")
		return out
	}

	log.Info().Msg("downloading from civitai")
	data, err := o.client.Download(ctx, job.Result.BlobURL)
	if err != nil {
		log.Error().Err(err).Msg("artifact download failed")
		return out
	}

	filename := fmt.Sprintf("civitai_%s.png", uuid.NewString())
	if _, err := o.store.Write(ctx, filename, data); err != nil {
		log.Error().Err(err).Msg("failed to save image")
		return out
	}

	out.LocalURL = joinURL(p.baseURL, ImagePathPrefix+filename)
	log.Info().Str("url", out.LocalURL).Msg("saved to server")
	return out
}
