// Package prompt talks to Groq's OpenAI-compatible chat API to enhance image
// generation prompts and to answer free-form interpretation requests.
package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/KonstantinBelenko/sexy-parrot/internal/catalog"
)

const (
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
	defaultGroqModel   = "qwen-qwq-32b"

	enhanceTimeout   = 30 * time.Second
	enhanceMaxTokens = 1024
	enhanceTemp      = 0.2
)

// Enhancement is the result of running a prompt through the text model.
type Enhancement struct {
	Prompt    string
	Modifiers catalog.ModifierSelection
}

// Service enhances raw prompts. Implementations must return usable fallback
// values (original prompt, empty selection) alongside any error, so callers
// can always proceed.
type Service interface {
	Enhance(ctx context.Context, prompt string) (Enhancement, error)
}

// Options configures a GroqEnhancer.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Catalog    *catalog.Catalog
	Logger     zerolog.Logger
}

// GroqEnhancer asks a Groq-hosted model to rewrite a prompt in Stable
// Diffusion style and to suggest style modifiers from the catalog.
type GroqEnhancer struct {
	client  *openai.Client
	model   string
	catalog *catalog.Catalog
	logger  zerolog.Logger
}

// NewGroqEnhancer builds an enhancer. An empty API key is allowed: calls will
// fail and degrade to the fallback path, same as the rest of the error modes.
func NewGroqEnhancer(opts Options) *GroqEnhancer {
	config := openai.DefaultConfig(opts.APIKey)
	config.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if config.BaseURL == "" {
		config.BaseURL = defaultGroqBaseURL
	}
	if opts.HTTPClient != nil {
		config.HTTPClient = opts.HTTPClient
	}
	model := opts.Model
	if model == "" {
		model = defaultGroqModel
	}
	return &GroqEnhancer{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		catalog: opts.Catalog,
		logger:  opts.Logger,
	}
}

// modelModifier mirrors one entry of the model's "loras" output. Strength is
// a pointer so an omitted value can fall back to the catalog default.
type modelModifier struct {
	Type     string   `json:"type"`
	Strength *float64 `json:"strength"`
}

type modelPayload struct {
	Loras          map[string]modelModifier `json:"loras"`
	EnhancedPrompt string                   `json:"enhanced_prompt"`
}

// Enhance sends the prompt plus the modifier catalog to the model and parses
// its structured answer. Every failure mode returns the original prompt and
// an empty selection along with the error; callers log and move on.
func (g *GroqEnhancer) Enhance(ctx context.Context, rawPrompt string) (Enhancement, error) {
	fallback := Enhancement{Prompt: rawPrompt, Modifiers: catalog.ModifierSelection{}}

	ctx, cancel := context.WithTimeout(ctx, enhanceTimeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   enhanceMaxTokens,
		Temperature: enhanceTemp,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: g.systemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Analyze and enhance this image generation prompt: '%s'", rawPrompt)},
		},
	})
	if err != nil {
		return fallback, fmt.Errorf("prompt: groq call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fallback, errors.New("prompt: groq returned no choices")
	}

	var payload modelPayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		return fallback, fmt.Errorf("prompt: decode model output: %w", err)
	}

	enhanced := strings.TrimSpace(payload.EnhancedPrompt)
	if enhanced == "" {
		enhanced = rawPrompt
	}

	return Enhancement{Prompt: enhanced, Modifiers: g.normalize(payload.Loras)}, nil
}

// normalize converts the model's identifier-or-name keyed map into a clean
// URN-keyed selection, dropping keys the catalog does not know.
func (g *GroqEnhancer) normalize(loras map[string]modelModifier) catalog.ModifierSelection {
	selection := make(catalog.ModifierSelection, len(loras))
	for key, cfg := range loras {
		urn, ok := g.catalog.ResolveModifierKey(key)
		if !ok {
			g.logger.Warn().Str("key", key).Msg("unknown LoRA key from model, skipping")
			continue
		}
		kind := cfg.Type
		if kind == "" {
			kind = "Lora"
		}
		strength := catalog.DefaultStrength
		if cfg.Strength != nil {
			strength = *cfg.Strength
		}
		selection[urn] = catalog.ModifierConfig{Type: kind, Strength: strength}
	}
	return selection
}

func (g *GroqEnhancer) systemPrompt() string {
	var b strings.Builder
	b.WriteString(`You are an expert in analyzing and enhancing image generation prompts for Stable Diffusion.

Your task is to:
1. Analyze the user's prompt
2. Enhance the prompt with more details in the proper format for Stable Diffusion
3. Identify which of our available LoRAs (style modifiers) would be appropriate to use

STABLE DIFFUSION PROMPT FORMAT GUIDELINES:
- Format the prompt as a detailed, comma-separated list of descriptive words and phrases
- Arrange elements chronologically with the most important elements at the beginning
- Use parentheses () to increase emphasis on important features (1.1x weight)
- Use double parentheses (()) for even stronger emphasis on critical elements (1.21x weight)
- If using LoRAs, include their specific trigger words near the beginning of the prompt
- Add quality boosters like "high quality", "detailed", "8k", "photorealistic" as appropriate
- Be specific and detailed, breaking down general concepts into specific visual elements
- Include materials, lighting, mood, and color information when relevant

AVAILABLE LORAS:
`)
	for _, m := range g.catalog.Modifiers() {
		fmt.Fprintf(&b, "- %s: Best for %s. Trigger words: %s\n",
			m.Name, coalesce(m.BaseModel, "any model"), strings.Join(m.TriggerWords, ", "))
	}
	b.WriteString(`
RESPONSE FORMAT:
You must respond in JSON format with the following structure:
{
  "loras": {
    "<urn>": {
      "type": "Lora",
      "strength": 0.75
    }
  },
  "enhanced_prompt": "detailed, comma-separated, prompt, with (emphasis) on important, elements"
}

EXAMPLE PROMPT STRUCTURES:
Original: "a fantasy castle"
Enhanced: "((fantasy castle)), (massive stone towers), ornate architecture, detailed stonework, dramatic lighting, epic scale, medieval fantasy, moat, drawbridge, flying banners, 8k, hyperrealistic"

Original: "a girl in watercolor style"
Enhanced: "((watercolor painting)), (beautiful young woman), (delicate features), flowing colors, soft brushstrokes, artistic composition, vibrant palette, detailed portrait, paint splatters, color bleeding effect, professional artwork"

Only include LoRAs that truly match the prompt's style or content. If no appropriate LoRAs, return an empty object {}.
The strength should be between 0.5 (subtle effect) and 1.0 (strong effect) depending on how central the style is to the prompt.
`)
	return b.String()
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
