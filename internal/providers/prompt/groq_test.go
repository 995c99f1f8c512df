package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/KonstantinBelenko/sexy-parrot/internal/catalog"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func testCatalog() *catalog.Catalog {
	return catalog.New(
		[]catalog.BaseModel{{Name: "SD 1.5", URN: "urn:air:sd1:checkpoint:civitai:15003@1460987"}},
		[]catalog.StyleModifier{
			{Name: "watercolor", URN: "urn:air:sd1:lora:civitai:105784@113556", BaseModel: "SD 1.5", TriggerWords: []string{"watercolor"}},
		},
	)
}

// chatServer fakes the Groq chat completions endpoint, returning content as
// the assistant message body.
func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
			return
		}
		body := map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{
				{"index": 0, "finish_reason": "stop", "message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func newTestEnhancer(baseURL string, client *http.Client) *GroqEnhancer {
	return NewGroqEnhancer(Options{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		HTTPClient: client,
		Catalog:    testCatalog(),
		Logger:     zerolog.Nop(),
	})
}

func TestEnhanceSuccess(t *testing.T) {
	t.Parallel()
	content := `{
		"enhanced_prompt": "((watercolor painting)), soft brushstrokes, vibrant palette",
		"loras": {
			"urn:air:sd1:lora:civitai:105784@113556": {"type": "Lora", "strength": 0.9},
			"watercolor": {"type": "Lora"},
			"oil-painting": {"type": "Lora", "strength": 0.6}
		}
	}`
	srv := chatServer(t, http.StatusOK, content)
	defer srv.Close()

	enh, err := newTestEnhancer(srv.URL, nil).Enhance(context.Background(), "a watercolor cat")
	if err != nil {
		t.Fatalf("Enhance returned error: %v", err)
	}
	if enh.Prompt != "((watercolor painting)), soft brushstrokes, vibrant palette" {
		t.Fatalf("prompt = %q", enh.Prompt)
	}
	// The URN key and the name key both resolve to the same URN; the unknown
	// key is dropped.
	if len(enh.Modifiers) != 1 {
		t.Fatalf("modifiers = %v, want exactly one entry", enh.Modifiers)
	}
	cfg, ok := enh.Modifiers["urn:air:sd1:lora:civitai:105784@113556"]
	if !ok {
		t.Fatalf("missing watercolor URN in %v", enh.Modifiers)
	}
	if cfg.Type != "Lora" {
		t.Fatalf("type = %q", cfg.Type)
	}
}

func TestEnhanceDefaultsOmittedStrength(t *testing.T) {
	t.Parallel()
	content := `{"enhanced_prompt": "p", "loras": {"watercolor": {"type": "Lora"}}}`
	srv := chatServer(t, http.StatusOK, content)
	defer srv.Close()

	enh, err := newTestEnhancer(srv.URL, nil).Enhance(context.Background(), "x")
	if err != nil {
		t.Fatalf("Enhance returned error: %v", err)
	}
	cfg := enh.Modifiers["urn:air:sd1:lora:civitai:105784@113556"]
	if cfg.Strength != catalog.DefaultStrength {
		t.Fatalf("strength = %v, want %v", cfg.Strength, catalog.DefaultStrength)
	}
}

func TestEnhanceKeepsModifiersWhenPromptOmitted(t *testing.T) {
	t.Parallel()
	content := `{"loras": {"watercolor": {"strength": 0.8}}}`
	srv := chatServer(t, http.StatusOK, content)
	defer srv.Close()

	enh, err := newTestEnhancer(srv.URL, nil).Enhance(context.Background(), "original prompt")
	if err != nil {
		t.Fatalf("Enhance returned error: %v", err)
	}
	if enh.Prompt != "original prompt" {
		t.Fatalf("prompt = %q, want the original back", enh.Prompt)
	}
	if len(enh.Modifiers) != 1 {
		t.Fatalf("modifiers = %v", enh.Modifiers)
	}
}

func TestEnhanceFallsBackOnAPIError(t *testing.T) {
	t.Parallel()
	srv := chatServer(t, http.StatusInternalServerError, "")
	defer srv.Close()

	enh, err := newTestEnhancer(srv.URL, nil).Enhance(context.Background(), "a fantasy castle")
	if err == nil {
		t.Fatal("expected an error from a 500 response")
	}
	if enh.Prompt != "a fantasy castle" {
		t.Fatalf("fallback prompt = %q, want the original", enh.Prompt)
	}
	if len(enh.Modifiers) != 0 {
		t.Fatalf("fallback modifiers = %v, want empty", enh.Modifiers)
	}
}

func TestEnhanceFallsBackOnMalformedJSON(t *testing.T) {
	t.Parallel()
	srv := chatServer(t, http.StatusOK, "this is not json")
	defer srv.Close()

	enh, err := newTestEnhancer(srv.URL, nil).Enhance(context.Background(), "a fantasy castle")
	if err == nil {
		t.Fatal("expected an error from malformed model output")
	}
	if enh.Prompt != "a fantasy castle" || len(enh.Modifiers) != 0 {
		t.Fatalf("fallback = %+v, want original prompt and empty selection", enh)
	}
}

func TestEnhanceFallsBackOnTransportError(t *testing.T) {
	t.Parallel()
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("boom")
	})}

	enh, err := newTestEnhancer("http://groq.invalid/v1", client).Enhance(context.Background(), "a fantasy castle")
	if err == nil {
		t.Fatal("expected a transport error")
	}
	if enh.Prompt != "a fantasy castle" || len(enh.Modifiers) != 0 {
		t.Fatalf("fallback = %+v, want original prompt and empty selection", enh)
	}
}
