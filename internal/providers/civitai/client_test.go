package civitai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/KonstantinBelenko/sexy-parrot/internal/catalog"
)

func TestSubmitAndWaitPayload(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/consumer/jobs" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("wait") != "true" {
			t.Errorf("wait = %q, want true", r.URL.Query().Get("wait"))
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(SubmitResponse{
			Jobs: []Job{{JobID: "job-1", Result: &JobResult{Available: true, BlobURL: "https://blobs/x"}}},
		})
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{Token: "secret", BaseURL: srv.URL, Logger: zerolog.Nop()})
	networks := catalog.ModifierSelection{
		"urn:air:sd1:lora:civitai:105784@113556": {Type: "Lora", Strength: 0.9},
	}
	input := TextToImageInput{
		Model:              "urn:air:sd1:checkpoint:civitai:15003@1460987",
		Params:             NewSeedParams("a cat", "ugly", 30, 7.5, 512, 512),
		AdditionalNetworks: networks,
	}

	resp, err := client.SubmitAndWait(context.Background(), input)
	if err != nil {
		t.Fatalf("SubmitAndWait returned error: %v", err)
	}
	if len(resp.Jobs) != 1 || resp.Jobs[0].JobID != "job-1" {
		t.Fatalf("jobs = %+v", resp.Jobs)
	}

	params, ok := captured["params"].(map[string]any)
	if !ok {
		t.Fatalf("params missing in payload: %v", captured)
	}
	if params["scheduler"] != "EulerA" {
		t.Errorf("scheduler = %v", params["scheduler"])
	}
	if params["clipSkip"] != float64(2) {
		t.Errorf("clipSkip = %v", params["clipSkip"])
	}
	if params["seed"] != float64(-1) {
		t.Errorf("seed = %v", params["seed"])
	}

	// The modifier selection must round-trip unchanged as a top-level field.
	nets, ok := captured["additionalNetworks"].(map[string]any)
	if !ok {
		t.Fatalf("additionalNetworks missing in payload: %v", captured)
	}
	cfg, ok := nets["urn:air:sd1:lora:civitai:105784@113556"].(map[string]any)
	if !ok {
		t.Fatalf("modifier entry missing: %v", nets)
	}
	if cfg["strength"] != 0.9 || cfg["type"] != "Lora" {
		t.Errorf("modifier config = %v", cfg)
	}
}

func TestSubmitOmitsEmptyNetworks(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(SubmitResponse{Jobs: []Job{{JobID: "job-2"}}})
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{Token: "secret", BaseURL: srv.URL, Logger: zerolog.Nop()})
	_, err := client.SubmitAndWait(context.Background(), TextToImageInput{
		Model:  "urn:air:sd1:checkpoint:civitai:15003@1460987",
		Params: NewSeedParams("a cat", "", 30, 7.5, 512, 512),
	})
	if err != nil {
		t.Fatalf("SubmitAndWait returned error: %v", err)
	}
	if _, present := captured["additionalNetworks"]; present {
		t.Fatal("additionalNetworks should be omitted when empty")
	}
}

func TestSubmitRejectsNonSuccessStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{Token: "secret", BaseURL: srv.URL, Logger: zerolog.Nop()})
	if _, err := client.SubmitAndWait(context.Background(), TextToImageInput{}); err == nil {
		t.Fatal("expected an error for a 429 response")
	}
}

func TestDownload(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{Token: "secret", Logger: zerolog.Nop()})

	data, err := client.Download(context.Background(), srv.URL+"/blob")
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("data = %q", data)
	}

	if _, err := client.Download(context.Background(), srv.URL+"/missing"); err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}

func TestConfigured(t *testing.T) {
	t.Parallel()
	if NewClient(ClientOptions{Logger: zerolog.Nop()}).Configured() {
		t.Fatal("client without token must not report configured")
	}
	if !NewClient(ClientOptions{Token: "x", Logger: zerolog.Nop()}).Configured() {
		t.Fatal("client with token must report configured")
	}
}
