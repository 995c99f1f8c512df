// Package handlers holds the HTTP layer: request parsing, error mapping, and
// delegation into the pipeline packages.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/KonstantinBelenko/sexy-parrot/internal/catalog"
	"github.com/KonstantinBelenko/sexy-parrot/internal/generation"
	"github.com/KonstantinBelenko/sexy-parrot/internal/jobs"
	"github.com/KonstantinBelenko/sexy-parrot/internal/providers/prompt"
	"github.com/KonstantinBelenko/sexy-parrot/internal/storage"
)

// App is the handler container; everything it needs is injected.
type App struct {
	Logger       zerolog.Logger
	Catalog      *catalog.Catalog
	Orchestrator *generation.Orchestrator
	Enhancer     generation.Enhancer
	Interpreter  *prompt.Interpreter
	Output       *storage.FileStore
	Uploads      *storage.FileStore
	Jobs         jobs.Store
	HTTPClient   *http.Client
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, msg string) {
	a.json(w, code, map[string]string{"error": slug, "message": msg})
}

// baseURL reconstructs the externally visible root URL of this request, so
// artifact links point back at this server.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + "/"
}

func joinBase(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}
