package handlers

import "net/http"

// Healthz reports liveness.
func (a *App) Healthz(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Root answers the API index probe.
func (a *App) Root(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"message": "Text to Image API is running"})
}
