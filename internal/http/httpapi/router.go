package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/KonstantinBelenko/sexy-parrot/internal/http/handlers"
	"github.com/KonstantinBelenko/sexy-parrot/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS([]string{"*"}),
	)

	r.Get("/", app.Root)
	r.Get("/healthz", app.Healthz)

	r.Post("/generate-image", app.GenerateImage)
	r.Post("/remix-image", app.RemixImage)
	r.Post("/resize-image", app.ResizeImage)
	r.Post("/wallpaper/{device}", app.Wallpaper)
	r.Post("/upscale-image/{filename}", app.UpscaleImage)
	r.Get("/image/{filename}", app.GetImage)

	r.Post("/interpret", app.Interpret)
	r.Get("/jobs/{job_id}", app.GetJob)

	return r
}
