package http

import (
	"net/http"

	"boss-timer-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(svc *service.Service, page *Page) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	h := NewHandlers(svc, page)
	r.Get("/api/status", h.Status)
	r.Get("/api/bosses", h.Bosses)
	r.Post("/api/bosses/reset", h.Reset)
	r.Post("/api/bosses/{id}/kill", h.Kill)
	r.Get("/api/events", h.Events)
	r.Get("/", h.Index)
	if page != nil {
		r.NotFound(page.Assets().ServeHTTP)
	}

	return r
}

// cors allows any origin, answering preflight requests directly.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
		if r.Method == http.MethodOptions {
			if h := r.Header.Get("Access-Control-Request-Headers"); h != "" {
				w.Header().Set("Access-Control-Allow-Headers", h)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
