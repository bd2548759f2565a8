package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/snappy-loop/blogs/internal/ratelimit"
)

// Router registers all routes. limiter may be nil to disable rate limiting of /api/generate*.
func (h *Handler) Router(limiter ratelimit.Limiter, limit int) *mux.Router {
	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})

	limited := func(f http.HandlerFunc) http.Handler { return f }
	if limiter != nil {
		mw := ratelimit.Middleware(limiter, limit)
		limited = func(f http.HandlerFunc) http.Handler { return mw(f) }
	}

	r.HandleFunc("/healthz", h.Health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/generate", limited(h.Generate)).Methods("POST")
	api.Handle("/generate/ws", limited(h.GenerateWS)).Methods("GET")
	api.Handle("/generate-post", limited(h.GeneratePost)).Methods("POST")
	api.Handle("/generate-blog", limited(h.GenerateBlog)).Methods("POST")
	api.Handle("/generate-image", limited(h.GenerateImage)).Methods("POST")
	api.Handle("/generate-keywords", limited(h.GenerateKeywords)).Methods("POST")
	api.HandleFunc("/trending-stories", h.TrendingStories).Methods("POST")
	api.HandleFunc("/send-email", h.SendEmail).Methods("POST")
	api.HandleFunc("/save-local-copy", h.SaveCopy).Methods("POST")

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/jobs", h.CreateJob).Methods("POST")
	v1.HandleFunc("/jobs/{id}", h.GetJob).Methods("GET")

	return r
}
