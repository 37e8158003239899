// Package chimw mounts the gateway on a chi router.
package chimw

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/reoring/userfields/gateway"
	"github.com/reoring/userfields/middleware"
)

// Register mounts every route of gw on r.
func Register(r chi.Router, gw *gateway.Gateway) {
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) { render(w, gw.Health(req.Context())) })

	r.Route("/users", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) { render(w, gw.ListUsers(req.Context())) })
		r.Post("/", func(w http.ResponseWriter, req *http.Request) { render(w, gw.CreateUser(req.Context(), req.Body)) })
		r.Get("/schema", func(w http.ResponseWriter, req *http.Request) { render(w, gw.UserSchema(req.Context())) })
		r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
			render(w, gw.GetUser(req.Context(), chi.URLParam(req, "id")))
		})
		r.Patch("/{id}", func(w http.ResponseWriter, req *http.Request) {
			render(w, gw.UpdateUser(req.Context(), chi.URLParam(req, "id"), req.Body))
		})
		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			render(w, gw.DeleteUser(req.Context(), chi.URLParam(req, "id")))
		})
	})

	r.Route("/user_custom_fields", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) { render(w, gw.ListFields(req.Context())) })
		r.Post("/", func(w http.ResponseWriter, req *http.Request) { render(w, gw.CreateField(req.Context(), req.Body)) })
		r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
			render(w, gw.GetField(req.Context(), chi.URLParam(req, "id")))
		})
		r.Patch("/{id}", func(w http.ResponseWriter, req *http.Request) {
			render(w, gw.UpdateField(req.Context(), chi.URLParam(req, "id"), req.Body))
		})
		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			render(w, gw.DeleteField(req.Context(), chi.URLParam(req, "id")))
		})
	})
}

// RequestLogger assigns a request id and logs one line per request.
func RequestLogger(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := middleware.RequestID(r)
			w.Header().Set(middleware.HeaderRequestID, id)
			r = r.WithContext(middleware.ContextWithRequestID(r.Context(), id))
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			middleware.LogRequest(r.Context(), l, r.Method, r.URL.Path, ww.Status(), time.Since(start))
		})
	}
}

func render(w http.ResponseWriter, r gateway.Response) {
	if r.Body != nil {
		w.Header().Set("Content-Type", gateway.ContentType)
	}
	w.WriteHeader(r.Status)
	if r.Body != nil {
		_, _ = w.Write(r.Body)
	}
}
