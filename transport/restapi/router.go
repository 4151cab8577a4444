package restapi

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"

	"github.com/priestd09/sourcegraph/assets"
	"github.com/priestd09/sourcegraph/internal/svc/extsvcsvc"
	"github.com/priestd09/sourcegraph/pkg/tracer"
	"github.com/priestd09/sourcegraph/pkg/validator"
	"github.com/priestd09/sourcegraph/transport/restapi/handlerextsvc"
)

type Config struct {
	AppServiceName string            `validate:"required"`
	AppVersion     string            `validate:"required"`
	ExtSvcService  extsvcsvc.Service `validate:"required"`
}

type DefaultHTTP struct {
	router *chi.Mux
}

func NewHTTPTransport(cfg Config) (*DefaultHTTP, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, fmt.Errorf("http transport cfg error: %w", err)
	}

	// ** External service handler
	handlerExtSvcCfg := handlerextsvc.HandlerConfig{
		ExtSvcService: cfg.ExtSvcService,
	}

	handlerExtSvc, err := handlerextsvc.NewHandler(handlerExtSvcCfg)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()

	skip := func(r *http.Request) bool {
		switch strings.TrimSpace(path.Clean(r.URL.Path)) {
		case "/health",
			"/ping":
			return true
		}

		return false
	}

	router.Use(middleware.StripSlashes)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	router.Use(func(next http.Handler) http.Handler {
		return tracer.Middleware(tracer.MiddlewareConfig{
			TracerName:     "github.com/priestd09/sourcegraph",
			ServiceName:    assets.ServiceName,
			SkipFunc:       skip,
			TracerProvider: otel.GetTracerProvider(),    // global tracer provider
			TextPropagator: otel.GetTextMapPropagator(), // use global text map propagator
		}, next)
	})

	// add trace id and also log request response
	router.Use(func(next http.Handler) http.Handler {
		return requestLogger(skip, next)
	})

	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fmt.Sprintf(`{"service": %q, "version": %q}`, cfg.AppServiceName, cfg.AppVersion)))
	})

	// Resource: external services
	router.Route("/api/v1/external-services", func(r chi.Router) {
		r.Post("/", handlerExtSvc.CreateExtSvc())      // register new connection
		r.Get("/", handlerExtSvc.ListExtSvc())         // list connections, newest first
		r.Get("/{id}", handlerExtSvc.GetExtSvc())      // get one
		r.Put("/{id}", handlerExtSvc.UpdateExtSvc())   // patch display name and/or config
		r.Delete("/{id}", handlerExtSvc.DelExtSvc())   // soft delete
	})

	instance := &DefaultHTTP{
		router: router,
	}

	return instance, nil
}

// Server .
func (a *DefaultHTTP) Server() http.Handler {
	return a.router
}
