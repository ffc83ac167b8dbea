package main

import (
	"net/http"
	"time"

	"github.com/farxc/datajud_wrapper/internal/datajud"
	"github.com/farxc/datajud_wrapper/internal/logger"
	"github.com/farxc/datajud_wrapper/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type application struct {
	config   config
	logger   *logger.Logger
	metrics  *telemetry.Registry
	validate *validator.Validate

	// searcherFor returns the DataJud searcher bound to one tribunal index.
	searcherFor func(tribunal string) datajud.Searcher
	now         func() time.Time
}

type config struct {
	addr    string
	datajud datajudConfig
}

type datajudConfig struct {
	baseURL    string
	apiKey     string
	tribunal   string
	timeout    time.Duration
	maxRetries int
	cohortSize int
	charts     bool
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	r.Use(middleware.Timeout(60 * time.Second))

	r.Handle("/metrics", app.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.Route("/cases/{numero}", func(r chi.Router) {
			r.Get("/summary", app.handleGetCaseSummary)
			r.Get("/report", app.handleGetCaseReport)
		})
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	const component = "Server"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 120,
		ReadTimeout:  time.Second * 40,
		IdleTimeout:  time.Minute,
	}

	app.logger.Info(component, "Server started: addr=%s", app.config.addr)
	return srv.ListenAndServe()
}
