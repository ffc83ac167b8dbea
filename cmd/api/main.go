package main

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/farxc/datajud_wrapper/internal/datajud"
	"github.com/farxc/datajud_wrapper/internal/datajud/client"
	"github.com/farxc/datajud_wrapper/internal/env"
	"github.com/farxc/datajud_wrapper/internal/logger"
	"github.com/farxc/datajud_wrapper/internal/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

func main() {
	const component = "Main"

	log.SetFlags(0)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}

	appLogger := &logger.Logger{MinLevel: logger.ParseLevel(env.GetString("LOG_LEVEL", "info"))}

	cfg := config{
		addr: env.GetString("ADDR", ":8080"),
		datajud: datajudConfig{
			baseURL:    env.GetString("DATAJUD_BASE_URL", client.DefaultBaseURL),
			apiKey:     env.GetString("DATAJUD_API_KEY", ""),
			tribunal:   env.GetString("DATAJUD_TRIBUNAL", client.DefaultTribunal),
			timeout:    env.GetDuration("DATAJUD_TIMEOUT", 60*time.Second),
			maxRetries: env.GetInt("DATAJUD_MAX_RETRIES", 3),
			cohortSize: env.GetInt("DATAJUD_COHORT_SIZE", 10000),
			charts:     env.GetBool("REPORT_CHARTS", true),
		},
	}
	if cfg.datajud.apiKey == "" {
		appLogger.Fatal(component, "DATAJUD_API_KEY is required")
		return
	}

	metrics := telemetry.NewRegistry()

	app := &application{
		config:   cfg,
		logger:   appLogger,
		metrics:  metrics,
		validate: validator.New(),
		searcherFor: func(tribunal string) datajud.Searcher {
			return client.NewClient(client.Config{
				BaseURL:    cfg.datajud.baseURL,
				Tribunal:   tribunal,
				APIKey:     cfg.datajud.apiKey,
				Timeout:    cfg.datajud.timeout,
				MaxRetries: cfg.datajud.maxRetries,
				Recorder:   metrics,
				Logger:     appLogger,
			})
		},
		now: func() time.Time { return time.Now().UTC() },
	}

	mux := app.mount()

	if err := app.run(mux); err != nil {
		appLogger.Fatal(component, "Server stopped: error=%v", err)
	}
}
