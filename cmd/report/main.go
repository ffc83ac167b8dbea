package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/farxc/datajud_wrapper/internal/datajud"
	"github.com/farxc/datajud_wrapper/internal/datajud/client"
	"github.com/farxc/datajud_wrapper/internal/env"
	"github.com/farxc/datajud_wrapper/internal/export"
	"github.com/farxc/datajud_wrapper/internal/logger"
	"github.com/farxc/datajud_wrapper/internal/storage"
	"github.com/farxc/datajud_wrapper/internal/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type config struct {
	Datajud datajudConfig
	Report  reportConfig
	S3      s3Config
	PushURL string `validate:"omitempty,url"`
}

type datajudConfig struct {
	BaseURL    string        `validate:"required,url"`
	APIKey     string        `validate:"required"`
	Tribunal   string        `validate:"required,alphanum,lowercase"`
	Timeout    time.Duration `validate:"gt=0"`
	MaxRetries int           `validate:"gte=0,lte=10"`
}

type reportConfig struct {
	Numero     string `validate:"required,numeric,len=20"`
	OutputDir  string `validate:"required"`
	CohortSize int    `validate:"gt=0,lte=10000"`
	Charts     bool
	Dedupe     bool
}

type s3Config struct {
	Bucket string
	Region string `validate:"required_with=Bucket"`
}

func main() {
	const component = "Main"
	var appLogger = &logger.Logger{MinLevel: logger.LevelInfo}

	log.SetFlags(0)

	// A missing .env is fine; the process environment still applies.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		appLogger.Warn(component, "Failed to load .env: error=%v", err)
	}

	startingTime := time.Now()
	runID := uuid.NewString()

	numeroPtr := flag.String("numero", "", "Case number (CNJ format, punctuation allowed)")
	tribunalPtr := flag.String("tribunal", env.GetString("DATAJUD_TRIBUNAL", client.DefaultTribunal), "Tribunal index alias, e.g. tjpe")
	outPtr := flag.String("out", env.GetString("REPORT_OUTPUT_DIR", "output"), "Directory for the generated workbook")
	maxPtr := flag.Int("max", env.GetInt("DATAJUD_COHORT_SIZE", 10000), "Maximum cohort size")
	chartsPtr := flag.Bool("charts", env.GetBool("REPORT_CHARTS", true), "Embed chart images in the workbook")
	dedupePtr := flag.Bool("dedupe", false, "Drop duplicate case numbers from the cohort")
	logLevelPtr := flag.String("loglevel", env.GetString("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.Parse()

	appLogger.SetLogLevel(logger.ParseLevel(*logLevelPtr))

	numero, err := datajud.ValidateCaseNumber(*numeroPtr)
	if err != nil {
		appLogger.Fatal(component, "Invalid case number: numero=%q error=%v", *numeroPtr, err)
		return
	}

	cfg := config{
		Datajud: datajudConfig{
			BaseURL:    env.GetString("DATAJUD_BASE_URL", client.DefaultBaseURL),
			APIKey:     env.GetString("DATAJUD_API_KEY", ""),
			Tribunal:   *tribunalPtr,
			Timeout:    env.GetDuration("DATAJUD_TIMEOUT", 60*time.Second),
			MaxRetries: env.GetInt("DATAJUD_MAX_RETRIES", 3),
		},
		Report: reportConfig{
			Numero:     numero,
			OutputDir:  *outPtr,
			CohortSize: *maxPtr,
			Charts:     *chartsPtr,
			Dedupe:     *dedupePtr,
		},
		S3: s3Config{
			Bucket: env.GetString("S3_BUCKET", ""),
			Region: env.GetString("AWS_S3_REGION", ""),
		},
		PushURL: env.GetString("PUSHGATEWAY_URL", ""),
	}

	if err := validator.New().Struct(cfg); err != nil {
		appLogger.Fatal(component, "Invalid configuration: error=%v", err)
		return
	}

	appLogger.Info(component, "Application started: runID=%s numero=%s tribunal=%s cohortSize=%d charts=%t logLevel=%s", runID, numero, cfg.Datajud.Tribunal, cfg.Report.CohortSize, cfg.Report.Charts, *logLevelPtr)

	metrics := telemetry.NewRegistry()
	ctx := context.Background()

	report, runErr := run(ctx, cfg, runID, metrics, appLogger)
	metrics.ReportGenerated(runErr == nil)
	if cfg.PushURL != "" {
		if err := metrics.Push(ctx, cfg.PushURL, "datajud_report", runID); err != nil {
			appLogger.Warn(component, "Metrics push failed: url=%s error=%v", cfg.PushURL, err)
		}
	}
	if runErr != nil {
		if remote, ok := client.IsRemoteRequestFailed(runErr); ok {
			appLogger.Fatal(component, "DataJud request failed: status=%d body=%s", remote.StatusCode, remote.Body)
			return
		}
		appLogger.Fatal(component, "Report run failed: error=%v", runErr)
		return
	}

	s := report.Metrics.Summary
	appLogger.Info(component, "Application completed successfully: duration=%.2f seconds cohort=%d judged=%d pending=%d", time.Since(startingTime).Seconds(), s.Total, s.Judged, s.Pending)
}

func run(ctx context.Context, cfg config, runID string, metrics *telemetry.Registry, appLogger *logger.Logger) (*datajud.Report, error) {
	const component = "Runner"

	c := client.NewClient(client.Config{
		BaseURL:    cfg.Datajud.BaseURL,
		Tribunal:   cfg.Datajud.Tribunal,
		APIKey:     cfg.Datajud.APIKey,
		Timeout:    cfg.Datajud.Timeout,
		MaxRetries: cfg.Datajud.MaxRetries,
		Recorder:   metrics,
		Logger:     appLogger,
	})

	pipeline := datajud.NewPipeline(c, appLogger, datajud.PipelineConfig{
		CohortSize:     cfg.Report.CohortSize,
		DropDuplicates: cfg.Report.Dedupe,
		Observer:       metrics,
	})

	report, err := pipeline.Run(ctx, cfg.Report.Numero)
	if err != nil {
		return nil, err
	}
	report.RunID = runID
	report.Tribunal = c.Tribunal()

	result, err := export.WriteFile(cfg.Report.OutputDir, report, export.Options{Charts: cfg.Report.Charts, Logger: appLogger})
	if err != nil {
		return nil, err
	}

	if cfg.S3.Bucket == "" {
		return report, nil
	}

	publisher, err := storage.NewS3Publisher(ctx, cfg.S3.Bucket, cfg.S3.Region)
	if err != nil {
		appLogger.Warn(component, "S3 publisher unavailable, keeping local file only: error=%v", err)
		return report, nil
	}
	data, err := os.ReadFile(result.OutputPath)
	if err != nil {
		appLogger.Warn(component, "Failed to read report for upload: path=%s error=%v", result.OutputPath, err)
		return report, nil
	}
	key, err := publisher.Publish(ctx, data, result.OutputPath)
	if err != nil {
		appLogger.Warn(component, "Report upload failed: bucket=%s error=%v", cfg.S3.Bucket, err)
		return report, nil
	}
	appLogger.Info(component, "Report uploaded: bucket=%s key=%s", cfg.S3.Bucket, key)
	return report, nil
}
