package datajud

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farxc/datajud_wrapper/internal/datajud/cohort"
	"github.com/farxc/datajud_wrapper/internal/datajud/converter"
	"github.com/farxc/datajud_wrapper/internal/datajud/movements"
	"github.com/farxc/datajud_wrapper/internal/datajud/query"
	"github.com/farxc/datajud_wrapper/internal/datajud/stats"
	"github.com/farxc/datajud_wrapper/internal/datajud/types"
	"github.com/farxc/datajud_wrapper/internal/datajud/utils"
	"github.com/farxc/datajud_wrapper/internal/logger"
)

var (
	ErrCaseNotFound      = converter.ErrCaseNotFound
	ErrInvalidCaseNumber = errors.New("case number must have 20 digits")
)

// CaseNumberDigits is the length of a CNJ unified case number.
const CaseNumberDigits = 20

// Searcher is the subset of the DataJud client the pipeline needs.
type Searcher interface {
	FindCase(ctx context.Context, numero string) (*types.SearchResponse, error)
	FindCohort(ctx context.Context, unitCode string, size int) (*types.SearchResponse, error)
}

// Observer receives cohort-level counts. Implementations must be safe to
// call from the pipeline goroutine.
type Observer interface {
	ObserveCohort(total, dropped, duplicates int)
	ObserveClassification(judged, pending int)
}

// Report is the full outcome of one run.
type Report struct {
	RunID        string
	Tribunal     string
	Case         types.Case
	Lookup       converter.LookupResult
	MovementRows []types.MovementRow
	Timeline     []movements.TimelinePoint
	Cohort       cohort.Result
	Metrics      stats.Metrics
	GeneratedAt  time.Time
	Warnings     []string
}

type Pipeline struct {
	searcher   Searcher
	appLogger  *logger.Logger
	observer   Observer
	cohortSize int
	options    cohort.Options

	// Now is the reference instant for pending-case durations.
	Now func() time.Time
}

type PipelineConfig struct {
	CohortSize     int
	DropDuplicates bool
	Observer       Observer
}

func NewPipeline(searcher Searcher, appLogger *logger.Logger, cfg PipelineConfig) *Pipeline {
	if appLogger == nil {
		appLogger = &logger.Logger{MinLevel: logger.LevelInfo}
	}
	if cfg.CohortSize <= 0 || cfg.CohortSize > query.MaxCohortSize {
		cfg.CohortSize = query.MaxCohortSize
	}
	return &Pipeline{
		searcher:   searcher,
		appLogger:  appLogger,
		observer:   cfg.Observer,
		cohortSize: cfg.CohortSize,
		options:    cohort.Options{DropDuplicates: cfg.DropDuplicates},
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// ValidateCaseNumber normalizes numero and checks its length.
func ValidateCaseNumber(numero string) (string, error) {
	normalized := utils.NormalizeCaseNumber(numero)
	if len(normalized) != CaseNumberDigits {
		return "", fmt.Errorf("%w: got %q", ErrInvalidCaseNumber, numero)
	}
	return normalized, nil
}

// Run looks the case up, fetches its unit's cohort and computes the metrics.
// Fetch failures abort the run.
func (p *Pipeline) Run(ctx context.Context, numero string) (*Report, error) {
	const component = "Pipeline"

	normalized, err := ValidateCaseNumber(numero)
	if err != nil {
		return nil, err
	}

	now := p.Now().UTC()
	report := &Report{GeneratedAt: now}

	p.appLogger.Info(component, "Looking up case: numero=%s", normalized)
	lookup, err := p.searcher.FindCase(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("lookup case %s: %w", normalized, err)
	}

	c, result, err := converter.ResolveCase(lookup.Hits.Hits)
	switch {
	case errors.Is(err, converter.ErrLookupFallbackExhausted):
		p.appLogger.Warn(component, "No lookup result carries movements, continuing with none: numero=%s hits=%d", normalized, len(lookup.Hits.Hits))
		report.Warnings = append(report.Warnings, err.Error())
	case err != nil:
		return nil, fmt.Errorf("resolve case %s: %w", normalized, err)
	}
	if c.Number == "" {
		c.Number = normalized
	}
	report.Case = c
	report.Lookup = result

	report.MovementRows = movements.Flatten(c.Movements)
	report.Timeline = movements.Timeline(report.MovementRows)
	p.appLogger.Info(component, "Movements flattened: numero=%s movements=%d rows=%d slot=%d", normalized, len(c.Movements), len(report.MovementRows), result.Slot)

	if c.UnitCode == "" {
		return nil, fmt.Errorf("case %s has no judging unit code", normalized)
	}

	p.appLogger.Info(component, "Fetching cohort: unit=%s name=%q size=%d", c.UnitCode, c.UnitName, p.cohortSize)
	cohortResp, err := p.searcher.FindCohort(ctx, c.UnitCode, p.cohortSize)
	if err != nil {
		return nil, fmt.Errorf("fetch cohort for unit %s: %w", c.UnitCode, err)
	}

	cleaned, err := cohort.Normalize(cohort.FromHits(cohortResp.Hits.Hits), p.options)
	if err != nil {
		return nil, fmt.Errorf("normalize cohort: %w", err)
	}
	report.Cohort = cleaned
	p.appLogger.Info(component, "Cohort cleaned: fetched=%d kept=%d dropped=%d duplicates=%d pruned=%v", cleaned.Total, len(cleaned.Rows), cleaned.Dropped, len(cleaned.Duplicates), cleaned.PrunedColumns)
	if len(cleaned.Duplicates) > 0 {
		p.appLogger.Warn(component, "Duplicate case numbers in cohort: count=%d removed=%d", len(cleaned.Duplicates), cleaned.DuplicatesRemoved)
	}
	if cleaned.Total >= p.cohortSize {
		p.appLogger.Warn(component, "Cohort reached the page cap, older cases are not included: cap=%d", p.cohortSize)
		report.Warnings = append(report.Warnings, fmt.Sprintf("cohort truncated at %d cases", p.cohortSize))
	}

	metrics, err := stats.Compute(cleaned.Rows, normalized, now)
	if err != nil {
		return nil, fmt.Errorf("compute metrics: %w", err)
	}
	metrics.Summary.Dropped = cleaned.Dropped
	metrics.Summary.Duplicates = len(cleaned.Duplicates)
	report.Metrics = metrics

	if p.observer != nil {
		p.observer.ObserveCohort(cleaned.Total, cleaned.Dropped, len(cleaned.Duplicates))
		p.observer.ObserveClassification(metrics.Summary.Judged, metrics.Summary.Pending)
	}

	p.appLogger.Info(component, "Metrics computed: judged=%d pending=%d meanDays=%d", metrics.Summary.Judged, metrics.Summary.Pending, metrics.Summary.MeanElapsedDays)
	return report, nil
}
