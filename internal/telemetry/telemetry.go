// Package telemetry holds the Prometheus collectors for DataJud requests and
// report runs. The CLI pushes them to a Pushgateway; the API serves them on
// /metrics.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

type Registry struct {
	reg *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Retries         *prometheus.CounterVec
	CohortRows      prometheus.Counter
	CohortDropped   prometheus.Counter
	Duplicates      prometheus.Gauge
	Judged          prometheus.Gauge
	Pending         prometheus.Gauge
	Reports         *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "datajud_requests_total",
		Help: "DataJud search attempts by query kind and HTTP status (0 on transport errors).",
	}, []string{"kind", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "datajud_request_duration_seconds",
		Help:    "DataJud search attempt latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "datajud_request_retries_total",
		Help: "DataJud search attempts that were retried.",
	}, []string{"kind"})
	cohortRows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cohort_rows_total",
		Help: "Cohort rows fetched before cleaning.",
	})
	cohortDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cohort_rows_dropped_total",
		Help: "Cohort rows dropped for missing required fields.",
	})
	duplicates := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cohort_duplicates",
		Help: "Duplicate case numbers in the last cohort.",
	})
	judged := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cases_judged",
		Help: "Judged cases in the last cohort.",
	})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cases_pending",
		Help: "Pending cases in the last cohort.",
	})
	reports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "report_generated_total",
		Help: "Report runs by outcome.",
	}, []string{"outcome"})

	r.MustRegister(requests, duration, retries, cohortRows, cohortDropped, duplicates, judged, pending, reports)
	return &Registry{
		reg:             r,
		Requests:        requests,
		RequestDuration: duration,
		Retries:         retries,
		CohortRows:      cohortRows,
		CohortDropped:   cohortDropped,
		Duplicates:      duplicates,
		Judged:          judged,
		Pending:         pending,
		Reports:         reports,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// ObserveRequest records one DataJud attempt.
func (r *Registry) ObserveRequest(kind string, status int, elapsed time.Duration) {
	r.Requests.WithLabelValues(kind, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (r *Registry) IncRetry(kind string) {
	r.Retries.WithLabelValues(kind).Inc()
}

func (r *Registry) ObserveCohort(total, dropped, duplicates int) {
	r.CohortRows.Add(float64(total))
	r.CohortDropped.Add(float64(dropped))
	r.Duplicates.Set(float64(duplicates))
}

func (r *Registry) ObserveClassification(judged, pending int) {
	r.Judged.Set(float64(judged))
	r.Pending.Set(float64(pending))
}

// ReportGenerated counts a finished run. ok=false counts a failure.
func (r *Registry) ReportGenerated(ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	r.Reports.WithLabelValues(outcome).Inc()
}

// Push sends the registry to a Pushgateway, grouped by run ID.
func (r *Registry) Push(ctx context.Context, gatewayURL, job, runID string) error {
	if gatewayURL == "" {
		return fmt.Errorf("telemetry: gateway URL is required")
	}
	if job == "" {
		job = "datajud_report"
	}
	p := push.New(gatewayURL, job).Gatherer(r.reg)
	if runID != "" {
		p = p.Grouping("run_id", runID)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("telemetry: push: %w", err)
	}
	return nil
}
