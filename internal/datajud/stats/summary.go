package stats

import (
	"math"
	"time"

	"github.com/farxc/datajud_wrapper/internal/datajud/types"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"gonum.org/v1/gonum/stat"
)

type CaseRef struct {
	Number      string    `json:"number"`
	FilingDate  time.Time `json:"filing_date"`
	ElapsedDays int       `json:"elapsed_days"`
	Status      string    `json:"status"`
}

type Summary struct {
	Total             int      `json:"total"`
	Judged            int      `json:"judged"`
	Pending           int      `json:"pending"`
	JudgedPct         float64  `json:"judged_pct"`
	PendingPct        float64  `json:"pending_pct"`
	PhysicalPct       float64  `json:"physical_pct"`
	MeanElapsedDays   int      `json:"mean_elapsed_days"`
	MeanDaysToJudge   float64  `json:"mean_days_to_judge"`
	OldestCase        *CaseRef `json:"oldest_case,omitempty"`
	OldestJudged      *CaseRef `json:"oldest_judged,omitempty"`
	OldestPending     *CaseRef `json:"oldest_pending,omitempty"`
	Dropped           int      `json:"dropped"`
	Duplicates        int      `json:"duplicates"`
	KeywordSetVersion string   `json:"keyword_set_version"`
}

// CaseComparison sets the queried case against its cohort.
type CaseComparison struct {
	Number         string `json:"number"`
	InCohort       bool   `json:"in_cohort"`
	ElapsedDays    int    `json:"elapsed_days"`
	Judged         bool   `json:"judged"`
	Subject        string `json:"subject"`
	SubjectAverage *int   `json:"subject_average,omitempty"`
	Class          string `json:"class"`
	ClassAverage   *int   `json:"class_average,omitempty"`
	OverallAverage int    `json:"overall_average"`
}

// Metrics is everything the report needs from one cohort.
type Metrics struct {
	Rows            []types.CohortRow `json:"-"`
	Summary         Summary           `json:"summary"`
	SubjectAverages []GroupAverage    `json:"subject_averages"`
	ClassAverages   []GroupAverage    `json:"class_averages"`
	Yearly          []YearCount       `json:"yearly"`
	JudgedDurations []float64         `json:"-"`
	Comparison      CaseComparison    `json:"comparison"`
}

// Compute derives the judged flag and elapsed days for every row and
// aggregates them. queried is the normalized number of the looked-up case.
func Compute(rows []types.CohortRow, queried string, now time.Time) (Metrics, error) {
	derived := Derive(rows, now)

	subjects, err := TopGroupAverages(derived, types.ColAssunto, TopN)
	if err != nil {
		return Metrics{}, err
	}
	classes, err := TopGroupAverages(derived, types.ColClasse, TopN)
	if err != nil {
		return Metrics{}, err
	}
	yearly, err := YearlyComparison(derived)
	if err != nil {
		return Metrics{}, err
	}
	comparison, err := Compare(derived, queried)
	if err != nil {
		return Metrics{}, err
	}

	return Metrics{
		Rows:            derived,
		Summary:         Summarize(derived),
		SubjectAverages: subjects,
		ClassAverages:   classes,
		Yearly:          yearly,
		JudgedDurations: JudgedDurations(derived),
		Comparison:      comparison,
	}, nil
}

// Summarize expects rows already passed through Derive.
func Summarize(rows []types.CohortRow) Summary {
	s := Summary{Total: len(rows), KeywordSetVersion: TerminalStatusKeywords.Version}
	if len(rows) == 0 {
		return s
	}

	judged := lo.Filter(rows, func(r types.CohortRow, _ int) bool { return r.Judged })
	pending := lo.Filter(rows, func(r types.CohortRow, _ int) bool { return !r.Judged })
	folder := cases.Fold()
	physical := lo.CountBy(rows, func(r types.CohortRow) bool {
		return folder.String(r.Format) == folder.String(types.FormatoFisico)
	})

	s.Judged = len(judged)
	s.Pending = len(pending)
	s.JudgedPct = percent(s.Judged, s.Total)
	s.PendingPct = percent(s.Pending, s.Total)
	s.PhysicalPct = percent(physical, s.Total)
	s.MeanElapsedDays = int(mean(lo.Map(rows, func(r types.CohortRow, _ int) float64 { return float64(r.ElapsedDays) })))
	s.MeanDaysToJudge = mean(JudgedDurations(rows))
	s.OldestCase = oldest(rows)
	s.OldestJudged = oldest(judged)
	s.OldestPending = oldest(pending)
	return s
}

// JudgedDurations lists the days from filing to last movement of judged rows.
func JudgedDurations(rows []types.CohortRow) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.Judged {
			out = append(out, float64(ElapsedDays(r.FilingDate, r.LastMovement, true, time.Time{})))
		}
	}
	return out
}

// Compare locates the queried case among rows and reads its group averages.
func Compare(rows []types.CohortRow, queried string) (CaseComparison, error) {
	c := CaseComparison{Number: queried}
	if len(rows) > 0 {
		c.OverallAverage = int(mean(lo.Map(rows, func(r types.CohortRow, _ int) float64 { return float64(r.ElapsedDays) })))
	}

	row, ok := lo.Find(rows, func(r types.CohortRow) bool { return r.Number == queried })
	if !ok {
		return c, nil
	}
	c.InCohort = true
	c.ElapsedDays = row.ElapsedDays
	c.Judged = row.Judged
	c.Subject = row.Subject
	c.Class = row.Class

	subjects, err := GroupAverages(rows, types.ColAssunto)
	if err != nil {
		return c, err
	}
	if g, ok := AverageFor(subjects, row.Subject); ok {
		avg := g.AverageDays
		c.SubjectAverage = &avg
	}
	classes, err := GroupAverages(rows, types.ColClasse)
	if err != nil {
		return c, err
	}
	if g, ok := AverageFor(classes, row.Class); ok {
		avg := g.AverageDays
		c.ClassAverage = &avg
	}
	return c, nil
}

func oldest(rows []types.CohortRow) *CaseRef {
	if len(rows) == 0 {
		return nil
	}
	r := lo.MinBy(rows, func(a, b types.CohortRow) bool { return a.FilingDate.Before(b.FilingDate) })
	return &CaseRef{Number: r.Number, FilingDate: r.FilingDate, ElapsedDays: r.ElapsedDays, Status: r.Status}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := stat.Mean(xs, nil)
	if math.IsNaN(m) {
		return 0
	}
	return m
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
