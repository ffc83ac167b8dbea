package stats

import (
	"math"
	"time"

	"github.com/farxc/datajud_wrapper/internal/datajud/types"
)

// ElapsedDays is the whole number of days from filing to the last movement
// for judged cases, or from filing to now for pending ones. Partial days
// are floored.
func ElapsedDays(filing, lastMovement time.Time, judged bool, now time.Time) int {
	end := now
	if judged {
		end = lastMovement
	}
	d := end.UTC().Sub(filing.UTC())
	return int(math.Floor(d.Hours() / 24))
}

// Derive returns a copy of rows with Judged and ElapsedDays set. now is
// the reference instant for pending cases.
func Derive(rows []types.CohortRow, now time.Time) []types.CohortRow {
	out := make([]types.CohortRow, len(rows))
	for i, r := range rows {
		r.Judged = IsJudged(r.Status)
		r.ElapsedDays = ElapsedDays(r.FilingDate, r.LastMovement, r.Judged, now)
		out[i] = r
	}
	return out
}
