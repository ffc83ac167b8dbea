package movements

import (
	"sort"
	"time"

	"github.com/farxc/datajud_wrapper/internal/datajud/types"
)

// Flatten emits one row per tabled complement of each movement, or a single
// row with nil complement fields when a movement has none. Rows come back
// in ascending timestamp order; equal timestamps keep their input order.
func Flatten(ms []types.Movement) []types.MovementRow {
	rows := make([]types.MovementRow, 0, ExpectedRows(ms))

	for _, m := range ms {
		if len(m.Complements) == 0 {
			rows = append(rows, types.MovementRow{
				Timestamp:   m.Timestamp,
				Description: m.Name,
			})
			continue
		}
		for _, c := range m.Complements {
			description := c.Description
			name := c.Name
			rows = append(rows, types.MovementRow{
				Timestamp:      m.Timestamp,
				Description:    m.Name,
				ComplementType: &description,
				ComplementName: &name,
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})
	return rows
}

// ExpectedRows is the size Flatten produces: sum of max(1, complements).
func ExpectedRows(ms []types.Movement) int {
	n := 0
	for _, m := range ms {
		if len(m.Complements) == 0 {
			n++
		} else {
			n += len(m.Complements)
		}
	}
	return n
}

// Latest picks the movement with the greatest timestamp. Ties resolve to the
// later element; when no timestamp parses, the last element wins.
func Latest(ms []types.Movement) (types.Movement, bool) {
	if len(ms) == 0 {
		return types.Movement{}, false
	}
	best := -1
	for i, m := range ms {
		if m.Timestamp.IsZero() {
			continue
		}
		if best < 0 || !m.Timestamp.Before(ms[best].Timestamp) {
			best = i
		}
	}
	if best < 0 {
		return ms[len(ms)-1], true
	}
	return ms[best], true
}

// TimelinePoint is one numbered movement for the timeline chart.
type TimelinePoint struct {
	ID          int
	Timestamp   time.Time
	Description string
}

// Timeline numbers the flattened rows 1..N in order, skipping rows
// without a usable timestamp.
func Timeline(rows []types.MovementRow) []TimelinePoint {
	points := make([]TimelinePoint, 0, len(rows))
	for _, r := range rows {
		if r.Timestamp.IsZero() {
			continue
		}
		points = append(points, TimelinePoint{
			ID:          len(points) + 1,
			Timestamp:   r.Timestamp,
			Description: r.Description,
		})
	}
	return points
}
