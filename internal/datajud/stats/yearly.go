package stats

import (
	"fmt"
	"sort"

	"github.com/farxc/datajud_wrapper/internal/datajud/types"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/samber/lo"
)

const (
	colAno                 = "ano"
	colQuantidadeAjuizados = "quantidade_ajuizados"
	colQuantidadeJulgados  = "quantidade_julgados"
)

type YearCount struct {
	Year   int `json:"year"`
	Filed  int `json:"filed"`
	Judged int `json:"judged"`
}

// YearlyComparison counts filings per filing year and, for the same years,
// how many of those filings are judged. Years with no judged case get 0.
func YearlyComparison(rows []types.CohortRow) ([]YearCount, error) {
	if len(rows) == 0 {
		return []YearCount{}, nil
	}

	filed := countByYear(lo.Filter(rows, func(r types.CohortRow, _ int) bool { return !r.FilingDate.IsZero() }), colQuantidadeAjuizados)
	judged := countByYear(lo.Filter(rows, func(r types.CohortRow, _ int) bool { return r.Judged && !r.FilingDate.IsZero() }), colQuantidadeJulgados)

	joined := filed.LeftJoin(judged, colAno)
	if joined.Err != nil {
		return nil, fmt.Errorf("join yearly counts: %w", joined.Err)
	}
	joined = joined.Arrange(dataframe.Sort(colAno))
	if joined.Err != nil {
		return nil, fmt.Errorf("sort yearly counts: %w", joined.Err)
	}

	out := make([]YearCount, 0, joined.Nrow())
	years := joined.Col(colAno)
	filedCol := joined.Col(colQuantidadeAjuizados)
	judgedCol := joined.Col(colQuantidadeJulgados)
	for i := 0; i < joined.Nrow(); i++ {
		out = append(out, YearCount{
			Year:   intOrZero(years.Elem(i)),
			Filed:  intOrZero(filedCol.Elem(i)),
			Judged: intOrZero(judgedCol.Elem(i)),
		})
	}
	return out, nil
}

func countByYear(rows []types.CohortRow, countCol string) dataframe.DataFrame {
	counts := lo.CountValuesBy(rows, func(r types.CohortRow) int { return r.FilingDate.UTC().Year() })
	years := lo.Keys(counts)
	sort.Ints(years)

	values := make([]int, len(years))
	for i, y := range years {
		values[i] = counts[y]
	}
	return dataframe.New(
		series.New(years, series.Int, colAno),
		series.New(values, series.Int, countCol),
	)
}

func intOrZero(e series.Element) int {
	if e.IsNA() {
		return 0
	}
	v, err := e.Int()
	if err != nil {
		return 0
	}
	return v
}
