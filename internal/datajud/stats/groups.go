package stats

import (
	"fmt"
	"sort"

	"github.com/farxc/datajud_wrapper/internal/datajud/types"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/samber/lo"
)

// TopN is how many of the most frequent subjects/classes are charted.
const TopN = 15

var (
	colMean  = fmt.Sprintf("%s_%s", types.ColContagemDias, dataframe.Aggregation_MEAN)
	colCount = fmt.Sprintf("%s_%s", types.ColContagemDias, dataframe.Aggregation_COUNT)
)

type GroupAverage struct {
	Name        string `json:"name"`
	AverageDays int    `json:"average_days"`
	Count       int    `json:"count"`
}

type Frequency struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Frame lays derived rows out as a table with the grouping keys, the filing
// year, elapsed days and the judged flag.
func Frame(rows []types.CohortRow) dataframe.DataFrame {
	numbers := make([]string, len(rows))
	classes := make([]string, len(rows))
	subjects := make([]string, len(rows))
	years := make([]int, len(rows))
	days := make([]int, len(rows))
	judged := make([]bool, len(rows))
	for i, r := range rows {
		numbers[i] = r.Number
		classes[i] = r.Class
		subjects[i] = r.Subject
		years[i] = r.FilingDate.UTC().Year()
		days[i] = r.ElapsedDays
		judged[i] = r.Judged
	}
	return dataframe.New(
		series.New(numbers, series.String, types.ColNumeroProcesso),
		series.New(classes, series.String, types.ColClasse),
		series.New(subjects, series.String, types.ColAssunto),
		series.New(years, series.Int, colAno),
		series.New(days, series.Int, types.ColContagemDias),
		series.New(judged, series.Bool, types.ColJulgado),
	)
}

// JudgedFrame keeps only the judged rows of Frame(rows).
func JudgedFrame(rows []types.CohortRow) dataframe.DataFrame {
	return Frame(rows).Filter(dataframe.F{
		Colname:    types.ColJulgado,
		Comparator: series.Eq,
		Comparando: true,
	})
}

// GroupAverages is the truncated mean of elapsed days per value of col over
// judged rows, highest average first.
func GroupAverages(rows []types.CohortRow, col string) ([]GroupAverage, error) {
	judged := JudgedFrame(rows)
	if judged.Err != nil {
		return nil, fmt.Errorf("judged frame: %w", judged.Err)
	}
	if judged.Nrow() == 0 {
		return []GroupAverage{}, nil
	}

	groups := judged.GroupBy(col)
	if groups.Err != nil {
		return nil, fmt.Errorf("group by %s: %w", col, groups.Err)
	}

	agg := groups.Aggregation(
		[]dataframe.AggregationType{dataframe.Aggregation_MEAN, dataframe.Aggregation_COUNT},
		[]string{types.ColContagemDias, types.ColContagemDias},
	)
	if agg.Err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", col, agg.Err)
	}

	names := agg.Col(col).Records()
	means := agg.Col(colMean).Float()
	counts := agg.Col(colCount).Float()

	out := make([]GroupAverage, 0, len(names))
	for i, name := range names {
		out = append(out, GroupAverage{
			Name:        name,
			AverageDays: int(means[i]),
			Count:       int(counts[i]),
		})
	}
	sortByAverage(out)
	return out, nil
}

// TopFrequent returns the n most frequent values of col among judged rows,
// ties broken by name.
func TopFrequent(rows []types.CohortRow, col string, n int) []Frequency {
	judged := JudgedFrame(rows)
	if judged.Err != nil || judged.Nrow() == 0 {
		return []Frequency{}
	}

	counts := lo.CountValues(judged.Col(col).Records())
	freq := make([]Frequency, 0, len(counts))
	for name, count := range counts {
		freq = append(freq, Frequency{Name: name, Count: count})
	}
	sort.Slice(freq, func(i, j int) bool {
		if freq[i].Count != freq[j].Count {
			return freq[i].Count > freq[j].Count
		}
		return freq[i].Name < freq[j].Name
	})
	if n > 0 && len(freq) > n {
		freq = freq[:n]
	}
	return freq
}

// TopGroupAverages restricts GroupAverages to the n most frequent values.
func TopGroupAverages(rows []types.CohortRow, col string, n int) ([]GroupAverage, error) {
	all, err := GroupAverages(rows, col)
	if err != nil {
		return nil, err
	}
	top := lo.Map(TopFrequent(rows, col, n), func(f Frequency, _ int) string { return f.Name })
	out := lo.Filter(all, func(g GroupAverage, _ int) bool { return lo.Contains(top, g.Name) })
	sortByAverage(out)
	return out, nil
}

// AverageFor looks a group up by name.
func AverageFor(groups []GroupAverage, name string) (GroupAverage, bool) {
	return lo.Find(groups, func(g GroupAverage) bool { return g.Name == name })
}

func sortByAverage(groups []GroupAverage) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].AverageDays != groups[j].AverageDays {
			return groups[i].AverageDays > groups[j].AverageDays
		}
		return groups[i].Name < groups[j].Name
	})
}
