package cohort

import (
	"fmt"
	"strings"
	"time"

	"github.com/farxc/datajud_wrapper/internal/datajud/converter"
	"github.com/farxc/datajud_wrapper/internal/datajud/types"
	"github.com/farxc/datajud_wrapper/internal/datajud/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RequiredColumns must all be present for a row to survive cleaning.
var RequiredColumns = []string{
	types.ColNumeroProcesso,
	types.ColClasse,
	types.ColAssunto,
	types.ColDataAjuizamento,
	types.ColUltimaAtualizacao,
	types.ColFormato,
	types.ColCodigo,
	types.ColOrgaoJulgador,
	types.ColSituacao,
	types.ColUltimoMov,
}

// CategoricalColumns are lower-cased so grouping is case-insensitive.
var CategoricalColumns = []string{
	types.ColClasse,
	types.ColAssunto,
	types.ColFormato,
	types.ColOrgaoJulgador,
	types.ColSituacao,
}

var DateColumns = []string{
	types.ColDataAjuizamento,
	types.ColUltimaAtualizacao,
	types.ColUltimoMov,
}

// OptionalColumns are dropped from the table when every row shares one value.
var OptionalColumns = []string{types.ColGrau, types.ColMunicipio}

type Options struct {
	// DropDuplicates keeps only the first row per case number. Input is
	// sorted by filing date descending, so the first is the newest filing.
	DropDuplicates bool
}

type Result struct {
	Frame             dataframe.DataFrame
	Rows              []types.CohortRow
	Total             int
	Dropped           int
	Duplicates        []string
	DuplicatesRemoved int
	PrunedColumns     []string
}

// Columns lists the table columns that survived pruning, in order.
func (r Result) Columns() []string {
	return r.Frame.Names()
}

// FromHits flattens cohort hits into the raw table.
func FromHits(hits []types.Hit) dataframe.DataFrame {
	records := make([]types.CohortRecord, 0, len(hits))
	for _, h := range hits {
		records = append(records, converter.HitToCohortRecord(h))
	}
	return Build(records)
}

// Build lays records out as a table. Missing values become NaN cells.
func Build(records []types.CohortRecord) dataframe.DataFrame {
	cols := map[string][]interface{}{}
	for _, c := range types.CohortColumns {
		if c != types.ColMovimentos {
			cols[c] = make([]interface{}, len(records))
		}
	}
	moves := make([]int, len(records))

	for i, r := range records {
		set := func(col string, v *string) {
			if v != nil {
				cols[col][i] = *v
			}
		}
		set(types.ColNumeroProcesso, r.NumeroProcesso)
		set(types.ColClasse, r.Classe)
		set(types.ColAssunto, r.Assunto)
		set(types.ColDataAjuizamento, r.DataAjuizamento)
		set(types.ColUltimaAtualizacao, r.UltimaAtualizacao)
		set(types.ColFormato, r.Formato)
		set(types.ColCodigo, r.Codigo)
		set(types.ColOrgaoJulgador, r.OrgaoJulgador)
		set(types.ColMunicipio, r.Municipio)
		set(types.ColGrau, r.Grau)
		set(types.ColSituacao, r.Situacao)
		set(types.ColUltimoMov, r.UltimoMov)
		moves[i] = r.Movimentos
	}

	columns := make([]series.Series, 0, len(types.CohortColumns))
	for _, c := range types.CohortColumns {
		if c == types.ColMovimentos {
			columns = append(columns, series.New(moves, series.Int, c))
			continue
		}
		columns = append(columns, series.New(cols[c], series.String, c))
	}
	return dataframe.New(columns...)
}

// Normalize converts dates to UTC, drops incomplete rows, lower-cases the
// categorical columns, reports duplicates and prunes constant optional
// columns.
func Normalize(df dataframe.DataFrame, opts Options) (Result, error) {
	if df.Err != nil {
		return Result{}, fmt.Errorf("cohort table: %w", df.Err)
	}

	res := Result{Total: df.Nrow()}

	for _, col := range DateColumns {
		df = mapColumn(df, col, normalizeTimestamp)
	}

	df = df.Subset(completeRows(df))
	if df.Err != nil {
		return Result{}, fmt.Errorf("drop incomplete rows: %w", df.Err)
	}
	res.Dropped = res.Total - df.Nrow()

	caser := cases.Lower(language.BrazilianPortuguese)
	for _, col := range CategoricalColumns {
		df = mapColumn(df, col, func(v string) (string, bool) {
			return caser.String(strings.TrimSpace(v)), true
		})
	}

	numbers := df.Col(types.ColNumeroProcesso).Records()
	res.Duplicates = lo.FindDuplicates(numbers)
	if opts.DropDuplicates && len(res.Duplicates) > 0 {
		before := df.Nrow()
		df = df.Subset(firstOccurrences(numbers))
		res.DuplicatesRemoved = before - df.Nrow()
	}

	for _, col := range OptionalColumns {
		if !utils.HasColumn(&df, col) {
			continue
		}
		if len(lo.Uniq(df.Col(col).Records())) <= 1 {
			df = df.Drop(col)
			res.PrunedColumns = append(res.PrunedColumns, col)
		}
	}

	if df.Err != nil {
		return Result{}, fmt.Errorf("normalize cohort: %w", df.Err)
	}

	res.Frame = df
	res.Rows = make([]types.CohortRow, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		res.Rows = append(res.Rows, converter.DfRowToCohortRow(df, i))
	}
	return res, nil
}

func normalizeTimestamp(v string) (string, bool) {
	t, err := utils.ParseTimestamp(v)
	if err != nil {
		return "", false
	}
	return t.Format(time.RFC3339), true
}

// mapColumn rewrites a string column cell by cell. NaN cells stay NaN and
// cells for which fn reports false become NaN.
func mapColumn(df dataframe.DataFrame, col string, fn func(string) (string, bool)) dataframe.DataFrame {
	if df.Err != nil || !utils.HasColumn(&df, col) {
		return df
	}
	s := df.Col(col)
	values := make([]interface{}, s.Len())
	for i := 0; i < s.Len(); i++ {
		elem := s.Elem(i)
		if elem.IsNA() {
			continue
		}
		if out, ok := fn(elem.String()); ok {
			values[i] = out
		}
	}
	return df.Mutate(series.New(values, series.String, col))
}

func completeRows(df dataframe.DataFrame) []int {
	keep := make([]int, 0, df.Nrow())
	missing := make([]bool, df.Nrow())
	for _, col := range RequiredColumns {
		if !utils.HasColumn(&df, col) {
			return keep
		}
		s := df.Col(col)
		for i := 0; i < s.Len(); i++ {
			elem := s.Elem(i)
			if elem.IsNA() || strings.TrimSpace(elem.String()) == "" {
				missing[i] = true
			}
		}
	}
	for i, m := range missing {
		if !m {
			keep = append(keep, i)
		}
	}
	return keep
}

func firstOccurrences(keys []string) []int {
	seen := make(map[string]struct{}, len(keys))
	idx := make([]int, 0, len(keys))
	for i, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		idx = append(idx, i)
	}
	return idx
}
