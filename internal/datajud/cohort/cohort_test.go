package cohort

import (
	"testing"
	"time"

	"github.com/farxc/datajud_wrapper/internal/datajud/types"
	"github.com/samber/lo"
)

func ptr(s string) *string { return &s }

func record(numero, situacao string) types.CohortRecord {
	return types.CohortRecord{
		NumeroProcesso:    ptr(numero),
		Classe:            ptr("Procedimento Comum Cível"),
		Assunto:           ptr("Indenização por Dano Moral"),
		DataAjuizamento:   ptr("2020-01-01T00:00:00.000Z"),
		UltimaAtualizacao: ptr("2020-06-02T00:00:00.000Z"),
		Formato:           ptr("Eletrônico"),
		Codigo:            ptr("5043"),
		OrgaoJulgador:     ptr("1ª VARA CÍVEL DA CAPITAL"),
		Municipio:         ptr("2611606"),
		Grau:              ptr("G1"),
		Movimentos:        3,
		Situacao:          ptr(situacao),
		UltimoMov:         ptr("2020-06-01T00:00:00.000Z"),
	}
}

func TestBuild_ShapeAndNaN(t *testing.T) {
	rec := record("1", "Procedência")
	rec.Classe = nil

	df := Build([]types.CohortRecord{rec})
	if df.Err != nil {
		t.Fatalf("build: %v", df.Err)
	}
	if df.Nrow() != 1 || df.Ncol() != len(types.CohortColumns) {
		t.Fatalf("unexpected dims %dx%d", df.Nrow(), df.Ncol())
	}
	if !df.Col(types.ColClasse).Elem(0).IsNA() {
		t.Fatalf("missing class should be NaN")
	}
}

func TestNormalize_DropsIncompleteRowsAndLowercases(t *testing.T) {
	missingStatus := record("3", "")
	missingStatus.Situacao = nil
	badDate := record("4", "Conclusão")
	badDate.DataAjuizamento = ptr("not a date")

	df := Build([]types.CohortRecord{
		record("1", "Procedência"),
		record("2", "EM ANDAMENTO"),
		missingStatus,
		badDate,
	})

	res, err := Normalize(df, Options{})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if res.Total != 4 || res.Dropped != 2 || len(res.Rows) != 2 {
		t.Fatalf("unexpected counts total=%d dropped=%d rows=%d", res.Total, res.Dropped, len(res.Rows))
	}

	first := res.Rows[0]
	if first.Class != "procedimento comum cível" || first.UnitName != "1ª vara cível da capital" || first.Format != "eletrônico" {
		t.Fatalf("categorical columns not lower-cased: %+v", first)
	}
	if res.Rows[1].Status != "em andamento" {
		t.Fatalf("status not lower-cased: %q", res.Rows[1].Status)
	}
	if !first.FilingDate.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) || first.FilingDate.Location() != time.UTC {
		t.Fatalf("unexpected filing date %v", first.FilingDate)
	}
	if first.Movements != 3 {
		t.Fatalf("unexpected movement count %d", first.Movements)
	}
}

func TestNormalize_PrunesConstantOptionalColumns(t *testing.T) {
	other := record("2", "Baixa")
	other.Municipio = ptr("2607901")

	res, err := Normalize(Build([]types.CohortRecord{record("1", "Baixa"), other}), Options{})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !lo.Contains(res.PrunedColumns, types.ColGrau) || lo.Contains(res.PrunedColumns, types.ColMunicipio) {
		t.Fatalf("unexpected pruned columns %v", res.PrunedColumns)
	}
	if lo.Contains(res.Columns(), types.ColGrau) || !lo.Contains(res.Columns(), types.ColCodigo) {
		t.Fatalf("unexpected columns %v", res.Columns())
	}
}

func TestNormalize_DuplicatesReportedNotRemovedByDefault(t *testing.T) {
	df := Build([]types.CohortRecord{record("1", "Baixa"), record("1", "Conclusão"), record("2", "Baixa")})

	res, err := Normalize(df, Options{})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(res.Rows) != 3 || len(res.Duplicates) != 1 || res.Duplicates[0] != "1" {
		t.Fatalf("expected duplicates reported only, got rows=%d dups=%v", len(res.Rows), res.Duplicates)
	}

	res, err = Normalize(df, Options{DropDuplicates: true})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(res.Rows) != 2 || res.DuplicatesRemoved != 1 || res.Rows[0].Status != "baixa" {
		t.Fatalf("expected first occurrence kept, got %+v", res.Rows)
	}
}

func TestNormalize_EmptyCohort(t *testing.T) {
	res, err := Normalize(Build(nil), Options{})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if res.Total != 0 || len(res.Rows) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}
