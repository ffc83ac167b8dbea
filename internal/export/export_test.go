package export

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/farxc/datajud_wrapper/internal/datajud"
	"github.com/farxc/datajud_wrapper/internal/datajud/types"
	"github.com/farxc/datajud_wrapper/internal/logger"
	"github.com/xuri/excelize/v2"
)

type stubSearcher struct{}

const stubCase = `{"hits":{"hits":[
 {"_source":{"numeroProcesso":"00008323520188172001","classe":{"nome":"Procedimento Comum Cível"},
  "assuntos":[{"nome":"Indenização por Dano Moral"}],
  "orgaoJulgador":{"codigo":5043,"nome":"1ª Vara Cível da Capital"},
  "movimentos":[
   {"nome":"Distribuição","dataHora":"2020-01-01T00:00:00.000Z"},
   {"nome":"Conclusão","dataHora":"2020-02-01T10:30:00.000Z","complementosTabelados":[
    {"codigo":1,"valor":5,"nome":"para despacho","descricao":"tipo_de_conclusao"}]}]}}
]}}`

const stubCohort = `{"hits":{"hits":[
 {"_source":{"numeroProcesso":"00008323520188172001","classe":{"nome":"Procedimento Comum Cível"},
  "assuntos":[{"nome":"Indenização por Dano Moral"}],"dataAjuizamento":"2020-01-01T00:00:00.000Z",
  "dataHoraUltimaAtualizacao":"2020-06-02T00:00:00.000Z","formato":{"nome":"Eletrônico"},
  "orgaoJulgador":{"codigo":5043,"nome":"1ª Vara Cível da Capital","codigoMunicipioIBGE":2611606},
  "movimentos":[{"nome":"Procedência","dataHora":"2020-06-01T00:00:00.000Z"}]}},
 {"_source":{"numeroProcesso":"11111111111111111111","classe":{"nome":"Execução Fiscal"},
  "assuntos":[{"nome":"IPTU"}],"dataAjuizamento":"2021-01-01T00:00:00.000Z",
  "dataHoraUltimaAtualizacao":"2021-02-02T00:00:00.000Z","formato":{"nome":"Físico"},
  "orgaoJulgador":{"codigo":5043,"nome":"1ª Vara Cível da Capital","codigoMunicipioIBGE":2611606},
  "movimentos":[{"nome":"Em andamento","dataHora":"2021-02-01T00:00:00.000Z"}]}}
]}}`

func (stubSearcher) FindCase(ctx context.Context, numero string) (*types.SearchResponse, error) {
	var out types.SearchResponse
	return &out, json.Unmarshal([]byte(stubCase), &out)
}

func (stubSearcher) FindCohort(ctx context.Context, unitCode string, size int) (*types.SearchResponse, error) {
	var out types.SearchResponse
	return &out, json.Unmarshal([]byte(stubCohort), &out)
}

func sampleReport(t *testing.T) *datajud.Report {
	t.Helper()
	p := datajud.NewPipeline(stubSearcher{}, logger.New(&bytes.Buffer{}, logger.LevelError), datajud.PipelineConfig{})
	p.Now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }
	report, err := p.Run(context.Background(), "0000832-35.2018.8.17.2001")
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return report
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	got := FileName("00008323520188172001", "1ª Vara Cível/Capital", at)
	want := "00008323520188172001_1ª Vara Cível_Capital_05_03_2024.xlsx"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWriteFile_RoundTrip(t *testing.T) {
	report := sampleReport(t)
	dir := t.TempDir()

	res, err := WriteFile(dir, report, Options{Logger: logger.New(&bytes.Buffer{}, logger.LevelError)})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !res.Success || filepath.Dir(res.OutputPath) != dir {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.HasSuffix(res.OutputPath, "_15_03_2024.xlsx") {
		t.Fatalf("unexpected file name %s", res.OutputPath)
	}

	rows, err := ReadCohortSheet(res.OutputPath)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != len(report.Metrics.Rows) {
		t.Fatalf("expected %d rows, got %d", len(report.Metrics.Rows), len(rows))
	}
	seen := map[string]map[string]string{}
	for _, r := range rows {
		seen[r[types.ColNumeroProcesso]] = r
	}
	for _, want := range report.Metrics.Rows {
		got, ok := seen[want.Number]
		if !ok {
			t.Fatalf("case %s missing from sheet", want.Number)
		}
		if got[types.ColClasse] != strings.ToLower(got[types.ColClasse]) {
			t.Errorf("class not lower-cased: %q", got[types.ColClasse])
		}
		if got[types.ColAssunto] != want.Subject {
			t.Errorf("subject %q, want %q", got[types.ColAssunto], want.Subject)
		}
	}
	if seen["00008323520188172001"][types.ColDataAjuizamento] != "01-01-2020" {
		t.Errorf("unexpected filing date %q", seen["00008323520188172001"][types.ColDataAjuizamento])
	}

	f, err := excelize.OpenFile(res.OutputPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if got := f.GetSheetList(); strings.Join(got, "|") != strings.Join(Sheets, "|") {
		t.Fatalf("sheets %v, want %v", got, Sheets)
	}

	moves, err := f.GetRows(SheetMovements)
	if err != nil {
		t.Fatalf("movements: %v", err)
	}
	if len(moves) != 3 {
		t.Fatalf("expected header plus 2 movement rows, got %d", len(moves))
	}
	if moves[1][0] != "01-01-2020 00:00:00" || len(moves[1]) > 2 {
		t.Errorf("movement without complements should leave blank cells: %v", moves[1])
	}
	if moves[2][2] != "tipo_de_conclusao" || moves[2][3] != "para despacho" {
		t.Errorf("unexpected complement cells: %v", moves[2])
	}
}

func TestWrite_WithCharts(t *testing.T) {
	report := sampleReport(t)
	var buf bytes.Buffer
	if err := Write(&buf, report, Options{Charts: true, Logger: logger.New(&bytes.Buffer{}, logger.LevelError)}); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	pics, err := f.GetPictureCells(SheetCharts)
	if err != nil {
		t.Fatalf("pictures: %v", err)
	}
	if len(pics) == 0 {
		t.Fatalf("expected embedded chart images")
	}
}

func TestRenderCharts_SkipsEmpty(t *testing.T) {
	got := RenderCharts(&datajud.Report{}, logger.New(&bytes.Buffer{}, logger.LevelError))
	if len(got) != 0 {
		t.Fatalf("expected no charts for an empty report, got %d", len(got))
	}
}
