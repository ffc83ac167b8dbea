package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/farxc/datajud_wrapper/internal/datajud"
	"github.com/farxc/datajud_wrapper/internal/datajud/stats"
	"github.com/farxc/datajud_wrapper/internal/datajud/types"
	"github.com/farxc/datajud_wrapper/internal/datajud/utils"
	"github.com/farxc/datajud_wrapper/internal/export/charts"
	"github.com/farxc/datajud_wrapper/internal/logger"
	"github.com/xuri/excelize/v2"
)

const (
	SheetCohort    = "Dados dos Processos"
	SheetMovements = "Movimentos Processuais"
	SheetSubjects  = "Assuntos"
	SheetClasses   = "Classes"
	SheetYearly    = "Comparativo Anual"
	SheetSummary   = "Resumo"
	SheetCharts    = "Gráficos"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Sheets is the tab order of the workbook.
var Sheets = []string{SheetCohort, SheetMovements, SheetSubjects, SheetClasses, SheetYearly, SheetSummary, SheetCharts}

type Options struct {
	Charts bool
	Logger *logger.Logger
}

type Result struct {
	Success        bool
	OutputPath     string
	ChartsEmbedded int
}

// FileName is `<numero>_<orgao>_<dd_mm_yyyy>.xlsx`.
func FileName(numero, orgao string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s.xlsx", numero, utils.SanitizeFileName(orgao), at.Format(utils.FileDateLayout))
}

// WriteFile builds the workbook for report and saves it under dir.
func WriteFile(dir string, report *datajud.Report, opts Options) (Result, error) {
	const component = "Exporter"
	log := loggerOrDefault(opts.Logger)

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return Result{}, fmt.Errorf("create output dir: %w", err)
	}

	f, embedded, err := Build(report, opts)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	path := filepath.Join(dir, FileName(report.Case.Number, report.Case.UnitName, report.GeneratedAt))
	if err := f.SaveAs(path); err != nil {
		return Result{}, fmt.Errorf("save workbook: %w", err)
	}

	log.Info(component, "Report saved: path=%s rows=%d charts=%d", path, len(report.Metrics.Rows), embedded)
	return Result{Success: true, OutputPath: path, ChartsEmbedded: embedded}, nil
}

// Write streams the workbook to w.
func Write(w io.Writer, report *datajud.Report, opts Options) error {
	f, _, err := Build(report, opts)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// Build assembles every sheet. It returns the number of embedded chart images.
func Build(report *datajud.Report, opts Options) (*excelize.File, int, error) {
	if report == nil {
		return nil, 0, errors.New("nil report")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetCohort); err != nil {
		f.Close()
		return nil, 0, err
	}
	for _, name := range Sheets[1:] {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, 0, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	w := &sheetWriter{f: f}
	if err := w.init(); err != nil {
		f.Close()
		return nil, 0, err
	}

	steps := []func(*datajud.Report) error{
		w.writeCohort,
		w.writeMovements,
		func(r *datajud.Report) error {
			return w.writeGroups(SheetSubjects, types.ColAssunto, r.Metrics.SubjectAverages)
		},
		func(r *datajud.Report) error {
			return w.writeGroups(SheetClasses, types.ColClasse, r.Metrics.ClassAverages)
		},
		w.writeYearly,
		w.writeSummary,
	}
	for _, step := range steps {
		if err := step(report); err != nil {
			f.Close()
			return nil, 0, err
		}
	}

	embedded := 0
	if opts.Charts {
		var err error
		embedded, err = w.embedCharts(RenderCharts(report, opts.Logger))
		if err != nil {
			f.Close()
			return nil, 0, err
		}
	}

	f.SetActiveSheet(0)
	return f, embedded, nil
}

// RenderCharts draws every chart it has data for. Failures are logged and
// the chart is skipped.
func RenderCharts(report *datajud.Report, appLogger *logger.Logger) []charts.Chart {
	const component = "Charts"
	log := loggerOrDefault(appLogger)

	m := report.Metrics
	attempts := []struct {
		name   string
		render func() (charts.Chart, error)
	}{
		{"timeline", func() (charts.Chart, error) { return charts.Timeline(report.Timeline) }},
		{"subjects", func() (charts.Chart, error) {
			return charts.GroupAverages("media_por_assunto", "Média de Tempo para Julgar por Assunto", m.SubjectAverages)
		}},
		{"classes", func() (charts.Chart, error) {
			return charts.GroupAverages("media_por_classe", "Média de Tempo para Julgar por Classe", m.ClassAverages)
		}},
		{"yearly", func() (charts.Chart, error) { return charts.Yearly(m.Yearly) }},
		{"share", func() (charts.Chart, error) { return charts.JudgedShare(m.Summary.Judged, m.Summary.Pending) }},
		{"histogram", func() (charts.Chart, error) {
			return charts.Histogram(m.JudgedDurations, m.Summary.MeanDaysToJudge)
		}},
	}

	out := make([]charts.Chart, 0, len(attempts))
	for _, a := range attempts {
		c, err := a.render()
		switch {
		case errors.Is(err, charts.ErrNoData):
			log.Debug(component, "Chart skipped, no data: chart=%s", a.name)
		case err != nil:
			log.Warn(component, "Chart failed: chart=%s error=%v", a.name, err)
		default:
			out = append(out, c)
		}
	}
	return out
}

// ReadCohortSheet loads the cohort sheet back as header-keyed rows.
func ReadCohortSheet(path string) ([]map[string]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetCohort)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", SheetCohort, err)
	}
	if len(rows) == 0 {
		return []map[string]string{}, nil
	}

	header := rows[0]
	out := make([]map[string]string, 0, len(rows)-1)
	for _, r := range rows[1:] {
		m := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(r) {
				m[h] = r[i]
			} else {
				m[h] = ""
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func cohortHeader(report *datajud.Report) []string {
	cols := append([]string{}, report.Cohort.Columns()...)
	if len(cols) == 0 {
		cols = append(cols, types.CohortColumns...)
	}
	return append(cols, types.ColContagemDias, types.ColJulgado)
}

func cohortCell(r types.CohortRow, col string) interface{} {
	switch col {
	case types.ColNumeroProcesso:
		return r.Number
	case types.ColClasse:
		return r.Class
	case types.ColAssunto:
		return r.Subject
	case types.ColDataAjuizamento:
		return utils.FormatDate(r.FilingDate)
	case types.ColUltimaAtualizacao:
		return utils.FormatDate(r.LastUpdate)
	case types.ColFormato:
		return r.Format
	case types.ColCodigo:
		return r.UnitCode
	case types.ColOrgaoJulgador:
		return r.UnitName
	case types.ColMunicipio:
		return r.Municipality
	case types.ColGrau:
		return r.Degree
	case types.ColMovimentos:
		return r.Movements
	case types.ColSituacao:
		return r.Status
	case types.ColUltimoMov:
		return utils.FormatDate(r.LastMovement)
	case types.ColContagemDias:
		return r.ElapsedDays
	case types.ColJulgado:
		return r.Judged
	default:
		return nil
	}
}

func summaryRows(report *datajud.Report) [][]interface{} {
	s := report.Metrics.Summary
	c := report.Metrics.Comparison
	rows := [][]interface{}{
		{"Processo consultado", report.Case.Number},
		{"Tribunal", report.Tribunal},
		{"Órgão julgador", report.Case.UnitName},
		{"Código do órgão", report.Case.UnitCode},
		{"Classe", report.Case.Class},
		{"Assunto principal", report.Case.FirstSubject()},
		{"Gerado em", utils.FormatDateTime(report.GeneratedAt)},
		{"Total de processos do órgão", s.Total},
		{"Processos julgados", s.Judged},
		{"Processos não julgados", s.Pending},
		{"% julgados", round2(s.JudgedPct)},
		{"% não julgados", round2(s.PendingPct)},
		{"% processos físicos", round2(s.PhysicalPct)},
		{"Média geral de dias", s.MeanElapsedDays},
		{"Média de dias para julgar", round2(s.MeanDaysToJudge)},
		{"Linhas descartadas (dados incompletos)", s.Dropped},
		{"Números de processo duplicados", s.Duplicates},
		{"Versão das palavras-chave", s.KeywordSetVersion},
	}
	rows = append(rows, caseRefRows("Processo mais antigo", s.OldestCase)...)
	rows = append(rows, caseRefRows("Processo julgado mais antigo", s.OldestJudged)...)
	rows = append(rows, caseRefRows("Processo não julgado mais antigo", s.OldestPending)...)

	if c.InCohort {
		rows = append(rows,
			[]interface{}{"Dias do processo consultado", c.ElapsedDays},
			[]interface{}{"Processo consultado julgado", c.Judged},
		)
		if c.SubjectAverage != nil {
			rows = append(rows, []interface{}{"Média de dias do assunto", *c.SubjectAverage})
		}
		if c.ClassAverage != nil {
			rows = append(rows, []interface{}{"Média de dias da classe", *c.ClassAverage})
		}
	}
	for _, warning := range report.Warnings {
		rows = append(rows, []interface{}{"Aviso", warning})
	}
	return rows
}

func caseRefRows(label string, ref *stats.CaseRef) [][]interface{} {
	if ref == nil {
		return nil
	}
	return [][]interface{}{
		{label, ref.Number},
		{label + " - ajuizamento", utils.FormatDate(ref.FilingDate)},
		{label + " - situação", ref.Status},
	}
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func loggerOrDefault(l *logger.Logger) *logger.Logger {
	if l == nil {
		return &logger.Logger{MinLevel: logger.LevelInfo}
	}
	return l
}
