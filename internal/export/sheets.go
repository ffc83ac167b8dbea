package export

import (
	"fmt"

	"github.com/farxc/datajud_wrapper/internal/datajud"
	"github.com/farxc/datajud_wrapper/internal/datajud/stats"
	"github.com/farxc/datajud_wrapper/internal/datajud/types"
	"github.com/farxc/datajud_wrapper/internal/datajud/utils"
	"github.com/farxc/datajud_wrapper/internal/export/charts"
	"github.com/xuri/excelize/v2"
)

// chartRowSpan is how many rows one embedded chart image occupies.
const chartRowSpan = 32

type sheetWriter struct {
	f           *excelize.File
	headerStyle int
}

func (w *sheetWriter) init() error {
	style, err := w.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DCE6F1"}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	w.headerStyle = style
	return nil
}

// table writes header and rows from A1, styles and freezes the header and
// adds an auto filter when there is data.
func (w *sheetWriter) table(sheet string, header []string, rows [][]interface{}) error {
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := w.f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := r
		if err := w.f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}

	if len(header) == 0 {
		return nil
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := w.f.SetCellStyle(sheet, "A1", lastHeader, w.headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := w.f.SetColWidth(sheet, "A", lastCol, 22); err != nil {
		return fmt.Errorf("%s widths: %w", sheet, err)
	}
	if err := w.f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("%s panes: %w", sheet, err)
	}
	if len(rows) > 0 {
		lastCell, err := excelize.CoordinatesToCellName(len(header), len(rows)+1)
		if err != nil {
			return err
		}
		if err := w.f.AutoFilter(sheet, "A1:"+lastCell, nil); err != nil {
			return fmt.Errorf("%s filter: %w", sheet, err)
		}
	}
	return nil
}

func (w *sheetWriter) writeCohort(report *datajud.Report) error {
	header := cohortHeader(report)
	rows := make([][]interface{}, 0, len(report.Metrics.Rows))
	for _, r := range report.Metrics.Rows {
		row := make([]interface{}, len(header))
		for i, col := range header {
			row[i] = cohortCell(r, col)
		}
		rows = append(rows, row)
	}
	return w.table(SheetCohort, header, rows)
}

func (w *sheetWriter) writeMovements(report *datajud.Report) error {
	rows := make([][]interface{}, 0, len(report.MovementRows))
	for _, m := range report.MovementRows {
		row := []interface{}{utils.FormatDateTime(m.Timestamp), m.Description, nil, nil}
		if m.ComplementType != nil {
			row[2] = *m.ComplementType
		}
		if m.ComplementName != nil {
			row[3] = *m.ComplementName
		}
		rows = append(rows, row)
	}
	return w.table(SheetMovements, types.MovementColumns, rows)
}

func (w *sheetWriter) writeGroups(sheet, keyCol string, groups []stats.GroupAverage) error {
	rows := make([][]interface{}, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []interface{}{g.Name, g.AverageDays, g.Count})
	}
	return w.table(sheet, []string{keyCol, "media_dias", "quantidade_julgados"}, rows)
}

func (w *sheetWriter) writeYearly(report *datajud.Report) error {
	rows := make([][]interface{}, 0, len(report.Metrics.Yearly))
	for _, y := range report.Metrics.Yearly {
		rows = append(rows, []interface{}{y.Year, y.Filed, y.Judged})
	}
	return w.table(SheetYearly, []string{"ano", "quantidade_ajuizados", "quantidade_julgados"}, rows)
}

func (w *sheetWriter) writeSummary(report *datajud.Report) error {
	if err := w.table(SheetSummary, []string{"indicador", "valor"}, summaryRows(report)); err != nil {
		return err
	}

	s := report.Metrics.Summary
	share := [][]interface{}{
		{"situacao", "quantidade"},
		{"Julgados", s.Judged},
		{"Não Julgados", s.Pending},
	}
	for i, r := range share {
		row := r
		if err := w.f.SetSheetRow(SheetSummary, fmt.Sprintf("D%d", i+1), &row); err != nil {
			return fmt.Errorf("share table: %w", err)
		}
	}
	if err := w.f.SetCellStyle(SheetSummary, "D1", "E1", w.headerStyle); err != nil {
		return err
	}
	if s.Total == 0 {
		return nil
	}

	return w.f.AddChart(SheetSummary, "G2", &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$E$1", SheetSummary),
			Categories: fmt.Sprintf("'%s'!$D$2:$D$3", SheetSummary),
			Values:     fmt.Sprintf("'%s'!$E$2:$E$3", SheetSummary),
		}},
		Title:     []excelize.RichTextRun{{Text: "Processos Julgados e Não Julgados"}},
		Legend:    excelize.ChartLegend{Position: "right"},
		PlotArea:  excelize.ChartPlotArea{ShowPercent: true},
		Dimension: excelize.ChartDimension{Width: 480, Height: 320},
	})
}

func (w *sheetWriter) embedCharts(rendered []charts.Chart) (int, error) {
	if err := w.f.SetColWidth(SheetCharts, "A", "A", 40); err != nil {
		return 0, err
	}
	for i, c := range rendered {
		row := 1 + i*chartRowSpan
		if err := w.f.SetCellValue(SheetCharts, fmt.Sprintf("A%d", row), c.Title); err != nil {
			return i, err
		}
		err := w.f.AddPictureFromBytes(SheetCharts, fmt.Sprintf("A%d", row+1), &excelize.Picture{
			Extension: ".png",
			File:      c.PNG,
			Format:    &excelize.GraphicOptions{AltText: c.Title, ScaleX: 0.6, ScaleY: 0.6},
		})
		if err != nil {
			return i, fmt.Errorf("embed chart %s: %w", c.Name, err)
		}
	}
	return len(rendered), nil
}
