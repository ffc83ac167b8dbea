package charts

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/farxc/datajud_wrapper/internal/datajud/movements"
	"github.com/farxc/datajud_wrapper/internal/datajud/stats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ErrNoData is returned when a chart has nothing to draw.
var ErrNoData = errors.New("no data to plot")

const (
	width  = 10 * vg.Inch
	height = 6 * vg.Inch

	histogramBins = 30
)

// Chart is a rendered PNG with the title used to caption it.
type Chart struct {
	Name  string
	Title string
	PNG   []byte
}

// Timeline plots each numbered movement against its date.
func Timeline(points []movements.TimelinePoint) (Chart, error) {
	const title = "Linha do Tempo dos Movimentos Processuais"
	if len(points) == 0 {
		return Chart{}, ErrNoData
	}

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = float64(pt.Timestamp.Unix())
		xys[i].Y = float64(pt.ID)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Data"
	p.Y.Label.Text = "Movimento"
	p.X.Tick.Marker = plot.TimeTicks{Format: "01/2006", Time: func(t float64) time.Time { return time.Unix(int64(t), 0).UTC() }}
	p.Add(plotter.NewGrid())

	line, scatter, err := plotter.NewLinePoints(xys)
	if err != nil {
		return Chart{}, fmt.Errorf("timeline points: %w", err)
	}
	line.Color = plotutil.Color(0)
	scatter.Color = plotutil.Color(0)
	p.Add(line, scatter)

	return render("linha_do_tempo", title, p)
}

// GroupAverages draws horizontal bars of average days per group.
func GroupAverages(name, title string, groups []stats.GroupAverage) (Chart, error) {
	if len(groups) == 0 {
		return Chart{}, ErrNoData
	}

	// Reverse so the largest average sits at the top of the axis.
	values := make(plotter.Values, len(groups))
	labels := make([]string, len(groups))
	for i, g := range groups {
		j := len(groups) - 1 - i
		values[j] = float64(g.AverageDays)
		labels[j] = g.Name
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Média de dias"

	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return Chart{}, fmt.Errorf("group bars: %w", err)
	}
	bars.Horizontal = true
	bars.Color = plotutil.Color(1)
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalY(labels...)

	return render(name, title, p)
}

// Yearly draws filed and judged counts side by side per filing year.
func Yearly(counts []stats.YearCount) (Chart, error) {
	const title = "Comparativo de Processos Ajuizados e Julgados por Ano"
	if len(counts) == 0 {
		return Chart{}, ErrNoData
	}

	filed := make(plotter.Values, len(counts))
	judged := make(plotter.Values, len(counts))
	years := make([]string, len(counts))
	for i, c := range counts {
		filed[i] = float64(c.Filed)
		judged[i] = float64(c.Judged)
		years[i] = fmt.Sprintf("%d", c.Year)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Ano"
	p.Y.Label.Text = "Quantidade de Processos"

	barWidth := vg.Points(16)
	filedBars, err := plotter.NewBarChart(filed, barWidth)
	if err != nil {
		return Chart{}, fmt.Errorf("filed bars: %w", err)
	}
	filedBars.Color = plotutil.Color(0)
	filedBars.Offset = -barWidth / 2

	judgedBars, err := plotter.NewBarChart(judged, barWidth)
	if err != nil {
		return Chart{}, fmt.Errorf("judged bars: %w", err)
	}
	judgedBars.Color = plotutil.Color(1)
	judgedBars.Offset = barWidth / 2

	p.Add(filedBars, judgedBars)
	p.Legend.Add("Ajuizados", filedBars)
	p.Legend.Add("Julgados", judgedBars)
	p.Legend.Top = true
	p.NominalX(years...)

	return render("comparativo_anual", title, p)
}

// JudgedShare draws the judged and pending totals with their share in the labels.
func JudgedShare(judged, pending int) (Chart, error) {
	const title = "Porcentagem de Processos Julgados e Não Julgados"
	total := judged + pending
	if total == 0 {
		return Chart{}, ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Processos"

	bars, err := plotter.NewBarChart(plotter.Values{float64(judged), float64(pending)}, vg.Points(60))
	if err != nil {
		return Chart{}, fmt.Errorf("share bars: %w", err)
	}
	bars.Color = color.RGBA{R: 46, G: 139, B: 87, A: 255}
	p.Add(bars)
	p.NominalX(
		fmt.Sprintf("Julgados (%.1f%%)", float64(judged)/float64(total)*100),
		fmt.Sprintf("Não Julgados (%.1f%%)", float64(pending)/float64(total)*100),
	)

	return render("julgados_nao_julgados", title, p)
}

// Histogram draws the distribution of days to judge with a dashed mean line.
func Histogram(durations []float64, mean float64) (Chart, error) {
	const title = "Distribuição do Tempo para Julgar Processos Julgados"
	if len(durations) == 0 {
		return Chart{}, ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Tempo para Julgar (dias)"
	p.Y.Label.Text = "Número de Processos"

	hist, err := plotter.NewHist(plotter.Values(durations), histogramBins)
	if err != nil {
		return Chart{}, fmt.Errorf("histogram: %w", err)
	}
	hist.FillColor = plotutil.Color(2)
	p.Add(hist)

	maxCount := 0.0
	for _, b := range hist.Bins {
		if b.Weight > maxCount {
			maxCount = b.Weight
		}
	}
	meanLine, err := plotter.NewLine(plotter.XYs{{X: mean, Y: 0}, {X: mean, Y: maxCount}})
	if err != nil {
		return Chart{}, fmt.Errorf("mean line: %w", err)
	}
	meanLine.Color = color.RGBA{R: 220, A: 255}
	meanLine.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	meanLine.Width = vg.Points(2)
	p.Add(meanLine)
	p.Legend.Add(fmt.Sprintf("Média: %.2f dias", mean), meanLine)
	p.Legend.Top = true

	return render("tempo_para_julgar", title, p)
}

func render(name, title string, p *plot.Plot) (Chart, error) {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return Chart{}, fmt.Errorf("render %s: %w", name, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return Chart{}, fmt.Errorf("encode %s: %w", name, err)
	}
	return Chart{Name: name, Title: title, PNG: buf.Bytes()}, nil
}
