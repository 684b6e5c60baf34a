// Package plot renders two-objective fronts as interactive HTML scatter charts.
package plot

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// Series is one named set of objective vectors.
type Series struct {
	Name   string
	Points [][]float64
	Symbol string // echarts symbol, "circle" when empty
}

// Front writes a scatter chart of every series to w. Only two-objective points
// can be plotted.
func Front(w io.Writer, title string, series ...Series) error {
	if len(series) == 0 {
		return fmt.Errorf("plot: no series to plot")
	}
	for _, s := range series {
		for _, p := range s.Points {
			if len(p) != 2 {
				return fmt.Errorf("plot: can only plot 2 objectives, %q has a point with %d", s.Name, len(p))
			}
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "f1(x)",
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "f2(x)",
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}))

	for _, s := range series {
		symbol := s.Symbol
		if symbol == "" {
			symbol = "circle"
		}
		data := make([]opts.ScatterData, len(s.Points))
		for i, p := range s.Points {
			data[i] = opts.ScatterData{
				Value:      []float64{p[0], p[1]},
				Symbol:     symbol,
				SymbolSize: 10,
			}
		}
		scatter.AddSeries(s.Name, data)
	}
	scatter.SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{
			Show: opts.Bool(false),
		}),
		charts.WithEmphasisOpts(opts.Emphasis{}),
	)

	return scatter.Render(w)
}

// FrontFile renders the chart to an HTML file at path.
func FrontFile(path, title string, series ...Series) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	if err := Front(f, title, series...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
