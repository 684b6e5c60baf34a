package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/cwbudde/paretoswarm/internal/indicator"
	"github.com/cwbudde/paretoswarm/internal/plot"
	"github.com/cwbudde/paretoswarm/internal/problem"
	"github.com/cwbudde/paretoswarm/internal/store"
)

// trueFrontPoints is the sample size of benchmark fronts used for IGD and plots.
const trueFrontPoints = 1000

// quality holds the indicators reported for a front.
type quality struct {
	Hypervolume float64
	Reference   []float64
	IGD         float64
	Spread      float64
	HasIGD      bool
	HasSpread   bool
}

// referenceFront loads the optimal front from path, or samples the benchmark's
// own front when path is empty. It returns nil when neither is available.
func referenceFront(path string, p problem.Benchmark) ([][]float64, error) {
	if path != "" {
		ref, err := store.ReadTSVFile(path)
		if err != nil {
			return nil, err
		}
		for i, row := range ref {
			if len(row) != p.NumberOfObjectives() {
				return nil, fmt.Errorf("reference front %s: row %d has %d objectives, expected %d",
					path, i+1, len(row), p.NumberOfObjectives())
			}
		}
		return ref, nil
	}
	return p.TrueFront(trueFrontPoints), nil
}

// assess computes the indicators of front. IGD needs a reference front, spread
// additionally needs two objectives.
func assess(front [][]float64, p problem.Benchmark, ref [][]float64) quality {
	q := quality{Reference: problem.ReferencePoint(p, store.ReferenceOffset)}
	q.Hypervolume = indicator.Hypervolume(front, q.Reference)

	if len(ref) > 0 {
		q.IGD = indicator.IGD(front, ref)
		q.HasIGD = true
	}
	if len(ref) >= 2 && p.NumberOfObjectives() == 2 {
		sorted := append([][]float64(nil), ref...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i][0] < sorted[j][0] })
		q.Spread = indicator.Spread(front, [2][]float64{sorted[0], sorted[len(sorted)-1]})
		q.HasSpread = true
	}
	return q
}

func (q quality) print(w io.Writer) {
	fmt.Fprintf(w, "  Hypervolume: %.6f (reference %v)\n", q.Hypervolume, q.Reference)
	if q.HasIGD {
		fmt.Fprintf(w, "  IGD:         %.6f\n", q.IGD)
	}
	if q.HasSpread {
		fmt.Fprintf(w, "  Spread:      %.6f\n", q.Spread)
	}
}

// writeOutputs writes VAR.tsv/FUN.tsv to outDir and, when plotPath is set, an HTML
// scatter of the front next to the reference front.
func writeOutputs(outDir, plotPath, name string, p problem.Benchmark, front []store.FrontPoint, ref [][]float64) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := store.WriteFrontFiles(outDir, front); err != nil {
		return err
	}
	fmt.Printf("Wrote %s and %s (%d solutions)\n",
		filepath.Join(outDir, store.VariablesFile), filepath.Join(outDir, store.ObjectivesFile), len(front))

	if plotPath == "" {
		return nil
	}
	if p.NumberOfObjectives() != 2 {
		slog.Warn("Skipping plot, only two objectives can be plotted", "objectives", p.NumberOfObjectives())
		return nil
	}

	series := []plot.Series{{Name: name, Points: store.Objectives(front)}}
	if len(ref) > 0 {
		series = append(series, plot.Series{Name: "Reference front", Points: ref, Symbol: "pin"})
	}
	if err := plot.FrontFile(plotPath, fmt.Sprintf("%s on %s", name, p.Name()), series...); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", plotPath)
	return nil
}
