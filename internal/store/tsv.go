package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Front file names, one solution per line in archive order.
const (
	VariablesFile  = "VAR.tsv"
	ObjectivesFile = "FUN.tsv"
)

// WriteTSV writes one tab-separated row per vector.
func WriteTSV(w io.Writer, rows [][]float64) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		for j, v := range row {
			if j > 0 {
				bw.WriteByte('\t')
			}
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write tsv: %w", err)
	}
	return nil
}

// ReadTSV parses rows written by WriteTSV. Blank lines are skipped; any whitespace
// separates columns.
func ReadTSV(r io.Reader) ([][]float64, error) {
	var rows [][]float64
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		row := make([]float64, len(fields))
		for j, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, j+1, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan tsv: %w", err)
	}
	return rows, nil
}

// WriteFrontFiles writes VAR.tsv and FUN.tsv for front into dir.
func WriteFrontFiles(dir string, front []FrontPoint) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	vars := make([][]float64, len(front))
	for i, p := range front {
		vars[i] = p.Variables
	}
	if err := writeTSVFile(filepath.Join(dir, VariablesFile), vars); err != nil {
		return err
	}
	return writeTSVFile(filepath.Join(dir, ObjectivesFile), Objectives(front))
}

// ReadTSVFile reads a whole TSV file, such as a reference front.
func ReadTSVFile(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTSV(f)
}

func writeTSVFile(path string, rows [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteTSV(f, rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
