package store

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	rows := [][]float64{{0.5, 1}, {1e-9, -2.25}}
	if err := WriteTSV(&buf, rows); err != nil {
		t.Fatalf("WriteTSV failed: %v", err)
	}
	want := "0.5\t1\n1e-09\t-2.25\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}

	back, err := ReadTSV(&buf)
	if err != nil {
		t.Fatalf("ReadTSV failed: %v", err)
	}
	for i := range rows {
		for j := range rows[i] {
			if back[i][j] != rows[i][j] {
				t.Errorf("Value [%d][%d]: expected %v, got %v", i, j, rows[i][j], back[i][j])
			}
		}
	}
}

func TestReadTSV_SkipsBlankLinesAndRejectsGarbage(t *testing.T) {
	rows, err := ReadTSV(strings.NewReader("1 2\n\n3\t4\n"))
	if err != nil {
		t.Fatalf("ReadTSV failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected 2 rows, got %d", len(rows))
	}

	if _, err := ReadTSV(strings.NewReader("1\tx\n")); err == nil {
		t.Error("Expected parse error")
	}
}
