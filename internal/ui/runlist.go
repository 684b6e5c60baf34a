// Package ui renders the HTML pages served by the HTTP server.
//
// Components are written in .templ files; run `templ generate` after editing
// them to refresh the *_templ.go files.
package ui

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// RunListItem is one row of the run list page.
type RunListItem struct {
	ID            string
	State         string
	Problem       string
	Generation    int
	MaxIterations int
	Evaluations   int
	ArchiveSize   int
	Hypervolume   float64
	StartTime     time.Time
	EndTime       *time.Time
	Error         string
}

// Progress returns the completed share of generations in [0, 100].
func (it RunListItem) Progress() float64 {
	if it.MaxIterations <= 0 {
		return 0
	}
	p := 100 * float64(it.Generation) / float64(it.MaxIterations)
	if p > 100 {
		return 100
	}
	return p
}

// Duration formats the elapsed wall time of the run.
func (it RunListItem) Duration() string {
	end := time.Now()
	if it.EndTime != nil {
		end = *it.EndTime
	}
	return end.Sub(it.StartTime).Round(time.Millisecond).String()
}

// Finished reports whether the run has a front to show.
func (it RunListItem) Finished() bool {
	return it.State == "completed" || it.State == "cancelled"
}

// StateLabel capitalizes the state for the badge.
func (it RunListItem) StateLabel() string {
	if it.State == "" {
		return "Unknown"
	}
	return strings.ToUpper(it.State[:1]) + it.State[1:]
}

// ShortID is the first eight characters of the run id.
func (it RunListItem) ShortID() string {
	if len(it.ID) > 8 {
		return it.ID[:8]
	}
	return it.ID
}

func (it RunListItem) GenerationText() string {
	return fmt.Sprintf("%d / %d", it.Generation, it.MaxIterations)
}

func (it RunListItem) ProgressValue() string {
	return fmt.Sprintf("%.0f", it.Progress())
}

func (it RunListItem) HypervolumeText() string {
	return fmt.Sprintf("%.6f", it.Hypervolume)
}

func (it RunListItem) StatusURL() string {
	return "/api/v1/runs/" + url.PathEscape(it.ID)
}

func (it RunListItem) FrontURL() string {
	return it.StatusURL() + "/front"
}
