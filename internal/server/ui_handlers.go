package server

import (
	"net/http"

	"github.com/cwbudde/paretoswarm/internal/ui"
)

// handleIndex handles GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// Only handle exact root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	// Get all jobs from job manager
	jobs := s.jobManager.ListJobs()

	// Convert to UI run list items
	items := make([]ui.RunListItem, len(jobs))
	for i, job := range jobs {
		items[i] = ui.RunListItem{
			ID:            job.ID,
			State:         string(job.State),
			Problem:       job.Config.Problem,
			Generation:    job.Generation,
			MaxIterations: job.Config.MaxIterations,
			Evaluations:   job.Evaluations,
			ArchiveSize:   job.ArchiveSize,
			Hypervolume:   job.Hypervolume,
			StartTime:     job.StartTime,
			EndTime:       job.EndTime,
			Error:         job.Error,
		}
	}

	// Render the run list page using templ
	if err := ui.RunList(items).Render(r.Context(), w); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}
