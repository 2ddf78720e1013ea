package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hoanghai1803/newswire/internal/models"
	"github.com/hoanghai1803/newswire/internal/storage"
)

// SweepRunner performs one fetch-and-store sweep on demand and reports the
// next scheduled run. NextRun fails when the scheduler is not running.
type SweepRunner interface {
	RunOnce(ctx context.Context) (*models.SweepRun, error)
	NextRun() (time.Time, error)
}

type sweepsResponse struct {
	Success   bool              `json:"success"`
	Scheduled bool              `json:"scheduled"`
	NextRun   *time.Time        `json:"next_run,omitempty"`
	Runs      []models.SweepRun `json:"runs"`
}

// TriggerSweep handles POST /api/sweeps. It runs a sweep immediately and
// returns the recorded run.
func TriggerSweep(runner SweepRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := runner.RunOnce(r.Context())
		if err != nil {
			slog.Error("manual sweep failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Sweep failed")
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

// ListSweeps handles GET /api/sweeps?limit={limit}. It returns the recent
// runs and, while the scheduler is running, the next scheduled run.
func ListSweeps(store *storage.Store, runner SweepRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := store.RecentSweeps(r.Context(), parseLimit(r, 10))
		if err != nil {
			slog.Error("failed to list sweeps", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list sweeps")
			return
		}
		if runs == nil {
			runs = []models.SweepRun{}
		}

		resp := sweepsResponse{Success: true, Runs: runs}
		if next, err := runner.NextRun(); err == nil && !next.IsZero() {
			resp.Scheduled = true
			resp.NextRun = &next
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
