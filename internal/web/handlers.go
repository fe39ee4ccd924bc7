package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/refcheck/internal/core"
	"github.com/JonMunkholm/refcheck/internal/logging"
	"github.com/go-chi/chi/v5"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListKinds returns the registered kinds in step order.
func (s *Server) handleListKinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListKinds())
}

// statusResponse describes current run capacity.
type statusResponse struct {
	Runs  core.RunLimiterStatus `json:"runs"`
	Kinds int                   `json:"kinds"`
}

// handleStatus returns the run limiter state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Runs:  s.service.LimiterStatus(),
		Kinds: core.KindCount(),
	})
}

// startResponse is returned when a run is accepted.
type startResponse struct {
	RunID string `json:"runId"`
}

// handleStartCheck starts a check run and returns its id.
func (s *Server) handleStartCheck(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)

	runID, err := s.service.StartRun(ctx)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(ctx).Info("check run accepted", "run_id", runID)
	w.Header().Set("Location", "/api/checks/"+runID)
	writeJSON(w, http.StatusAccepted, startResponse{RunID: runID})
}

// handleListChecks returns recent stored runs, newest first.
// The optional limit query parameter is capped by the retention list limit.
func (s *Server) handleListChecks(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.Retention.ListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "invalid limit",
				Message: "The limit parameter must be a positive number.",
				Code:    "REQ001",
			})
			return
		}
		limit = min(n, limit)
	}

	runs, err := s.service.ListRuns(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if runs == nil {
		runs = []core.RunSummary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleCheckResult waits for the run to finish and returns its result.
func (s *Server) handleCheckResult(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	result, err := s.service.GetRunResult(r.Context(), runID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCancelCheck cancels an in-progress run.
func (s *Server) handleCancelCheck(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	if err := s.service.CancelRun(runID); err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("check run cancel requested", "run_id", runID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

// handleCheckProgress streams progress as server-sent events until the run
// finishes. Each event id is the progress percentage; a client resuming
// with Last-Event-ID (or ?lastEventId=) skips updates it has already seen.
func (s *Server) handleCheckProgress(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	resumeFrom := -1
	lastEventID := r.Header.Get("Last-Event-ID")
	if lastEventID == "" {
		lastEventID = r.URL.Query().Get("lastEventId")
	}
	if n, err := strconv.Atoi(lastEventID); err == nil {
		resumeFrom = n
	}

	progressCh, err := s.service.SubscribeProgress(runID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				fmt.Fprint(w, "event: complete\ndata: {}\n\n")
				_ = rc.Flush()
				return
			}

			percent := progress.Percent()
			if percent <= resumeFrom && !progress.Phase.Done() {
				continue
			}

			data, err := json.Marshal(progress)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", percent, data)
			if err := rc.Flush(); err != nil {
				return
			}

		case <-r.Context().Done():
			return
		}
	}
}
