package ui

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/flowline/internal/timeline"
)

// pageSignals are the client-side signals kept in sync with the session.
type pageSignals struct {
	Live     bool          `json:"live"`
	Selected string        `json:"selected"`
	Mode     timeline.Mode `json:"mode"`
}

func signalsFor(f timeline.Frame) pageSignals {
	return pageSignals{
		Live:     f.State.Live,
		Selected: f.State.SelectedStageID,
		Mode:     f.Window.Mode,
	}
}

// Page renders the timeline page with the latest frame server-rendered.
func (s *Server) Page(w http.ResponseWriter, r *http.Request) {
	f, _ := s.frames.Latest()
	title := s.title
	if title == "" {
		title = f.GraphID
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := TimelinePage(title, s.datastarURL, f).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// CurrentFrame returns the latest frame as JSON.
func (s *Server) CurrentFrame(w http.ResponseWriter, _ *http.Request) {
	f, ok := s.frames.Latest()
	if !ok {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		s.logger.Error("failed to encode frame", "error", err)
	}
}

// Updates is the long-lived SSE endpoint. Every published frame replaces
// the canvas and the stage panel and refreshes the page signals. The stream
// ends when the client goes away or the session stops publishing.
func (s *Server) Updates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := s.frames.Subscribe()
	defer s.frames.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-updates:
			if !ok {
				return
			}
			if err := s.sendFrame(sse, f); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

func (s *Server) sendFrame(sse *datastar.ServerSentEventGenerator, f timeline.Frame) error {
	if err := sse.PatchElementTempl(Canvas(f)); err != nil {
		return err
	}
	if err := sse.PatchElementTempl(StagePanel(f)); err != nil {
		return err
	}
	return sse.MarshalAndPatchSignals(signalsFor(f))
}

// SelectStage selects the stage named in the URL.
func (s *Server) SelectStage(w http.ResponseWriter, r *http.Request) {
	if s.ctrl == nil {
		http.Error(w, "no session attached", http.StatusServiceUnavailable)
		return
	}
	stageID := chi.URLParam(r, "stageID")
	s.logger.Debug("stage selected from browser", "stage", stageID)
	s.ctrl.Select(stageID)
	w.WriteHeader(http.StatusNoContent)
}

// ClearSelection clears the selection without resuming live tracking.
func (s *Server) ClearSelection(w http.ResponseWriter, _ *http.Request) {
	if s.ctrl == nil {
		http.Error(w, "no session attached", http.StatusServiceUnavailable)
		return
	}
	s.ctrl.Select("")
	w.WriteHeader(http.StatusNoContent)
}

// Scroll records a manual scroll, which ends live tracking.
func (s *Server) Scroll(w http.ResponseWriter, _ *http.Request) {
	if s.ctrl == nil {
		http.Error(w, "no session attached", http.StatusServiceUnavailable)
		return
	}
	s.ctrl.Scroll()
	w.WriteHeader(http.StatusNoContent)
}
