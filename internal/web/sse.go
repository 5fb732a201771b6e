package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/scrimbook/scrimbook/internal/workflow"
)

// sseEvent is the wire shape of one event frame.
type sseEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

func eventFrame(e workflow.Event) (sseEvent, bool) {
	switch e := e.(type) {
	case workflow.RecordUpdated:
		return sseEvent{Type: "recordUpdated", Payload: map[string]int{"version": e.Version}}, true
	case workflow.StepChanged:
		return sseEvent{Type: "stepChanged", Payload: map[string]string{
			"from": e.From.String(),
			"to":   e.To.String(),
		}}, true
	case workflow.RosterSynced:
		return sseEvent{Type: "rosterSynced", Payload: map[string]any{
			"side":   e.Side,
			"teamId": e.TeamID,
		}}, true
	case workflow.RosterWarning:
		return sseEvent{Type: "rosterWarning", Payload: map[string]any{
			"side":    e.Side,
			"message": e.Message,
		}}, true
	case workflow.SubmissionStarted:
		return sseEvent{Type: "submissionStarted"}, true
	case workflow.SubmissionSucceeded:
		return sseEvent{Type: "submissionSucceeded", Payload: e.Result}, true
	case workflow.SubmissionFailed:
		return sseEvent{Type: "submissionFailed", Payload: map[string]string{"reason": e.Reason}}, true
	default:
		return sseEvent{}, false
	}
}

// handleWorkflowEvents streams a session's events as server-sent events
// until the client disconnects or the session is closed.
func (s *Server) handleWorkflowEvents(w http.ResponseWriter, r *http.Request) {
	wf := s.workflowFromRequest(w, r)
	if wf == nil {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := wf.Subscribe()
	defer wf.Unsubscribe(events)

	s.log.WithField("workflow", wf.ID()).Debug("event stream connected")

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.log.WithField("workflow", wf.ID()).Debug("event stream disconnected")
			return
		case e := <-events:
			frame, ok := eventFrame(e)
			if !ok {
				continue
			}
			data, err := json.Marshal(frame)
			if err != nil {
				s.log.WithError(err).Warn("failed to encode event")
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
