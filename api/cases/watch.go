package cases

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/matriforce/dispatch/core/events"
	"github.com/matriforce/dispatch/internal/eventbus"
)

// transitionView is the wire form of a streamed case transition.
type transitionView struct {
	CaseID      string    `json:"case_id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	ResponderID string    `json:"responder_id,omitempty"`
	At          time.Time `json:"at"`
}

// NewWatchHandler returns an SSE handler streaming case transitions via
// GET /api/cases/watch. The stream ends when the client disconnects.
func NewWatchHandler(tap *eventbus.TypedBus[events.CaseTransitioned]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fl, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		sub := tap.Subscribe()
		defer tap.Unsubscribe(sub)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		fl.Flush()
		for {
			select {
			case <-r.Context().Done():
				return
			case ev, open := <-sub:
				if !open {
					return
				}
				data, err := json.Marshal(transitionView{
					CaseID:      ev.CaseID,
					From:        ev.From.String(),
					To:          ev.To.String(),
					ResponderID: ev.ResponderID,
					At:          ev.At,
				})
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "data: %s\n\n", data)
				fl.Flush()
			}
		}
	})
}
