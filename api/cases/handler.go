package cases

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/matriforce/dispatch/core/audit"
	"github.com/matriforce/dispatch/core/model"
	"github.com/matriforce/dispatch/core/registry"
	"github.com/matriforce/dispatch/core/store"
)

// caseView is the wire form of a case.
type caseView struct {
	ID          string    `json:"id"`
	ReporterID  string    `json:"reporter_id"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	CreatedAt   time.Time `json:"created_at"`
	State       string    `json:"state"`
	ResponderID string    `json:"responder_id,omitempty"`
	Channel     string    `json:"channel"`
}

func toView(c model.Case) caseView {
	return caseView{
		ID:          c.ID,
		ReporterID:  c.ReporterID,
		Latitude:    c.Location.Latitude,
		Longitude:   c.Location.Longitude,
		CreatedAt:   c.CreatedAt,
		State:       c.State.String(),
		ResponderID: c.AssignedResponderID,
		Channel:     c.Channel.String(),
	}
}

// NewCaseHandler returns an HTTP handler exposing cases via
// GET /api/cases (pending cases) and GET /api/cases/<id>.
func NewCaseHandler(cases store.CaseStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if id := strings.TrimPrefix(r.URL.Path, "/api/cases/"); id != "" && id != r.URL.Path {
			c, err := cases.Get(r.Context(), id)
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, "case not found", http.StatusNotFound)
				return
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, toView(c))
			return
		}
		pending, err := cases.Pending(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		views := make([]caseView, 0, len(pending))
		for _, c := range pending {
			views = append(views, toView(c))
		}
		writeJSON(w, views)
	})
}

// responderView is the wire form of a responder.
type responderView struct {
	ID             string  `json:"id"`
	Kind           string  `json:"kind"`
	Status         string  `json:"status"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AssignedCaseID string  `json:"assigned_case_id,omitempty"`
}

// NewResponderHandler returns an HTTP handler exposing the responder pool
// via GET /api/responders.
func NewResponderHandler(reg *registry.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		responders, err := reg.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		views := make([]responderView, 0, len(responders))
		for _, resp := range responders {
			views = append(views, responderView{
				ID:             resp.ID,
				Kind:           resp.Kind.String(),
				Status:         resp.Status.String(),
				Latitude:       resp.Location.Latitude,
				Longitude:      resp.Location.Longitude,
				AssignedCaseID: resp.AssignedCaseID,
			})
		}
		writeJSON(w, views)
	})
}

// NewAuditHandler returns an HTTP handler exposing recent match attempts via
// GET /api/dispatch/audit?limit=<n>.
func NewAuditHandler(trail audit.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		limit := 50
		if s := r.URL.Query().Get("limit"); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				limit = n
			}
		}
		records, err := trail.Recent(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, records)
	})
}

// NewHealthHandler returns a liveness probe handler.
func NewHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
