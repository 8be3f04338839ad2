package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/wilhg/redux/examples/autocomplete"
	"github.com/wilhg/redux/pkg/errmodel"
	"github.com/wilhg/redux/pkg/journal"
)

const dispatchTimeout = 5 * time.Second

type actionRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type actionResponse struct {
	Type  string             `json:"type"`
	State autocomplete.State `json:"state"`
}

// buildMux serves app; j may be nil when the journal is disabled.
func buildMux(app *autocomplete.App, j *journal.Journal, stream string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if j != nil {
			if err := j.Ping(r.Context()); err != nil {
				errmodel.WriteHTTP(w, r, errmodel.Unavailable("journal unreachable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, app.Store.LastState())
	})

	mux.HandleFunc("POST /api/actions", func(w http.ResponseWriter, r *http.Request) {
		var req actionRequest
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			errmodel.WriteHTTP(w, r, errmodel.Validation("bad_request", err.Error(), nil))
			return
		}
		if err := json.Unmarshal(body, &req); err != nil || req.Type == "" {
			errmodel.WriteHTTP(w, r, errmodel.Validation("bad_request", "expected {\"type\": ..., \"payload\": ...}", nil))
			return
		}
		action, err := autocomplete.Actions.Decode(req.Type, req.Payload)
		if err != nil {
			errmodel.WriteHTTP(w, r, errmodel.Validation("unknown_action", err.Error(), map[string]any{"action_type": req.Type}))
			return
		}
		if _, err := app.Store.Dispatch(action).AwaitTimeout(dispatchTimeout); err != nil {
			errmodel.WriteHTTP(w, r, err)
			return
		}
		writeJSON(w, actionResponse{Type: req.Type, State: app.Store.LastState()})
	})

	mux.HandleFunc("GET /api/actions", func(w http.ResponseWriter, r *http.Request) {
		if j == nil {
			errmodel.WriteHTTP(w, r, errmodel.Validation("not_found", "journal is disabled", nil))
			return
		}
		after, err := queryInt(r, "after")
		if err != nil {
			errmodel.WriteHTTP(w, r, err)
			return
		}
		limit, err := queryInt(r, "limit")
		if err != nil {
			errmodel.WriteHTTP(w, r, err)
			return
		}
		recs, err := j.List(r.Context(), stream, int64(after), limit)
		if err != nil {
			errmodel.WriteHTTP(w, r, errmodel.System("journal_error", "list actions", nil, err))
			return
		}
		out := make([]map[string]any, 0, len(recs))
		for _, rec := range recs {
			out = append(out, map[string]any{
				"id":         rec.ID,
				"seq":        rec.Seq,
				"type":       rec.Type,
				"payload":    rec.Payload,
				"created_at": rec.CreatedAt,
			})
		}
		writeJSON(w, out)
	})
	return mux
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errmodel.Validation("bad_request", key+" must be a non-negative integer", map[string]any{key: v})
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
