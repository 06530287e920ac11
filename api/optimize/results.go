package optimize

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/voltmesh/bessopt/core/model"
	"github.com/voltmesh/bessopt/infra/resultstore"
)

// ResultQuerier reads back persisted optimization results.
type ResultQuerier interface {
	Query(q resultstore.Query) ([]model.OptimizationResult, error)
}

// NewResultsHandler returns an HTTP handler exposing stored results via
// GET /api/optimize/results. Requests must include an Authorization header
// with "Bearer <token>" when token is non-empty.
func NewResultsHandler(store ResultQuerier, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		q := resultstore.Query{}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		if s := r.URL.Query().Get("status"); s != "" {
			q.Status = model.SolveStatus(s)
		}
		records, err := store.Query(q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
