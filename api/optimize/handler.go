package optimize

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/voltmesh/bessopt/core/model"
	"github.com/voltmesh/bessopt/core/pipeline"
)

// Runner executes one optimization. It is implemented by pipeline.Engine.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*model.OptimizationResult, error)
}

// request is the JSON payload for POST /api/optimize. All fields are
// optional; omitted fields fall back to the configured defaults.
type request struct {
	TargetDate          string    `json:"target_date"`
	InitialSoC          *float64  `json:"initial_soc"`
	TemperatureForecast []float64 `json:"temperature_forecast"`
	TemperatureAdjust   float64   `json:"temperature_adjust"`
	Battery             *struct {
		CapacityKWh float64 `json:"capacity_kwh"`
		MaxPowerKW  float64 `json:"max_power_kw"`
		Efficiency  float64 `json:"efficiency"`
		InitialSoC  float64 `json:"initial_soc"`
	} `json:"battery"`
}

type apiError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewHandler returns the HTTP handler for POST /api/optimize.
func NewHandler(runner Runner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid_payload", "malformed JSON body: "+err.Error())
			return
		}
		preq := pipeline.Request{
			InitialSoC:   req.InitialSoC,
			TempForecast: req.TemperatureForecast,
			TempAdjust:   req.TemperatureAdjust,
		}
		if req.TargetDate != "" {
			t, err := time.Parse("2006-01-02", req.TargetDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_payload", "target_date must be YYYY-MM-DD")
				return
			}
			preq.TargetDate = t
		}
		if req.Battery != nil {
			preq.Battery = &model.BatteryConfig{
				CapacityKWh: req.Battery.CapacityKWh,
				MaxPowerKW:  req.Battery.MaxPowerKW,
				Efficiency:  req.Battery.Efficiency,
				InitialSoC:  req.Battery.InitialSoC,
			}
		}

		result, err := runner.Run(r.Context(), preq)
		if err != nil {
			status, kind := classify(err)
			writeError(w, status, kind, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

// classify maps engine error kinds onto HTTP statuses. Input problems are the
// caller's fault; everything else is a server-side failure.
func classify(err error) (int, string) {
	kind := model.ErrorKind(err)
	switch kind {
	case model.KindInvalidConfig:
		return http.StatusBadRequest, kind
	case model.KindInsufficientHistory, model.KindNoViableCandidate:
		return http.StatusUnprocessableEntity, kind
	case model.KindTraining, model.KindSolverInfeasible:
		return http.StatusInternalServerError, kind
	default:
		return http.StatusInternalServerError, model.KindInternal
	}
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Kind: kind, Message: msg})
}
