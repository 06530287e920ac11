package optimize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltmesh/bessopt/core/model"
	"github.com/voltmesh/bessopt/core/pipeline"
)

type stubRunner struct {
	result *model.OptimizationResult
	err    error
	got    pipeline.Request
}

func (s *stubRunner) Run(_ context.Context, req pipeline.Request) (*model.OptimizationResult, error) {
	s.got = req
	return s.result, s.err
}

func TestHandlerSuccess(t *testing.T) {
	runner := &stubRunner{result: &model.OptimizationResult{ID: "run-1", Status: model.StatusOptimal}}
	h := NewHandler(runner)

	body := `{"target_date":"2026-08-26","initial_soc":0.4,"temperature_adjust":2.5}`
	req := httptest.NewRequest(http.MethodPost, "/api/optimize", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var out model.OptimizationResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, "run-1", out.ID)

	require.NotNil(t, runner.got.InitialSoC)
	assert.Equal(t, 0.4, *runner.got.InitialSoC)
	assert.Equal(t, 2.5, runner.got.TempAdjust)
	assert.Equal(t, 2026, runner.got.TargetDate.Year())
}

func TestHandlerEmptyBodyUsesDefaults(t *testing.T) {
	runner := &stubRunner{result: &model.OptimizationResult{ID: "run-2"}}
	h := NewHandler(runner)
	req := httptest.NewRequest(http.MethodPost, "/api/optimize", strings.NewReader(""))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, runner.got.InitialSoC)
	assert.True(t, runner.got.TargetDate.IsZero())
}

func TestHandlerBatteryOverride(t *testing.T) {
	runner := &stubRunner{result: &model.OptimizationResult{}}
	h := NewHandler(runner)
	body := `{"battery":{"capacity_kwh":20,"max_power_kw":8,"efficiency":0.9,"initial_soc":0.1}}`
	req := httptest.NewRequest(http.MethodPost, "/api/optimize", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, runner.got.Battery)
	assert.Equal(t, 20.0, runner.got.Battery.CapacityKWh)
}

func TestHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"invalid config", &model.InvalidConfigError{Field: "efficiency", Reason: "out of range"}, http.StatusBadRequest, model.KindInvalidConfig},
		{"insufficient history", &model.InsufficientHistoryError{Days: 2, Required: 7}, http.StatusUnprocessableEntity, model.KindInsufficientHistory},
		{"no viable candidate", &model.NoViableCandidateError{Failures: map[string]string{"linear": "x"}}, http.StatusUnprocessableEntity, model.KindNoViableCandidate},
		{"solver infeasible", &model.SolverInfeasibleError{Reason: "bug"}, http.StatusInternalServerError, model.KindSolverInfeasible},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(&stubRunner{err: tc.err})
			req := httptest.NewRequest(http.MethodPost, "/api/optimize", strings.NewReader("{}"))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			require.Equal(t, tc.status, rr.Code)
			var apiErr apiError
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiErr))
			assert.Equal(t, tc.kind, apiErr.Kind)
			assert.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestHandlerRejectsBadRequests(t *testing.T) {
	h := NewHandler(&stubRunner{})

	req := httptest.NewRequest(http.MethodGet, "/api/optimize", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/optimize", strings.NewReader(`{"target_date":"26/08/2026"}`))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/optimize", strings.NewReader(`{not json`))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
