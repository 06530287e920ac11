package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/voltmesh/bessopt/core/model"
)

func sampleResult() *model.OptimizationResult {
	start := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	res := &model.OptimizationResult{
		ID:     "run-1",
		Status: model.StatusOptimal,
	}
	for h := 0; h < 2; h++ {
		res.Schedule = append(res.Schedule, model.ScheduleDecision{
			Hour:   h,
			Time:   start.Add(time.Duration(h) * time.Hour),
			LoadKW: 50,
			Price:  0.5,
			Tier:   model.TierNormal,
			SoCKWh: 1.5,
			GridKW: 50,
			Cost:   25,
		})
	}
	return res
}

func TestWriteJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleResult()); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out model.OptimizationResult
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.ID != "run-1" || len(out.Schedule) != 2 {
		t.Fatalf("round trip lost data: %+v", out)
	}
}

func TestWriteCSVSchedule(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleResult()); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows %d, want header plus 2", len(rows))
	}
	if rows[0][0] != "hour" || rows[0][4] != "tier" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][4] != "normal" {
		t.Fatalf("tier column %q", rows[1][4])
	}
}
