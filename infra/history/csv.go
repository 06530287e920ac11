package history

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/voltmesh/bessopt/core/model"
)

// CSVProvider reads historical load samples from a CSV file with the columns
// timestamp,load_kw,temperature_c,price_tier. A header row is detected and
// skipped.
type CSVProvider struct {
	Path string
}

// NewCSVProvider creates a provider for the given file.
func NewCSVProvider(path string) *CSVProvider {
	return &CSVProvider{Path: path}
}

// Samples parses the whole file.
func (p *CSVProvider) Samples(ctx context.Context) ([]model.TimeSeriesSample, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()
	return ParseCSV(ctx, f)
}

// ParseCSV reads samples from r until EOF.
func ParseCSV(ctx context.Context, r io.Reader) ([]model.TimeSeriesSample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var samples []model.TimeSeriesSample
	line := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read history row %d: %w", line+1, err)
		}
		line++
		if len(rec) < 4 {
			return nil, fmt.Errorf("history row %d: expected 4 columns, got %d", line, len(rec))
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "timestamp") {
			continue
		}
		s, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("history row %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseRow(rec []string) (model.TimeSeriesSample, error) {
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(rec[0]))
	if err != nil {
		return model.TimeSeriesSample{}, fmt.Errorf("timestamp: %w", err)
	}
	load, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if err != nil {
		return model.TimeSeriesSample{}, fmt.Errorf("load_kw: %w", err)
	}
	temp, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
	if err != nil {
		return model.TimeSeriesSample{}, fmt.Errorf("temperature_c: %w", err)
	}
	tier := model.Tier(strings.ToLower(strings.TrimSpace(rec[3])))
	switch tier {
	case model.TierValley, model.TierNormal, model.TierPeak:
	default:
		return model.TimeSeriesSample{}, fmt.Errorf("unknown price tier %q", rec[3])
	}
	return model.TimeSeriesSample{
		Timestamp:    ts,
		LoadKW:       load,
		TemperatureC: temp,
		PriceTier:    tier,
	}, nil
}
