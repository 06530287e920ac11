package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/voltmesh/bessopt/core/model"
)

// WriteJSON writes the full optimization result to w in JSON format.
func WriteJSON(w io.Writer, result *model.OptimizationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// WriteCSV writes the hourly schedule to w in CSV format.
func WriteCSV(w io.Writer, result *model.OptimizationResult) error {
	cw := csv.NewWriter(w)
	header := []string{"hour", "datetime", "load_kw", "price", "tier", "charge_kw", "discharge_kw", "soc_kwh", "grid_kw", "cost"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, d := range result.Schedule {
		rec := []string{
			strconv.Itoa(d.Hour),
			d.Time.Format(time.RFC3339),
			fmtFloat(d.LoadKW),
			fmtFloat(d.Price),
			string(d.Tier),
			fmtFloat(d.ChargeKW),
			fmtFloat(d.DischargeKW),
			fmtFloat(d.SoCKWh),
			fmtFloat(d.GridKW),
			fmtFloat(d.Cost),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
