package forecast

import (
	"sort"
	"time"

	"github.com/voltmesh/bessopt/core/model"
)

// DefaultMinHistoryDays is the minimum number of distinct historical days
// required to compute the lag features.
const DefaultMinHistoryDays = 7

// Feature column indices. Order is fixed; Names reports it to callers.
const (
	featHour = iota
	featWeekday
	featWeekend
	featTemperature
	featPriceRate
	featLoadPrevDay
	featLoadHourMean
	featureCount
)

var featureNames = []string{
	"hour",
	"day_of_week",
	"weekend",
	"temperature_c",
	"price_rate",
	"load_prev_day",
	"load_hour_mean",
}

// Input carries everything the assembler needs for one request.
// TempForecast, when present, must hold exactly 24 values and overrides the
// historical temperature profile; otherwise TempAdjust shifts the profile
// uniformly.
type Input struct {
	History        []model.TimeSeriesSample
	TargetDate     time.Time
	Prices         model.PriceSchedule
	TempForecast   []float64
	TempAdjust     float64
	MinHistoryDays int
}

// Assembled is the feature matrix pair produced for one request: training
// rows from history and exactly 24 horizon rows in hour order.
type Assembled struct {
	Names         []string
	TrainX        [][]float64
	TrainY        []float64
	HorizonX      [][]float64
	HorizonTimes  []time.Time
	CoverageStart time.Time
	CoverageEnd   time.Time
}

// Assemble builds the per-hour feature vectors. It is a pure function of its
// inputs: the history slice is copied before sorting.
func Assemble(in Input) (*Assembled, error) {
	minDays := in.MinHistoryDays
	if minDays <= 0 {
		minDays = DefaultMinHistoryDays
	}
	if n := len(in.TempForecast); n != 0 && n != model.HorizonHours {
		return nil, &model.InvalidConfigError{Field: "temperature_forecast", Reason: "must hold exactly 24 values"}
	}
	if err := in.Prices.Validate(); err != nil {
		return nil, err
	}

	history := make([]model.TimeSeriesSample, len(in.History))
	copy(history, in.History)
	sort.Slice(history, func(i, j int) bool { return history[i].Timestamp.Before(history[j].Timestamp) })

	days := map[time.Time]struct{}{}
	for _, s := range history {
		days[s.Date()] = struct{}{}
	}
	if len(days) < minDays {
		return nil, &model.InsufficientHistoryError{Days: len(days), Required: minDays}
	}

	rates := in.Prices.Rates()

	// Hourly load and temperature profiles plus a (day, hour) lookup for the
	// previous-day lag.
	var hourLoadSum, hourTempSum [model.HorizonHours]float64
	var hourCount [model.HorizonHours]int
	byHour := make(map[int64]float64, len(history))
	for _, s := range history {
		h := s.Hour()
		hourLoadSum[h] += s.LoadKW
		hourTempSum[h] += s.TemperatureC
		hourCount[h]++
		byHour[hourKey(s.Date(), h)] = s.LoadKW
	}
	var hourMean, tempMean [model.HorizonHours]float64
	for h := 0; h < model.HorizonHours; h++ {
		if hourCount[h] > 0 {
			hourMean[h] = hourLoadSum[h] / float64(hourCount[h])
			tempMean[h] = hourTempSum[h] / float64(hourCount[h])
		}
	}

	out := &Assembled{
		Names:         append([]string(nil), featureNames...),
		CoverageStart: history[0].Timestamp,
		CoverageEnd:   history[len(history)-1].Timestamp,
	}

	for _, s := range history {
		h := s.Hour()
		prev, ok := byHour[hourKey(s.Date().AddDate(0, 0, -1), h)]
		if !ok {
			continue
		}
		row := make([]float64, featureCount)
		row[featHour] = float64(h)
		row[featWeekday] = float64(s.Weekday())
		row[featWeekend] = weekendFlag(s.Timestamp.Weekday())
		row[featTemperature] = s.TemperatureC
		row[featPriceRate] = rates[h]
		row[featLoadPrevDay] = prev
		row[featLoadHourMean] = hourMean[h]
		out.TrainX = append(out.TrainX, row)
		out.TrainY = append(out.TrainY, s.LoadKW)
	}

	target := in.TargetDate
	midnight := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, target.Location())
	lastDate := history[len(history)-1].Date()
	for h := 0; h < model.HorizonHours; h++ {
		ts := midnight.Add(time.Duration(h) * time.Hour)
		temp := tempMean[h] + in.TempAdjust
		if len(in.TempForecast) == model.HorizonHours {
			temp = in.TempForecast[h]
		}
		prev, ok := byHour[hourKey(lastDate, h)]
		if !ok {
			prev = hourMean[h]
		}
		row := make([]float64, featureCount)
		row[featHour] = float64(h)
		row[featWeekday] = float64(ts.Weekday())
		row[featWeekend] = weekendFlag(ts.Weekday())
		row[featTemperature] = temp
		row[featPriceRate] = rates[h]
		row[featLoadPrevDay] = prev
		row[featLoadHourMean] = hourMean[h]
		out.HorizonX = append(out.HorizonX, row)
		out.HorizonTimes = append(out.HorizonTimes, ts)
	}
	return out, nil
}

func hourKey(date time.Time, hour int) int64 {
	return date.Unix() + int64(hour)*3600
}

func weekendFlag(d time.Weekday) float64 {
	if d == time.Saturday || d == time.Sunday {
		return 1
	}
	return 0
}
