package meteoswiss

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// CurrentWeather is the observation snapshot embedded in the forecast feed.
type CurrentWeather struct {
	Time        int64   `json:"time"` // epoch milliseconds
	Icon        int     `json:"icon"`
	IconV2      int     `json:"iconV2"`
	Temperature float64 `json:"temperature"`
}

// DayForecast is one entry of the daily forecast series.
type DayForecast struct {
	Date           string  `json:"dayDate"`
	Icon           int     `json:"iconDay"`
	IconV2         int     `json:"iconDayV2"`
	TemperatureMax float64 `json:"temperatureMax"`
	TemperatureMin float64 `json:"temperatureMin"`
	Precipitation  float64 `json:"precipitation"`
}

// HourForecast is one hour of the interpolated series derived from the
// forecast graph.
type HourForecast struct {
	Time              time.Time `json:"time"`
	TemperatureMin    float64   `json:"temperature_min"`
	TemperatureMean   float64   `json:"temperature_mean"`
	TemperatureMax    float64   `json:"temperature_max"`
	PrecipitationMin  float64   `json:"precipitation_min"`
	PrecipitationMean float64   `json:"precipitation_mean"`
	PrecipitationMax  float64   `json:"precipitation_max"`
}

// Forecast is the typed view of the postal-code keyed forecast payload.
type Forecast struct {
	PostCode string         `json:"plz"`
	Current  CurrentWeather `json:"currentWeather"`
	Daily    []DayForecast  `json:"regionForecast"`
	Hourly   []HourForecast `json:"hourly"`
}

// FetchForecast retrieves the raw forecast payload for the client's postal
// code. The payload is decoded but not validated; Forecast builds the typed
// view.
func (c *Client) FetchForecast(ctx context.Context) (map[string]any, error) {
	url := fmt.Sprintf(c.forecastURL, c.postCode)
	c.logger.Debug("Fetching forecast", zap.String("url", url))

	body, err := c.get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding forecast payload: %w", err)
	}
	return payload, nil
}

// Forecast fetches the raw payload and shapes it into a typed record. A
// payload with a zero or absent PLZ means the forecast is unavailable for
// this postal code; that is reported as a nil Forecast, not an error.
func (c *Client) Forecast(ctx context.Context) (*Forecast, error) {
	raw, err := c.FetchForecast(ctx)
	if err != nil {
		return nil, err
	}
	return newForecast(raw, c.logger)
}

func newForecast(raw map[string]any, logger *zap.Logger) (*Forecast, error) {
	plz, err := plzString(raw["plz"])
	if err != nil {
		return nil, err
	}
	if plz == "" {
		logger.Warn("Forecast payload has no postal code, treating forecast as unavailable")
		return nil, nil
	}

	forecast := &Forecast{PostCode: plz}

	if cw, ok := raw["currentWeather"].(map[string]any); ok {
		current, err := newCurrentWeather(cw)
		if err != nil {
			return nil, fmt.Errorf("currentWeather: %w", err)
		}
		forecast.Current = current
	}

	if days, ok := raw["regionForecast"].([]any); ok {
		forecast.Daily = make([]DayForecast, 0, len(days))
		for i, d := range days {
			entry, ok := d.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("regionForecast[%d]: not an object", i)
			}
			day, err := newDayForecast(entry)
			if err != nil {
				return nil, fmt.Errorf("regionForecast[%d]: %w", i, err)
			}
			forecast.Daily = append(forecast.Daily, day)
		}
	}

	if graph, ok := raw["graph"].(map[string]any); ok {
		hourly, err := expandHourly(graph)
		if err != nil {
			return nil, fmt.Errorf("graph: %w", err)
		}
		forecast.Hourly = hourly
	}

	return forecast, nil
}

func newCurrentWeather(raw map[string]any) (CurrentWeather, error) {
	var cw CurrentWeather
	var err error

	if cw.Time, err = jsonInt64(raw, "time"); err != nil {
		return CurrentWeather{}, err
	}
	if cw.Icon, err = jsonInt(raw, "icon"); err != nil {
		return CurrentWeather{}, err
	}
	if cw.IconV2, err = jsonInt(raw, "iconV2"); err != nil {
		return CurrentWeather{}, err
	}
	if cw.Temperature, err = jsonFloat(raw, "temperature"); err != nil {
		return CurrentWeather{}, err
	}
	return cw, nil
}

func newDayForecast(raw map[string]any) (DayForecast, error) {
	var day DayForecast
	var err error

	day.Date, _ = raw["dayDate"].(string)
	if day.Icon, err = jsonInt(raw, "iconDay"); err != nil {
		return DayForecast{}, err
	}
	if day.IconV2, err = jsonInt(raw, "iconDayV2"); err != nil {
		return DayForecast{}, err
	}
	if day.TemperatureMax, err = jsonFloat(raw, "temperatureMax"); err != nil {
		return DayForecast{}, err
	}
	if day.TemperatureMin, err = jsonFloat(raw, "temperatureMin"); err != nil {
		return DayForecast{}, err
	}
	if day.Precipitation, err = jsonFloat(raw, "precipitation"); err != nil {
		return DayForecast{}, err
	}
	return day, nil
}

// expandHourly turns the graph's start timestamp and its six parallel
// per-hour arrays into a sequence of hourly records, one hour apart,
// truncated to the shortest array.
func expandHourly(graph map[string]any) ([]HourForecast, error) {
	start, err := jsonInt64(graph, "start")
	if err != nil {
		return nil, err
	}

	series := [6]string{
		"temperatureMin1h", "temperatureMean1h", "temperatureMax1h",
		"precipitationMin1h", "precipitationMean1h", "precipitationMax1h",
	}

	var values [6][]float64
	n := -1
	for i, key := range series {
		vs, err := jsonFloatSlice(graph, key)
		if err != nil {
			return nil, err
		}
		values[i] = vs
		if n < 0 || len(vs) < n {
			n = len(vs)
		}
	}

	startTime := time.UnixMilli(start).UTC()
	hourly := make([]HourForecast, 0, n)
	for i := 0; i < n; i++ {
		hourly = append(hourly, HourForecast{
			Time:              startTime.Add(time.Duration(i) * time.Hour),
			TemperatureMin:    values[0][i],
			TemperatureMean:   values[1][i],
			TemperatureMax:    values[2][i],
			PrecipitationMin:  values[3][i],
			PrecipitationMean: values[4][i],
			PrecipitationMax:  values[5][i],
		})
	}
	return hourly, nil
}

// plzString normalizes the payload's postal code. Zero or absent means the
// forecast is unavailable, reported as an empty string.
func plzString(v any) (string, error) {
	switch plz := v.(type) {
	case nil:
		return "", nil
	case string:
		if plz == "" || plz == "0" {
			return "", nil
		}
		return plz, nil
	case float64:
		if plz == 0 {
			return "", nil
		}
		return strconv.FormatFloat(plz, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("plz: unexpected type %T", v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func jsonFloat(m map[string]any, key string) (float64, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("%s: missing value", key)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("%s: cannot parse %v as number", key, v)
	}
	return f, nil
}

func jsonInt(m map[string]any, key string) (int, error) {
	f, err := jsonFloat(m, key)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func jsonInt64(m map[string]any, key string) (int64, error) {
	f, err := jsonFloat(m, key)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func jsonFloatSlice(m map[string]any, key string) ([]float64, error) {
	v, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("%s: missing value", key)
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: not an array", key)
	}
	out := make([]float64, 0, len(raw))
	for i, item := range raw {
		f, ok := toFloat(item)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: cannot parse %v as number", key, i, item)
		}
		out = append(out, f)
	}
	return out, nil
}
