package meteoswiss

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Condition feed column names. The station identity and observation date are
// always present; every measurement column is independently optional.
const (
	colStation = "Station/Location"
	colDate    = "Date"
)

// CurrentCondition is one observation snapshot for one station. A nil field
// means the station reported no reading, which is distinct from zero.
type CurrentCondition struct {
	Station string `json:"station"`
	Date    int64  `json:"date"`

	Temperature      *float64 `json:"tre200s0"` // air temperature 2 m, °C
	Precipitation    *float64 `json:"rre150z0"` // precipitation 10 min, mm
	SunshineDuration *float64 `json:"sre000z0"` // sunshine duration, min
	GlobalRadiation  *float64 `json:"gre000z0"` // global radiation, W/m²
	RelativeHumidity *float64 `json:"ure200s0"` // relative humidity 2 m, %
	DewPoint         *float64 `json:"tde200s0"` // dew point 2 m, °C
	WindDirection    *float64 `json:"dkl010z0"` // wind direction, °
	WindSpeed        *float64 `json:"fu3010z0"` // wind speed, km/h
	GustPeak         *float64 `json:"fu3010z1"` // gust peak 1 s, km/h

	PressureStation *float64 `json:"prestas0"` // pressure at station level (QFE), hPa
	PressureQFF     *float64 `json:"pp0qffs0"` // pressure reduced to sea level (QFF), hPa
	PressureQNH     *float64 `json:"pp0qnhs0"` // pressure reduced with standard atmosphere (QNH), hPa
	GeopotHeight850 *float64 `json:"ppz850s0"` // geopotential height of the 850 hPa level, gpm
	GeopotHeight700 *float64 `json:"ppz700s0"` // geopotential height of the 700 hPa level, gpm

	WindDirectionTower    *float64 `json:"dv1towz0"` // wind direction at tower, °
	WindSpeedTower        *float64 `json:"fu3towz0"` // wind speed at tower, km/h
	GustPeakTower         *float64 `json:"fu3towz1"` // gust peak 1 s at tower, km/h
	TemperatureTower      *float64 `json:"ta1tows0"` // air temperature at tower, °C
	RelativeHumidityTower *float64 `json:"uretows0"` // relative humidity at tower, %
	DewPointTower         *float64 `json:"tdetows0"` // dew point at tower, °C
}

// rowDecoder converts raw feed values into typed fields. The literal empty
// string, the "-" sentinel, and a missing key all normalize to absent; any
// other value must parse, and the first failure sticks.
type rowDecoder struct {
	row map[string]string
	err error
}

func (d *rowDecoder) float(key string) *float64 {
	if d.err != nil {
		return nil
	}
	v, ok := d.row[key]
	if !ok || v == "" || v == "-" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		d.err = fmt.Errorf("column %q: %w", key, err)
		return nil
	}
	return &f
}

func (d *rowDecoder) requiredFloat(key string) float64 {
	f := d.float(key)
	if f == nil {
		if d.err == nil {
			d.err = fmt.Errorf("column %q: missing value", key)
		}
		return 0
	}
	return *f
}

func (d *rowDecoder) int64(key string) int64 {
	if d.err != nil {
		return 0
	}
	v, ok := d.row[key]
	if !ok || v == "" || v == "-" {
		d.err = fmt.Errorf("column %q: missing value", key)
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		d.err = fmt.Errorf("column %q: %w", key, err)
		return 0
	}
	return n
}

func (d *rowDecoder) str(key string) string {
	if d.err != nil {
		return ""
	}
	v, ok := d.row[key]
	if !ok || v == "" {
		d.err = fmt.Errorf("column %q: missing value", key)
		return ""
	}
	return v
}

func newCurrentCondition(row map[string]string) (CurrentCondition, error) {
	dec := rowDecoder{row: row}
	cond := CurrentCondition{
		Station: dec.str(colStation),
		Date:    dec.int64(colDate),

		Temperature:      dec.float("tre200s0"),
		Precipitation:    dec.float("rre150z0"),
		SunshineDuration: dec.float("sre000z0"),
		GlobalRadiation:  dec.float("gre000z0"),
		RelativeHumidity: dec.float("ure200s0"),
		DewPoint:         dec.float("tde200s0"),
		WindDirection:    dec.float("dkl010z0"),
		WindSpeed:        dec.float("fu3010z0"),
		GustPeak:         dec.float("fu3010z1"),

		PressureStation: dec.float("prestas0"),
		PressureQFF:     dec.float("pp0qffs0"),
		PressureQNH:     dec.float("pp0qnhs0"),
		GeopotHeight850: dec.float("ppz850s0"),
		GeopotHeight700: dec.float("ppz700s0"),

		WindDirectionTower:    dec.float("dv1towz0"),
		WindSpeedTower:        dec.float("fu3towz0"),
		GustPeakTower:         dec.float("fu3towz1"),
		TemperatureTower:      dec.float("ta1tows0"),
		RelativeHumidityTower: dec.float("uretows0"),
		DewPointTower:         dec.float("tdetows0"),
	}
	if dec.err != nil {
		return CurrentCondition{}, dec.err
	}
	return cond, nil
}

// CurrentConditions fetches both telemetry feeds (general weather stations
// and precipitation-only stations) and reconciles them per requested
// station. Both feeds are fetched fresh on every call.
//
// Per station: rows present only in the precipitation feed are used as-is;
// rows present in both feeds are merged with the precipitation feed's
// columns overlaid on top (its values win on collision); a station in
// neither feed contributes nothing.
//
// The flat slice keeps every resolved row; the map keeps only the first row
// per station.
func (c *Client) CurrentConditions(ctx context.Context) ([]CurrentCondition, map[string]CurrentCondition, error) {
	general, err := c.fetchConditionFeed(ctx, c.conditionURL)
	if err != nil {
		return nil, nil, fmt.Errorf("weather station feed: %w", err)
	}

	precip, err := c.fetchConditionFeed(ctx, c.precipitationURL)
	if err != nil {
		return nil, nil, fmt.Errorf("precipitation station feed: %w", err)
	}

	var flat []CurrentCondition
	byStation := make(map[string]CurrentCondition)

	for _, code := range c.stations {
		merged := mergeStationRows(rowsForStation(general, code), rowsForStation(precip, code))
		if len(merged) == 0 {
			c.logger.Debug("No current condition rows for station", zap.String("station", code))
			continue
		}

		for _, row := range merged {
			cond, err := newCurrentCondition(row)
			if err != nil {
				return nil, nil, fmt.Errorf("station %s: %w", code, err)
			}
			flat = append(flat, cond)
			if _, ok := byStation[code]; !ok {
				byStation[code] = cond
			}
		}
	}

	return flat, byStation, nil
}

func (c *Client) fetchConditionFeed(ctx context.Context, url string) ([]map[string]string, error) {
	body, err := c.get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return parseDelimited(bytes.NewReader(body))
}

func rowsForStation(rows []map[string]string, code string) []map[string]string {
	var out []map[string]string
	for _, row := range rows {
		if row[colStation] == code {
			out = append(out, row)
		}
	}
	return out
}

// mergeStationRows applies the reconciliation policy: start from the general
// rows and overlay the precipitation rows pairwise, with the precipitation
// feed winning on key collision. Surplus precipitation rows are appended.
func mergeStationRows(general, precip []map[string]string) []map[string]string {
	if len(general) == 0 {
		return precip
	}

	merged := make([]map[string]string, 0, len(general))
	for i, row := range general {
		out := make(map[string]string, len(row))
		for k, v := range row {
			out[k] = v
		}
		if i < len(precip) {
			for k, v := range precip[i] {
				out[k] = v
			}
		}
		merged = append(merged, out)
	}
	for i := len(general); i < len(precip); i++ {
		merged = append(merged, precip[i])
	}
	return merged
}
