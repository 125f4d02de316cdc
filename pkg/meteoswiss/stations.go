package meteoswiss

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/tidwall/geodesic"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// StationType classifies a measurement station.
type StationType string

const (
	StationTypeWeather       StationType = "weather"
	StationTypePrecipitation StationType = "precipitation"
)

// French-language type labels used by the station directory dataset.
const (
	stationLabelWeather       = "Station météo"
	stationLabelPrecipitation = "Précipitation"
)

// Directory CSV column names.
const (
	colStationCode = "Abr."
	colStationName = "Station"
	colLatitude    = "Latitude"
	colLongitude   = "Longitude"
	colAltitude    = "Altitude station m s. mer"
	colStationType = "Type de station"
)

// Station is one fixed observation point of the automatic network.
type Station struct {
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Latitude  float64     `json:"lat"`
	Longitude float64     `json:"lon"`
	Altitude  float64     `json:"altitude"`
	Type      StationType `json:"type"`
}

// Stations returns the station directory keyed by code, optionally filtered
// to the given types. The directory is fetched at most once per client and
// cached for its lifetime.
func (c *Client) Stations(ctx context.Context, types ...StationType) (map[string]Station, error) {
	if err := c.loadStations(ctx); err != nil {
		return nil, err
	}

	if len(types) == 0 {
		out := make(map[string]Station, len(c.directory))
		for code, st := range c.directory {
			out[code] = st
		}
		return out, nil
	}

	out := make(map[string]Station)
	for code, st := range c.directory {
		for _, t := range types {
			if st.Type == t {
				out[code] = st
				break
			}
		}
	}
	return out, nil
}

// NearestStation returns the code of the station closest to the given point,
// optionally restricted to the given types. Distances are geodesic on the
// WGS-84 ellipsoid. An empty candidate set yields an empty code and a
// warning, not an error.
func (c *Client) NearestStation(ctx context.Context, lat, lon float64, types ...StationType) (string, error) {
	stations, err := c.Stations(ctx, types...)
	if err != nil {
		return "", err
	}

	best := ""
	bestDist := 0.0
	for code, st := range stations {
		var dist float64
		geodesic.WGS84.Inverse(lat, lon, st.Latitude, st.Longitude, &dist, nil, nil)
		if best == "" || dist < bestDist {
			best = code
			bestDist = dist
		}
	}

	if best == "" {
		c.logger.Warn("Unable to find closest station",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon))
		return "", nil
	}

	return best, nil
}

// StationName returns the display name for a station code, or an empty
// string with a warning when the code is unknown.
func (c *Client) StationName(ctx context.Context, code string) (string, error) {
	if err := c.loadStations(ctx); err != nil {
		return "", err
	}

	st, ok := c.directory[code]
	if !ok {
		c.logger.Warn("Unable to find station name", zap.String("station", code))
		return "", nil
	}
	return st.Name, nil
}

func (c *Client) loadStations(ctx context.Context) error {
	if c.directoryLoaded {
		return nil
	}

	c.logger.Debug("Fetching station directory", zap.String("url", c.stationURL))

	body, err := c.get(ctx, c.stationURL, nil)
	if err != nil {
		return fmt.Errorf("fetching station directory: %w", err)
	}

	rows, err := parseDelimited(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parsing station directory: %w", err)
	}

	directory := make(map[string]Station, len(rows))
	for _, row := range rows {
		var stationType StationType
		switch row[colStationType] {
		case stationLabelWeather:
			stationType = StationTypeWeather
		case stationLabelPrecipitation:
			stationType = StationTypePrecipitation
		default:
			// Unknown labels cover the decorative footer rows too.
			continue
		}

		dec := rowDecoder{row: row}
		station := Station{
			Code:      dec.str(colStationCode),
			Name:      dec.str(colStationName),
			Latitude:  dec.requiredFloat(colLatitude),
			Longitude: dec.requiredFloat(colLongitude),
			Altitude:  dec.requiredFloat(colAltitude),
			Type:      stationType,
		}
		if dec.err != nil {
			return fmt.Errorf("parsing station directory: %w", dec.err)
		}
		directory[station.Code] = station
	}

	c.directory = directory
	c.directoryLoaded = true
	c.logger.Debug("Station directory loaded", zap.Int("stations", len(directory)))
	return nil
}

// parseDelimited reads a Latin-1 encoded, semicolon-separated dataset with a
// header row into one map per data row. Short rows keep only the columns
// they have; surplus columns are dropped.
func parseDelimited(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty dataset")
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, field := range record {
			if i >= len(header) {
				break
			}
			row[header[i]] = field
		}
		rows = append(rows, row)
	}
	return rows, nil
}
