package meteoswiss

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// GeoData performs a reverse geocoding lookup for the given point and
// returns the raw payload.
func (c *Client) GeoData(ctx context.Context, lat, lon float64) (map[string]any, error) {
	url := fmt.Sprintf(c.geocodeURL,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64))

	body, err := c.get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding geocoding payload: %w", err)
	}

	c.logger.Debug("Reverse geocoding lookup done",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon))

	return payload, nil
}

// PostCode resolves the postal code for a geographic point. A payload
// without a postcode yields an empty string and a warning, not an error.
func (c *Client) PostCode(ctx context.Context, lat, lon float64) (string, error) {
	payload, err := c.GeoData(ctx, lat, lon)
	if err != nil {
		return "", err
	}

	address, ok := payload["address"].(map[string]any)
	if ok {
		if postCode, ok := address["postcode"].(string); ok && postCode != "" {
			return postCode, nil
		}
	}

	c.logger.Warn("Unable to resolve post code for location",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon))
	return "", nil
}
