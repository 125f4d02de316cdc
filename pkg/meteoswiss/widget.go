package meteoswiss

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Forecast24h retrieves the raw 24-hour forecast-chart payload. The chart
// endpoint is versioned, and the current version is only advertised inside
// the weather widget on the search page, so the page is scraped first.
func (c *Client) Forecast24h(ctx context.Context) (map[string]any, error) {
	pageURL := fmt.Sprintf(c.searchURL, c.postCode)
	c.logger.Debug("Fetching search page for widget URL", zap.String("url", pageURL))

	page, err := c.get(ctx, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching search page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing search page: %w", err)
	}

	jsonURL, ok := doc.Find("section#weather-widget").First().Attr("data-json-url")
	if !ok {
		return nil, fmt.Errorf("search page has no weather widget")
	}

	// The chart version is the fifth path segment of the widget's JSON URL.
	parts := strings.Split(jsonURL, "/")
	if len(parts) < 6 {
		return nil, fmt.Errorf("unexpected widget JSON URL %q", jsonURL)
	}
	version := parts[5]

	chartURL := fmt.Sprintf(c.forecast24URL, version, c.postCode)
	c.logger.Debug("Fetching 24h forecast chart", zap.String("url", chartURL))

	body, err := c.get(ctx, chartURL, map[string]string{
		"referer":          forecast24Ref,
		"x-requested-with": "XMLHttpRequest",
		"Accept":           "application/json, text/javascript, */*; q=0.01",
		"dnt":              "1",
	})
	if err != nil {
		return nil, fmt.Errorf("fetching forecast chart: %w", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding forecast chart payload: %w", err)
	}
	return payload, nil
}
