package meteoswiss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func geocodeClient(t *testing.T, payload string) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{Name: "test", PostCode: "3000"}, zap.NewNop())
	client.geocodeURL = srv.URL + "/reverse?lat=%s&lon=%s"
	return client
}

func TestPostCode(t *testing.T) {
	client := geocodeClient(t, `{"address": {"postcode": "3000", "city": "Bern"}}`)

	postCode, err := client.PostCode(context.Background(), 46.94, 7.44)
	require.NoError(t, err)
	assert.Equal(t, "3000", postCode)
}

func TestPostCodeMissingIsAbsent(t *testing.T) {
	client := geocodeClient(t, `{"address": {"city": "Bern"}}`)

	postCode, err := client.PostCode(context.Background(), 46.94, 7.44)
	require.NoError(t, err)
	assert.Empty(t, postCode)
}

func TestGeoDataMalformedPayload(t *testing.T) {
	client := geocodeClient(t, `not json`)

	_, err := client.GeoData(context.Background(), 46.94, 7.44)
	assert.Error(t, err)
}
