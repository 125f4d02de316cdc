package meteoswiss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// latin1 encodes test fixtures the way the upstream datasets are served.
func latin1(t *testing.T, s string) []byte {
	t.Helper()
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

const stationCSV = "Station;Abr.;Type de station;Latitude;Longitude;Altitude station m s. mer\n" +
	"Bern / Zollikofen;BER;Station météo;46.9907;7.4640;553\n" +
	"Genève / Cointrin;GVE;Station météo;46.2475;6.1277;411\n" +
	"Les Avants;AVA;Précipitation;46.4547;6.9425;880\n" +
	"Tour de mesure;TWR;Tour météo;46.5000;7.0000;1000\n" +
	"\n" +
	"Des questions? Contactez-nous\n"

func stationDirectoryServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()

	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write(latin1(t, stationCSV))
	}))
	t.Cleanup(srv.Close)
	return srv, &fetches
}

func newDirectoryClient(t *testing.T) (*Client, *int) {
	t.Helper()

	srv, fetches := stationDirectoryServer(t)
	client := NewClient(ClientConfig{
		Name:     "test",
		PostCode: "3000",
		Stations: []string{"BER"},
	}, zap.NewNop())
	client.stationURL = srv.URL
	return client, fetches
}

func TestStationsLoadsOnce(t *testing.T) {
	client, fetches := newDirectoryClient(t)
	ctx := context.Background()

	first, err := client.Stations(ctx)
	require.NoError(t, err)

	second, err := client.Stations(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, *fetches)
}

func TestStationsDropsUnknownTypeLabels(t *testing.T) {
	client, _ := newDirectoryClient(t)

	stations, err := client.Stations(context.Background())
	require.NoError(t, err)

	// TWR carries an unrecognized label and the footer rows have none;
	// only the recognized rows survive.
	require.Len(t, stations, 3)
	assert.NotContains(t, stations, "TWR")

	ber := stations["BER"]
	assert.Equal(t, "Bern / Zollikofen", ber.Name)
	assert.Equal(t, StationTypeWeather, ber.Type)
	assert.Equal(t, 46.9907, ber.Latitude)
	assert.Equal(t, 7.4640, ber.Longitude)
	assert.Equal(t, 553.0, ber.Altitude)

	assert.Equal(t, StationTypePrecipitation, stations["AVA"].Type)
}

func TestStationsTypeFilter(t *testing.T) {
	client, _ := newDirectoryClient(t)

	weather, err := client.Stations(context.Background(), StationTypeWeather)
	require.NoError(t, err)
	assert.Len(t, weather, 2)
	assert.NotContains(t, weather, "AVA")

	precip, err := client.Stations(context.Background(), StationTypePrecipitation)
	require.NoError(t, err)
	assert.Len(t, precip, 1)
	assert.Contains(t, precip, "AVA")
}

func TestStationsDuplicateCodeOverwrites(t *testing.T) {
	csv := "Station;Abr.;Type de station;Latitude;Longitude;Altitude station m s. mer\n" +
		"Old Name;BER;Station météo;46.0;7.0;100\n" +
		"New Name;BER;Station météo;47.0;8.0;200\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(latin1(t, csv))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{Name: "test", PostCode: "3000"}, zap.NewNop())
	client.stationURL = srv.URL

	stations, err := client.Stations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, "New Name", stations["BER"].Name)
}

func TestNearestStationCoincidentPoint(t *testing.T) {
	client, _ := newDirectoryClient(t)

	code, err := client.NearestStation(context.Background(), 46.2475, 6.1277)
	require.NoError(t, err)
	assert.Equal(t, "GVE", code)
}

func TestNearestStationTypeFilter(t *testing.T) {
	client, _ := newDirectoryClient(t)

	// GVE is the nearest station overall, but only AVA survives the filter.
	code, err := client.NearestStation(context.Background(), 46.2475, 6.1277, StationTypePrecipitation)
	require.NoError(t, err)
	assert.Equal(t, "AVA", code)
}

func TestNearestStationEmptyCandidateSet(t *testing.T) {
	csv := "Station;Abr.;Type de station;Latitude;Longitude;Altitude station m s. mer\n"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(latin1(t, csv))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{Name: "test", PostCode: "3000"}, zap.NewNop())
	client.stationURL = srv.URL

	code, err := client.NearestStation(context.Background(), 46.0, 7.0)
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestStationName(t *testing.T) {
	client, _ := newDirectoryClient(t)
	ctx := context.Background()

	name, err := client.StationName(ctx, "BER")
	require.NoError(t, err)
	assert.Equal(t, "Bern / Zollikofen", name)

	name, err = client.StationName(ctx, "XXX")
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestParseDelimitedShortRows(t *testing.T) {
	rows, err := parseDelimited(strings.NewReader("a;b;c\n1;2;3\nlonely\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "c": "3"}, rows[0])
	assert.Equal(t, map[string]string{"a": "lonely"}, rows[1])
}
