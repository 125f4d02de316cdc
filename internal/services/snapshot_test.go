package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swissweather/meteoswiss/pkg/meteoswiss"
	"go.uber.org/zap"
)

type fakeClient struct {
	result *meteoswiss.ClientResult
	err    error
	calls  int
}

func (f *fakeClient) FetchAll(ctx context.Context) (*meteoswiss.ClientResult, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeClient) Stations(ctx context.Context, types ...meteoswiss.StationType) (map[string]meteoswiss.Station, error) {
	return map[string]meteoswiss.Station{}, nil
}

func (f *fakeClient) NearestStation(ctx context.Context, lat, lon float64, types ...meteoswiss.StationType) (string, error) {
	return "", nil
}

func (f *fakeClient) CurrentConditions(ctx context.Context) ([]meteoswiss.CurrentCondition, map[string]meteoswiss.CurrentCondition, error) {
	return nil, nil, nil
}

func TestSnapshotRefresh(t *testing.T) {
	client := &fakeClient{result: &meteoswiss.ClientResult{Name: "Home"}}
	snap := NewSnapshot(client, zap.NewNop())

	latest, refreshedAt := snap.Latest()
	assert.Nil(t, latest)
	assert.True(t, refreshedAt.IsZero())

	require.NoError(t, snap.Refresh(context.Background()))

	latest, refreshedAt = snap.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, "Home", latest.Name)
	assert.False(t, refreshedAt.IsZero())
	assert.Equal(t, 1, client.calls)
}

func TestSnapshotRefreshFailureKeepsLastGood(t *testing.T) {
	client := &fakeClient{result: &meteoswiss.ClientResult{Name: "Home"}}
	snap := NewSnapshot(client, zap.NewNop())

	require.NoError(t, snap.Refresh(context.Background()))

	client.err = fmt.Errorf("upstream down")
	assert.Error(t, snap.Refresh(context.Background()))

	latest, _ := snap.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, "Home", latest.Name)
}
