package services

import (
	"context"
	"sync"
	"time"

	"github.com/swissweather/meteoswiss/pkg/meteoswiss"
	"go.uber.org/zap"
)

// Client is the subset of the MeteoSwiss client the service relies on.
type Client interface {
	FetchAll(ctx context.Context) (*meteoswiss.ClientResult, error)
	Stations(ctx context.Context, types ...meteoswiss.StationType) (map[string]meteoswiss.Station, error)
	NearestStation(ctx context.Context, lat, lon float64, types ...meteoswiss.StationType) (string, error)
	CurrentConditions(ctx context.Context) ([]meteoswiss.CurrentCondition, map[string]meteoswiss.CurrentCondition, error)
}

// Snapshot holds the most recent client result for the HTTP surface. The
// underlying client does no internal locking, so every call into it goes
// through this service's mutex.
type Snapshot struct {
	mu          sync.Mutex
	client      Client
	logger      *zap.Logger
	latest      *meteoswiss.ClientResult
	refreshedAt time.Time
}

func NewSnapshot(client Client, logger *zap.Logger) *Snapshot {
	return &Snapshot{
		client: client,
		logger: logger,
	}
}

// Refresh fetches a fresh result and replaces the held snapshot. A failed
// fetch keeps the last good snapshot.
func (s *Snapshot) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	result, err := s.client.FetchAll(ctx)
	if err != nil {
		s.logger.Error("Snapshot refresh failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return err
	}

	s.latest = result
	s.refreshedAt = time.Now()
	s.logger.Info("Snapshot refreshed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("conditions", len(result.Conditions)),
		zap.Bool("has_forecast", result.Forecast != nil))
	return nil
}

// Latest returns the held snapshot and its refresh time. The snapshot is
// nil until the first successful refresh.
func (s *Snapshot) Latest() (*meteoswiss.ClientResult, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.refreshedAt
}

// Stations lists the station directory through the client.
func (s *Snapshot) Stations(ctx context.Context, types ...meteoswiss.StationType) (map[string]meteoswiss.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.Stations(ctx, types...)
}

// NearestStation resolves the closest station through the client.
func (s *Snapshot) NearestStation(ctx context.Context, lat, lon float64, types ...meteoswiss.StationType) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.NearestStation(ctx, lat, lon, types...)
}

// CurrentConditions performs an on-demand fetch through the client.
func (s *Snapshot) CurrentConditions(ctx context.Context) ([]meteoswiss.CurrentCondition, map[string]meteoswiss.CurrentCondition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.CurrentConditions(ctx)
}
