package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/swissweather/meteoswiss/internal/services"
	"github.com/swissweather/meteoswiss/pkg/meteoswiss"
	"go.uber.org/zap"
)

type Handler struct {
	snapshot *services.Snapshot
	logger   *zap.Logger
}

func NewHandler(snapshot *services.Snapshot, logger *zap.Logger) *Handler {
	return &Handler{
		snapshot: snapshot,
		logger:   logger,
	}
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	_, refreshedAt := h.snapshot.Latest()

	return c.JSON(fiber.Map{
		"status":       "healthy",
		"timestamp":    time.Now(),
		"last_refresh": refreshedAt,
	})
}

// GetWeather handles GET /api/v1/weather
func (h *Handler) GetWeather(c *fiber.Ctx) error {
	result, refreshedAt := h.snapshot.Latest()
	if result == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "No snapshot available yet",
		})
	}

	return c.JSON(fiber.Map{
		"refreshed_at": refreshedAt,
		"result":       result,
	})
}

// GetConditions handles GET /api/v1/weather/conditions
func (h *Handler) GetConditions(c *fiber.Ctx) error {
	h.logger.Info("Fetching current conditions on demand")

	conditions, byStation, err := h.snapshot.CurrentConditions(c.Context())
	if err != nil {
		h.logger.Error("Failed to fetch current conditions", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to fetch current conditions",
			"details": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"condition":            conditions,
		"condition_by_station": byStation,
	})
}

// GetStations handles GET /api/v1/stations
func (h *Handler) GetStations(c *fiber.Ctx) error {
	types, err := stationTypes(c.Query("type"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	stations, err := h.snapshot.Stations(c.Context(), types...)
	if err != nil {
		h.logger.Error("Failed to list stations", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to load station directory",
			"details": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"count":    len(stations),
		"stations": stations,
	})
}

// GetNearestStation handles GET /api/v1/stations/nearest
func (h *Handler) GetNearestStation(c *fiber.Ctx) error {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "lat and lon query parameters are required",
		})
	}

	types, err := stationTypes(c.Query("type"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	code, err := h.snapshot.NearestStation(c.Context(), lat, lon, types...)
	if err != nil {
		h.logger.Error("Failed to resolve nearest station",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to resolve nearest station",
			"details": err.Error(),
		})
	}
	if code == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No station matches the requested type",
		})
	}

	return c.JSON(fiber.Map{
		"station": code,
	})
}

func stationTypes(query string) ([]meteoswiss.StationType, error) {
	switch query {
	case "":
		return nil, nil
	case string(meteoswiss.StationTypeWeather):
		return []meteoswiss.StationType{meteoswiss.StationTypeWeather}, nil
	case string(meteoswiss.StationTypePrecipitation):
		return []meteoswiss.StationType{meteoswiss.StationTypePrecipitation}, nil
	default:
		return nil, fiber.NewError(fiber.StatusBadRequest, "type must be weather or precipitation")
	}
}
