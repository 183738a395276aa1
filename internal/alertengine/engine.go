// Package alertengine evaluates one garden's current weather against its
// plants' sensitivity thresholds and produces zero or more alerts.
package alertengine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"garden-alert-service/internal/cache"
	"garden-alert-service/internal/models"
	"garden-alert-service/internal/sensitivity"
	"garden-alert-service/internal/weather"
)

// Engine evaluates gardens against current weather and cached plant data.
type Engine struct {
	weatherClient *weather.Client
	plantCache    *cache.PlantCache
	registry      *sensitivity.Registry
	logger        *zap.Logger
}

// NewEngine builds an Engine from its three collaborators.
func NewEngine(weatherClient *weather.Client, plantCache *cache.PlantCache, registry *sensitivity.Registry, logger *zap.Logger) *Engine {
	return &Engine{
		weatherClient: weatherClient,
		plantCache:    plantCache,
		registry:      registry,
		logger:        logger,
	}
}

// EvaluateGarden runs the full threshold-evaluation pipeline for one
// garden. It never returns an error: any failure is logged and yields an
// empty alert list so one garden's trouble cannot abort a tick.
func (e *Engine) EvaluateGarden(ctx context.Context, garden models.Garden) (alerts []models.Alert) {
	defer func() {
		if r := recover(); r != nil {
			if e.logger != nil {
				e.logger.Error("panic evaluating garden", zap.String("gardenId", garden.GardenID), zap.Any("panic", r))
			}
			alerts = []models.Alert{}
		}
	}()

	snap, err := e.weatherClient.FetchWeather(ctx, garden.Latitude, garden.Longitude)
	if err != nil || snap == nil {
		if e.logger != nil && err != nil {
			e.logger.Warn("weather fetch failed, skipping garden", zap.String("gardenId", garden.GardenID), zap.Error(err))
		}
		return []models.Alert{}
	}

	plants, ok := e.plantCache.Get(garden.UserID)
	if !ok || len(plants) == 0 {
		return []models.Alert{}
	}

	types := uniquePlantTypes(plants)
	profiles := make([]models.SensitivityProfile, 0, len(types))
	for _, t := range types {
		profiles = append(profiles, e.registry.Resolve(t))
	}

	now := time.Now()
	alerts = make([]models.Alert, 0, 4)

	if a := highTemperatureRule(garden, *snap, profiles, plants, now); a != nil {
		alerts = append(alerts, *a)
	}
	if a := lowTemperatureRule(garden, *snap, profiles, plants, now); a != nil {
		alerts = append(alerts, *a)
	}
	if a := heavyRainRule(garden, *snap, profiles, plants, now); a != nil {
		alerts = append(alerts, *a)
	}
	if a := strongWindRule(garden, *snap, profiles, plants, now); a != nil {
		alerts = append(alerts, *a)
	}

	return alerts
}

func uniquePlantTypes(plants []models.Plant) []string {
	seen := make(map[string]struct{}, len(plants))
	var types []string
	for _, p := range plants {
		if _, ok := seen[p.Type]; ok {
			continue
		}
		seen[p.Type] = struct{}{}
		types = append(types, p.Type)
	}
	return types
}

func plantNamesForTypes(plants []models.Plant, types []string) []string {
	typeSet := make(map[string]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}
	var names []string
	for _, p := range plants {
		if _, ok := typeSet[p.Type]; ok {
			names = append(names, p.Name)
		}
	}
	return names
}

func highTemperatureRule(garden models.Garden, snap models.WeatherSnapshot, profiles []models.SensitivityProfile, plants []models.Plant, now time.Time) *models.Alert {
	var hitTypes []string
	threshold := 0.0
	first := true
	for _, p := range profiles {
		if snap.Temperature > p.MaxTemperature {
			hitTypes = append(hitTypes, p.PlantType)
			if first || p.MaxTemperature < threshold {
				threshold = p.MaxTemperature
				first = false
			}
		}
	}
	if len(hitTypes) == 0 {
		return nil
	}
	return newAlert(garden, models.HighTemperature, models.MetricTemperature, snap.Temperature, threshold, hitTypes, plants, now)
}

func lowTemperatureRule(garden models.Garden, snap models.WeatherSnapshot, profiles []models.SensitivityProfile, plants []models.Plant, now time.Time) *models.Alert {
	var hitTypes []string
	threshold := 0.0
	first := true
	for _, p := range profiles {
		if snap.Temperature < p.MinTemperature {
			hitTypes = append(hitTypes, p.PlantType)
			if first || p.MinTemperature > threshold {
				threshold = p.MinTemperature
				first = false
			}
		}
	}
	if len(hitTypes) == 0 {
		return nil
	}
	return newAlert(garden, models.LowTemperature, models.MetricTemperature, snap.Temperature, threshold, hitTypes, plants, now)
}

func heavyRainRule(garden models.Garden, snap models.WeatherSnapshot, profiles []models.SensitivityProfile, plants []models.Plant, now time.Time) *models.Alert {
	var hitTypes []string
	threshold := 0.0
	first := true
	for _, p := range profiles {
		if snap.Precipitation > p.MaxPrecipitation {
			hitTypes = append(hitTypes, p.PlantType)
			if first || p.MaxPrecipitation < threshold {
				threshold = p.MaxPrecipitation
				first = false
			}
		}
	}
	if len(hitTypes) == 0 {
		return nil
	}
	return newAlert(garden, models.HeavyRain, models.MetricPrecipitation, snap.Precipitation, threshold, hitTypes, plants, now)
}

func strongWindRule(garden models.Garden, snap models.WeatherSnapshot, profiles []models.SensitivityProfile, plants []models.Plant, now time.Time) *models.Alert {
	var hitTypes []string
	threshold := 0.0
	first := true
	for _, p := range profiles {
		if snap.WindSpeed > p.MaxWindSpeed {
			hitTypes = append(hitTypes, p.PlantType)
			if first || p.MaxWindSpeed < threshold {
				threshold = p.MaxWindSpeed
				first = false
			}
		}
	}
	if len(hitTypes) == 0 {
		return nil
	}
	return newAlert(garden, models.StrongWind, models.MetricWindSpeed, snap.WindSpeed, threshold, hitTypes, plants, now)
}

func newAlert(garden models.Garden, alertType models.AlertType, metric models.Metric, currentValue, threshold float64, hitTypes []string, plants []models.Plant, now time.Time) *models.Alert {
	return &models.Alert{
		AlertID:            models.NewAlertID(now),
		GardenID:           garden.GardenID,
		UserID:             garden.UserID,
		GardenName:         garden.Name,
		Timestamp:          now,
		AlertType:          alertType,
		Metric:             metric,
		CurrentValue:       currentValue,
		Threshold:          threshold,
		AffectedPlantTypes: hitTypes,
		AffectedPlantNames: plantNamesForTypes(plants, hitTypes),
	}
}
