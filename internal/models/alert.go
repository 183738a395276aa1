package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AlertType enumerates the threshold rule that triggered an Alert.
type AlertType string

const (
	HighTemperature AlertType = "HIGH_TEMPERATURE"
	LowTemperature  AlertType = "LOW_TEMPERATURE"
	HeavyRain       AlertType = "HEAVY_RAIN"
	StrongWind      AlertType = "STRONG_WIND"
)

// Metric enumerates the weather field an Alert's value was read from.
type Metric string

const (
	MetricTemperature   Metric = "temperature"
	MetricPrecipitation Metric = "precipitation"
	MetricWindSpeed     Metric = "windSpeed"
)

// Alert is an emitted tuple produced by AlertEngine.evaluateGarden and
// consumed, unmutated, by each sink.
type Alert struct {
	AlertID            string    `json:"alertId"`
	GardenID           string    `json:"gardenId"`
	UserID             int       `json:"userId"`
	GardenName         string    `json:"gardenName"`
	Timestamp          time.Time `json:"timestamp"`
	AlertType          AlertType `json:"alertType"`
	Metric             Metric    `json:"metric"`
	CurrentValue       float64   `json:"currentValue"`
	Threshold          float64   `json:"threshold"`
	AffectedPlantTypes []string  `json:"affectedPlantTypes"`
	AffectedPlantNames []string  `json:"affectedPlantNames"`
}

// NewAlertID returns a locally-unique id: a timestamp-prefixed uuid, cheap
// to sort and unique across the process lifetime. No cross-process
// deduplication is attempted (see spec's Open Question on suppression).
func NewAlertID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())
}
