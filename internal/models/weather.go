package models

import "time"

// WeatherSnapshot is a normalized reading for one coordinate at fetch time.
// Missing numeric fields from the upstream provider are treated as 0.
type WeatherSnapshot struct {
	Temperature    float64   `json:"temperature"`
	TemperatureMax float64   `json:"temperatureMax"`
	TemperatureMin float64   `json:"temperatureMin"`
	Precipitation  float64   `json:"precipitation"`
	WindSpeed      float64   `json:"windSpeed"`
	ObservedAt     time.Time `json:"observedAt"`
}
