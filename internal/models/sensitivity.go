package models

import "fmt"

// DefaultPlantType is the sensitivity profile key that SensitivityRegistry
// falls back to for any plant type it does not recognize.
const DefaultPlantType = "default"

// SensitivityProfile holds the climatic tolerance of one plant type.
type SensitivityProfile struct {
	PlantType        string  `json:"plantType"`
	MaxTemperature   float64 `json:"maxTemperature"`
	MinTemperature   float64 `json:"minTemperature"`
	MaxPrecipitation float64 `json:"maxPrecipitation"`
	MaxWindSpeed     float64 `json:"maxWindSpeed"`
}

// Validate checks the profile's only cross-field invariant.
func (p SensitivityProfile) Validate() error {
	if p.MinTemperature >= p.MaxTemperature {
		return fmt.Errorf("sensitivity profile %q: minTemperature (%.1f) must be < maxTemperature (%.1f)", p.PlantType, p.MinTemperature, p.MaxTemperature)
	}
	return nil
}
