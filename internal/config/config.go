// Package config loads environment variables and the two JSON
// configuration files the service needs at startup.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"garden-alert-service/internal/models"
	"garden-alert-service/pkg/validator"
)

// Config holds every externally-supplied setting the service needs to
// start. Gardens and sensitivity profiles are loaded separately (see
// LoadGardens, and internal/sensitivity.LoadFromFile) since they carry
// their own fatal-validation rules.
type Config struct {
	Port              string
	BackendURL        string
	DatabaseURL       string
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	LogLevel          string
	ConfigDir         string
}

// Load reads environment variables via viper, applying defaults for
// anything optional. Nothing here is fatal: SMS/history degrade
// gracefully when their settings are absent, per the error-handling
// design.
func Load() *Config {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CONFIG_DIR", "./config")

	return &Config{
		Port:              v.GetString("PORT"),
		BackendURL:        v.GetString("BACKEND_URL"),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		TwilioAccountSID:  v.GetString("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   v.GetString("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber: v.GetString("TWILIO_PHONE_NUMBER"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		ConfigDir:         v.GetString("CONFIG_DIR"),
	}
}

// GardensFilePath returns the expected location of gardens.config.json
// under c.ConfigDir.
func (c *Config) GardensFilePath() string {
	return filepath.Join(c.ConfigDir, "gardens.config.json")
}

// SensitivityFilePath returns the expected location of
// plant-sensitivity-profiles.json under c.ConfigDir.
func (c *Config) SensitivityFilePath() string {
	return filepath.Join(c.ConfigDir, "plant-sensitivity-profiles.json")
}

type gardensFile struct {
	Gardens []models.Garden `json:"gardens"`
}

// LoadGardens reads and validates gardens.config.json. A missing file, a
// garden with an empty id, or out-of-range coordinates is a fatal
// configuration error.
func LoadGardens(path string) ([]models.Garden, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var gf gardensFile
	if err := json.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	for _, g := range gf.Gardens {
		if !g.Valid() {
			return nil, fmt.Errorf("config: garden %q has an empty id or out-of-range coordinates", g.GardenID)
		}
		if err := validator.Struct(g); err != nil {
			return nil, fmt.Errorf("config: garden %q failed validation: %w", g.GardenID, err)
		}
	}

	return gf.Gardens, nil
}
