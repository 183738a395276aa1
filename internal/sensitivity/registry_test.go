package sensitivity

import (
	"os"
	"path/filepath"
	"testing"

	"garden-alert-service/internal/models"
)

func TestNewRegistryRequiresDefaultProfile(t *testing.T) {
	_, err := newRegistry([]models.SensitivityProfile{
		{PlantType: "tomato", MinTemperature: 5, MaxTemperature: 35},
	})
	if err == nil {
		t.Fatal("expected error when default profile is missing")
	}
}

func TestNewRegistryRejectsInvalidProfile(t *testing.T) {
	_, err := newRegistry([]models.SensitivityProfile{
		{PlantType: "default", MinTemperature: 30, MaxTemperature: 10},
	})
	if err == nil {
		t.Fatal("expected error on minTemperature >= maxTemperature")
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	r, err := newRegistry([]models.SensitivityProfile{
		{PlantType: "default", MinTemperature: 0, MaxTemperature: 30, MaxPrecipitation: 10, MaxWindSpeed: 20},
		{PlantType: "cactus", MinTemperature: -5, MaxTemperature: 45, MaxPrecipitation: 2, MaxWindSpeed: 40},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cactus := r.Resolve("cactus")
	if cactus.MaxTemperature != 45 {
		t.Fatalf("expected cactus profile, got %+v", cactus)
	}

	unknown := r.Resolve("orchid")
	if unknown.PlantType != "default" {
		t.Fatalf("expected fallback to default profile, got %+v", unknown)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.json")
	content := `{"profiles": {
		"default": {"minTemperature": 0, "maxTemperature": 32, "maxPrecipitation": 15, "maxWindSpeed": 25},
		"succulent": {"minTemperature": 2, "maxTemperature": 40, "maxPrecipitation": 3, "maxWindSpeed": 30}
	}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	r, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Resolve("succulent").MaxWindSpeed != 30 {
		t.Fatalf("unexpected succulent profile: %+v", r.Resolve("succulent"))
	}
}

func TestLoadFromFileMissingFileErrors(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/profiles.json")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
