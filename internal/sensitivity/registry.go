// Package sensitivity holds the per-plant-type climatic tolerance profiles
// that AlertEngine evaluates weather readings against.
package sensitivity

import (
	"encoding/json"
	"fmt"
	"os"

	"garden-alert-service/internal/models"
)

// Registry is an immutable, load-once lookup of sensitivity profiles keyed
// by plant type, with a mandatory "default" fallback.
type Registry struct {
	profiles map[string]models.SensitivityProfile
}

// profilesFile mirrors plant-sensitivity-profiles.json's on-disk shape:
// {"profiles": {"<type>": {...}, "default": {...}}}.
type profilesFile struct {
	Profiles map[string]models.SensitivityProfile `json:"profiles"`
}

// LoadFromFile reads plant-sensitivity-profiles.json's {"profiles": {...}}
// object from path. It is a fatal configuration error for the default
// profile to be missing, or for any profile to fail its own invariant
// check.
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sensitivity: read %s: %w", path, err)
	}

	var pf profilesFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("sensitivity: parse %s: %w", path, err)
	}

	profiles := make([]models.SensitivityProfile, 0, len(pf.Profiles))
	for key, p := range pf.Profiles {
		if p.PlantType == "" {
			p.PlantType = key
		}
		profiles = append(profiles, p)
	}

	return newRegistry(profiles)
}

// NewRegistryForTest builds a Registry directly from in-memory profiles,
// for use by other packages' tests that need a registry without a
// filesystem fixture.
func NewRegistryForTest(profiles []models.SensitivityProfile) (*Registry, error) {
	return newRegistry(profiles)
}

func newRegistry(profiles []models.SensitivityProfile) (*Registry, error) {
	m := make(map[string]models.SensitivityProfile, len(profiles))
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("sensitivity: %w", err)
		}
		m[p.PlantType] = p
	}

	if _, ok := m[models.DefaultPlantType]; !ok {
		return nil, fmt.Errorf("sensitivity: required profile %q is missing", models.DefaultPlantType)
	}

	return &Registry{profiles: m}, nil
}

// Resolve returns the profile for plantType, falling back to the
// "default" profile when plantType is unrecognized. Resolve never fails:
// the default profile's presence is guaranteed at load time.
func (r *Registry) Resolve(plantType string) models.SensitivityProfile {
	if p, ok := r.profiles[plantType]; ok {
		return p
	}
	return r.profiles[models.DefaultPlantType]
}
