package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MaterialSpec describes a named material in the library file.
type MaterialSpec struct {
	Conductivity float64 `yaml:"conductivity"` // W/(m·K)
}

// MaterialLibrary maps material names to their physical properties, so layer
// configs can reference "glass_wool" instead of repeating conductivities.
type MaterialLibrary map[string]MaterialSpec

// LoadMaterials reads a YAML material library. An empty path yields an empty
// library, which is fine as long as every layer carries its own conductivity.
func LoadMaterials(path string) (MaterialLibrary, error) {
	if path == "" {
		return MaterialLibrary{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read materials: %w", err)
	}

	lib := MaterialLibrary{}
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parse materials: %w", err)
	}
	return lib, nil
}
