package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadLabelSeed reads a YAML file mapping sanitized series-title keys to
// display labels:
//
//	Unit_Types: "Unit Mix"
//	Occupancy_Rate: "Occupancy %"
//
// The seed supplies defaults for deployments without a database and the
// base layer under stored overrides. A missing file is not an error; an
// empty path returns nil.
func LoadLabelSeed(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read label seed: %w", err)
	}
	labels := make(map[string]string)
	if err := yaml.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("parse label seed %s: %w", path, err)
	}
	return labels, nil
}

// mergeLabels overlays override entries on top of the seed map. Neither
// input is modified; the seed may be nil.
func mergeLabels(seed, overrides map[string]string) map[string]string {
	if len(seed) == 0 && len(overrides) == 0 {
		return nil
	}
	merged := make(map[string]string, len(seed)+len(overrides))
	for k, v := range seed {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
