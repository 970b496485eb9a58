package config

import (
	"fmt"
	"os"

	"figpull/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// Manifest is an optional YAML file describing a batch of exports, as an
// alternative to passing one file key and node list on the command line.
//
// Example:
//
//	exports:
//	  - file_key: a1B2c3D4e5
//	    nodes: ["1:2", "1:3"]
//	    format: png
//	    scale: 2
//	  - file_key: a1B2c3D4e5
//	    nodes: ["7:1"]
//	    format: svg
type Manifest struct {
	Exports []Export `yaml:"exports"`
}

// Export is one render-and-download job.
type Export struct {
	FileKey string   `yaml:"file_key"`
	Nodes   []string `yaml:"nodes"`
	Format  string   `yaml:"format"`
	Scale   float64  `yaml:"scale"`
	Depth   int      `yaml:"depth"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if len(m.Exports) == 0 {
		return nil, fmt.Errorf("%w: manifest contains no exports", entity.ErrInvalidInput)
	}
	for i, e := range m.Exports {
		if e.FileKey == "" {
			return nil, fmt.Errorf("%w: export %d has no file_key", entity.ErrInvalidInput, i)
		}
		if len(e.Nodes) == 0 {
			return nil, fmt.Errorf("%w: export %d has no nodes", entity.ErrInvalidInput, i)
		}
	}

	return &m, nil
}
