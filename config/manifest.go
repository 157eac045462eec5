package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ToolManifest declares which built-in tools a tool server process hosts.
// Tools are referenced by name only; there is deliberately no way to supply
// executable definitions through the manifest.
type ToolManifest struct {
	Port  int      `yaml:"port"`
	Tools []string `yaml:"tools"`
}

// LoadToolManifest reads and parses a YAML tool manifest.
func LoadToolManifest(path string) (ToolManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ToolManifest{}, fmt.Errorf("read tool manifest: %w", err)
	}
	var m ToolManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return ToolManifest{}, fmt.Errorf("parse tool manifest %s: %w", path, err)
	}
	if m.Port == 0 {
		m.Port = 8100
	}
	if len(m.Tools) == 0 {
		return ToolManifest{}, fmt.Errorf("tool manifest %s names no tools", path)
	}
	return m, nil
}
