package cts

import (
	"encoding/json"
	"fmt"
	"os"
)

// RuntimeManifest describes a runtime under test. Fields left empty fall
// back to the command line flags.
type RuntimeManifest struct {
	Name                 string   `json:"name"`
	Endpoint             string   `json:"endpoint"`
	GraphicsAPI          string   `json:"graphicsApi,omitempty"`
	GraphicsPlugin       *bool    `json:"graphicsPlugin,omitempty"`
	ViewConfiguration    string   `json:"viewConfiguration,omitempty"`
	EnvironmentBlendMode string   `json:"environmentBlendMode,omitempty"`
	Extensions           []string `json:"extensions,omitempty"`
}

func parseManifest(manifestPath string) (*RuntimeManifest, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var manifest RuntimeManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	if manifest.Endpoint == "" {
		return nil, fmt.Errorf("manifest %s has no endpoint", manifestPath)
	}
	return &manifest, nil
}
