package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RoutingConfig contains the message-routing rules loaded from YAML
type RoutingConfig struct {
	SupportChannels SupportChannels `yaml:"support_channels"`
	FallbackReply   string          `yaml:"fallback_reply"`
}

// SupportChannels describes which channels count as support channels
type SupportChannels struct {
	// Names are case-insensitive substring matches on the channel name
	Names []string `yaml:"names"`
	// IDs are exact channel ID matches
	IDs []string `yaml:"ids"`
}

// LoadRoutingConfig loads routing configuration from a YAML file
func LoadRoutingConfig(configPath string) (*RoutingConfig, error) {
	// Try multiple paths
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/routing.yaml",
			"./configs/routing.yaml",
			"/etc/robomo-bridge/routing.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "routing.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	var err error

	for _, p := range paths {
		if p == "" {
			continue
		}
		data, err = os.ReadFile(p)
		if err == nil {
			loadedPath = p
			break
		}
	}

	if data == nil {
		// Return default config if no file found
		return DefaultRoutingConfig(), nil
	}

	var config RoutingConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
	}

	config.fillDefaults()
	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *RoutingConfig) fillDefaults() {
	defaults := DefaultRoutingConfig()

	if len(c.SupportChannels.Names) == 0 && len(c.SupportChannels.IDs) == 0 {
		c.SupportChannels.Names = defaults.SupportChannels.Names
	}
	if c.FallbackReply == "" {
		c.FallbackReply = defaults.FallbackReply
	}
}

// DefaultRoutingConfig returns the built-in routing rules
func DefaultRoutingConfig() *RoutingConfig {
	return &RoutingConfig{
		SupportChannels: SupportChannels{
			Names: []string{"support", "general"},
		},
		FallbackReply: "Sorry, I'm having trouble answering your question right now. " +
			"Please try again later or ask in the support channel to request help from staff.",
	}
}
