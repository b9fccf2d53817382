// Package config persists user preferences for the Solar2D MCP server:
// the simulator executable path plus the Trello and social integration
// settings. Stored as JSON under ~/.config/solar2d-mcp.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// searchPatterns are the common install locations scanned when auto-detecting
// a simulator. Sorting the matches puts the newest versioned install last.
var searchPatterns = []string{
	"/Applications/Corona*/Corona Simulator.app/Contents/MacOS/Corona Simulator",
	"/Applications/Solar2D*/Solar2D Simulator.app/Contents/MacOS/Solar2D Simulator",
	"~/Applications/Corona*/Corona Simulator.app/Contents/MacOS/Corona Simulator",
	"~/Applications/Solar2D*/Solar2D Simulator.app/Contents/MacOS/Solar2D Simulator",
}

// configDir is a seam for tests.
var configDir = defaultConfigDir

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "solar2d-mcp")
	}
	return filepath.Join(home, ".config", "solar2d-mcp")
}

// TrelloConfig holds the Trello integration settings, including the lane and
// label ID mappings produced by board setup.
type TrelloConfig struct {
	APIKey   string            `json:"api_key,omitempty"`
	APIToken string            `json:"api_token,omitempty"`
	BoardID  string            `json:"board_id,omitempty"`
	LaneMap  map[string]string `json:"lane_map,omitempty"`
	LabelMap map[string]string `json:"label_map,omitempty"`
}

// SocialConfig holds the Late (getlate.dev) posting settings.
type SocialConfig struct {
	LateAPIKey string `json:"late_api_key,omitempty"`
}

// Config is the persisted preference file.
type Config struct {
	SimulatorPath string       `json:"simulator_path,omitempty"`
	Trello        TrelloConfig `json:"trello,omitempty"`
	Social        SocialConfig `json:"social,omitempty"`
}

// Load reads the config file, returning an empty config when it is missing or
// unreadable. Corrupt config never blocks a tool call.
func Load() *Config {
	cfg := &Config{}
	data, err := os.ReadFile(filepath.Join(configDir(), "config.json"))
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return &Config{}
	}
	return cfg
}

// Save writes the config file, creating the directory as needed.
func Save(cfg *Config) error {
	dir := configDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SetSimulatorPath persists the simulator executable path.
func SetSimulatorPath(path string) error {
	cfg := Load()
	cfg.SimulatorPath = path
	return Save(cfg)
}

// IsConfigured reports whether a simulator path is saved and still exists.
func IsConfigured() bool {
	path := Load().SimulatorPath
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Detect globs the common install locations for simulators.
func Detect() []string {
	home, _ := os.UserHomeDir()
	seen := make(map[string]bool)
	var found []string
	for _, pattern := range searchPatterns {
		if pattern[0] == '~' && home != "" {
			pattern = filepath.Join(home, pattern[1:])
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				found = append(found, m)
			}
		}
	}
	sort.Strings(found)
	return found
}

// ResolveSimulator returns the simulator path to use, every detected install,
// and whether the user still needs to confirm the choice. A saved path that no
// longer exists is evicted from the config; the best detected candidate (the
// newest version) is proposed but requires confirmation.
func ResolveSimulator() (path string, detected []string, needsConfirmation bool) {
	cfg := Load()
	detected = Detect()

	if cfg.SimulatorPath != "" {
		if _, err := os.Stat(cfg.SimulatorPath); err == nil {
			return cfg.SimulatorPath, detected, false
		}
		cfg.SimulatorPath = ""
		_ = Save(cfg)
	}

	if len(detected) > 0 {
		return detected[len(detected)-1], detected, true
	}
	return "", detected, true
}
