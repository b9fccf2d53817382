package config

import (
	"os"
	"path/filepath"
	"testing"
)

// useTempConfigDir points the package at a throwaway directory.
func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := configDir
	configDir = func() string { return dir }
	t.Cleanup(func() { configDir = old })
	return dir
}

func TestLoadMissingFile(t *testing.T) {
	useTempConfigDir(t)
	cfg := Load()
	if cfg.SimulatorPath != "" {
		t.Errorf("missing config should load empty, got %+v", cfg)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := useTempConfigDir(t)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := Load()
	if cfg.SimulatorPath != "" {
		t.Errorf("corrupt config should load empty, got %+v", cfg)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	useTempConfigDir(t)

	in := &Config{
		SimulatorPath: "/opt/solar2d/Simulator",
		Trello: TrelloConfig{
			APIKey:   "key",
			APIToken: "token",
			BoardID:  "board1",
			LaneMap:  map[string]string{"ideas": "list1"},
			LabelMap: map[string]string{"bug": "label1"},
		},
		Social: SocialConfig{LateAPIKey: "late-key"},
	}
	if err := Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out := Load()
	if out.SimulatorPath != in.SimulatorPath {
		t.Errorf("SimulatorPath = %q", out.SimulatorPath)
	}
	if out.Trello.LaneMap["ideas"] != "list1" || out.Trello.LabelMap["bug"] != "label1" {
		t.Errorf("Trello maps did not roundtrip: %+v", out.Trello)
	}
	if out.Social.LateAPIKey != "late-key" {
		t.Errorf("Social = %+v", out.Social)
	}
}

func TestSetSimulatorPathPreservesOtherSettings(t *testing.T) {
	useTempConfigDir(t)

	if err := Save(&Config{Trello: TrelloConfig{APIKey: "key"}}); err != nil {
		t.Fatal(err)
	}
	if err := SetSimulatorPath("/opt/sim"); err != nil {
		t.Fatalf("SetSimulatorPath: %v", err)
	}

	cfg := Load()
	if cfg.SimulatorPath != "/opt/sim" {
		t.Errorf("SimulatorPath = %q", cfg.SimulatorPath)
	}
	if cfg.Trello.APIKey != "key" {
		t.Error("SetSimulatorPath clobbered the Trello settings")
	}
}

func TestIsConfigured(t *testing.T) {
	useTempConfigDir(t)

	if IsConfigured() {
		t.Error("empty config reports configured")
	}

	// Saved path must still exist on disk.
	sim := filepath.Join(t.TempDir(), "Simulator")
	if err := os.WriteFile(sim, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := SetSimulatorPath(sim); err != nil {
		t.Fatal(err)
	}
	if !IsConfigured() {
		t.Error("existing saved path reports unconfigured")
	}

	os.Remove(sim)
	if IsConfigured() {
		t.Error("vanished saved path still reports configured")
	}
}

func TestResolveSimulatorEvictsStalePath(t *testing.T) {
	useTempConfigDir(t)

	if err := SetSimulatorPath(filepath.Join(t.TempDir(), "gone")); err != nil {
		t.Fatal(err)
	}

	path, _, needsConfirmation := ResolveSimulator()
	if path != "" && !needsConfirmation {
		t.Errorf("stale path resolved without confirmation: %q", path)
	}
	if Load().SimulatorPath != "" {
		t.Error("stale path not evicted from the saved config")
	}
}

func TestResolveSimulatorUsesSavedPath(t *testing.T) {
	useTempConfigDir(t)

	sim := filepath.Join(t.TempDir(), "Simulator")
	if err := os.WriteFile(sim, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := SetSimulatorPath(sim); err != nil {
		t.Fatal(err)
	}

	path, _, needsConfirmation := ResolveSimulator()
	if path != sim || needsConfirmation {
		t.Errorf("ResolveSimulator = (%q, %v), want saved path without confirmation", path, needsConfirmation)
	}
}
