package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("unexpected port: %q", cfg.Server.Port)
	}
	if cfg.Extraction.MaxChunkChars != 50000 || cfg.Extraction.ChunkOverlap != 500 {
		t.Fatalf("unexpected extraction defaults: %+v", cfg.Extraction)
	}
	if cfg.Calendar.Name != "RFP Deadline Tracker" {
		t.Fatalf("unexpected calendar name: %q", cfg.Calendar.Name)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("file override ignored, port=%q", cfg.Server.Port)
	}
	if cfg.Extraction.MaxChunkChars != 50000 {
		t.Fatalf("defaults lost on partial override: %+v", cfg.Extraction)
	}
}

func TestLoad_EnvWins(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Fatalf("env override ignored, port=%q", cfg.Server.Port)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Fatalf("env api key ignored: %q", cfg.OpenAI.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
