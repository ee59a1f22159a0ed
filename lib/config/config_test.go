// Copyright 2026 The Opine Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "opine.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8081 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Logging.Level != "INFO" || cfg.Logging.DBPath != "logs/logs.db" || cfg.Logging.QueueSize != 1000 {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
	if cfg.Logging.RetentionDays != 0 {
		t.Errorf("retention_days default = %d, want 0 (disabled)", cfg.Logging.RetentionDays)
	}
	if cfg.Checkpoint.DBPath != "checkpoints.db" {
		t.Errorf("checkpoint default = %+v", cfg.Checkpoint)
	}
	if cfg.LLM.DefaultModel != "gpt-4o-mini" {
		t.Errorf("llm defaults = %+v", cfg.LLM)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9000
logging:
  level: DEBUG
  retention_days: 14
llm:
  base_url: http://localhost:11434/v1
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	// Unspecified fields keep their defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q, want default", cfg.Server.Host)
	}
	if cfg.Logging.Level != "DEBUG" || cfg.Logging.RetentionDays != 14 {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Logging.DBPath != "logs/logs.db" {
		t.Errorf("db_path = %q, want default", cfg.Logging.DBPath)
	}
	if cfg.LLM.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("base_url = %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.DefaultModel != "gpt-4o-mini" {
		t.Errorf("default_model = %q, want default", cfg.LLM.DefaultModel)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadFile on a missing file succeeded, want error")
	}
}

func TestLoadFileInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a mapping")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("LoadFile on invalid YAML succeeded, want error")
	}
}

func TestLoadFileRejectsInvalidValues(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 99999\n")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("LoadFile with out-of-range port succeeded, want error")
	}
}

func TestLoadRequiresEnvVar(t *testing.T) {
	t.Setenv("OPINE_CONFIG", "")
	os.Unsetenv("OPINE_CONFIG")
	if _, err := Load(); err == nil {
		t.Fatal("Load without OPINE_CONFIG succeeded, want error")
	}
}

func TestLoadFromEnvVar(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 8200\n")
	t.Setenv("OPINE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8200 {
		t.Errorf("port = %d, want 8200", cfg.Server.Port)
	}
}

func TestListenAddress(t *testing.T) {
	cfg := Default()
	if got := cfg.ListenAddress(); got != "0.0.0.0:8081" {
		t.Errorf("ListenAddress = %q", got)
	}
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPINE_AUTH_SECRET", "hunter2")

	secrets, err := LoadSecrets()
	if err != nil {
		t.Fatalf("LoadSecrets: %v", err)
	}
	if secrets.OpenAIAPIKey != "sk-test" || secrets.AuthSecret != "hunter2" {
		t.Errorf("secrets = %+v", secrets)
	}
}

func TestLoadSecretsRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("OPENAI_API_KEY")
	if _, err := LoadSecrets(); err == nil {
		t.Fatal("LoadSecrets without OPENAI_API_KEY succeeded, want error")
	}
}

func TestLoadSecretsAuthOptional(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPINE_AUTH_SECRET", "")
	os.Unsetenv("OPINE_AUTH_SECRET")

	secrets, err := LoadSecrets()
	if err != nil {
		t.Fatalf("LoadSecrets: %v", err)
	}
	if secrets.AuthSecret != "" {
		t.Errorf("AuthSecret = %q, want empty", secrets.AuthSecret)
	}
}
