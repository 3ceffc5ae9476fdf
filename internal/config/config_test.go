package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings(t *testing.T) {
	if err := os.Setenv("MYSQL_DATABASE", "mtg"); err != nil {
		t.Fatalf("Failed to set env: %v", err)
	}
	defer func() {
		if err := os.Unsetenv("MYSQL_DATABASE"); err != nil {
			t.Logf("Failed to unset env: %v", err)
		}
	}()

	cfg, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}

	if cfg.Database != "mtg" {
		t.Errorf("Expected MYSQL_DATABASE 'mtg', got '%s'", cfg.Database)
	}
	if cfg.BatchSize != DefaultBatchSize {
		t.Errorf("Expected default batch size %d, got %d", DefaultBatchSize, cfg.BatchSize)
	}
	if cfg.StrictMode {
		t.Error("Expected strict mode to default to false")
	}
}

func TestLoadSettingsPasswordPresence(t *testing.T) {
	t.Setenv("MYSQL_PASSWORD", "")

	cfg, err := LoadSettings()
	require.NoError(t, err)
	assert.True(t, cfg.PasswordSet, "an empty MYSQL_PASSWORD still counts as supplied")
}

func TestValidate(t *testing.T) {
	cfg := &Settings{BatchSize: 10}
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrMissingSetting)
	assert.Contains(t, err.Error(), "server (-s)")
	assert.Contains(t, err.Error(), "user (-u)")
	assert.Contains(t, err.Error(), "database (-d)")

	cfg.Server, cfg.User, cfg.Database = "localhost", "root", "mtg"
	err = cfg.Validate()
	require.ErrorIs(t, err, ErrMissingSetting)
	assert.Contains(t, err.Error(), "input (-i)")

	cfg.Input = "AllSets.json"
	assert.NoError(t, cfg.Validate())

	cfg.BatchSize = 0
	assert.Error(t, cfg.Validate())
}
