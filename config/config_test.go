package config

import (
	"os"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Port != 3001 {
		t.Errorf("expected Port=3001, got %d", cfg.Port)
	}
	if cfg.NodeEnv != "development" {
		t.Errorf("expected NodeEnv=development, got %q", cfg.NodeEnv)
	}
	if cfg.RoomTTLSeconds != 3600 {
		t.Errorf("expected RoomTTLSeconds=3600, got %d", cfg.RoomTTLSeconds)
	}
	if cfg.DefaultGeishaSet != "default" {
		t.Errorf("expected DefaultGeishaSet=default, got %q", cfg.DefaultGeishaSet)
	}
	if len(cfg.AITiers) != 5 {
		t.Fatalf("expected 5 AI tiers, got %d", len(cfg.AITiers))
	}
	if cfg.AITiers["hard"].ThinkDelayMS != 700 {
		t.Errorf("expected hard tier ThinkDelayMS=700, got %d", cfg.AITiers["hard"].ThinkDelayMS)
	}
}

func TestGeishaSetsSumToTwentyOne(t *testing.T) {
	cfg := Defaults()
	for key, set := range cfg.GeishaSets {
		total := 0
		for _, g := range set {
			total += g.Charm
		}
		if total != 21 {
			t.Errorf("geisha set %q: charm total = %d, want 21", key, total)
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("NODE_ENV", "production")
	os.Setenv("ROOM_TTL_SECONDS", "120")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("NODE_ENV")
		os.Unsetenv("ROOM_TTL_SECONDS")
	}()

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected Port=9090 after env override, got %d", cfg.Port)
	}
	if cfg.NodeEnv != "production" {
		t.Errorf("expected NodeEnv=production after env override, got %q", cfg.NodeEnv)
	}
	if cfg.RoomTTLSeconds != 120 {
		t.Errorf("expected RoomTTLSeconds=120 after env override, got %d", cfg.RoomTTLSeconds)
	}
	// Non-overridden fields should remain default
	if cfg.DefaultGeishaSet != "default" {
		t.Errorf("expected DefaultGeishaSet=default (default), got %q", cfg.DefaultGeishaSet)
	}
}

func TestLoadWithInvalidEnv(t *testing.T) {
	os.Setenv("PORT", "not-a-number")
	defer os.Unsetenv("PORT")

	cfg := Load()

	if cfg.Port != 3001 {
		t.Errorf("expected Port=3001 (default) with invalid env, got %d", cfg.Port)
	}
}
