package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.DBPath != "curbside.db" {
		t.Errorf("db path = %q, want curbside.db", cfg.DBPath)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.LogLevel)
	}
	if cfg.BackupInterval != 24*time.Hour {
		t.Errorf("backup interval = %v, want 24h", cfg.BackupInterval)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CURBSIDE_PORT", "9090")
	t.Setenv("CURBSIDE_TIMEZONE", "UTC")
	t.Setenv("CURBSIDE_BACKUP_INTERVAL", "1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Port)
	}
	if cfg.BackupInterval != time.Hour {
		t.Errorf("backup interval = %v, want 1h", cfg.BackupInterval)
	}

	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc != time.UTC {
		t.Errorf("location = %v, want UTC", loc)
	}
}

func TestLocationInvalidZone(t *testing.T) {
	cfg := Config{Timezone: "Not/AZone"}
	if _, err := cfg.Location(); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestLocationDefaultsToLocal(t *testing.T) {
	cfg := Config{}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc != time.Local {
		t.Errorf("location = %v, want local", loc)
	}
}
