package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadConfigDefaultsAndUnits(t *testing.T) {
	dir := writeConfig(t, `
jwt:
  secret: test-secret
  expire_hours: 2
storage:
  type: minio
exam_api:
  cache_ttl_minutes: 5
`)
	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWT.ExpireTime != 2*time.Hour {
		t.Errorf("expire time = %v", cfg.JWT.ExpireTime)
	}
	if cfg.ExamAPI.CacheTTL != 5*time.Minute || cfg.ExamAPI.Timeout != 10*time.Second {
		t.Errorf("exam api = %+v", cfg.ExamAPI)
	}
	if cfg.OTP.TTL != 10*time.Minute || cfg.OTP.Length != 6 || cfg.OTP.MaxAttempts != 5 {
		t.Errorf("otp = %+v", cfg.OTP)
	}
	if cfg.Database.Driver != "sqlite" || cfg.History.PageSize != 10 {
		t.Errorf("defaults not applied: %+v %+v", cfg.Database, cfg.History)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, "jwt:\n  secret: from-file\nstorage:\n  type: minio\n")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("EXAM_API_URL", "http://exams.local")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWT.Secret != "from-env" || cfg.ExamAPI.BaseURL != "http://exams.local" {
		t.Fatalf("env not applied: %q %q", cfg.JWT.Secret, cfg.ExamAPI.BaseURL)
	}
}

func TestLoadConfigReleaseSecret(t *testing.T) {
	dir := writeConfig(t, "server:\n  mode: release\njwt:\n  secret: short\nstorage:\n  type: minio\n")
	_, err := LoadConfig(dir)
	if err == nil || !strings.Contains(err.Error(), "too short") {
		t.Fatalf("expected short secret error, got %v", err)
	}
}

func TestValidateDriver(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Mode: "debug"}, JWT: JWTConfig{Secret: "x"}, Database: DatabaseConfig{Driver: "oracle"}, OTP: OTPConfig{Length: 6}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}
