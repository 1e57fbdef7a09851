package infra

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/wisentia_test")
	t.Setenv("ADMIN_JWT_SECRET", "test-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" || cfg.OpenAIBackupModel != "gpt-3.5-turbo" {
		t.Fatalf("models = %q / %q", cfg.OpenAIModel, cfg.OpenAIBackupModel)
	}
	if cfg.WorkerPoolSize != 4 {
		t.Fatalf("pool size = %d", cfg.WorkerPoolSize)
	}
	if cfg.JobLeaseTTL != 15*time.Minute {
		t.Fatalf("lease ttl = %s", cfg.JobLeaseTTL)
	}
	if cfg.DefaultLocale != "en" {
		t.Fatalf("default locale = %q", cfg.DefaultLocale)
	}
}

func TestLoadConfigRequiredVars(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ADMIN_JWT_SECRET", "s")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/db")
	t.Setenv("ADMIN_JWT_SECRET", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without ADMIN_JWT_SECRET")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("WORKER_POOL_SIZE", "9")
	t.Setenv("JOB_LEASE_MINUTES", "5")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.WorkerPoolSize != 9 {
		t.Fatalf("pool size = %d", cfg.WorkerPoolSize)
	}
	if cfg.JobLeaseTTL != 5*time.Minute {
		t.Fatalf("lease ttl = %s", cfg.JobLeaseTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors = %v", cfg.CORSOrigins)
	}
}
