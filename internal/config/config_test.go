package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("MODE", "")
	t.Setenv("EXAM_TIME_LIMIT_SEC", "")
	cfg := FromEnv()
	if cfg.Mode != ModeOffline || cfg.HTTPAddr != ":8080" || cfg.DBDriver != "sqlite" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ExamTimeLimit != 65*time.Minute {
		t.Fatalf("default time limit: %v", cfg.ExamTimeLimit)
	}
	if len(cfg.CORSOrigins()) != 2 {
		t.Fatalf("offline origins: %v", cfg.CORSOrigins())
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("EXAM_TIME_LIMIT_SEC", "600")
	t.Setenv("ENABLE_GUEST_AUTH", "no")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")
	cfg := FromEnv()
	if cfg.ExamTimeLimit != 10*time.Minute || cfg.EnableGuestAuth || cfg.RateLimitRPS != 2.5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if got := cfg.CORSOrigins(); len(got) != 2 || got[1] != "https://b.example" {
		t.Fatalf("online origins: %v", got)
	}
	if !cfg.MinioUseSSL {
		t.Fatalf("online mode should default minio to SSL")
	}
}
