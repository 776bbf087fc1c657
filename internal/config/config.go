package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	BlobDriver     string // fs|minio
	BlobBasePath   string // for fs
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	BankManifest string // YAML manifest of collection files; empty = built-in layout

	AuthSecret      string
	EnableLocalAuth bool
	EnableGuestAuth bool

	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	LogLevel string
	LogFile  string // rotated JSON log; empty disables

	RateLimitRPS   float64
	RateLimitBurst int

	ExamTimeLimit time.Duration
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:               mode,
		HTTPAddr:           envOr("HTTP_ADDR", ":8080"),
		DBDriver:           envOr("DB_DRIVER", "sqlite"),
		DBDSN:              envOr("DB_DSN", ""),
		BlobDriver:         envOr("BLOB_DRIVER", "fs"),
		BlobBasePath:       envOr("BLOB_BASE_PATH", "./data/bank"),
		MinioEndpoint:      envOr("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:     os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:     os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:        envOr("MINIO_BUCKET", "question-bank"),
		MinioUseSSL:        envBool("MINIO_USE_SSL", mode == ModeOnline),
		BankManifest:       os.Getenv("BANK_MANIFEST"),
		AuthSecret:         envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		EnableLocalAuth:    envBool("ENABLE_LOCAL_AUTH", true),
		EnableGuestAuth:    envBool("ENABLE_GUEST_AUTH", true),
		AdminUser:          envOr("ADMIN_USER", "admin"),
		AdminPassHash:      envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://exam.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),
		LogLevel:           envOr("LOG_LEVEL", "info"),
		LogFile:            os.Getenv("LOG_FILE"),
		RateLimitRPS:       envFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     envInt("RATE_LIMIT_BURST", 20),
		ExamTimeLimit:      time.Duration(envInt("EXAM_TIME_LIMIT_SEC", 65*60)) * time.Second,
	}
}

// CORSOrigins returns the allow-list for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return v
	}
	return def
}
func envFloat(k string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil {
		return v
	}
	return def
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
