package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-wide configuration. It is built once in main via
// FromEnv and injected; nothing reads the environment mid-algorithm.
type Config struct {
	Addr string

	// PolicyIDs is the ordered SCP enforcement list. Order is preserved in
	// processing and in emitted outcomes. Empty means enforce nothing.
	PolicyIDs []string

	// DuplicateAttachAsSuccess classifies an "already attached" error from
	// the attach call as an attached outcome. Keeps duplicate event delivery
	// convergent; disable to surface duplicates as failures instead.
	DuplicateAttachAsSuccess bool

	Orgs  OrgsConfig
	Audit AuditConfig
	Redis RedisConfig

	JWTSigningKey string
}

// OrgsConfig points at the policy-management backend.
type OrgsConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// AuditConfig configures the audit pipeline hand-off.
type AuditConfig struct {
	KafkaBrokers []string
	Topic        string
	PostgresDSN  string
	Buffer       int
}

// RedisConfig configures the optional redelivery marker.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MarkerTTL    time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("ORGGUARD_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	topic := os.Getenv("ORGGUARD_AUDIT_TOPIC")
	if topic == "" {
		topic = "orgguard.audit.outcomes"
	}

	jwtSigningKey := os.Getenv("ORGGUARD_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Addr:                     addr,
		PolicyIDs:                SplitList(os.Getenv("ORGGUARD_POLICY_IDS")),
		DuplicateAttachAsSuccess: os.Getenv("ORGGUARD_DUPLICATE_ATTACH_AS_SUCCESS") != "false",
		Orgs: OrgsConfig{
			BaseURL: os.Getenv("ORGGUARD_ORGS_BASE_URL"),
			Token:   os.Getenv("ORGGUARD_ORGS_TOKEN"),
			Timeout: durationOrDefault("ORGGUARD_ORGS_TIMEOUT", 10*time.Second),
		},
		Audit: AuditConfig{
			KafkaBrokers: SplitList(os.Getenv("ORGGUARD_KAFKA_BROKERS")),
			Topic:        topic,
			PostgresDSN:  os.Getenv("ORGGUARD_POSTGRES_DSN"),
			Buffer:       1024,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("ORGGUARD_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			MarkerTTL:    durationOrDefault("ORGGUARD_DELIVERY_MARKER_TTL", 24*time.Hour),
		},
		JWTSigningKey: jwtSigningKey,
	}
}

// SplitList parses a comma-delimited list, trimming whitespace and dropping
// empty entries. Order is preserved.
func SplitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
