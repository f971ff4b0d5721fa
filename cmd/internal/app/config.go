package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// LaunchConfigPath points at the YAML routing configuration.
	LaunchConfigPath string

	// TrustProxy enables X-Forwarded-* headers when reconstructing the
	// signed launch URL. Only set behind a trusted reverse proxy.
	TrustProxy bool

	// SecureCookies marks session cookies Secure; enable whenever the
	// external scheme is https.
	SecureCookies bool

	// SessionTTL bounds launch session lifetime.
	SessionTTL time.Duration

	// MaxBodyBytes bounds launch and admin request bodies.
	MaxBodyBytes int64

	// AdminToken guards the consumer registration endpoint. Empty disables
	// the admin surface.
	AdminToken string
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("LTIGATE_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("LTIGATE_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("LTIGATE_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("LTIGATE_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("LTIGATE_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("LTIGATE_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("LTIGATE_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("LTIGATE_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("LTIGATE_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("LTIGATE_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("LTIGATE_READINESS_REQUIRE_DB", false),

		LaunchConfigPath: EnvString("LTIGATE_LAUNCH_CONFIG", "launch.yaml"),
		TrustProxy:       EnvBool("LTIGATE_TRUST_PROXY", false),
		SecureCookies:    EnvBool("LTIGATE_SECURE_COOKIES", false),
		SessionTTL:       EnvDuration("LTIGATE_SESSION_TTL", 8*time.Hour),
		MaxBodyBytes:     EnvInt64("LTIGATE_MAX_BODY_BYTES", 1<<20),
		AdminToken:       EnvString("LTIGATE_ADMIN_TOKEN", ""),
	}
}
