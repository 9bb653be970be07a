package config

import "time"

// StubConfig collects the knobs of the development stub server.  The stub
// emulates the LocaTrova backend for local work and integration tests, so
// every value has a default and nothing is required.
type StubConfig struct {
	Port           string // HTTP port the stub listens on
	JWTSecret      string // secret used to sign access tokens
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	RateLimit      RateLimitConfig
}

// RateLimitConfig defines the stub's fixed-window rate limiter.  When
// Enabled is false or no redis client could be constructed, limiting is
// disabled and requests pass through untouched.
type RateLimitConfig struct {
	Enabled bool
	Limit   int           // requests allowed per window
	Window  time.Duration // window length
}

// LoadStub reads the stub server configuration from environment variables,
// applying defaults for everything that is unset.
func LoadStub() StubConfig {
	return StubConfig{
		Port:           getenv("STUB_PORT", "8085"),
		JWTSecret:      getenv("STUB_JWT_SECRET", "locatrova-dev-secret"),
		AccessTTLMin:   atoi(getenv("STUB_ACCESS_TTL_MIN", "15")),
		RefreshTTLDays: atoi(getenv("STUB_REFRESH_TTL_DAYS", "7")),
		RateLimit: RateLimitConfig{
			Enabled: getenv("STUB_RATELIMIT_ENABLED", "false") == "true",
			Limit:   atoi(getenv("STUB_RATELIMIT_LIMIT", "60")),
			Window:  parseDur(getenv("STUB_RATELIMIT_WINDOW", "1m")),
		},
	}
}
