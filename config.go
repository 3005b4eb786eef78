package auth

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvConfig is a Config backed by environment variables. Zero values
// fall back to development-friendly defaults; the signing key has no
// default and must be provided.
type EnvConfig struct {
	SigningKey        string
	SigningMethod     string
	Issuer            string
	Audience          []string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	ResetTokenTTL     time.Duration
	AuthCookieName    string
	RefreshCookieName string
	CSRFCookieName    string
	AllowedOrigins    []string
	APIVersion        string
	Production        bool
}

var _ Config = (*EnvConfig)(nil)

// NewConfigFromEnv loads configuration from the environment, reading a
// .env file first when one is present.
func NewConfigFromEnv() *EnvConfig {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	return &EnvConfig{
		SigningKey:        os.Getenv("AUTH_SIGNING_KEY"),
		SigningMethod:     envString("AUTH_SIGNING_METHOD", "HS256"),
		Issuer:            envString("AUTH_ISSUER", ""),
		Audience:          envList("AUTH_AUDIENCE"),
		AccessTokenTTL:    envDuration("AUTH_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:   envDuration("AUTH_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		ResetTokenTTL:     envDuration("AUTH_RESET_TOKEN_TTL", 30*time.Minute),
		AuthCookieName:    envString("AUTH_COOKIE_NAME", "access_token"),
		RefreshCookieName: envString("AUTH_REFRESH_COOKIE_NAME", "refresh_token"),
		CSRFCookieName:    envString("AUTH_CSRF_COOKIE_NAME", "csrf_token"),
		AllowedOrigins:    envList("AUTH_ALLOWED_ORIGINS"),
		APIVersion:        envString("AUTH_API_VERSION", "v1"),
		Production:        envBool("AUTH_PRODUCTION", false),
	}
}

func (c *EnvConfig) GetSigningKey() string    { return c.SigningKey }
func (c *EnvConfig) GetSigningMethod() string { return c.SigningMethod }
func (c *EnvConfig) GetIssuer() string        { return c.Issuer }
func (c *EnvConfig) GetAudience() []string    { return c.Audience }

func (c *EnvConfig) GetAccessTokenTTL() time.Duration {
	if c.AccessTokenTTL <= 0 {
		return 15 * time.Minute
	}
	return c.AccessTokenTTL
}

func (c *EnvConfig) GetRefreshTokenTTL() time.Duration {
	if c.RefreshTokenTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.RefreshTokenTTL
}

func (c *EnvConfig) GetResetTokenTTL() time.Duration {
	if c.ResetTokenTTL <= 0 {
		return 30 * time.Minute
	}
	return c.ResetTokenTTL
}

func (c *EnvConfig) GetAuthCookieName() string {
	if c.AuthCookieName == "" {
		return "access_token"
	}
	return c.AuthCookieName
}

func (c *EnvConfig) GetRefreshCookieName() string {
	if c.RefreshCookieName == "" {
		return "refresh_token"
	}
	return c.RefreshCookieName
}

func (c *EnvConfig) GetCSRFCookieName() string {
	if c.CSRFCookieName == "" {
		return "csrf_token"
	}
	return c.CSRFCookieName
}

func (c *EnvConfig) GetAllowedOrigins() []string { return c.AllowedOrigins }

func (c *EnvConfig) GetAPIVersion() string {
	if c.APIVersion == "" {
		return "v1"
	}
	return c.APIVersion
}

func (c *EnvConfig) IsProduction() bool { return c.Production }

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
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
	return out
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}

	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}
