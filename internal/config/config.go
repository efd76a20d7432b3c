// Package config holds the process configuration. Values come from an
// optional .env file and the environment and are validated once at startup.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/lpernett/godotenv"
)

var ErrMissingUpstreamKey = errors.New("OPENROUTER_API_KEY is required")

const (
	DefaultListenAddr      = ":8100"
	DefaultUpstreamBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel           = "openai/gpt-4o"
	DefaultSiteURL         = "https://drgregpedro.com"
	DefaultSiteTitle       = "Dr. Greg Pedro Dental Practice"
	DefaultDatabasePath    = "dentalchat.db"
	DefaultOfficePhone     = "(347) 344-5806"
	DefaultServerURL       = "http://localhost:8100"
)

type Config struct {
	ListenAddr string

	UpstreamAPIKey  string
	UpstreamBaseURL string
	DefaultModel    string
	SiteURL         string
	SiteTitle       string

	DatabasePath   string
	RedisAddr      string
	RedisPassword  string
	LeadWebhookURL string

	// AllowedOrigins empty means any origin.
	AllowedOrigins []string
	OfficePhone    string

	// AdminToken guards the staff lead listing. Empty disables it.
	AdminToken string

	// ServerURL is where the terminal widget finds a running server.
	ServerURL string
}

// Load reads .env files (if present) and then the environment. A missing
// .env is not an error.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	return FromEnv(os.Getenv), nil
}

// FromEnv builds a Config from a lookup function, applying defaults.
func FromEnv(getenv func(string) string) Config {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	var origins []string
	for _, o := range strings.Split(getenv("ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return Config{
		ListenAddr:      get("LISTEN_ADDR", DefaultListenAddr),
		UpstreamAPIKey:  strings.TrimSpace(getenv("OPENROUTER_API_KEY")),
		UpstreamBaseURL: get("UPSTREAM_BASE_URL", DefaultUpstreamBaseURL),
		DefaultModel:    get("DEFAULT_MODEL", DefaultModel),
		SiteURL:         get("SITE_URL", DefaultSiteURL),
		SiteTitle:       get("SITE_TITLE", DefaultSiteTitle),
		DatabasePath:    get("DATABASE_PATH", DefaultDatabasePath),
		RedisAddr:       get("REDIS_ADDR", ""),
		RedisPassword:   getenv("REDIS_PASSWORD"),
		LeadWebhookURL:  get("LEAD_WEBHOOK_URL", ""),
		AllowedOrigins:  origins,
		OfficePhone:     get("OFFICE_PHONE", DefaultOfficePhone),
		AdminToken:      strings.TrimSpace(getenv("ADMIN_TOKEN")),
		ServerURL:       get("DENTALCHAT_SERVER_URL", DefaultServerURL),
	}
}

// Validate checks the keys the server cannot run without.
func (c Config) Validate() error {
	if c.UpstreamAPIKey == "" {
		return ErrMissingUpstreamKey
	}
	return nil
}

// CORSOrigin is the value for Access-Control-Allow-Origin given the request
// origin, or "" when the origin is not allowed.
func (c Config) CORSOrigin(origin string) string {
	if len(c.AllowedOrigins) == 0 {
		return "*"
	}
	for _, o := range c.AllowedOrigins {
		if o == origin {
			return o
		}
	}
	return ""
}
