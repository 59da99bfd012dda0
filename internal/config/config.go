package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	PesapalProductionURL = "https://pay.pesapal.com/v3/api"
	PesapalSandboxURL    = "https://cybqa.pesapal.com/pesapalv3/api"
)

type Config struct {
	// Server configuration
	Port        string
	Mode        string
	Environment string
	ServiceName string

	// Public domains used to build callback and IPN URLs
	BaseDomains []string
	CORSOrigins []string

	// Database configuration
	DatabaseURL string

	// Redis configuration (optional)
	RedisURL string

	// Pesapal gateway configuration
	PesapalConsumerKey    string
	PesapalConsumerSecret string
	PesapalBaseURL        string
	PesapalTimeout        time.Duration

	// Brevo email configuration
	BrevoAPIKey    string
	BrevoFromEmail string
	BrevoFromName  string

	// Admin session configuration
	SessionSecret string
	SessionTTL    time.Duration

	// Default admin account
	AdminUsername string
	AdminPassword string
	AdminEmail    string

	RateLimitPerMinute int
}

var AppConfig *Config

// InitConfig loads configuration into AppConfig
func InitConfig() error {
	// Missing .env is fine
	_ = godotenv.Load()

	AppConfig = Load()
	return nil
}

// Load reads configuration from the environment
func Load() *Config {
	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Port:                  getEnv("PORT", "5000"),
		Mode:                  getEnv("GIN_MODE", "debug"),
		Environment:           env,
		ServiceName:           getEnv("SERVICE_NAME", "Family Peace Foundation"),
		BaseDomains:           getEnvList("BASE_DOMAINS", []string{"localhost:5000"}),
		CORSOrigins:           getEnvList("CORS_ORIGINS", nil),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RedisURL:              getEnv("REDIS_URL", ""),
		PesapalConsumerKey:    getEnv("PESAPAL_CONSUMER_KEY", ""),
		PesapalConsumerSecret: getEnv("PESAPAL_CONSUMER_SECRET", ""),
		PesapalBaseURL:        getEnv("PESAPAL_BASE_URL", ""),
		PesapalTimeout:        time.Duration(getEnvInt("PESAPAL_TIMEOUT_SECONDS", 30)) * time.Second,
		BrevoAPIKey:           getEnv("BREVO_API_KEY", ""),
		BrevoFromEmail:        getEnv("BREVO_FROM_EMAIL", ""),
		BrevoFromName:         getEnv("BREVO_FROM_NAME", "Family Peace Foundation"),
		SessionSecret:         getEnv("SESSION_SECRET", "change-me-in-production"),
		SessionTTL:            time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		AdminUsername:         getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:         getEnv("ADMIN_PASSWORD", "admin123"),
		AdminEmail:            getEnv("ADMIN_EMAIL", "admin@familypeace.org"),
		RateLimitPerMinute:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	if cfg.PesapalBaseURL == "" {
		if cfg.IsProduction() {
			cfg.PesapalBaseURL = PesapalProductionURL
		} else {
			cfg.PesapalBaseURL = PesapalSandboxURL
		}
	}

	return cfg
}

// IsProduction reports whether the process runs against the live gateway
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PublicBaseURL returns scheme://domain for the first configured domain
func (c *Config) PublicBaseURL() string {
	domain := "localhost:5000"
	if len(c.BaseDomains) > 0 && c.BaseDomains[0] != "" {
		domain = c.BaseDomains[0]
	}
	scheme := "https"
	if strings.Contains(domain, "localhost") {
		scheme = "http"
	}
	return scheme + "://" + domain
}

// IPNURL is the notification URL registered with the gateway
func (c *Config) IPNURL() string {
	return c.PublicBaseURL() + "/api/payments/webhook"
}

// CallbackURL is where the payer lands after the hosted payment page
func (c *Config) CallbackURL(merchantReference string) string {
	return c.PublicBaseURL() + "/payment-success?ref=" + merchantReference
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
