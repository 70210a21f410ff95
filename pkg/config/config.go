package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Account provider selection
const (
	ProviderGoTrue = "gotrue"
	ProviderLocal  = "local"
	ProviderInMem  = "inmem"
)

// Environment represents different deployment environments
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
	Test        Environment = "test"
)

// Config is the configuration of cmd/register.
type Config struct {
	AppEnv   string `env:"APP_ENV" env-default:"development"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
	BaseURL  string `env:"BASE_URL" env-default:"http://localhost:4000"`

	// Page shell
	PageLang  string `env:"PAGE_LANG" env-default:"fi"`
	PageTitle string `env:"PAGE_TITLE" env-default:"Rekisteröidy"`

	// Account provider
	AuthProvider string `env:"AUTH_PROVIDER" env-default:"inmem"`
	GoTrue       GoTrueConfig

	// Local provider
	Database     DatabaseConfig
	Email        EmailConfig
	ConfirmToken ConfirmTokenConfig

	Signup             SignupConfig
	PasswordComplexity PasswordComplexityConfig
	RateLimit          RateLimitConfig
	ViewSession        ViewSessionConfig

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
}

// GoTrueConfig points at a hosted GoTrue (Supabase Auth) instance
type GoTrueConfig struct {
	URL            string        `env:"GOTRUE_URL" env-default:""`
	APIKey         string        `env:"GOTRUE_API_KEY" env-default:""`
	RetryMax       int           `env:"GOTRUE_RETRY_MAX" env-default:"0"`
	RequestTimeout time.Duration `env:"GOTRUE_REQUEST_TIMEOUT" env-default:"10s"`
}

// ConfirmTokenConfig signs the confirmation links of the local provider
type ConfirmTokenConfig struct {
	Secret string        `env:"CONFIRM_TOKEN_SECRET" env-default:""`
	Expiry time.Duration `env:"CONFIRM_TOKEN_EXPIRY" env-default:"24h"`
}

// SignupConfig tunes the submission workflow
type SignupConfig struct {
	Timeout   time.Duration `env:"SIGNUP_TIMEOUT" env-default:"15s"`
	DOBLocale string        `env:"DOB_LOCALE" env-default:"fi-FI"`
}

// ViewSessionConfig controls the view session cookie and its expiry
type ViewSessionConfig struct {
	TTL             time.Duration `env:"VIEW_SESSION_TTL" env-default:"30m"`
	CleanupInterval time.Duration `env:"VIEW_SESSION_CLEANUP_INTERVAL" env-default:"5m"`
	SecureCookie    bool          `env:"COOKIE_SECURE" env-default:"false"`
	MaxSessions     int           `env:"VIEW_SESSION_MAX" env-default:"10000"`
}

// Load reads .env (when present) and the environment into a Config.
func Load() (Config, error) {
	loadEnvFile()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadEnvFile loads environment variables from .env next to the binary or in the working directory
func loadEnvFile() {
	var envFile string
	if execPath, err := os.Executable(); err == nil {
		envFile = filepath.Join(filepath.Dir(execPath), ".env")
	}
	if _, err := os.Stat(envFile); envFile == "" || os.IsNotExist(err) {
		cwd, _ := os.Getwd()
		envFile = filepath.Join(cwd, ".env")
	}
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		slog.Debug("No .env file found (using environment variables or defaults)")
		return
	}

	slog.Info("Loading configuration from .env file", "path", envFile)
	if err := godotenv.Load(envFile); err != nil {
		slog.Warn("Failed to load .env file", "error", err)
	}
}

// Environment returns the deployment environment named by APP_ENV
func (c Config) Environment() Environment {
	switch strings.ToLower(c.AppEnv) {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	case "test", "testing":
		return Test
	default:
		return Development
	}
}

// CallbackURL is where confirmation emails send the user back to.
func (c Config) CallbackURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/auth/callback"
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks the values the selected provider needs.
func (c Config) Validate() error {
	return Validate(
		func() ValidationErrors {
			return CollectErrors(
				RequireValidURL("BASE_URL", c.BaseURL),
				RequireOneOf("AUTH_PROVIDER", c.AuthProvider, []string{ProviderGoTrue, ProviderLocal, ProviderInMem}),
				RequireNonNegativeDuration("SIGNUP_TIMEOUT", c.Signup.Timeout),
				RequirePositiveDuration("VIEW_SESSION_TTL", c.ViewSession.TTL),
				RequirePositiveDuration("VIEW_SESSION_CLEANUP_INTERVAL", c.ViewSession.CleanupInterval),
				RequireNonNegative("VIEW_SESSION_MAX", c.ViewSession.MaxSessions),
				RequireNonEmptySlice("CORS_ALLOWED_ORIGINS", c.CORSAllowedOrigins),
			)
		},
		c.validateProvider,
		c.validateProduction,
	)
}

func (c Config) validateProvider() ValidationErrors {
	switch c.AuthProvider {
	case ProviderGoTrue:
		return CollectErrors(
			RequireValidURL("GOTRUE_URL", c.GoTrue.URL),
			RequireNonEmpty("GOTRUE_API_KEY", c.GoTrue.APIKey),
			RequireNonNegative("GOTRUE_RETRY_MAX", c.GoTrue.RetryMax),
		)
	case ProviderLocal, ProviderInMem:
		errs := CollectErrors(
			RequireMinLength("CONFIRM_TOKEN_SECRET", c.ConfirmToken.Secret, 16),
			RequirePositiveDuration("CONFIRM_TOKEN_EXPIRY", c.ConfirmToken.Expiry),
		)
		if c.AuthProvider == ProviderLocal {
			errs = append(errs, CollectErrors(
				RequireNonEmpty("REGISTER_PG_HOST", c.Database.Host),
				RequireValidPort("REGISTER_PG_PORT", c.Database.Port),
				RequireNonEmpty("REGISTER_PG_DATABASE", c.Database.Database),
			)...)
		}
		if c.Email.Enabled {
			errs = append(errs, CollectErrors(
				RequireNonEmpty("EMAIL_HOST", c.Email.Host),
				RequireValidPort("EMAIL_PORT", c.Email.Port),
				RequireValidEmail("EMAIL_FROM", c.Email.From),
			)...)
		}
		return errs
	}
	return nil
}

func (c Config) validateProduction() ValidationErrors {
	if c.Environment() != Production {
		return nil
	}
	return CollectErrors(
		RequireHTTPSURL("BASE_URL", c.BaseURL),
		requireTrue("COOKIE_SECURE", c.ViewSession.SecureCookie),
	)
}

func requireTrue(field string, value bool) *ValidationError {
	if !value {
		return &ValidationError{Field: field, Message: "must be enabled in production"}
	}
	return nil
}
