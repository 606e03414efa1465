package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config groups the application configuration, read via Viper from the
// environment and optionally from a .env/config.env file.
type Config struct {
	App     AppConfig
	DB      DBConfig
	HTTP    HTTPConfig
	JWT     JWTConfig
	Billing BillingConfig
	DATEV   DATEVConfig
}

// AppConfig general application settings.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// DBConfig PostgreSQL settings. If DatabaseURL is set it is used as the full
// connection string; otherwise the DSN is built from the individual fields.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString returns DatabaseURL when set, otherwise the built DSN.
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN builds the PostgreSQL connection string with URL encoding for special
// characters in the password.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// HTTPConfig HTTP server settings.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr returns the listen address (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JWTConfig bearer token settings. Tokens are issued by the identity service;
// this API only validates them.
type JWTConfig struct {
	Secret string
	Issuer string
}

// BillingConfig document lifecycle settings: number prefixes per document
// type, the default payment terms and the default costing overhead.
type BillingConfig struct {
	OfferPrefix        string
	OrderPrefix        string
	InvoicePrefix      string
	NetTermsDays       int
	DefaultOverheadPct decimal.Decimal
	OverdueCron        string // cron spec for the overdue sweep; empty disables it
}

// DATEVConfig export defaults. The account mapping itself is supplied by the
// caller per export.
type DATEVConfig struct {
	DefaultContraAccount string // debtor collective account, e.g. "10000"
}

// Load reads the configuration from environment variables (and optionally from
// a file). Env vars take precedence. Expected names: APP_ENV, DB_HOST,
// JWT_SECRET, BILLING_INVOICE_PREFIX, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // optional file

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	overheadPct, err := decimal.NewFromString(getString(v, "BILLING_DEFAULT_OVERHEAD_PCT", "10"))
	if err != nil {
		return nil, fmt.Errorf("BILLING_DEFAULT_OVERHEAD_PCT: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "billing-api"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "billing"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		JWT: JWTConfig{
			Secret: getString(v, "JWT_SECRET", ""),
			Issuer: getString(v, "JWT_ISSUER", "billing-api"),
		},
		Billing: BillingConfig{
			OfferPrefix:        getString(v, "BILLING_OFFER_PREFIX", "AN"),
			OrderPrefix:        getString(v, "BILLING_ORDER_PREFIX", "AB"),
			InvoicePrefix:      getString(v, "BILLING_INVOICE_PREFIX", "RE"),
			NetTermsDays:       getInt(v, "BILLING_NET_TERMS_DAYS", 14),
			DefaultOverheadPct: overheadPct,
			OverdueCron:        getString(v, "BILLING_OVERDUE_CRON", "0 3 * * *"),
		},
		DATEV: DATEVConfig{
			DefaultContraAccount: getString(v, "DATEV_CONTRA_ACCOUNT", "10000"),
		},
	}

	if cfg.App.Env != "development" && cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required outside development")
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		if s := v.GetString(key); s != "" {
			return s
		}
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		if n := v.GetInt(key); n != 0 {
			return n
		}
	}
	return def
}
