package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type CommissionConfig struct {
	Mode      string
	FixedRate float64
}

type CompanyConfig struct {
	Name    string
	CUIT    string
	Address string
	Phone   string
}

type OperationsConfig struct {
	StrictTickets  bool
	RequireUSDRate bool
}

type OCRConfig struct {
	Endpoint   string
	APIKey     string
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Commission  CommissionConfig
	Company     CompanyConfig
	Operations  OperationsConfig
	OCR         OCRConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	v.SetDefault("COMMISSION_MODE", "auto-diff")
	v.SetDefault("COMMISSION_FIXED_RATE", 10)
	v.SetDefault("COMPANY_NAME", "Cereales Rivadavia S.A.")
	v.SetDefault("OPERATIONS_STRICT_TICKETS", true)
	v.SetDefault("OPERATIONS_REQUIRE_USD_RATE", true)
	v.SetDefault("OCR_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta/models")
	v.SetDefault("OCR_MODEL", "gemini-2.5-flash")
	v.SetDefault("OCR_MAX_RETRIES", 3)
	v.SetDefault("OCR_TIMEOUT", "30s")

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:        v.GetString("HTTP_HOST"),
			Port:        v.GetInt("HTTP_PORT"),
			CORSOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Commission: CommissionConfig{
			Mode:      strings.ToLower(strings.TrimSpace(v.GetString("COMMISSION_MODE"))),
			FixedRate: v.GetFloat64("COMMISSION_FIXED_RATE"),
		},
		Company: CompanyConfig{
			Name:    v.GetString("COMPANY_NAME"),
			CUIT:    v.GetString("COMPANY_CUIT"),
			Address: v.GetString("COMPANY_ADDRESS"),
			Phone:   v.GetString("COMPANY_PHONE"),
		},
		Operations: OperationsConfig{
			StrictTickets:  v.GetBool("OPERATIONS_STRICT_TICKETS"),
			RequireUSDRate: v.GetBool("OPERATIONS_REQUIRE_USD_RATE"),
		},
		OCR: OCRConfig{
			Endpoint:   v.GetString("OCR_ENDPOINT"),
			APIKey:     v.GetString("OCR_API_KEY"),
			Model:      v.GetString("OCR_MODEL"),
			MaxRetries: v.GetInt("OCR_MAX_RETRIES"),
			Timeout:    v.GetDuration("OCR_TIMEOUT"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if len(cfg.HTTP.CORSOrigins) == 0 {
		cfg.HTTP.CORSOrigins = []string{"http://localhost:5173"}
	}
	if cfg.Commission.Mode == "" {
		cfg.Commission.Mode = "auto-diff"
	}
	if cfg.OCR.MaxRetries <= 0 {
		cfg.OCR.MaxRetries = 1
	}
	if cfg.OCR.Timeout <= 0 {
		cfg.OCR.Timeout = 30 * time.Second
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Commission.Mode != "auto-diff" && cfg.Commission.Mode != "fixed" {
		return fmt.Errorf("COMMISSION_MODE must be auto-diff or fixed, got %q", cfg.Commission.Mode)
	}
	if cfg.Commission.FixedRate < 0 {
		return fmt.Errorf("COMMISSION_FIXED_RATE must not be negative")
	}
	if cfg.DB.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(cfg.DB.ConnMaxLifetime); err != nil {
			return fmt.Errorf("DB_CONN_MAX_LIFETIME: %w", err)
		}
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
