package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Stockscan"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"stockscan"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"60s"`
		// Maximum accepted upload size in bytes.
		MaxUpload      int64         `envconfig:"SERVER_MAX_UPLOAD" default:"20971520"`
		AllowedOrigins []string      `envconfig:"SERVER_ALLOWED_ORIGINS" default:"*"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"console"`
	}

	Pricing struct {
		TaxRate string `envconfig:"PRICING_TAX_RATE" default:"0.20"`
		Markup  string `envconfig:"PRICING_MARKUP" default:"0.40"`
	}

	Fiscal struct {
		VerifyURL           string        `envconfig:"FISCAL_VERIFY_URL" default:"https://efiskalizimi-app.tatime.gov.al/invoice-check"`
		RenderTimeout       time.Duration `envconfig:"FISCAL_RENDER_TIMEOUT" default:"30s"`
		DefaultExchangeRate string        `envconfig:"FISCAL_DEFAULT_EXCHANGE_RATE" default:"98.0"`
		MinPageLength       int           `envconfig:"FISCAL_MIN_PAGE_LENGTH" default:"500"`
	}

	OCR struct {
		Language       string `envconfig:"OCR_LANGUAGE" default:"eng+sqi"`
		TessdataPrefix string `envconfig:"OCR_TESSDATA_PREFIX"`
	}

	// Own business name, never reported as the invoice counterpart.
	Business struct {
		Name string `envconfig:"BUSINESS_NAME"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// TaxRate returns the configured purchase tax rate as a fraction.
func (c *Config) TaxRate() decimal.Decimal {
	return decimal.RequireFromString(c.Pricing.TaxRate)
}

// Markup returns the configured sell markup as a fraction.
func (c *Config) Markup() decimal.Decimal {
	return decimal.RequireFromString(c.Pricing.Markup)
}

// DefaultExchangeRate returns local currency units per EUR used for estimates.
func (c *Config) DefaultExchangeRate() decimal.Decimal {
	return decimal.RequireFromString(c.Fiscal.DefaultExchangeRate)
}

func (c *Config) validate() error {
	rates := map[string]string{
		"PRICING_TAX_RATE":             c.Pricing.TaxRate,
		"PRICING_MARKUP":               c.Pricing.Markup,
		"FISCAL_DEFAULT_EXCHANGE_RATE": c.Fiscal.DefaultExchangeRate,
	}

	for key, raw := range rates {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", key, err)
		}

		if d.IsNegative() {
			return fmt.Errorf("%s must not be negative", key)
		}
	}

	if decimal.RequireFromString(c.Fiscal.DefaultExchangeRate).IsZero() {
		return fmt.Errorf("FISCAL_DEFAULT_EXCHANGE_RATE must be positive")
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
