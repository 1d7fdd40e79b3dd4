package config

import (
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port                  string        `mapstructure:"PORT"`
	Env                   string        `mapstructure:"ENV"`
	LogLevel              string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL           string        `mapstructure:"DATABASE_URL"`
	DBMaxConns            int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns            int32         `mapstructure:"DB_MIN_CONNS"`
	DBSchema              string        `mapstructure:"DB_SCHEMA"`
	JWTSigningKey         string        `mapstructure:"JWT_SIGNING_KEY"`
	JWTIssuer             string        `mapstructure:"JWT_ISSUER"`
	TokenTTL              time.Duration `mapstructure:"TOKEN_TTL"`
	BcryptCost            int           `mapstructure:"BCRYPT_COST"`
	AllowOpenRegistration bool          `mapstructure:"ALLOW_OPEN_REGISTRATION"`
	CORSOrigins           []string      `mapstructure:"CORS_ORIGINS"`
	TrustedProxies        []string      `mapstructure:"TRUSTED_PROXIES"`
	LoginRateLimitRPS     float64       `mapstructure:"LOGIN_RATE_LIMIT_RPS"`
	LoginRateLimitBurst   int           `mapstructure:"LOGIN_RATE_LIMIT_BURST"`
	BodyLimit             string        `mapstructure:"BODY_LIMIT"`
	PDFPageSize           string        `mapstructure:"PDF_PAGE_SIZE"`
	CurrencySymbol        string        `mapstructure:"CURRENCY_SYMBOL"`
	InvoiceQR             bool          `mapstructure:"INVOICE_QR"`
	HospitalName          string        `mapstructure:"HOSPITAL_NAME"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_SCHEMA",
	"JWT_SIGNING_KEY", "JWT_ISSUER", "TOKEN_TTL", "BCRYPT_COST", "ALLOW_OPEN_REGISTRATION",
	"CORS_ORIGINS", "TRUSTED_PROXIES", "LOGIN_RATE_LIMIT_RPS", "LOGIN_RATE_LIMIT_BURST", "BODY_LIMIT",
	"PDF_PAGE_SIZE", "CURRENCY_SYMBOL", "INVOICE_QR", "HOSPITAL_NAME",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("JWT_ISSUER", "frontdesk")
	v.SetDefault("TOKEN_TTL", "8h")
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("ALLOW_OPEN_REGISTRATION", true)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOGIN_RATE_LIMIT_RPS", 1)
	v.SetDefault("LOGIN_RATE_LIMIT_BURST", 5)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("PDF_PAGE_SIZE", "Letter")
	v.SetDefault("CURRENCY_SYMBOL", "Rs.")
	v.SetDefault("INVOICE_QR", false)
	v.SetDefault("HOSPITAL_NAME", "Hospital")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	cfg.TrustedProxies = splitList(v.GetString("TRUSTED_PROXIES"))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SigningKey decodes JWT_SIGNING_KEY. In development an empty key yields a
// fixed insecure key so the server can start without setup.
func (c *Config) SigningKey() ([]byte, error) {
	if c.JWTSigningKey == "" {
		if c.IsDev() {
			return []byte("frontdesk-development-signing-key"), nil
		}
		return nil, fmt.Errorf("JWT_SIGNING_KEY is required outside development")
	}
	key, err := hex.DecodeString(c.JWTSigningKey)
	if err != nil {
		return nil, fmt.Errorf("JWT_SIGNING_KEY is not valid hex: %w", err)
	}
	if len(key) < 32 {
		return nil, fmt.Errorf("JWT_SIGNING_KEY must be at least 32 bytes (64 hex chars), got %d bytes", len(key))
	}
	return key, nil
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if _, err := c.SigningKey(); err != nil {
		return err
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	switch strings.ToLower(c.PDFPageSize) {
	case "letter", "a4":
	default:
		return fmt.Errorf("PDF_PAGE_SIZE must be \"Letter\" or \"A4\", got %q", c.PDFPageSize)
	}
	if c.LoginRateLimitRPS <= 0 || c.LoginRateLimitBurst <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT_RPS and LOGIN_RATE_LIMIT_BURST must be positive")
	}
	if _, err := c.TrustedProxyRanges(); err != nil {
		return err
	}
	if c.IsProduction() && c.AllowOpenRegistration {
		return fmt.Errorf("ALLOW_OPEN_REGISTRATION must be false in production")
	}
	return nil
}

// TrustedProxyRanges parses TRUSTED_PROXIES. Each entry is a CIDR or a
// single address.
func (c *Config) TrustedProxyRanges() ([]*net.IPNet, error) {
	var ranges []*net.IPNet
	for _, p := range c.TrustedProxies {
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", p)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			ranges = append(ranges, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipNet, err := net.ParseCIDR(p)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid range %q", p)
		}
		ranges = append(ranges, ipNet)
	}
	return ranges, nil
}
