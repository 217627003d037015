package credgate

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

// Config defines a public type used by credgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	Client   ClientConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Security SecurityConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by credgate APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	SigningKey []byte
	Algorithm  string // "hs256" (only supported value)
	AccessTTL  time.Duration
	RenewalTTL time.Duration
	Issuer     string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by credgate APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Cost      int
	MinLength int
}

// ClientConfig defines a public type used by credgate APIs.
//
// ClientConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ClientConfig struct {
	IDLength     int
	SecretLength int
	// AllowPlaintextSecrets keeps the legacy comparison path for stored
	// secrets that predate hashing. Each use emits an audit event so
	// operators can force rotation.
	AllowPlaintextSecrets bool
}

// AuditConfig defines a public type used by credgate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by credgate APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// SecurityConfig defines a public type used by credgate APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	ProductionMode bool
}

const minProductionKeyBytes = 32

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Algorithm:  "hs256",
			AccessTTL:  24 * time.Hour,
			RenewalTTL: 30 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Cost:      12,
			MinLength: 8,
		},
		Client: ClientConfig{
			IDLength:              32,
			SecretLength:          48,
			AllowPlaintextSecrets: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// DefaultConfig returns the baseline configuration. Callers must still set
// Token.SigningKey before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.SigningKey = cloneBytes(cfg.Token.SigningKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.SigningKey) == 0 {
		return errors.New("Token SigningKey is required")
	}
	if c.Security.ProductionMode && len(c.Token.SigningKey) < minProductionKeyBytes {
		return errors.New("Token SigningKey must be at least 32 bytes in production mode")
	}
	if c.Token.Algorithm != "hs256" {
		return errors.New("unsupported token signing algorithm")
	}
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RenewalTTL <= 0 {
		return errors.New("Token RenewalTTL must be > 0")
	}
	if c.Token.RenewalTTL < c.Token.AccessTTL {
		return errors.New("Token RenewalTTL must be >= AccessTTL")
	}

	// Password
	if c.Password.Cost < bcrypt.MinCost || c.Password.Cost > bcrypt.MaxCost {
		return errors.New("Password Cost out of bcrypt range")
	}
	if c.Password.MinLength < 8 {
		return errors.New("Password MinLength must be >= 8")
	}

	// Client credentials
	if c.Client.IDLength < 16 {
		return errors.New("Client IDLength must be >= 16")
	}
	if c.Client.SecretLength < 32 {
		return errors.New("Client SecretLength must be >= 32")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}

/*
====================================
ENVIRONMENT LOADING
====================================
*/

type envConfig struct {
	SigningKey            string        `env:"CREDGATE_SIGNING_KEY"`
	Algorithm             string        `env:"CREDGATE_ALGORITHM"              envDefault:"hs256"`
	Issuer                string        `env:"CREDGATE_ISSUER"`
	AccessTTL             time.Duration `env:"CREDGATE_ACCESS_TTL"             envDefault:"24h"`
	RenewalTTL            time.Duration `env:"CREDGATE_RENEWAL_TTL"            envDefault:"720h"`
	PasswordCost          int           `env:"CREDGATE_PASSWORD_COST"          envDefault:"12"`
	PasswordMinLength     int           `env:"CREDGATE_PASSWORD_MIN_LENGTH"    envDefault:"8"`
	AllowPlaintextSecrets bool          `env:"CREDGATE_ALLOW_PLAINTEXT_SECRETS" envDefault:"true"`
	AuditEnabled          bool          `env:"CREDGATE_AUDIT_ENABLED"          envDefault:"false"`
	MetricsEnabled        bool          `env:"CREDGATE_METRICS_ENABLED"        envDefault:"true"`
	ProductionMode        bool          `env:"CREDGATE_PRODUCTION"             envDefault:"false"`
}

// ConfigFromEnv loads configuration from CREDGATE_* environment variables on
// top of the defaults. The result is validated by [Builder.Build], not here.
func ConfigFromEnv() (Config, error) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return Config{}, err
	}

	cfg := defaultConfig()
	cfg.Token.SigningKey = []byte(ec.SigningKey)
	cfg.Token.Algorithm = ec.Algorithm
	cfg.Token.Issuer = ec.Issuer
	cfg.Token.AccessTTL = ec.AccessTTL
	cfg.Token.RenewalTTL = ec.RenewalTTL
	cfg.Password.Cost = ec.PasswordCost
	cfg.Password.MinLength = ec.PasswordMinLength
	cfg.Client.AllowPlaintextSecrets = ec.AllowPlaintextSecrets
	cfg.Audit.Enabled = ec.AuditEnabled
	cfg.Metrics.Enabled = ec.MetricsEnabled
	cfg.Security.ProductionMode = ec.ProductionMode

	return cfg, nil
}
