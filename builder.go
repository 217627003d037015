package credgate

import (
	"errors"

	"github.com/credgate/credgate/ledger"
	"github.com/credgate/credgate/password"
	"github.com/credgate/credgate/token"
)

// Builder defines a public type used by credgate APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	store     CredentialStore
	ledger    ledger.Ledger
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSigningKey sets the symmetric token signing key on the current
// configuration.
func (b *Builder) WithSigningKey(key []byte) *Builder {
	b.config.Token.SigningKey = cloneBytes(key)
	return b
}

// WithStore sets the credential store implementation.
func (b *Builder) WithStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithLedger sets the revocation ledger implementation.
func (b *Builder) WithLedger(l ledger.Ledger) *Builder {
	b.ledger = l
	return b
}

// WithAuditSink sets the audit sink and enables audit dispatch.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled toggles in-process metrics collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the verify-path latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and dependencies and constructs the
// engine. A builder is single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("credential store required")
	}
	if b.ledger == nil {
		return nil, errors.New("revocation ledger required")
	}

	tm, err := token.NewManager(token.Config{
		SigningKey: cloneBytes(cfg.Token.SigningKey),
		Algorithm:  cfg.Token.Algorithm,
		Issuer:     cfg.Token.Issuer,
	})
	if err != nil {
		return nil, err
	}

	ph, err := password.NewHasher(password.Config{
		Cost:      cfg.Password.Cost,
		MinLength: cfg.Password.MinLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:    cfg,
		store:     b.store,
		ledger:    b.ledger,
		tokens:    tm,
		passwords: ph,
		audit:     newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:   NewMetrics(cfg.Metrics),
	}

	b.built = true

	return engine, nil
}
