package extension

import (
	"github.com/xraph/grove"

	provenance "github.com/xraph/provenance"
	"github.com/xraph/provenance/plugin"
	"github.com/xraph/provenance/store"
	"github.com/xraph/provenance/wallet"
)

// Option configures the Provenance Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine, bypassing driver selection.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithDatabase supplies the grove database used when the configured
// driver is "postgres", "sqlite", or "mongo".
func WithDatabase(db *grove.DB) Option {
	return func(e *Extension) {
		e.db = db
	}
}

// WithEngineOption passes a provenance.Option through to the underlying engine.
func WithEngineOption(opt provenance.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a provenance plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, provenance.WithPlugin(p))
	}
}

// WithWallet sets the external wallet used for withdrawal payouts.
func WithWallet(w wallet.Wallet) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, provenance.WithWallet(w))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithDriver selects the store backend ("memory", "postgres", "sqlite", "mongo").
func WithDriver(driver string) Option {
	return func(e *Extension) { e.config.Driver = driver }
}

// WithPricingPolicy names the pricing-policy plugin used for stock pricing.
func WithPricingPolicy(name string) Option {
	return func(e *Extension) { e.config.PricingPolicy = name }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
