// Package extension provides the Forge extension adapter for Provenance.
//
// It implements the forge.Extension interface to integrate the provenance
// engine into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.provenance" or
// "provenance" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	provenance "github.com/xraph/provenance"
	"github.com/xraph/provenance/store"
	"github.com/xraph/provenance/store/memory"
	"github.com/xraph/provenance/store/mongo"
	"github.com/xraph/provenance/store/postgres"
	"github.com/xraph/provenance/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "provenance"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Supply-chain provenance and settlement engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Provenance as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *provenance.Engine
	store      store.Store
	db         *grove.DB
	engineOpts []provenance.Option
}

// New creates a new Provenance Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying provenance engine.
// This is nil until Register is called.
func (e *Extension) Engine() *provenance.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		s, err := e.buildStore()
		if err != nil {
			return err
		}
		e.store = s
	}

	opts := e.buildEngineOpts()

	eng := provenance.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*provenance.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("provenance: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("provenance: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildStore constructs the store backend from the resolved config.
func (e *Extension) buildStore() (store.Store, error) {
	switch e.config.Driver {
	case "", "memory":
		return memory.New(), nil
	case "postgres":
		if e.db == nil {
			return nil, errors.New("provenance: postgres driver requires a grove database (use WithDatabase)")
		}
		return postgres.New(e.db), nil
	case "sqlite":
		if e.db == nil {
			return nil, errors.New("provenance: sqlite driver requires a grove database (use WithDatabase)")
		}
		return sqlite.New(e.db), nil
	case "mongo":
		if e.db == nil {
			return nil, errors.New("provenance: mongo driver requires a grove database (use WithDatabase)")
		}
		return mongo.New(e.db), nil
	default:
		return nil, fmt.Errorf("provenance: unknown store driver %q", e.config.Driver)
	}
}

// buildEngineOpts constructs provenance.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []provenance.Option {
	opts := make([]provenance.Option, 0, len(e.engineOpts)+1)

	if e.config.PricingPolicy != "" {
		opts = append(opts, provenance.WithPricingPolicy(e.config.PricingPolicy))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("provenance: configuration is required but not found in config files; " +
				"ensure 'extensions.provenance' or 'provenance' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("provenance: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("driver", e.config.Driver),
		forge.F("pricing_policy", e.config.PricingPolicy),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.provenance" first (namespaced pattern).
	if cm.IsSet("extensions.provenance") {
		if err := cm.Bind("extensions.provenance", &cfg); err == nil {
			e.Logger().Debug("provenance: loaded config from file",
				forge.F("key", "extensions.provenance"),
			)
			return cfg, true
		}
		e.Logger().Warn("provenance: failed to bind extensions.provenance config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "provenance" key.
	if cm.IsSet("provenance") {
		if err := cm.Bind("provenance", &cfg); err == nil {
			e.Logger().Debug("provenance: loaded config from file",
				forge.F("key", "provenance"),
			)
			return cfg, true
		}
		e.Logger().Warn("provenance: failed to bind provenance config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Driver == "" {
		cfg.Driver = defaults.Driver
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Driver == "" && programmaticConfig.Driver != "" {
		yamlConfig.Driver = programmaticConfig.Driver
	}
	if yamlConfig.PricingPolicy == "" && programmaticConfig.PricingPolicy != "" {
		yamlConfig.PricingPolicy = programmaticConfig.PricingPolicy
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
