package extension

// Config holds the Provenance extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.provenance" or "provenance" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Driver selects the store backend when a grove database is supplied:
	// "postgres", "sqlite", or "mongo". When empty (or "memory") the
	// in-memory store is used and any supplied database is ignored.
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// PricingPolicy names the registered pricing-policy plugin used to
	// compute seller stock prices. Empty means the built-in additive
	// margin pricing.
	PricingPolicy string `json:"pricing_policy" mapstructure:"pricing_policy" yaml:"pricing_policy"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Driver: "memory",
	}
}
