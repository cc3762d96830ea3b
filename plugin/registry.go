package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onPlatformInitialized []OnPlatformInitialized
	onPlatformFeeChanged  []OnPlatformFeeChanged
	onUserRegistered      []OnUserRegistered
	onEntityCreated       []OnEntityCreated
	onStockTransferred    []OnStockTransferred
	onProductInspected    []OnProductInspected
	onInspectorPaid       []OnInspectorPaid
	onTransactionPosted   []OnTransactionPosted
	onWithdrawn           []OnWithdrawn
	pricingPolicies       map[string]PricingPolicy
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:          slog.Default(),
		pricingPolicies: make(map[string]PricingPolicy),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnPlatformInitialized); ok {
		r.onPlatformInitialized = append(r.onPlatformInitialized, v)
	}
	if v, ok := p.(OnPlatformFeeChanged); ok {
		r.onPlatformFeeChanged = append(r.onPlatformFeeChanged, v)
	}
	if v, ok := p.(OnUserRegistered); ok {
		r.onUserRegistered = append(r.onUserRegistered, v)
	}
	if v, ok := p.(OnEntityCreated); ok {
		r.onEntityCreated = append(r.onEntityCreated, v)
	}
	if v, ok := p.(OnStockTransferred); ok {
		r.onStockTransferred = append(r.onStockTransferred, v)
	}
	if v, ok := p.(OnProductInspected); ok {
		r.onProductInspected = append(r.onProductInspected, v)
	}
	if v, ok := p.(OnInspectorPaid); ok {
		r.onInspectorPaid = append(r.onInspectorPaid, v)
	}
	if v, ok := p.(OnTransactionPosted); ok {
		r.onTransactionPosted = append(r.onTransactionPosted, v)
	}
	if v, ok := p.(OnWithdrawn); ok {
		r.onWithdrawn = append(r.onWithdrawn, v)
	}
	if v, ok := p.(PricingPolicy); ok {
		r.pricingPolicies[v.PolicyName()] = v
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnPlatformInitialized)(nil)).Elem(), "OnPlatformInitialized")
	checkInterface(reflect.TypeOf((*OnPlatformFeeChanged)(nil)).Elem(), "OnPlatformFeeChanged")
	checkInterface(reflect.TypeOf((*OnUserRegistered)(nil)).Elem(), "OnUserRegistered")
	checkInterface(reflect.TypeOf((*OnEntityCreated)(nil)).Elem(), "OnEntityCreated")
	checkInterface(reflect.TypeOf((*OnStockTransferred)(nil)).Elem(), "OnStockTransferred")
	checkInterface(reflect.TypeOf((*OnTransactionPosted)(nil)).Elem(), "OnTransactionPosted")
	checkInterface(reflect.TypeOf((*OnWithdrawn)(nil)).Elem(), "OnWithdrawn")
	checkInterface(reflect.TypeOf((*PricingPolicy)(nil)).Elem(), "PricingPolicy")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// GetPricingPolicy returns a pricing policy by name.
func (r *Registry) GetPricingPolicy(name string) PricingPolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pricingPolicies[name]
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPlatformInitialized calls OnPlatformInitialized for all plugins that implement it.
func (r *Registry) EmitPlatformInitialized(ctx context.Context, state interface{}) {
	r.mu.RLock()
	plugins := r.onPlatformInitialized
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPlatformInitialized(ctx, state)
		}); err != nil {
			r.logger.Warn("plugin OnPlatformInitialized failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPlatformFeeChanged calls OnPlatformFeeChanged for all plugins that implement it.
func (r *Registry) EmitPlatformFeeChanged(ctx context.Context, oldBps, newBps uint32) {
	r.mu.RLock()
	plugins := r.onPlatformFeeChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPlatformFeeChanged(ctx, oldBps, newBps)
		}); err != nil {
			r.logger.Warn("plugin OnPlatformFeeChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitUserRegistered calls OnUserRegistered for all plugins that implement it.
func (r *Registry) EmitUserRegistered(ctx context.Context, user interface{}) {
	r.mu.RLock()
	plugins := r.onUserRegistered
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnUserRegistered(ctx, user)
		}); err != nil {
			r.logger.Warn("plugin OnUserRegistered failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitEntityCreated calls OnEntityCreated for all plugins that implement it.
func (r *Registry) EmitEntityCreated(ctx context.Context, kind string, entity interface{}) {
	r.mu.RLock()
	plugins := r.onEntityCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnEntityCreated(ctx, kind, entity)
		}); err != nil {
			r.logger.Warn("plugin OnEntityCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStockTransferred calls OnStockTransferred for all plugins that implement it.
func (r *Registry) EmitStockTransferred(ctx context.Context, stage string, quantity uint64, from, to string) {
	r.mu.RLock()
	plugins := r.onStockTransferred
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStockTransferred(ctx, stage, quantity, from, to)
		}); err != nil {
			r.logger.Warn("plugin OnStockTransferred failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitProductInspected calls OnProductInspected for all plugins that implement it.
func (r *Registry) EmitProductInspected(ctx context.Context, record interface{}) {
	r.mu.RLock()
	plugins := r.onProductInspected
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnProductInspected(ctx, record)
		}); err != nil {
			r.logger.Warn("plugin OnProductInspected failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInspectorPaid calls OnInspectorPaid for all plugins that implement it.
func (r *Registry) EmitInspectorPaid(ctx context.Context, record interface{}) {
	r.mu.RLock()
	plugins := r.onInspectorPaid
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInspectorPaid(ctx, record)
		}); err != nil {
			r.logger.Warn("plugin OnInspectorPaid failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransactionPosted calls OnTransactionPosted for all plugins that implement it.
func (r *Registry) EmitTransactionPosted(ctx context.Context, tx interface{}) {
	r.mu.RLock()
	plugins := r.onTransactionPosted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransactionPosted(ctx, tx)
		}); err != nil {
			r.logger.Warn("plugin OnTransactionPosted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitWithdrawn calls OnWithdrawn for all plugins that implement it.
func (r *Registry) EmitWithdrawn(ctx context.Context, account string, amount, fee uint64) {
	r.mu.RLock()
	plugins := r.onWithdrawn
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWithdrawn(ctx, account, amount, fee)
		}); err != nil {
			r.logger.Warn("plugin OnWithdrawn failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
