// Package plugin provides an extensible plugin system for Provenance.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Platform hooks
// ──────────────────────────────────────────────────

// OnPlatformInitialized is called when the platform state is bootstrapped.
type OnPlatformInitialized interface {
	Plugin
	OnPlatformInitialized(ctx context.Context, state interface{}) error
}

// OnPlatformFeeChanged is called when the owner updates the fee rate.
type OnPlatformFeeChanged interface {
	Plugin
	OnPlatformFeeChanged(ctx context.Context, oldBps, newBps uint32) error
}

// ──────────────────────────────────────────────────
// Registry hooks
// ──────────────────────────────────────────────────

// OnUserRegistered is called when a new actor registers.
type OnUserRegistered interface {
	Plugin
	OnUserRegistered(ctx context.Context, user interface{}) error
}

// ──────────────────────────────────────────────────
// Inventory hooks
// ──────────────────────────────────────────────────

// OnEntityCreated is called when a new addressed entity is created
// (factory, product, warehouse, seller, logistics, order).
type OnEntityCreated interface {
	Plugin
	OnEntityCreated(ctx context.Context, kind string, entity interface{}) error
}

// OnStockTransferred is called after each committed edge of the transfer
// state machine. Stage names the edge; from and to are the source and
// destination record addresses.
type OnStockTransferred interface {
	Plugin
	OnStockTransferred(ctx context.Context, stage string, quantity uint64, from, to string) error
}

// ──────────────────────────────────────────────────
// Inspection hooks
// ──────────────────────────────────────────────────

// OnProductInspected is called when an inspection record is attached.
type OnProductInspected interface {
	Plugin
	OnProductInspected(ctx context.Context, record interface{}) error
}

// OnInspectorPaid is called when a factory settles an inspection fee.
type OnInspectorPaid interface {
	Plugin
	OnInspectorPaid(ctx context.Context, record interface{}) error
}

// ──────────────────────────────────────────────────
// Accounting hooks
// ──────────────────────────────────────────────────

// OnTransactionPosted is called when a ledger transaction is minted.
type OnTransactionPosted interface {
	Plugin
	OnTransactionPosted(ctx context.Context, tx interface{}) error
}

// OnWithdrawn is called after a completed withdrawal. Amount is the gross
// requested value; fee is the platform skim taken out of it.
type OnWithdrawn interface {
	Plugin
	OnWithdrawn(ctx context.Context, account string, amount, fee uint64) error
}

// ──────────────────────────────────────────────────
// Pricing policies
// ──────────────────────────────────────────────────

// PricingPolicy provides custom retail price computation for seller stock
// lots. The engine consults the registered policy when a seller receives a
// shipment; without one, the stock price is the wholesale unit price plus
// the seller's margin.
type PricingPolicy interface {
	Plugin
	PolicyName() string
	StockPrice(unitPrice, margin uint64) uint64
}
