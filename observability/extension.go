// Package observability provides a metrics extension for Provenance that
// records lifecycle event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/provenance/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnPlatformInitialized = (*MetricsExtension)(nil)
	_ plugin.OnPlatformFeeChanged  = (*MetricsExtension)(nil)
	_ plugin.OnUserRegistered      = (*MetricsExtension)(nil)
	_ plugin.OnEntityCreated       = (*MetricsExtension)(nil)
	_ plugin.OnStockTransferred    = (*MetricsExtension)(nil)
	_ plugin.OnProductInspected    = (*MetricsExtension)(nil)
	_ plugin.OnInspectorPaid       = (*MetricsExtension)(nil)
	_ plugin.OnTransactionPosted   = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawn           = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Provenance plugin to automatically track ledger metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Platform metrics
	PlatformInitialized Counter
	FeeChanges          Counter

	// Registry metrics
	UsersRegistered Counter

	// Inventory metrics
	EntitiesCreated  Counter
	StockTransfers   Counter
	TransferQuantity Histogram

	// Inspection metrics
	ProductsInspected Counter
	InspectorsPaid    Counter

	// Accounting metrics
	TransactionsPosted   Counter
	WithdrawalsCompleted Counter
	WithdrawalAmount     Histogram
	FeeSkimmed           Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Platform metrics
		PlatformInitialized: factory.Counter("provenance.platform.initialized"),
		FeeChanges:          factory.Counter("provenance.platform.fee_changes"),

		// Registry metrics
		UsersRegistered: factory.Counter("provenance.users.registered"),

		// Inventory metrics
		EntitiesCreated:  factory.Counter("provenance.entities.created"),
		StockTransfers:   factory.Counter("provenance.stock.transfers"),
		TransferQuantity: factory.Histogram("provenance.stock.transfer_quantity"),

		// Inspection metrics
		ProductsInspected: factory.Counter("provenance.inspections.recorded"),
		InspectorsPaid:    factory.Counter("provenance.inspections.paid"),

		// Accounting metrics
		TransactionsPosted:   factory.Counter("provenance.transactions.posted"),
		WithdrawalsCompleted: factory.Counter("provenance.withdrawals.completed"),
		WithdrawalAmount:     factory.Histogram("provenance.withdrawals.amount"),
		FeeSkimmed:           factory.Histogram("provenance.withdrawals.fee"),

		// Error metrics
		StoreErrors:  factory.Counter("provenance.store.errors"),
		PluginErrors: factory.Counter("provenance.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Platform lifecycle hooks
// ──────────────────────────────────────────────────

// OnPlatformInitialized implements plugin.OnPlatformInitialized.
func (m *MetricsExtension) OnPlatformInitialized(_ context.Context, _ interface{}) error {
	m.PlatformInitialized.Inc()
	return nil
}

// OnPlatformFeeChanged implements plugin.OnPlatformFeeChanged.
func (m *MetricsExtension) OnPlatformFeeChanged(_ context.Context, _, _ uint32) error {
	m.FeeChanges.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Registry lifecycle hooks
// ──────────────────────────────────────────────────

// OnUserRegistered implements plugin.OnUserRegistered.
func (m *MetricsExtension) OnUserRegistered(_ context.Context, _ interface{}) error {
	m.UsersRegistered.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Inventory lifecycle hooks
// ──────────────────────────────────────────────────

// OnEntityCreated implements plugin.OnEntityCreated.
func (m *MetricsExtension) OnEntityCreated(_ context.Context, _ string, _ interface{}) error {
	m.EntitiesCreated.Inc()
	return nil
}

// OnStockTransferred implements plugin.OnStockTransferred.
func (m *MetricsExtension) OnStockTransferred(_ context.Context, _ string, quantity uint64, _, _ string) error {
	m.StockTransfers.Inc()
	m.TransferQuantity.Observe(float64(quantity))
	return nil
}

// ──────────────────────────────────────────────────
// Inspection lifecycle hooks
// ──────────────────────────────────────────────────

// OnProductInspected implements plugin.OnProductInspected.
func (m *MetricsExtension) OnProductInspected(_ context.Context, _ interface{}) error {
	m.ProductsInspected.Inc()
	return nil
}

// OnInspectorPaid implements plugin.OnInspectorPaid.
func (m *MetricsExtension) OnInspectorPaid(_ context.Context, _ interface{}) error {
	m.InspectorsPaid.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Accounting lifecycle hooks
// ──────────────────────────────────────────────────

// OnTransactionPosted implements plugin.OnTransactionPosted.
func (m *MetricsExtension) OnTransactionPosted(_ context.Context, _ interface{}) error {
	m.TransactionsPosted.Inc()
	return nil
}

// OnWithdrawn implements plugin.OnWithdrawn.
func (m *MetricsExtension) OnWithdrawn(_ context.Context, _ string, amount, fee uint64) error {
	m.WithdrawalsCompleted.Inc()
	m.WithdrawalAmount.Observe(float64(amount))
	m.FeeSkimmed.Observe(float64(fee))
	return nil
}
