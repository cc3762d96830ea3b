// Package audithook bridges Provenance lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not import
// any concrete audit module. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/provenance/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnPlatformInitialized = (*Extension)(nil)
	_ plugin.OnPlatformFeeChanged  = (*Extension)(nil)
	_ plugin.OnUserRegistered      = (*Extension)(nil)
	_ plugin.OnEntityCreated       = (*Extension)(nil)
	_ plugin.OnStockTransferred    = (*Extension)(nil)
	_ plugin.OnProductInspected    = (*Extension)(nil)
	_ plugin.OnInspectorPaid       = (*Extension)(nil)
	_ plugin.OnTransactionPosted   = (*Extension)(nil)
	_ plugin.OnWithdrawn           = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement. It is
// defined locally so this package carries no backend dependency; callers
// inject the concrete recorder at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Provenance lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Platform hooks
// ──────────────────────────────────────────────────

// OnPlatformInitialized implements plugin.OnPlatformInitialized.
func (e *Extension) OnPlatformInitialized(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionPlatformInitialized, SeverityInfo, OutcomeSuccess,
		ResourcePlatform, "", CategoryPlatform, nil,
		"event", "platform_initialized",
	)
}

// OnPlatformFeeChanged implements plugin.OnPlatformFeeChanged.
func (e *Extension) OnPlatformFeeChanged(ctx context.Context, oldBps, newBps uint32) error {
	return e.record(ctx, ActionPlatformFeeChanged, SeverityWarning, OutcomeSuccess,
		ResourcePlatform, "", CategoryPlatform, nil,
		"old_bps", oldBps,
		"new_bps", newBps,
	)
}

// ──────────────────────────────────────────────────
// Registry hooks
// ──────────────────────────────────────────────────

// OnUserRegistered implements plugin.OnUserRegistered.
func (e *Extension) OnUserRegistered(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionUserRegistered, SeverityInfo, OutcomeSuccess,
		ResourceUser, "", CategoryIdentity, nil,
		"event", "user_registered",
	)
}

// ──────────────────────────────────────────────────
// Inventory hooks
// ──────────────────────────────────────────────────

// OnEntityCreated implements plugin.OnEntityCreated.
func (e *Extension) OnEntityCreated(ctx context.Context, kind string, _ interface{}) error {
	return e.record(ctx, ActionEntityCreated, SeverityInfo, OutcomeSuccess,
		ResourceEntity, "", CategoryInventory, nil,
		"kind", kind,
	)
}

// OnStockTransferred implements plugin.OnStockTransferred.
func (e *Extension) OnStockTransferred(ctx context.Context, stage string, quantity uint64, from, to string) error {
	return e.record(ctx, ActionStockTransferred, SeverityInfo, OutcomeSuccess,
		ResourceStock, "", CategoryInventory, nil,
		"stage", stage,
		"quantity", quantity,
		"from", from,
		"to", to,
	)
}

// ──────────────────────────────────────────────────
// Inspection hooks
// ──────────────────────────────────────────────────

// OnProductInspected implements plugin.OnProductInspected.
func (e *Extension) OnProductInspected(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionProductInspected, SeverityInfo, OutcomeSuccess,
		ResourceInspection, "", CategoryInspection, nil,
		"event", "product_inspected",
	)
}

// OnInspectorPaid implements plugin.OnInspectorPaid.
func (e *Extension) OnInspectorPaid(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionInspectorPaid, SeverityInfo, OutcomeSuccess,
		ResourceInspection, "", CategoryInspection, nil,
		"event", "inspector_paid",
	)
}

// ──────────────────────────────────────────────────
// Accounting hooks
// ──────────────────────────────────────────────────

// OnTransactionPosted implements plugin.OnTransactionPosted.
func (e *Extension) OnTransactionPosted(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionTransactionPosted, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, "", CategoryAccounting, nil,
		"event", "transaction_posted",
	)
}

// OnWithdrawn implements plugin.OnWithdrawn.
func (e *Extension) OnWithdrawn(ctx context.Context, account string, amount, fee uint64) error {
	return e.record(ctx, ActionWithdrawalCompleted, SeverityInfo, OutcomeSuccess,
		ResourceWithdrawal, account, CategoryAccounting, nil,
		"account", account,
		"amount", amount,
		"fee", fee,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
