package audithook

// Action constants for audit events.
const (
	// Platform actions
	ActionPlatformInitialized = "platform.initialized"
	ActionPlatformFeeChanged  = "platform.fee_changed"

	// Registry actions
	ActionUserRegistered = "user.registered"

	// Inventory actions
	ActionEntityCreated    = "entity.created"
	ActionStockTransferred = "stock.transferred"

	// Inspection actions
	ActionProductInspected = "product.inspected"
	ActionInspectorPaid    = "inspector.paid"

	// Accounting actions
	ActionTransactionPosted   = "transaction.posted"
	ActionWithdrawalCompleted = "withdrawal.completed"
)

// Resource constants for audit events.
const (
	ResourcePlatform    = "platform"
	ResourceUser        = "user"
	ResourceEntity      = "entity"
	ResourceStock       = "stock"
	ResourceInspection  = "inspection"
	ResourceTransaction = "transaction"
	ResourceWithdrawal  = "withdrawal"
)

// Category constants for audit events.
const (
	CategoryPlatform   = "platform"
	CategoryIdentity   = "identity"
	CategoryInventory  = "inventory"
	CategoryInspection = "inspection"
	CategoryAccounting = "accounting"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
