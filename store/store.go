package store

import (
	"context"

	"github.com/xraph/provenance/accounting"
	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/inspection"
	"github.com/xraph/provenance/inventory"
	"github.com/xraph/provenance/platform"
)

// Record is the contract every stored entity satisfies. All domain models
// embed types.Record, which provides it.
type Record interface {
	Addr() address.Address
	Rev() uint64
	Bump()
}

// ListOpts controls pagination for list queries. A zero Limit means no
// limit. The transaction log is unbounded; callers should always paginate
// it.
type ListOpts struct {
	Limit  int
	Offset int
}

// Store is the unified storage interface for all Provenance entities: an
// atomic record store keyed by deterministic addresses.
//
// Reads return the record as of some committed batch. All writes go
// through Apply. Every mutation in a Batch is validated against
// committed state before the first write, and any validation failure
// rejects the whole batch with nothing committed: creates fail if the
// address is occupied, updates fail if the expected revision does not
// match the stored one. The loser of a concurrent race observes
// ErrConflict and must re-read and resubmit.
//
// The memory driver commits a validated batch atomically. The database
// drivers commit mutation-by-mutation under a process-wide writer lock:
// after validation, only an infrastructure failure (dropped connection,
// constraint violation) can interrupt the commit loop, and such a
// failure can leave a batch partially applied. Treat any Apply error
// other than ErrConflict or ErrNotFound as requiring reconciliation of
// the batch's records.
type Store interface {
	// Platform state
	GetPlatformState(ctx context.Context) (*platform.State, error)

	// Identity registry
	GetUser(ctx context.Context, addr address.Address) (*identity.User, error)

	// Inventory ledger
	GetFactory(ctx context.Context, addr address.Address) (*inventory.Factory, error)
	GetProduct(ctx context.Context, addr address.Address) (*inventory.Product, error)
	GetWarehouse(ctx context.Context, addr address.Address) (*inventory.Warehouse, error)
	GetSeller(ctx context.Context, addr address.Address) (*inventory.Seller, error)
	GetOrder(ctx context.Context, addr address.Address) (*inventory.Order, error)
	GetLogistics(ctx context.Context, addr address.Address) (*inventory.Logistics, error)
	GetSellerStock(ctx context.Context, addr address.Address) (*inventory.SellerStock, error)
	GetCustomerProduct(ctx context.Context, addr address.Address) (*inventory.CustomerProduct, error)
	ListProductsByFactory(ctx context.Context, factory address.Address, opts ListOpts) ([]*inventory.Product, error)
	ListOrdersBySeller(ctx context.Context, seller address.Address, opts ListOpts) ([]*inventory.Order, error)
	ListStockBySeller(ctx context.Context, seller address.Address, opts ListOpts) ([]*inventory.SellerStock, error)
	ListHoldingsByCustomer(ctx context.Context, owner address.Address, opts ListOpts) ([]*inventory.CustomerProduct, error)

	// Inspection module
	GetInspection(ctx context.Context, addr address.Address) (*inspection.Inspection, error)

	// Accounting engine
	GetTransaction(ctx context.Context, addr address.Address) (*accounting.Transaction, error)
	ListTransactionsByParty(ctx context.Context, party address.Address, opts ListOpts) ([]*accounting.Transaction, error)

	// Atomic write path
	Apply(ctx context.Context, batch *Batch) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
