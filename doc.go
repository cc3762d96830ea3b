// Package provenance provides an embeddable supply-chain provenance and
// settlement engine for Go applications.
//
// Provenance is designed as a library, not a service. Import it directly
// into your Go application. It provides:
//
//   - Deterministic content addressing for every ledger entity
//   - An identity registry with role-gated operations
//   - Stock transfer tracking from factory to customer
//   - Quality inspection records tied to products
//   - Integer-exact settlement with a basis-point platform fee
//   - An append-only, per-user transaction log
//   - Optimistic concurrency with conflict detection on every write
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/provenance"
//	    "github.com/xraph/provenance/store/memory"
//	)
//
//	eng := provenance.New(memory.New())
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
//	// One-time platform bootstrap.
//	st, err := eng.InitializePlatform(ctx, operator)
//
// # Core Concepts
//
// Every participant registers once and receives a derived address:
//
//	user, err := eng.RegisterUser(ctx, owner, "Acme Mills", "ops@acme.example", identity.RoleFactory)
//
// Factories create products, warehouses buy factory stock, sellers order
// from warehouses, logistics carry dispatched stock, and customers buy
// seller stock. Each hop is a single atomic operation:
//
//	tx, err := eng.BuyAsWarehouse(ctx, warehouseOwner, warehouseAddr, productAddr, 50)
//
// Money-moving operations skim the platform fee and append a transaction
// to the buyer's log. All amounts are unsigned integers in the smallest
// unit; fee splits are exact, with net + fee always equal to the gross.
//
// # Concurrency
//
// Writes are optimistic: each record carries a revision, and a batch
// commits only if every touched record is unchanged since it was read.
// Concurrent writers receive ErrConflict and are expected to retry.
//
// # Stores
//
// Four store drivers ship with the engine: an in-memory store for tests
// and embedding, plus PostgreSQL, SQLite, and MongoDB drivers built on
// grove. All drivers share the same semantics, including conflict
// detection and atomic batch application.
package provenance
