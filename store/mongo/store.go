// Package mongo provides a MongoDB-backed Store via the Grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/accounting"
	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/inspection"
	"github.com/xraph/provenance/inventory"
	"github.com/xraph/provenance/platform"
	"github.com/xraph/provenance/store"
)

// Collection name constants.
const (
	colRecords      = "provenance_records"
	colTransactions = "provenance_transactions"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
//
// Batch atomicity is enforced by validating every mutation's revision
// under a process-wide write lock before committing any of them, plus a
// revision filter on each update. This assumes a single writer process
// per database. Multi-document transactions require a replica-set
// deployment, which this driver does not assume; an infrastructure
// failure mid-commit leaves the batch partially applied, and callers
// must reconcile the batch's records on any Apply error that is not
// ErrConflict or ErrNotFound.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB

	writeMu sync.Mutex
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for the provenance collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("provenance/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Reads ====================

func (s *Store) GetPlatformState(ctx context.Context) (*platform.State, error) {
	return getRecord[platform.State](ctx, s, platform.StateAddress(), address.NamespacePlatform)
}

func (s *Store) GetUser(ctx context.Context, addr address.Address) (*identity.User, error) {
	return getRecord[identity.User](ctx, s, addr, address.NamespaceUser)
}

func (s *Store) GetFactory(ctx context.Context, addr address.Address) (*inventory.Factory, error) {
	return getRecord[inventory.Factory](ctx, s, addr, address.NamespaceFactory)
}

func (s *Store) GetProduct(ctx context.Context, addr address.Address) (*inventory.Product, error) {
	return getRecord[inventory.Product](ctx, s, addr, address.NamespaceProduct)
}

func (s *Store) GetWarehouse(ctx context.Context, addr address.Address) (*inventory.Warehouse, error) {
	return getRecord[inventory.Warehouse](ctx, s, addr, address.NamespaceWarehouse)
}

func (s *Store) GetSeller(ctx context.Context, addr address.Address) (*inventory.Seller, error) {
	return getRecord[inventory.Seller](ctx, s, addr, address.NamespaceSeller)
}

func (s *Store) GetOrder(ctx context.Context, addr address.Address) (*inventory.Order, error) {
	return getRecord[inventory.Order](ctx, s, addr, address.NamespaceOrder)
}

func (s *Store) GetLogistics(ctx context.Context, addr address.Address) (*inventory.Logistics, error) {
	return getRecord[inventory.Logistics](ctx, s, addr, address.NamespaceLogistics)
}

func (s *Store) GetSellerStock(ctx context.Context, addr address.Address) (*inventory.SellerStock, error) {
	return getRecord[inventory.SellerStock](ctx, s, addr, address.NamespaceSellerStock)
}

func (s *Store) GetCustomerProduct(ctx context.Context, addr address.Address) (*inventory.CustomerProduct, error) {
	return getRecord[inventory.CustomerProduct](ctx, s, addr, address.NamespaceCustomerProduct)
}

func (s *Store) GetInspection(ctx context.Context, addr address.Address) (*inspection.Inspection, error) {
	return getRecord[inspection.Inspection](ctx, s, addr, address.NamespaceInspection)
}

func (s *Store) ListProductsByFactory(ctx context.Context, factory address.Address, opts store.ListOpts) ([]*inventory.Product, error) {
	return listRecords[inventory.Product](ctx, s, address.NamespaceProduct, "parent", factory, opts)
}

func (s *Store) ListOrdersBySeller(ctx context.Context, seller address.Address, opts store.ListOpts) ([]*inventory.Order, error) {
	return listRecords[inventory.Order](ctx, s, address.NamespaceOrder, "parent", seller, opts)
}

func (s *Store) ListStockBySeller(ctx context.Context, seller address.Address, opts store.ListOpts) ([]*inventory.SellerStock, error) {
	return listRecords[inventory.SellerStock](ctx, s, address.NamespaceSellerStock, "parent", seller, opts)
}

func (s *Store) ListHoldingsByCustomer(ctx context.Context, owner address.Address, opts store.ListOpts) ([]*inventory.CustomerProduct, error) {
	return listRecords[inventory.CustomerProduct](ctx, s, address.NamespaceCustomerProduct, "owner", owner, opts)
}

func (s *Store) GetTransaction(ctx context.Context, addr address.Address) (*accounting.Transaction, error) {
	var m transactionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": addr.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, provenance.ErrNotFound
		}
		return nil, fmt.Errorf("provenance/mongo: get transaction: %w", err)
	}
	return fromTransactionModel(&m)
}

func (s *Store) ListTransactionsByParty(ctx context.Context, party address.Address, opts store.ListOpts) ([]*accounting.Transaction, error) {
	var models []transactionModel
	p := party.String()
	q := s.mdb.NewFind(&models).
		Filter(bson.M{"$or": []bson.M{
			{"user_addr": p},
			{"from_addr": p},
			{"to_addr": p},
		}}).
		Sort(bson.D{{Key: "timestamp", Value: 1}, {Key: "seq_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("provenance/mongo: list transactions: %w", err)
	}

	result := make([]*accounting.Transaction, len(models))
	for i := range models {
		tx, err := fromTransactionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = tx
	}
	return result, nil
}

// ==================== Writes ====================

// Apply commits a batch. Every mutation is validated against the stored
// revisions before the first write; each update additionally filters on
// the expected revision so a lost race surfaces as ErrConflict.
func (s *Store) Apply(ctx context.Context, batch *store.Batch) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for _, m := range batch.Mutations() {
		if err := s.validateMutation(ctx, m); err != nil {
			return err
		}
	}

	for _, m := range batch.Mutations() {
		m.Record.Bump()
		if err := s.commitMutation(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) validateMutation(ctx context.Context, m store.Mutation) error {
	if tx, ok := m.Record.(*accounting.Transaction); ok {
		var existing transactionModel
		err := s.mdb.NewFind(&existing).
			Filter(bson.M{"_id": tx.Addr().String()}).
			Scan(ctx)
		if err == nil {
			return provenance.ErrConflict
		}
		if !isNoDocuments(err) {
			return err
		}
		return nil
	}

	var existing recordModel
	err := s.mdb.NewFind(&existing).
		Filter(bson.M{"_id": m.Record.Addr().String()}).
		Scan(ctx)

	switch m.Op {
	case store.OpCreate:
		if err == nil {
			return provenance.ErrConflict
		}
		if !isNoDocuments(err) {
			return err
		}
	case store.OpUpdate:
		if err != nil {
			if isNoDocuments(err) {
				return provenance.ErrNotFound
			}
			return err
		}
		if uint64(existing.Revision) != m.Record.Rev() {
			return provenance.ErrConflict
		}
	}
	return nil
}

func (s *Store) commitMutation(ctx context.Context, m store.Mutation) error {
	if tx, ok := m.Record.(*accounting.Transaction); ok {
		tm, err := toTransactionModel(tx)
		if err != nil {
			return err
		}
		if _, err := s.mdb.NewInsert(tm).Exec(ctx); err != nil {
			return fmt.Errorf("provenance/mongo: insert transaction: %w", err)
		}
		return nil
	}

	rm, err := toRecordModel(m.Record)
	if err != nil {
		return err
	}

	switch m.Op {
	case store.OpCreate:
		if _, err := s.mdb.NewInsert(rm).Exec(ctx); err != nil {
			return fmt.Errorf("provenance/mongo: insert record: %w", err)
		}
		return nil
	case store.OpUpdate:
		res, err := s.mdb.NewUpdate(rm).
			Filter(bson.M{"_id": rm.Address, "revision": rm.Revision - 1}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("provenance/mongo: update record: %w", err)
		}
		if res.MatchedCount() == 0 {
			return provenance.ErrConflict
		}
		return nil
	}
	return nil
}

// ==================== Helpers ====================

func getRecord[T any](ctx context.Context, s *Store, addr address.Address, kind address.Namespace) (*T, error) {
	var m recordModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": addr.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, provenance.ErrNotFound
		}
		return nil, fmt.Errorf("provenance/mongo: get %s record: %w", kind, err)
	}
	return decodeRecord[T](&m, kind)
}

func listRecords[T any](ctx context.Context, s *Store, kind address.Namespace, scopeField string, scope address.Address, opts store.ListOpts) ([]*T, error) {
	var models []recordModel
	q := s.mdb.NewFind(&models).
		Filter(bson.M{"kind": string(kind), scopeField: scope.String()}).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("provenance/mongo: list %s records: %w", kind, err)
	}

	result := make([]*T, len(models))
	for i := range models {
		rec, err := decodeRecord[T](&models[i], kind)
		if err != nil {
			return nil, err
		}
		result[i] = rec
	}
	return result, nil
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for the provenance
// collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colRecords: {
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "parent", Value: 1}}},
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "owner", Value: 1}}},
		},
		colTransactions: {
			{
				Keys:    bson.D{{Key: "user_addr", Value: 1}, {Key: "seq_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "from_addr", Value: 1}}},
			{Keys: bson.D{{Key: "to_addr", Value: 1}}},
			{Keys: bson.D{{Key: "timestamp", Value: 1}}},
		},
	}
}
