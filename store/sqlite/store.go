// Package sqlite provides a SQLite-backed Store via the Grove ORM. Suited
// to single-node and embedded deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/accounting"
	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/inspection"
	"github.com/xraph/provenance/inventory"
	"github.com/xraph/provenance/platform"
	"github.com/xraph/provenance/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
//
// Batch atomicity is enforced by validating every mutation's revision
// under a process-wide write lock before committing any of them, plus a
// revision guard on each UPDATE. SQLite databases are single-writer, so
// the lock also avoids writer contention at the database level. An
// infrastructure failure mid-commit leaves the batch partially applied;
// callers must reconcile the batch's records on any Apply error that is
// not ErrConflict or ErrNotFound.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB

	writeMu sync.Mutex
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("provenance/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("provenance/sqlite: migration failed: %w", err)
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
	m := new(transactionModel)
	err := s.sdb.NewSelect(m).
		Where("address = ?", addr.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, provenance.ErrNotFound
		}
		return nil, err
	}
	return fromTransactionModel(m)
}

func (s *Store) ListTransactionsByParty(ctx context.Context, party address.Address, opts store.ListOpts) ([]*accounting.Transaction, error) {
	var models []transactionModel
	p := party.String()
	q := s.sdb.NewSelect(&models).
		Where("(user_addr = ? OR from_addr = ? OR to_addr = ?)", p, p, p)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("timestamp ASC, seq_id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
// revisions before the first write; each update additionally carries a
// revision guard so a lost race surfaces as ErrConflict.
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
		var n int64
		err := s.sdb.NewRaw(
			`SELECT COUNT(*) FROM provenance_transactions WHERE address = ?`,
			tx.Addr().String(),
		).Scan(ctx, &n)
		if err != nil {
			return err
		}
		if n > 0 {
			return provenance.ErrConflict
		}
		return nil
	}

	var rev int64
	err := s.sdb.NewRaw(
		`SELECT revision FROM provenance_records WHERE address = ?`,
		m.Record.Addr().String(),
	).Scan(ctx, &rev)

	switch m.Op {
	case store.OpCreate:
		if err == nil {
			return provenance.ErrConflict
		}
		if !isNoRows(err) {
			return err
		}
	case store.OpUpdate:
		if err != nil {
			if isNoRows(err) {
				return provenance.ErrNotFound
			}
			return err
		}
		if uint64(rev) != m.Record.Rev() {
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
		_, err = s.sdb.NewInsert(tm).Exec(ctx)
		return err
	}

	rm, err := toRecordModel(m.Record)
	if err != nil {
		return err
	}

	switch m.Op {
	case store.OpCreate:
		_, err := s.sdb.NewInsert(rm).Exec(ctx)
		return err
	case store.OpUpdate:
		res, err := s.sdb.NewUpdate((*recordModel)(nil)).
			Set("revision = ?", rm.Revision).
			Set("parent = ?", rm.Parent).
			Set("owner = ?", rm.Owner).
			Set("payload = ?", rm.Payload).
			Set("updated_at = ?", now()).
			Where("address = ?", rm.Address).
			Where("revision = ?", rm.Revision-1).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return provenance.ErrConflict
		}
		return nil
	}
	return nil
}

// ==================== Helpers ====================

func getRecord[T any](ctx context.Context, s *Store, addr address.Address, kind address.Namespace) (*T, error) {
	m := new(recordModel)
	err := s.sdb.NewSelect(m).
		Where("address = ?", addr.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, provenance.ErrNotFound
		}
		return nil, err
	}
	return decodeRecord[T](m, kind)
}

func listRecords[T any](ctx context.Context, s *Store, kind address.Namespace, scopeCol string, scope address.Address, opts store.ListOpts) ([]*T, error) {
	var models []recordModel
	q := s.sdb.NewSelect(&models).
		Where("kind = ?", string(kind)).
		Where(fmt.Sprintf("%s = ?", scopeCol), scope.String())
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC, address ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
