// Package memory provides an in-memory Store. The zero-dependency default
// for tests and embedded use; all state is lost on process exit.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/accounting"
	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/inspection"
	"github.com/xraph/provenance/inventory"
	"github.com/xraph/provenance/platform"
	"github.com/xraph/provenance/store"
)

// Store keeps every record in one map keyed by address. Apply validates a
// whole batch under the write lock before mutating anything, so a batch
// commits in full or not at all.
type Store struct {
	mu      sync.RWMutex
	records map[address.Address]store.Record
	closed  bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		records: make(map[address.Address]store.Record),
	}
}

func (s *Store) GetPlatformState(_ context.Context) (*platform.State, error) {
	return get[*platform.State](s, platform.StateAddress())
}

func (s *Store) GetUser(_ context.Context, addr address.Address) (*identity.User, error) {
	return get[*identity.User](s, addr)
}

func (s *Store) GetFactory(_ context.Context, addr address.Address) (*inventory.Factory, error) {
	return get[*inventory.Factory](s, addr)
}

func (s *Store) GetProduct(_ context.Context, addr address.Address) (*inventory.Product, error) {
	return get[*inventory.Product](s, addr)
}

func (s *Store) GetWarehouse(_ context.Context, addr address.Address) (*inventory.Warehouse, error) {
	return get[*inventory.Warehouse](s, addr)
}

func (s *Store) GetSeller(_ context.Context, addr address.Address) (*inventory.Seller, error) {
	return get[*inventory.Seller](s, addr)
}

func (s *Store) GetOrder(_ context.Context, addr address.Address) (*inventory.Order, error) {
	return get[*inventory.Order](s, addr)
}

func (s *Store) GetLogistics(_ context.Context, addr address.Address) (*inventory.Logistics, error) {
	return get[*inventory.Logistics](s, addr)
}

func (s *Store) GetSellerStock(_ context.Context, addr address.Address) (*inventory.SellerStock, error) {
	return get[*inventory.SellerStock](s, addr)
}

func (s *Store) GetCustomerProduct(_ context.Context, addr address.Address) (*inventory.CustomerProduct, error) {
	return get[*inventory.CustomerProduct](s, addr)
}

func (s *Store) ListProductsByFactory(_ context.Context, factory address.Address, opts store.ListOpts) ([]*inventory.Product, error) {
	return list(s, opts, func(p *inventory.Product) bool {
		return p.Factory.Equal(factory)
	}, func(a, b *inventory.Product) bool { return a.SeqID < b.SeqID })
}

func (s *Store) ListOrdersBySeller(_ context.Context, seller address.Address, opts store.ListOpts) ([]*inventory.Order, error) {
	return list(s, opts, func(o *inventory.Order) bool {
		return o.Seller.Equal(seller)
	}, func(a, b *inventory.Order) bool { return a.SeqID < b.SeqID })
}

func (s *Store) ListStockBySeller(_ context.Context, seller address.Address, opts store.ListOpts) ([]*inventory.SellerStock, error) {
	return list(s, opts, func(l *inventory.SellerStock) bool {
		return l.Seller.Equal(seller)
	}, func(a, b *inventory.SellerStock) bool { return a.SeqID < b.SeqID })
}

func (s *Store) ListHoldingsByCustomer(_ context.Context, owner address.Address, opts store.ListOpts) ([]*inventory.CustomerProduct, error) {
	return list(s, opts, func(h *inventory.CustomerProduct) bool {
		return h.Owner.Equal(owner)
	}, func(a, b *inventory.CustomerProduct) bool { return a.PurchasedAt.Before(b.PurchasedAt) })
}

func (s *Store) GetInspection(_ context.Context, addr address.Address) (*inspection.Inspection, error) {
	return get[*inspection.Inspection](s, addr)
}

func (s *Store) GetTransaction(_ context.Context, addr address.Address) (*accounting.Transaction, error) {
	return get[*accounting.Transaction](s, addr)
}

func (s *Store) ListTransactionsByParty(_ context.Context, party address.Address, opts store.ListOpts) ([]*accounting.Transaction, error) {
	return list(s, opts, func(t *accounting.Transaction) bool {
		return t.User.Equal(party) || t.From.Equal(party) || t.To.Equal(party)
	}, func(a, b *accounting.Transaction) bool {
		if a.User == b.User {
			return a.SeqID < b.SeqID
		}
		return a.Timestamp.Before(b.Timestamp)
	})
}

// Apply commits a batch atomically. All mutations are validated against
// the current map before any of them is applied: a create against an
// occupied address or an update whose revision does not match the stored
// one fails the whole batch with ErrConflict.
func (s *Store) Apply(_ context.Context, batch *store.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return provenance.ErrStoreClosed
	}

	for _, m := range batch.Mutations() {
		cur, exists := s.records[m.Record.Addr()]
		switch m.Op {
		case store.OpCreate:
			if exists {
				return provenance.ErrConflict
			}
		case store.OpUpdate:
			if !exists {
				return provenance.ErrNotFound
			}
			if cur.Rev() != m.Record.Rev() {
				return provenance.ErrConflict
			}
		}
	}

	for _, m := range batch.Mutations() {
		m.Record.Bump()
		s.records[m.Record.Addr()] = clone(m.Record)
	}
	return nil
}

func (s *Store) Migrate(_ context.Context) error {
	return nil // nothing to migrate
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return provenance.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// get returns a copy of the record at addr if it has the requested type.
func get[T store.Record](s *Store, addr address.Address) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero T
	if s.closed {
		return zero, provenance.ErrStoreClosed
	}
	rec, ok := s.records[addr]
	if !ok {
		return zero, provenance.ErrNotFound
	}
	typed, ok := rec.(T)
	if !ok {
		return zero, provenance.ErrNotFound
	}
	return clone(typed).(T), nil
}

// list collects copies of every record of type T passing the filter,
// sorted and paginated.
func list[T store.Record](s *Store, opts store.ListOpts, match func(T) bool, less func(a, b T) bool) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, provenance.ErrStoreClosed
	}

	result := make([]T, 0)
	for _, rec := range s.records {
		if typed, ok := rec.(T); ok && match(typed) {
			result = append(result, clone(typed).(T))
		}
	}
	sort.Slice(result, func(i, j int) bool { return less(result[i], result[j]) })

	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}
	return result[start:end], nil
}

// clone copies a record so callers never share memory with the map. All
// record fields are value types, so a struct copy is a full copy.
func clone(rec store.Record) store.Record {
	switch r := rec.(type) {
	case *platform.State:
		c := *r
		return &c
	case *identity.User:
		c := *r
		return &c
	case *inventory.Factory:
		c := *r
		return &c
	case *inventory.Product:
		c := *r
		return &c
	case *inventory.Warehouse:
		c := *r
		return &c
	case *inventory.Seller:
		c := *r
		return &c
	case *inventory.Order:
		c := *r
		return &c
	case *inventory.Logistics:
		c := *r
		return &c
	case *inventory.SellerStock:
		c := *r
		return &c
	case *inventory.CustomerProduct:
		c := *r
		return &c
	case *inspection.Inspection:
		c := *r
		return &c
	case *accounting.Transaction:
		c := *r
		return &c
	}
	return rec
}
