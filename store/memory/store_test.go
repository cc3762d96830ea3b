package memory_test

import (
	"context"
	"errors"
	"testing"

	provenance "github.com/xraph/provenance"
	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/inventory"
	"github.com/xraph/provenance/store"
	"github.com/xraph/provenance/store/memory"
	"github.com/xraph/provenance/types"
)

func newFactory(seed string, seq uint64) *inventory.Factory {
	owner := address.FromSeed([]byte(seed))
	return &inventory.Factory{
		Record: types.NewRecord(address.Derive(address.NamespaceFactory, owner, seq)),
		SeqID:  seq,
		Owner:  owner,
		Name:   seed,
	}
}

func TestApplyCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	f := newFactory("mill", 1)
	if err := s.Apply(ctx, store.NewBatch().Create(f)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if f.Rev() != 1 {
		t.Errorf("revision after create = %d, want 1", f.Rev())
	}

	got, err := s.GetFactory(ctx, f.Addr())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "mill" || got.Rev() != 1 {
		t.Errorf("got %q rev %d, want mill rev 1", got.Name, got.Rev())
	}

	// The store hands out copies, not aliases.
	got.Name = "changed"
	again, _ := s.GetFactory(ctx, f.Addr())
	if again.Name != "mill" {
		t.Error("mutating a read record leaked into the store")
	}
}

func TestApplyConflicts(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	f := newFactory("mill", 1)
	if err := s.Apply(ctx, store.NewBatch().Create(f)); err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("CreateOccupied", func(t *testing.T) {
		dup := newFactory("mill", 1)
		err := s.Apply(ctx, store.NewBatch().Create(dup))
		if !errors.Is(err, provenance.ErrConflict) {
			t.Errorf("err = %v, want ErrConflict", err)
		}
	})

	t.Run("StaleRevision", func(t *testing.T) {
		first, _ := s.GetFactory(ctx, f.Addr())
		second, _ := s.GetFactory(ctx, f.Addr())

		first.Name = "winner"
		if err := s.Apply(ctx, store.NewBatch().Update(first)); err != nil {
			t.Fatalf("first update: %v", err)
		}

		second.Name = "loser"
		err := s.Apply(ctx, store.NewBatch().Update(second))
		if !errors.Is(err, provenance.ErrConflict) {
			t.Errorf("stale update err = %v, want ErrConflict", err)
		}

		got, _ := s.GetFactory(ctx, f.Addr())
		if got.Name != "winner" {
			t.Errorf("name = %q, want winner", got.Name)
		}
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		ghost := newFactory("ghost", 1)
		err := s.Apply(ctx, store.NewBatch().Update(ghost))
		if !errors.Is(err, provenance.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestApplyAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	f := newFactory("mill", 1)
	if err := s.Apply(ctx, store.NewBatch().Create(f)); err != nil {
		t.Fatalf("create: %v", err)
	}

	// A batch with one valid update and one conflicting create must leave
	// the valid update unapplied too.
	current, _ := s.GetFactory(ctx, f.Addr())
	current.Name = "should not commit"
	dup := newFactory("mill", 1)

	err := s.Apply(ctx, store.NewBatch().Update(current).Create(dup))
	if !errors.Is(err, provenance.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	got, _ := s.GetFactory(ctx, f.Addr())
	if got.Name != "mill" {
		t.Errorf("name = %q, partial mutation survived a failed batch", got.Name)
	}
	if got.Rev() != 1 {
		t.Errorf("revision = %d, want 1", got.Rev())
	}
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	owner := address.FromSeed([]byte("mill"))
	factoryAddr := address.Derive(address.NamespaceFactory, owner, 1)

	batch := store.NewBatch()
	for i := uint64(1); i <= 5; i++ {
		batch.Create(&inventory.Product{
			Record:  types.NewRecord(address.Derive(address.NamespaceProduct, factoryAddr, i)),
			SeqID:   i,
			Factory: factoryAddr,
			Name:    "widget",
		})
	}
	if err := s.Apply(ctx, batch); err != nil {
		t.Fatalf("seed: %v", err)
	}

	all, err := s.ListProductsByFactory(ctx, factoryAddr, store.ListOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("len = %d, want 5", len(all))
	}
	for i, p := range all {
		if p.SeqID != uint64(i+1) {
			t.Errorf("product %d seq = %d, want ascending", i, p.SeqID)
		}
	}

	page, err := s.ListProductsByFactory(ctx, factoryAddr, store.ListOpts{Limit: 2, Offset: 3})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 2 || page[0].SeqID != 4 || page[1].SeqID != 5 {
		t.Errorf("page = %v, want seq 4 and 5", page)
	}

	other, err := s.ListProductsByFactory(ctx, address.FromSeed([]byte("other")), store.ListOpts{})
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("foreign factory listed %d products", len(other))
	}
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	f := newFactory("mill", 1)
	if err := s.Apply(ctx, store.NewBatch().Create(f)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := s.GetFactory(ctx, f.Addr()); !errors.Is(err, provenance.ErrStoreClosed) {
		t.Errorf("get err = %v, want ErrStoreClosed", err)
	}
	if err := s.Apply(ctx, store.NewBatch().Create(newFactory("mill", 2))); !errors.Is(err, provenance.ErrStoreClosed) {
		t.Errorf("apply err = %v, want ErrStoreClosed", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, provenance.ErrStoreClosed) {
		t.Errorf("ping err = %v, want ErrStoreClosed", err)
	}
}

func TestGetWrongKind(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	owner := address.FromSeed([]byte("someone"))
	u := &identity.User{
		Record: types.NewRecord(identity.AddressFor(owner)),
		Owner:  owner,
		Name:   "someone",
		Role:   identity.RoleCustomer,
	}
	if err := s.Apply(ctx, store.NewBatch().Create(u)); err != nil {
		t.Fatalf("create: %v", err)
	}

	// An address holding a user is not a factory.
	if _, err := s.GetFactory(ctx, u.Addr()); !errors.Is(err, provenance.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
