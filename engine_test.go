package provenance_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	provenance "github.com/xraph/provenance"
	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/platform"
	"github.com/xraph/provenance/store"
	"github.com/xraph/provenance/store/memory"
)

// newTestEngine builds a started engine on a fresh in-memory store.
func newTestEngine(t *testing.T, opts ...provenance.Option) *provenance.Engine {
	t.Helper()

	opts = append([]provenance.Option{
		provenance.WithLogger(slog.New(slog.DiscardHandler)),
	}, opts...)

	eng := provenance.New(memory.New(), opts...)
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("start engine: %v", err)
	}
	t.Cleanup(func() { _ = eng.Stop() })
	return eng
}

// registerActor registers a wallet identity under the given role. The
// wallet address is derived from the seed so tests are deterministic.
func registerActor(t *testing.T, eng *provenance.Engine, seed string, role identity.Role) address.Address {
	t.Helper()

	owner := address.FromSeed([]byte(seed))
	if _, err := eng.RegisterUser(context.Background(), owner, seed, seed+"@example.com", role); err != nil {
		t.Fatalf("register %s: %v", seed, err)
	}
	return owner
}

func initPlatform(t *testing.T, eng *provenance.Engine) address.Address {
	t.Helper()

	operator := address.FromSeed([]byte("operator"))
	if _, err := eng.InitializePlatform(context.Background(), operator); err != nil {
		t.Fatalf("initialize platform: %v", err)
	}
	return operator
}

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	owner := address.FromSeed([]byte("mill-wallet"))

	user, err := eng.RegisterUser(ctx, owner, "Acme Mills", "ops@acme.example", identity.RoleFactory)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != identity.RoleFactory {
		t.Errorf("role = %q, want %q", user.Role, identity.RoleFactory)
	}
	if !user.Owner.Equal(owner) {
		t.Errorf("owner = %s, want %s", user.Owner, owner)
	}
	if !user.Addr().Equal(identity.AddressFor(owner)) {
		t.Errorf("user address not derived from wallet")
	}

	got, err := eng.GetUser(ctx, owner)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Name != "Acme Mills" {
		t.Errorf("name = %q, want %q", got.Name, "Acme Mills")
	}

	t.Run("DuplicateRegistration", func(t *testing.T) {
		_, err := eng.RegisterUser(ctx, owner, "Acme Again", "", identity.RoleSeller)
		if !errors.Is(err, provenance.ErrAlreadyRegistered) {
			t.Errorf("err = %v, want ErrAlreadyRegistered", err)
		}
	})

	t.Run("InvalidRole", func(t *testing.T) {
		other := address.FromSeed([]byte("other-wallet"))
		_, err := eng.RegisterUser(ctx, other, "Nobody", "", identity.Role("ADMIN"))
		if !errors.Is(err, provenance.ErrInvalidRole) {
			t.Errorf("err = %v, want ErrInvalidRole", err)
		}
	})

	t.Run("EmptyName", func(t *testing.T) {
		other := address.FromSeed([]byte("noname-wallet"))
		_, err := eng.RegisterUser(ctx, other, "", "", identity.RoleCustomer)
		if !errors.Is(err, provenance.ErrInvalidInput) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	t.Run("ZeroCaller", func(t *testing.T) {
		_, err := eng.RegisterUser(ctx, address.Zero, "Zero", "", identity.RoleCustomer)
		if !errors.Is(err, provenance.ErrInvalidInput) {
			t.Errorf("err = %v, want validation error", err)
		}
	})
}

func TestInitializePlatform(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	operator := address.FromSeed([]byte("operator"))
	st, err := eng.InitializePlatform(ctx, operator)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if st.FeeBps != platform.DefaultFeeBps {
		t.Errorf("fee = %d bps, want %d", st.FeeBps, platform.DefaultFeeBps)
	}
	if !st.Initialized {
		t.Error("state not marked initialized")
	}
	if !st.Addr().Equal(platform.StateAddress()) {
		t.Error("state not at the well-known address")
	}

	if _, err := eng.InitializePlatform(ctx, operator); !errors.Is(err, provenance.ErrAlreadyInitialized) {
		t.Errorf("second init err = %v, want ErrAlreadyInitialized", err)
	}
}

func TestUpdatePlatformFee(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	operator := initPlatform(t, eng)

	if err := eng.UpdatePlatformFee(ctx, operator, 300); err != nil {
		t.Fatalf("update fee: %v", err)
	}
	st, err := eng.GetPlatformState(ctx)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if st.FeeBps != 300 {
		t.Errorf("fee = %d bps, want 300", st.FeeBps)
	}

	t.Run("NotOwner", func(t *testing.T) {
		stranger := address.FromSeed([]byte("stranger"))
		if err := eng.UpdatePlatformFee(ctx, stranger, 100); !errors.Is(err, provenance.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("AboveCap", func(t *testing.T) {
		if err := eng.UpdatePlatformFee(ctx, operator, platform.MaxFeeBps+1); !errors.Is(err, provenance.ErrInvalidFee) {
			t.Errorf("err = %v, want ErrInvalidFee", err)
		}
	})
}

func TestPlatformNotInitialized(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	if _, err := eng.GetPlatformState(ctx); !errors.Is(err, provenance.ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestCreateEntities(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	initPlatform(t, eng)

	factoryOwner := registerActor(t, eng, "factory-owner", identity.RoleFactory)

	factory, err := eng.CreateFactory(ctx, factoryOwner, provenance.FactorySpec{
		Name:        "Acme Mill One",
		Description: "primary mill",
		ContactInfo: "ops@acme.example",
	})
	if err != nil {
		t.Fatalf("create factory: %v", err)
	}
	if factory.SeqID != 1 {
		t.Errorf("factory seq = %d, want 1", factory.SeqID)
	}

	// A second factory under the same user takes the next index.
	factory2, err := eng.CreateFactory(ctx, factoryOwner, provenance.FactorySpec{Name: "Acme Mill Two"})
	if err != nil {
		t.Fatalf("create second factory: %v", err)
	}
	if factory2.SeqID != 2 {
		t.Errorf("second factory seq = %d, want 2", factory2.SeqID)
	}
	if factory2.Addr().Equal(factory.Addr()) {
		t.Error("sibling factories share an address")
	}

	product, err := eng.CreateProduct(ctx, factoryOwner, provenance.ProductSpec{
		Factory:        factory.Addr(),
		Name:           "Widget",
		BatchNumber:    "B-001",
		UnitPrice:      4_000_000_000,
		ProductionCost: 3_000_000_000,
		MRP:            6_000_000_000,
		Stock:          10,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if product.Stock != 10 {
		t.Errorf("stock = %d, want 10", product.Stock)
	}
	if !product.Factory.Equal(factory.Addr()) {
		t.Error("product not linked to its factory")
	}

	t.Run("ListProducts", func(t *testing.T) {
		products, err := eng.ListProducts(ctx, factory.Addr(), store.ListOpts{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(products) != 1 {
			t.Fatalf("len = %d, want 1", len(products))
		}
		if !products[0].Addr().Equal(product.Addr()) {
			t.Error("listed product address mismatch")
		}
	})

	t.Run("ProductBelowUnitPrice", func(t *testing.T) {
		_, err := eng.CreateProduct(ctx, factoryOwner, provenance.ProductSpec{
			Factory:   factory.Addr(),
			Name:      "Cheap Widget",
			UnitPrice: 100,
			MRP:       50,
			Stock:     1,
		})
		if !errors.Is(err, provenance.ErrInvalidInput) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	t.Run("ProductForeignFactory", func(t *testing.T) {
		other := registerActor(t, eng, "other-factory", identity.RoleFactory)
		_, err := eng.CreateProduct(ctx, other, provenance.ProductSpec{
			Factory:   factory.Addr(),
			Name:      "Hijacked Widget",
			UnitPrice: 1,
			MRP:       1,
			Stock:     1,
		})
		if !errors.Is(err, provenance.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("RoleMismatch", func(t *testing.T) {
		seller := registerActor(t, eng, "seller-own", identity.RoleSeller)
		_, err := eng.CreateFactory(ctx, seller, provenance.FactorySpec{Name: "Bogus"})
		if !errors.Is(err, provenance.ErrInvalidRole) {
			t.Errorf("err = %v, want ErrInvalidRole", err)
		}
	})

	t.Run("UnregisteredCaller", func(t *testing.T) {
		ghost := address.FromSeed([]byte("ghost"))
		_, err := eng.CreateFactory(ctx, ghost, provenance.FactorySpec{Name: "Ghost Mill"})
		if !errors.Is(err, provenance.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestDeterministicAddressing(t *testing.T) {
	owner := address.FromSeed([]byte("wallet"))

	a := address.Derive(address.NamespaceFactory, owner, 1)
	b := address.Derive(address.NamespaceFactory, owner, 1)
	if !a.Equal(b) {
		t.Error("same inputs derived different addresses")
	}
	if a.Equal(address.Derive(address.NamespaceFactory, owner, 2)) {
		t.Error("distinct indexes collided")
	}
	if a.Equal(address.Derive(address.NamespaceWarehouse, owner, 1)) {
		t.Error("distinct namespaces collided")
	}
}
