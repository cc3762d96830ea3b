package provenance_test

import (
	"context"
	"errors"
	"testing"

	provenance "github.com/xraph/provenance"
	"github.com/xraph/provenance/accounting"
	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/inventory"
	"github.com/xraph/provenance/store"
	"github.com/xraph/provenance/types"
)

// chain is a fully bootstrapped supply chain: one actor per role, a
// factory with one product, and the downstream entities ready to trade.
type chain struct {
	eng *provenance.Engine

	operator       address.Address
	factoryOwner   address.Address
	warehouseOwner address.Address
	sellerOwner    address.Address
	carrierOwner   address.Address
	customer       address.Address

	factory   *inventory.Factory
	product   *inventory.Product
	warehouse *inventory.Warehouse
	seller    *inventory.Seller
	logistics *inventory.Logistics
}

func newChain(t *testing.T, opts ...provenance.Option) *chain {
	t.Helper()
	ctx := context.Background()

	c := &chain{eng: newTestEngine(t, opts...)}
	c.operator = initPlatform(t, c.eng)
	c.factoryOwner = registerActor(t, c.eng, "factory-owner", identity.RoleFactory)
	c.warehouseOwner = registerActor(t, c.eng, "warehouse-owner", identity.RoleWarehouse)
	c.sellerOwner = registerActor(t, c.eng, "seller-owner", identity.RoleSeller)
	c.carrierOwner = registerActor(t, c.eng, "carrier-owner", identity.RoleLogistics)
	c.customer = registerActor(t, c.eng, "customer", identity.RoleCustomer)

	var err error
	c.factory, err = c.eng.CreateFactory(ctx, c.factoryOwner, provenance.FactorySpec{Name: "Acme Mill"})
	if err != nil {
		t.Fatalf("create factory: %v", err)
	}
	c.product, err = c.eng.CreateProduct(ctx, c.factoryOwner, provenance.ProductSpec{
		Factory:        c.factory.Addr(),
		Name:           "Widget",
		BatchNumber:    "B-001",
		UnitPrice:      4_000_000_000,
		ProductionCost: 3_000_000_000,
		MRP:            8_000_000_000,
		Stock:          10,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	c.warehouse, err = c.eng.CreateWarehouse(ctx, c.warehouseOwner, provenance.WarehouseSpec{
		Factory: c.factory.Addr(),
		Name:    "Central Warehouse",
		Size:    1000,
	})
	if err != nil {
		t.Fatalf("create warehouse: %v", err)
	}
	c.seller, err = c.eng.CreateSeller(ctx, c.sellerOwner, provenance.SellerSpec{Name: "Corner Shop"})
	if err != nil {
		t.Fatalf("create seller: %v", err)
	}
	c.logistics, err = c.eng.CreateLogistics(ctx, c.carrierOwner, provenance.LogisticsSpec{
		Name:          "Fast Freight",
		TransportMode: "road",
	})
	if err != nil {
		t.Fatalf("create logistics: %v", err)
	}
	return c
}

// unitsInFlight sums every stop of the transfer path for the chain's
// product; it must equal the initial factory stock at all times.
func (c *chain) unitsInFlight(t *testing.T) uint64 {
	t.Helper()
	ctx := context.Background()

	product, err := c.eng.GetProduct(ctx, c.product.Addr())
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	warehouse, err := c.eng.GetWarehouse(ctx, c.warehouse.Addr())
	if err != nil {
		t.Fatalf("get warehouse: %v", err)
	}
	logistics, err := c.eng.GetLogistics(ctx, c.logistics.Addr())
	if err != nil {
		t.Fatalf("get logistics: %v", err)
	}

	total := product.Stock + warehouse.Stock + logistics.Carried

	lots, err := c.eng.ListSellerStock(ctx, c.seller.Addr(), store.ListOpts{})
	if err != nil {
		t.Fatalf("list lots: %v", err)
	}
	for _, lot := range lots {
		total += lot.Stock
	}
	holdings, err := c.eng.ListCustomerProducts(ctx, c.customer, store.ListOpts{})
	if err != nil {
		t.Fatalf("list holdings: %v", err)
	}
	for _, h := range holdings {
		total += h.Stock
	}
	return total
}

func TestSupplyChainPath(t *testing.T) {
	ctx := context.Background()
	c := newChain(t)

	// Factory -> Warehouse: 5 of 10 units at 4e9 each.
	tx, err := c.eng.BuyAsWarehouse(ctx, c.warehouseOwner, c.warehouse.Addr(), c.product.Addr(), 5)
	if err != nil {
		t.Fatalf("buy as warehouse: %v", err)
	}
	const gross = types.Amount(20_000_000_000)
	const fee = types.Amount(400_000_000) // 2% of gross
	if tx.Kind != accounting.KindPurchase {
		t.Errorf("kind = %q, want %q", tx.Kind, accounting.KindPurchase)
	}
	if tx.Amount != gross || tx.Fee != fee {
		t.Errorf("tx = %s/%s, want %s/%s", tx.Amount, tx.Fee, gross, fee)
	}
	if tx.Net() != gross-fee {
		t.Errorf("net = %s, want %s", tx.Net(), gross-fee)
	}

	product, _ := c.eng.GetProduct(ctx, c.product.Addr())
	warehouse, _ := c.eng.GetWarehouse(ctx, c.warehouse.Addr())
	factory, _ := c.eng.GetFactory(ctx, c.factory.Addr())
	st, _ := c.eng.GetPlatformState(ctx)
	if product.Stock != 5 || warehouse.Stock != 5 {
		t.Errorf("stock after purchase = %d/%d, want 5/5", product.Stock, warehouse.Stock)
	}
	if factory.Balance != gross-fee {
		t.Errorf("factory balance = %s, want %s", factory.Balance, gross-fee)
	}
	if st.Accrued != fee {
		t.Errorf("accrued = %s, want %s", st.Accrued, fee)
	}
	if got := c.unitsInFlight(t); got != 10 {
		t.Errorf("units in flight = %d, want 10", got)
	}

	// Seller orders the warehouse's 5 units. Reservation only.
	order, err := c.eng.OrderAsSeller(ctx, c.sellerOwner, c.seller.Addr(), c.warehouse.Addr(), 5)
	if err != nil {
		t.Fatalf("order as seller: %v", err)
	}
	if order.Status != inventory.OrderPending {
		t.Errorf("order status = %q, want pending", order.Status)
	}
	if order.TotalPrice != gross {
		t.Errorf("order total = %s, want %s", order.TotalPrice, gross)
	}
	warehouse, _ = c.eng.GetWarehouse(ctx, c.warehouse.Addr())
	if warehouse.Stock != 5 {
		t.Errorf("warehouse stock moved on reservation: %d", warehouse.Stock)
	}

	// Warehouse dispatches via the carrier for a 2e9 delivery fee.
	const deliveryFee = types.Amount(2_000_000_000)
	const deliverySkim = types.Amount(40_000_000)
	if err := c.eng.DispatchToSeller(ctx, c.warehouseOwner, order.Addr(), c.logistics.Addr(), deliveryFee); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	order, _ = c.eng.GetOrder(ctx, order.Addr())
	warehouse, _ = c.eng.GetWarehouse(ctx, c.warehouse.Addr())
	logistics, _ := c.eng.GetLogistics(ctx, c.logistics.Addr())
	st, _ = c.eng.GetPlatformState(ctx)
	if order.Status != inventory.OrderDispatched {
		t.Errorf("order status = %q, want dispatched", order.Status)
	}
	if warehouse.Stock != 0 || logistics.Carried != 5 {
		t.Errorf("stock after dispatch = %d/%d, want 0/5", warehouse.Stock, logistics.Carried)
	}
	if logistics.Status != inventory.LogisticsInTransit {
		t.Errorf("carrier status = %q, want in transit", logistics.Status)
	}
	if warehouse.Balance != gross-fee {
		t.Errorf("warehouse balance = %s, want %s", warehouse.Balance, gross-fee)
	}
	if logistics.Balance != deliveryFee-deliverySkim {
		t.Errorf("carrier balance = %s, want %s", logistics.Balance, deliveryFee-deliverySkim)
	}
	if want := fee + fee + deliverySkim; st.Accrued != want {
		t.Errorf("accrued = %s, want %s", st.Accrued, want)
	}
	if got := c.unitsInFlight(t); got != 10 {
		t.Errorf("units in flight = %d, want 10", got)
	}

	// Seller receives; retail price is wholesale plus margin.
	const margin = types.Amount(1_000_000_000)
	lot, err := c.eng.ReceiveAsSeller(ctx, c.sellerOwner, order.Addr(), margin)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if lot.Stock != 5 {
		t.Errorf("lot stock = %d, want 5", lot.Stock)
	}
	if want := types.Amount(5_000_000_000); lot.StockPrice != want {
		t.Errorf("stock price = %s, want %s", lot.StockPrice, want)
	}
	order, _ = c.eng.GetOrder(ctx, order.Addr())
	logistics, _ = c.eng.GetLogistics(ctx, c.logistics.Addr())
	if order.Status != inventory.OrderDelivered {
		t.Errorf("order status = %q, want delivered", order.Status)
	}
	if logistics.Carried != 0 || !logistics.Delivered {
		t.Errorf("carrier after receive: carried=%d delivered=%v", logistics.Carried, logistics.Delivered)
	}

	// Customer buys 2 of the 5 at retail.
	holding, err := c.eng.BuyAsCustomer(ctx, c.customer, lot.Addr(), 2)
	if err != nil {
		t.Fatalf("buy as customer: %v", err)
	}
	const retailGross = types.Amount(10_000_000_000)
	const retailFee = types.Amount(200_000_000)
	if holding.Stock != 2 {
		t.Errorf("holding stock = %d, want 2", holding.Stock)
	}
	lot, _ = c.eng.GetSellerStock(ctx, lot.Addr())
	seller, _ := c.eng.GetSeller(ctx, c.seller.Addr())
	st, _ = c.eng.GetPlatformState(ctx)
	if lot.Stock != 3 {
		t.Errorf("lot stock = %d, want 3", lot.Stock)
	}
	if seller.Balance != retailGross-retailFee {
		t.Errorf("seller balance = %s, want %s", seller.Balance, retailGross-retailFee)
	}
	if want := fee + fee + deliverySkim + retailFee; st.Accrued != want {
		t.Errorf("accrued = %s, want %s", st.Accrued, want)
	}
	if got := c.unitsInFlight(t); got != 10 {
		t.Errorf("units in flight = %d, want 10", got)
	}

	// The warehouse actor minted purchase, order and delivery transactions.
	txs, err := c.eng.ListTransactions(ctx, identity.AddressFor(c.warehouseOwner), store.ListOpts{})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("warehouse transactions = %d, want 3", len(txs))
	}
	for i, tx := range txs {
		if tx.SeqID != uint64(i+1) {
			t.Errorf("tx %d seq = %d, want %d", i, tx.SeqID, i+1)
		}
	}
	wantKinds := []accounting.Kind{accounting.KindPurchase, accounting.KindOrder, accounting.KindDelivery}
	for i, k := range wantKinds {
		if txs[i].Kind != k {
			t.Errorf("tx %d kind = %q, want %q", i, txs[i].Kind, k)
		}
	}
}

func TestBuyAsWarehouseErrors(t *testing.T) {
	ctx := context.Background()
	c := newChain(t)

	t.Run("ZeroQuantity", func(t *testing.T) {
		_, err := c.eng.BuyAsWarehouse(ctx, c.warehouseOwner, c.warehouse.Addr(), c.product.Addr(), 0)
		if !errors.Is(err, provenance.ErrInvalidInput) {
			t.Errorf("err = %v, want validation error", err)
		}
	})

	t.Run("InsufficientStock", func(t *testing.T) {
		_, err := c.eng.BuyAsWarehouse(ctx, c.warehouseOwner, c.warehouse.Addr(), c.product.Addr(), 11)
		if !errors.Is(err, provenance.ErrInsufficientStock) {
			t.Errorf("err = %v, want ErrInsufficientStock", err)
		}
	})

	t.Run("WrongRole", func(t *testing.T) {
		_, err := c.eng.BuyAsWarehouse(ctx, c.sellerOwner, c.warehouse.Addr(), c.product.Addr(), 1)
		if !errors.Is(err, provenance.ErrInvalidRole) {
			t.Errorf("err = %v, want ErrInvalidRole", err)
		}
	})

	t.Run("ForeignWarehouse", func(t *testing.T) {
		other := registerActor(t, c.eng, "warehouse-2", identity.RoleWarehouse)
		_, err := c.eng.BuyAsWarehouse(ctx, other, c.warehouse.Addr(), c.product.Addr(), 1)
		if !errors.Is(err, provenance.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	// No mutation survives a failed purchase.
	product, _ := c.eng.GetProduct(ctx, c.product.Addr())
	if product.Stock != 10 {
		t.Errorf("product stock = %d after failed purchases, want 10", product.Stock)
	}
}

func TestOrderLifecycleErrors(t *testing.T) {
	ctx := context.Background()
	c := newChain(t)

	if _, err := c.eng.BuyAsWarehouse(ctx, c.warehouseOwner, c.warehouse.Addr(), c.product.Addr(), 5); err != nil {
		t.Fatalf("buy: %v", err)
	}

	t.Run("OrderOverWarehouseStock", func(t *testing.T) {
		_, err := c.eng.OrderAsSeller(ctx, c.sellerOwner, c.seller.Addr(), c.warehouse.Addr(), 6)
		if !errors.Is(err, provenance.ErrInsufficientStock) {
			t.Errorf("err = %v, want ErrInsufficientStock", err)
		}
	})

	order, err := c.eng.OrderAsSeller(ctx, c.sellerOwner, c.seller.Addr(), c.warehouse.Addr(), 5)
	if err != nil {
		t.Fatalf("order: %v", err)
	}

	t.Run("ReceiveBeforeDispatch", func(t *testing.T) {
		_, err := c.eng.ReceiveAsSeller(ctx, c.sellerOwner, order.Addr(), 0)
		if !errors.Is(err, provenance.ErrNotDispatched) {
			t.Errorf("err = %v, want ErrNotDispatched", err)
		}
	})

	if err := c.eng.DispatchToSeller(ctx, c.warehouseOwner, order.Addr(), c.logistics.Addr(), 1_000_000_000); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	t.Run("DoubleDispatch", func(t *testing.T) {
		err := c.eng.DispatchToSeller(ctx, c.warehouseOwner, order.Addr(), c.logistics.Addr(), 1_000_000_000)
		if !errors.Is(err, provenance.ErrAlreadyFulfilled) {
			t.Errorf("err = %v, want ErrAlreadyFulfilled", err)
		}
	})

	t.Run("ReceiveByNonSeller", func(t *testing.T) {
		_, err := c.eng.ReceiveAsSeller(ctx, c.warehouseOwner, order.Addr(), 0)
		if !errors.Is(err, provenance.ErrInvalidRole) {
			t.Errorf("err = %v, want ErrInvalidRole", err)
		}
	})

	if _, err := c.eng.ReceiveAsSeller(ctx, c.sellerOwner, order.Addr(), 0); err != nil {
		t.Fatalf("receive: %v", err)
	}

	t.Run("DoubleReceive", func(t *testing.T) {
		_, err := c.eng.ReceiveAsSeller(ctx, c.sellerOwner, order.Addr(), 0)
		if !errors.Is(err, provenance.ErrAlreadyFulfilled) {
			t.Errorf("err = %v, want ErrAlreadyFulfilled", err)
		}
	})
}

func TestDispatchAfterRestock(t *testing.T) {
	ctx := context.Background()
	c := newChain(t)

	if _, err := c.eng.BuyAsWarehouse(ctx, c.warehouseOwner, c.warehouse.Addr(), c.product.Addr(), 5); err != nil {
		t.Fatalf("buy: %v", err)
	}

	// Two pending orders for the first product line; only one will ship
	// before the warehouse restocks.
	stale, err := c.eng.OrderAsSeller(ctx, c.sellerOwner, c.seller.Addr(), c.warehouse.Addr(), 5)
	if err != nil {
		t.Fatalf("stale order: %v", err)
	}
	fresh, err := c.eng.OrderAsSeller(ctx, c.sellerOwner, c.seller.Addr(), c.warehouse.Addr(), 5)
	if err != nil {
		t.Fatalf("fresh order: %v", err)
	}
	if err := c.eng.DispatchToSeller(ctx, c.warehouseOwner, fresh.Addr(), c.logistics.Addr(), 1_000_000_000); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if _, err := c.eng.ReceiveAsSeller(ctx, c.sellerOwner, fresh.Addr(), 0); err != nil {
		t.Fatalf("receive: %v", err)
	}

	// Warehouse is empty, so it may switch product lines.
	second, err := c.eng.CreateProduct(ctx, c.factoryOwner, provenance.ProductSpec{
		Factory:        c.factory.Addr(),
		Name:           "Gadget",
		BatchNumber:    "B-002",
		UnitPrice:      4_000_000_000,
		ProductionCost: 3_000_000_000,
		MRP:            8_000_000_000,
		Stock:          5,
	})
	if err != nil {
		t.Fatalf("create second product: %v", err)
	}
	if _, err := c.eng.BuyAsWarehouse(ctx, c.warehouseOwner, c.warehouse.Addr(), second.Addr(), 5); err != nil {
		t.Fatalf("restock: %v", err)
	}

	// The stale order names the first product; the restocked units must
	// not ship against it.
	err = c.eng.DispatchToSeller(ctx, c.warehouseOwner, stale.Addr(), c.logistics.Addr(), 1_000_000_000)
	if !errors.Is(err, provenance.ErrInsufficientStock) {
		t.Fatalf("stale dispatch err = %v, want ErrInsufficientStock", err)
	}

	stale, _ = c.eng.GetOrder(ctx, stale.Addr())
	warehouse, _ := c.eng.GetWarehouse(ctx, c.warehouse.Addr())
	if stale.Status != inventory.OrderPending {
		t.Errorf("stale order status = %q, want pending", stale.Status)
	}
	if warehouse.Stock != 5 || !warehouse.Product.Equal(second.Addr()) {
		t.Errorf("warehouse = %d units of %s, want 5 of %s",
			warehouse.Stock, warehouse.Product.Short(), second.Addr().Short())
	}

	// Conservation per product line: 10 Widgets ever produced, 5 still at
	// the factory and 5 in the seller lot; all 5 Gadgets in the warehouse.
	first, _ := c.eng.GetProduct(ctx, c.product.Addr())
	lots, err := c.eng.ListSellerStock(ctx, c.seller.Addr(), store.ListOpts{})
	if err != nil {
		t.Fatalf("list lots: %v", err)
	}
	var firstUnits uint64 = first.Stock
	for _, lot := range lots {
		if lot.Product.Equal(c.product.Addr()) {
			firstUnits += lot.Stock
		}
	}
	if firstUnits != 10 {
		t.Errorf("first product units accounted = %d, want 10", firstUnits)
	}
}

func TestBuyAsCustomerErrors(t *testing.T) {
	ctx := context.Background()
	c := newChain(t)

	if _, err := c.eng.BuyAsWarehouse(ctx, c.warehouseOwner, c.warehouse.Addr(), c.product.Addr(), 5); err != nil {
		t.Fatalf("buy: %v", err)
	}
	order, err := c.eng.OrderAsSeller(ctx, c.sellerOwner, c.seller.Addr(), c.warehouse.Addr(), 5)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if err := c.eng.DispatchToSeller(ctx, c.warehouseOwner, order.Addr(), c.logistics.Addr(), 1_000_000_000); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	lot, err := c.eng.ReceiveAsSeller(ctx, c.sellerOwner, order.Addr(), 500_000_000)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}

	t.Run("Unregistered", func(t *testing.T) {
		ghost := address.FromSeed([]byte("ghost"))
		_, err := c.eng.BuyAsCustomer(ctx, ghost, lot.Addr(), 1)
		if !errors.Is(err, provenance.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("OverLotStock", func(t *testing.T) {
		_, err := c.eng.BuyAsCustomer(ctx, c.customer, lot.Addr(), 6)
		if !errors.Is(err, provenance.ErrInsufficientStock) {
			t.Errorf("err = %v, want ErrInsufficientStock", err)
		}
	})

	// Any registered role may buy, not just customers.
	if _, err := c.eng.BuyAsCustomer(ctx, c.carrierOwner, lot.Addr(), 1); err != nil {
		t.Errorf("carrier purchase failed: %v", err)
	}
}

// doublePolicy doubles the additive price; used to verify the pricing
// policy plugin path.
type doublePolicy struct{}

func (doublePolicy) Name() string       { return "double-pricing" }
func (doublePolicy) PolicyName() string { return "double" }
func (doublePolicy) StockPrice(unitPrice, margin uint64) uint64 {
	return (unitPrice + margin) * 2
}

func TestPricingPolicy(t *testing.T) {
	ctx := context.Background()
	c := newChain(t,
		provenance.WithPlugin(doublePolicy{}),
		provenance.WithPricingPolicy("double"),
	)

	if _, err := c.eng.BuyAsWarehouse(ctx, c.warehouseOwner, c.warehouse.Addr(), c.product.Addr(), 5); err != nil {
		t.Fatalf("buy: %v", err)
	}
	order, err := c.eng.OrderAsSeller(ctx, c.sellerOwner, c.seller.Addr(), c.warehouse.Addr(), 5)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if err := c.eng.DispatchToSeller(ctx, c.warehouseOwner, order.Addr(), c.logistics.Addr(), 1_000_000_000); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	lot, err := c.eng.ReceiveAsSeller(ctx, c.sellerOwner, order.Addr(), 1_000_000_000)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if want := types.Amount(10_000_000_000); lot.StockPrice != want {
		t.Errorf("stock price = %s, want %s (policy doubled)", lot.StockPrice, want)
	}
}
