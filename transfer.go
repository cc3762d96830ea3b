package provenance

import (
	"context"
	"time"

	"github.com/xraph/provenance/accounting"
	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/inventory"
	"github.com/xraph/provenance/store"
	"github.com/xraph/provenance/types"
)

// Transfer stages reported to plugins.
const (
	stagePurchase = "purchase"
	stageOrder    = "order"
	stageDispatch = "dispatch"
	stageReceive  = "receive"
	stageSale     = "sale"
)

// BuyAsWarehouse moves quantity units from a product's factory stock into
// a warehouse the caller owns. The purchase is funded by the caller's
// external wallet: the factory is credited the net price and the platform
// accrues the fee.
func (e *Engine) BuyAsWarehouse(ctx context.Context, caller address.Address, warehouseAddr, productAddr address.Address, quantity uint64) (*accounting.Transaction, error) {
	if quantity == 0 {
		return nil, ValidationError{Field: "quantity", Message: "must be positive"}
	}

	user, err := e.actorFor(ctx, caller, identity.RoleWarehouse)
	if err != nil {
		return nil, err
	}

	warehouse, err := e.store.GetWarehouse(ctx, warehouseAddr)
	if err != nil {
		return nil, err
	}
	if !warehouse.Owner.Equal(caller) {
		return nil, ErrUnauthorized
	}

	product, err := e.store.GetProduct(ctx, productAddr)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, ErrInsufficientStock
	}

	// One product line per warehouse.
	if warehouse.Stock > 0 && !warehouse.Product.Equal(productAddr) {
		return nil, ValidationError{Field: "product", Message: "warehouse already holds a different product"}
	}

	factory, err := e.store.GetFactory(ctx, product.Factory)
	if err != nil {
		return nil, err
	}

	st, err := e.platformState(ctx)
	if err != nil {
		return nil, err
	}

	gross, ok := product.UnitPrice.Mul(quantity)
	if !ok {
		return nil, ErrOverflow
	}
	net, fee := gross.SplitFee(st.FeeBps)

	if factory.Balance, ok = factory.Balance.Add(net); !ok {
		return nil, ErrOverflow
	}
	if st.Accrued, ok = st.Accrued.Add(fee); !ok {
		return nil, ErrOverflow
	}

	held, ok := addUnits(warehouse.Stock, quantity)
	if !ok {
		return nil, ErrOverflow
	}
	product.Stock -= quantity
	warehouse.Stock = held
	warehouse.Product = product.Addr()
	warehouse.ProductID = product.SeqID

	tx, err := mintTransaction(user, accounting.KindPurchase, warehouse.Addr(), factory.Addr(), gross, fee)
	if err != nil {
		return nil, err
	}

	batch := store.NewBatch().
		Update(product).
		Update(factory).
		Update(warehouse).
		Update(st).
		Update(user).
		Create(tx)
	if err := e.store.Apply(ctx, batch); err != nil {
		return nil, err
	}

	e.plugins.EmitStockTransferred(ctx, stagePurchase, quantity, factory.Addr().Short(), warehouse.Addr().Short())
	e.plugins.EmitTransactionPosted(ctx, tx)
	e.logger.Info("warehouse purchase",
		"warehouse", warehouse.Addr().Short(),
		"product", product.Addr().Short(),
		"quantity", quantity,
		"gross", uint64(gross),
		"fee", uint64(fee),
	)
	return tx, nil
}

// OrderAsSeller reserves quantity units of the product a warehouse holds.
// No stock or money moves: the order records the total price at current
// wholesale terms and waits for dispatch.
func (e *Engine) OrderAsSeller(ctx context.Context, caller address.Address, sellerAddr, warehouseAddr address.Address, quantity uint64) (*inventory.Order, error) {
	if quantity == 0 {
		return nil, ValidationError{Field: "quantity", Message: "must be positive"}
	}

	if _, err := e.actorFor(ctx, caller, identity.RoleSeller); err != nil {
		return nil, err
	}

	seller, err := e.store.GetSeller(ctx, sellerAddr)
	if err != nil {
		return nil, err
	}
	if !seller.Owner.Equal(caller) {
		return nil, ErrUnauthorized
	}

	warehouse, err := e.store.GetWarehouse(ctx, warehouseAddr)
	if err != nil {
		return nil, err
	}
	if warehouse.Stock < quantity {
		return nil, ErrInsufficientStock
	}

	product, err := e.store.GetProduct(ctx, warehouse.Product)
	if err != nil {
		return nil, err
	}

	total, ok := product.UnitPrice.Mul(quantity)
	if !ok {
		return nil, ErrOverflow
	}

	seq := seller.OrderCount + 1
	if seq == 0 {
		return nil, ErrOverflow
	}

	order := &inventory.Order{
		Record:      types.NewRecord(address.Derive(address.NamespaceOrder, seller.Addr(), seq)),
		SeqID:       seq,
		Seller:      seller.Addr(),
		SellerID:    seller.SeqID,
		Warehouse:   warehouse.Addr(),
		WarehouseID: warehouse.SeqID,
		Product:     product.Addr(),
		ProductID:   product.SeqID,
		Quantity:    quantity,
		TotalPrice:  total,
		Status:      inventory.OrderPending,
	}
	seller.OrderCount = seq

	if err := e.store.Apply(ctx, store.NewBatch().Create(order).Update(seller)); err != nil {
		return nil, err
	}

	e.plugins.EmitEntityCreated(ctx, stageOrder, order)
	e.logger.Info("order placed",
		"order", order.Addr().Short(),
		"seller", seller.Addr().Short(),
		"quantity", quantity,
		"total", uint64(total),
	)
	return order, nil
}

// DispatchToSeller ships a pending order: stock moves from the warehouse
// onto the carrier, the warehouse is credited the net order price and the
// carrier the net delivery fee. Two transactions post, one per value
// movement; both are funded externally by the paying party's wallet.
// Only the owner of the order's warehouse may dispatch.
func (e *Engine) DispatchToSeller(ctx context.Context, caller address.Address, orderAddr, logisticsAddr address.Address, deliveryFee types.Amount) error {
	user, err := e.actorFor(ctx, caller, identity.RoleWarehouse)
	if err != nil {
		return err
	}

	order, err := e.store.GetOrder(ctx, orderAddr)
	if err != nil {
		return err
	}
	if order.Status != inventory.OrderPending {
		return ErrAlreadyFulfilled
	}

	warehouse, err := e.store.GetWarehouse(ctx, order.Warehouse)
	if err != nil {
		return err
	}
	if !warehouse.Owner.Equal(caller) {
		return ErrUnauthorized
	}
	// The warehouse may have sold out and restocked with another product
	// line while the order sat pending.
	if !warehouse.Product.Equal(order.Product) {
		return ErrInsufficientStock
	}
	if warehouse.Stock < order.Quantity {
		return ErrInsufficientStock
	}

	logistics, err := e.store.GetLogistics(ctx, logisticsAddr)
	if err != nil {
		return err
	}
	if logistics.Status == inventory.LogisticsInTransit {
		return ValidationError{Field: "logistics", Message: "carrier already in transit"}
	}

	st, err := e.platformState(ctx)
	if err != nil {
		return err
	}

	orderNet, orderFee := order.TotalPrice.SplitFee(st.FeeBps)
	deliveryNet, deliveryFeeSkim := deliveryFee.SplitFee(st.FeeBps)

	var ok bool
	if warehouse.Balance, ok = warehouse.Balance.Add(orderNet); !ok {
		return ErrOverflow
	}
	if logistics.Balance, ok = logistics.Balance.Add(deliveryNet); !ok {
		return ErrOverflow
	}
	accrued, ok := st.Accrued.Add(orderFee)
	if !ok {
		return ErrOverflow
	}
	if st.Accrued, ok = accrued.Add(deliveryFeeSkim); !ok {
		return ErrOverflow
	}

	carried, ok := addUnits(logistics.Carried, order.Quantity)
	if !ok {
		return ErrOverflow
	}

	now := time.Now().UTC()
	warehouse.Stock -= order.Quantity
	logistics.Carried = carried
	logistics.Warehouse = warehouse.Addr()
	logistics.WarehouseID = warehouse.SeqID
	logistics.Product = order.Product
	logistics.ProductID = order.ProductID
	logistics.Status = inventory.LogisticsInTransit
	logistics.ShipmentCost = deliveryFee
	logistics.Delivered = false
	logistics.ShipmentStartedAt = now
	warehouse.LogisticsCount++

	order.Status = inventory.OrderDispatched
	order.Logistics = logistics.Addr()
	order.LogisticsID = logistics.SeqID

	orderTx, err := mintTransaction(user, accounting.KindOrder, order.Seller, warehouse.Addr(), order.TotalPrice, orderFee)
	if err != nil {
		return err
	}
	deliveryTx, err := mintTransaction(user, accounting.KindDelivery, warehouse.Addr(), logistics.Addr(), deliveryFee, deliveryFeeSkim)
	if err != nil {
		return err
	}

	batch := store.NewBatch().
		Update(order).
		Update(warehouse).
		Update(logistics).
		Update(st).
		Update(user).
		Create(orderTx).
		Create(deliveryTx)
	if err := e.store.Apply(ctx, batch); err != nil {
		return err
	}

	e.plugins.EmitStockTransferred(ctx, stageDispatch, order.Quantity, warehouse.Addr().Short(), logistics.Addr().Short())
	e.plugins.EmitTransactionPosted(ctx, orderTx)
	e.plugins.EmitTransactionPosted(ctx, deliveryTx)
	e.logger.Info("order dispatched",
		"order", order.Addr().Short(),
		"logistics", logistics.Addr().Short(),
		"quantity", order.Quantity,
	)
	return nil
}

// ReceiveAsSeller completes a dispatched order: carried units leave the
// shipment and become a new retail stock lot under the seller. The lot's
// retail price is computed here from the wholesale unit price and the
// seller's margin, or by a registered pricing policy; caller-supplied
// prices are never trusted.
func (e *Engine) ReceiveAsSeller(ctx context.Context, caller address.Address, orderAddr address.Address, margin types.Amount) (*inventory.SellerStock, error) {
	if _, err := e.actorFor(ctx, caller, identity.RoleSeller); err != nil {
		return nil, err
	}

	order, err := e.store.GetOrder(ctx, orderAddr)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case inventory.OrderDispatched:
	case inventory.OrderPending:
		return nil, ErrNotDispatched
	default:
		return nil, ErrAlreadyFulfilled
	}

	seller, err := e.store.GetSeller(ctx, order.Seller)
	if err != nil {
		return nil, err
	}
	if !seller.Owner.Equal(caller) {
		return nil, ErrUnauthorized
	}

	logistics, err := e.store.GetLogistics(ctx, order.Logistics)
	if err != nil {
		return nil, err
	}
	if logistics.Carried < order.Quantity {
		return nil, ErrInsufficientStock
	}

	product, err := e.store.GetProduct(ctx, order.Product)
	if err != nil {
		return nil, err
	}

	price, err := e.stockPrice(product.UnitPrice, margin)
	if err != nil {
		return nil, err
	}

	seq := seller.StockLotCount + 1
	if seq == 0 {
		return nil, ErrOverflow
	}

	lot := &inventory.SellerStock{
		Record:     types.NewRecord(address.Derive(address.NamespaceSellerStock, seller.Addr(), seq)),
		SeqID:      seq,
		Seller:     seller.Addr(),
		SellerID:   seller.SeqID,
		Product:    product.Addr(),
		ProductID:  product.SeqID,
		Stock:      order.Quantity,
		StockPrice: price,
	}
	seller.StockLotCount = seq

	now := time.Now().UTC()
	logistics.Carried -= order.Quantity
	logistics.Status = inventory.LogisticsDelivered
	logistics.Delivered = true
	logistics.ShipmentEndedAt = now
	order.Status = inventory.OrderDelivered

	batch := store.NewBatch().
		Create(lot).
		Update(order).
		Update(logistics).
		Update(seller)
	if err := e.store.Apply(ctx, batch); err != nil {
		return nil, err
	}

	e.plugins.EmitStockTransferred(ctx, stageReceive, order.Quantity, logistics.Addr().Short(), seller.Addr().Short())
	e.plugins.EmitEntityCreated(ctx, "seller_stock", lot)
	e.logger.Info("shipment received",
		"order", order.Addr().Short(),
		"lot", lot.Addr().Short(),
		"stock_price", uint64(price),
	)
	return lot, nil
}

// BuyAsCustomer sells quantity units from a seller's stock lot to the
// calling user. Any registered identity may buy. The purchase is funded
// by the caller's external wallet: the seller is credited the net retail
// price and the platform accrues the fee. The resulting holding is
// terminal and never mutated.
func (e *Engine) BuyAsCustomer(ctx context.Context, caller address.Address, lotAddr address.Address, quantity uint64) (*inventory.CustomerProduct, error) {
	if quantity == 0 {
		return nil, ValidationError{Field: "quantity", Message: "must be positive"}
	}

	user, err := e.userFor(ctx, caller)
	if err != nil {
		return nil, err
	}

	lot, err := e.store.GetSellerStock(ctx, lotAddr)
	if err != nil {
		return nil, err
	}
	if lot.Stock < quantity {
		return nil, ErrInsufficientStock
	}

	seller, err := e.store.GetSeller(ctx, lot.Seller)
	if err != nil {
		return nil, err
	}

	st, err := e.platformState(ctx)
	if err != nil {
		return nil, err
	}

	gross, ok := lot.StockPrice.Mul(quantity)
	if !ok {
		return nil, ErrOverflow
	}
	net, fee := gross.SplitFee(st.FeeBps)

	if seller.Balance, ok = seller.Balance.Add(net); !ok {
		return nil, ErrOverflow
	}
	if st.Accrued, ok = st.Accrued.Add(fee); !ok {
		return nil, ErrOverflow
	}

	seq, ok := user.NextCounter(identity.CounterProduct)
	if !ok {
		return nil, ErrOverflow
	}

	holding := &inventory.CustomerProduct{
		Record:      types.NewRecord(address.Derive(address.NamespaceCustomerProduct, user.Addr(), seq)),
		Owner:       caller,
		User:        user.Addr(),
		Product:     lot.Product,
		ProductID:   lot.ProductID,
		Seller:      seller.Addr(),
		Stock:       quantity,
		PurchasedAt: time.Now().UTC(),
	}
	user.BumpCounter(identity.CounterProduct)

	lot.Stock -= quantity

	tx, err := mintTransaction(user, accounting.KindSale, user.Addr(), seller.Addr(), gross, fee)
	if err != nil {
		return nil, err
	}

	batch := store.NewBatch().
		Create(holding).
		Update(lot).
		Update(seller).
		Update(st).
		Update(user).
		Create(tx)
	if err := e.store.Apply(ctx, batch); err != nil {
		return nil, err
	}

	e.plugins.EmitStockTransferred(ctx, stageSale, quantity, seller.Addr().Short(), user.Addr().Short())
	e.plugins.EmitTransactionPosted(ctx, tx)
	e.logger.Info("customer purchase",
		"lot", lot.Addr().Short(),
		"quantity", quantity,
		"gross", uint64(gross),
		"fee", uint64(fee),
	)
	return holding, nil
}

// stockPrice computes the retail price for a received lot. A configured
// pricing policy plugin takes precedence over the default unit price plus
// margin.
func (e *Engine) stockPrice(unitPrice, margin types.Amount) (types.Amount, error) {
	if e.pricingPolicy != "" {
		if policy := e.plugins.GetPricingPolicy(e.pricingPolicy); policy != nil {
			return types.Amount(policy.StockPrice(uint64(unitPrice), uint64(margin))), nil
		}
		e.logger.Warn("pricing policy not registered, using default", "policy", e.pricingPolicy)
	}
	price, ok := unitPrice.Add(margin)
	if !ok {
		return 0, ErrOverflow
	}
	return price, nil
}

// addUnits is a checked add for stock unit counts.
func addUnits(cur, qty uint64) (uint64, bool) {
	sum := cur + qty
	if sum < cur {
		return 0, false
	}
	return sum, true
}
