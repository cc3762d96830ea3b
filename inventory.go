package provenance

import (
	"context"

	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/inventory"
	"github.com/xraph/provenance/store"
	"github.com/xraph/provenance/types"
)

// FactorySpec describes a factory to create.
type FactorySpec struct {
	Name        string
	Description string
	Latitude    float64
	Longitude   float64
	ContactInfo string
}

// WarehouseSpec describes a warehouse to create. Factory is the source
// factory the warehouse buys from.
type WarehouseSpec struct {
	Factory     address.Address
	Name        string
	Description string
	ContactInfo string
	Latitude    float64
	Longitude   float64
	Size        uint64
}

// SellerSpec describes a seller to create.
type SellerSpec struct {
	Name        string
	Description string
	ContactInfo string
	Latitude    float64
	Longitude   float64
}

// LogisticsSpec describes a logistics carrier to create.
type LogisticsSpec struct {
	Name          string
	TransportMode string
	ContactInfo   string
	Latitude      float64
	Longitude     float64
	ShipmentCost  types.Amount
}

// ProductSpec describes a production batch to create under a factory.
type ProductSpec struct {
	Factory        address.Address
	Name           string
	Description    string
	BatchNumber    string
	ImageURI       string
	UnitPrice      types.Amount
	ProductionCost types.Amount
	MRP            types.Amount
	Stock          uint64
}

// CreateFactory registers a factory under the calling user. The caller
// must hold the FACTORY role; the factory address is minted from the
// user's factory counter.
func (e *Engine) CreateFactory(ctx context.Context, caller address.Address, spec FactorySpec) (*inventory.Factory, error) {
	if spec.Name == "" {
		return nil, ValidationError{Field: "name", Message: "must not be empty"}
	}

	user, err := e.actorFor(ctx, caller, identity.RoleFactory)
	if err != nil {
		return nil, err
	}

	seq, ok := user.NextCounter(identity.CounterFactory)
	if !ok {
		return nil, ErrOverflow
	}

	f := &inventory.Factory{
		Record:      types.NewRecord(address.Derive(address.NamespaceFactory, user.Addr(), seq)),
		SeqID:       seq,
		Owner:       caller,
		User:        user.Addr(),
		Name:        spec.Name,
		Description: spec.Description,
		Latitude:    spec.Latitude,
		Longitude:   spec.Longitude,
		ContactInfo: spec.ContactInfo,
	}
	user.BumpCounter(identity.CounterFactory)

	if err := e.store.Apply(ctx, store.NewBatch().Create(f).Update(user)); err != nil {
		return nil, err
	}

	e.plugins.EmitEntityCreated(ctx, "factory", f)
	e.logger.Info("factory created", "factory", f.Addr().Short(), "seq", seq)
	return f, nil
}

// CreateWarehouse registers a warehouse linked to a source factory. The
// caller must hold the WAREHOUSE role.
func (e *Engine) CreateWarehouse(ctx context.Context, caller address.Address, spec WarehouseSpec) (*inventory.Warehouse, error) {
	if spec.Name == "" {
		return nil, ValidationError{Field: "name", Message: "must not be empty"}
	}

	user, err := e.actorFor(ctx, caller, identity.RoleWarehouse)
	if err != nil {
		return nil, err
	}

	factory, err := e.store.GetFactory(ctx, spec.Factory)
	if err != nil {
		return nil, err
	}

	seq, ok := user.NextCounter(identity.CounterWarehouse)
	if !ok {
		return nil, ErrOverflow
	}

	w := &inventory.Warehouse{
		Record:      types.NewRecord(address.Derive(address.NamespaceWarehouse, user.Addr(), seq)),
		SeqID:       seq,
		Owner:       caller,
		User:        user.Addr(),
		Factory:     factory.Addr(),
		FactoryID:   factory.SeqID,
		Name:        spec.Name,
		Description: spec.Description,
		ContactInfo: spec.ContactInfo,
		Latitude:    spec.Latitude,
		Longitude:   spec.Longitude,
		Size:        spec.Size,
	}
	user.BumpCounter(identity.CounterWarehouse)

	if err := e.store.Apply(ctx, store.NewBatch().Create(w).Update(user)); err != nil {
		return nil, err
	}

	e.plugins.EmitEntityCreated(ctx, "warehouse", w)
	e.logger.Info("warehouse created", "warehouse", w.Addr().Short(), "factory", factory.Addr().Short())
	return w, nil
}

// CreateSeller registers a seller under the calling user. The caller must
// hold the SELLER role.
func (e *Engine) CreateSeller(ctx context.Context, caller address.Address, spec SellerSpec) (*inventory.Seller, error) {
	if spec.Name == "" {
		return nil, ValidationError{Field: "name", Message: "must not be empty"}
	}

	user, err := e.actorFor(ctx, caller, identity.RoleSeller)
	if err != nil {
		return nil, err
	}

	seq, ok := user.NextCounter(identity.CounterSeller)
	if !ok {
		return nil, ErrOverflow
	}

	s := &inventory.Seller{
		Record:      types.NewRecord(address.Derive(address.NamespaceSeller, user.Addr(), seq)),
		SeqID:       seq,
		Owner:       caller,
		User:        user.Addr(),
		Name:        spec.Name,
		Description: spec.Description,
		ContactInfo: spec.ContactInfo,
		Latitude:    spec.Latitude,
		Longitude:   spec.Longitude,
	}
	user.BumpCounter(identity.CounterSeller)

	if err := e.store.Apply(ctx, store.NewBatch().Create(s).Update(user)); err != nil {
		return nil, err
	}

	e.plugins.EmitEntityCreated(ctx, "seller", s)
	e.logger.Info("seller created", "seller", s.Addr().Short(), "seq", seq)
	return s, nil
}

// CreateLogistics registers a carrier under the calling user. The caller
// must hold the LOGISTICS role.
func (e *Engine) CreateLogistics(ctx context.Context, caller address.Address, spec LogisticsSpec) (*inventory.Logistics, error) {
	if spec.Name == "" {
		return nil, ValidationError{Field: "name", Message: "must not be empty"}
	}

	user, err := e.actorFor(ctx, caller, identity.RoleLogistics)
	if err != nil {
		return nil, err
	}

	seq, ok := user.NextCounter(identity.CounterLogistics)
	if !ok {
		return nil, ErrOverflow
	}

	l := &inventory.Logistics{
		Record:        types.NewRecord(address.Derive(address.NamespaceLogistics, user.Addr(), seq)),
		SeqID:         seq,
		Owner:         caller,
		User:          user.Addr(),
		Name:          spec.Name,
		TransportMode: spec.TransportMode,
		ContactInfo:   spec.ContactInfo,
		Latitude:      spec.Latitude,
		Longitude:     spec.Longitude,
		Status:        inventory.LogisticsIdle,
		ShipmentCost:  spec.ShipmentCost,
	}
	user.BumpCounter(identity.CounterLogistics)

	if err := e.store.Apply(ctx, store.NewBatch().Create(l).Update(user)); err != nil {
		return nil, err
	}

	e.plugins.EmitEntityCreated(ctx, "logistics", l)
	e.logger.Info("logistics created", "logistics", l.Addr().Short(), "seq", seq)
	return l, nil
}

// CreateProduct mints a production batch under a factory owned by the
// caller. The product address is minted from the factory's product
// counter, not the user's.
func (e *Engine) CreateProduct(ctx context.Context, caller address.Address, spec ProductSpec) (*inventory.Product, error) {
	switch {
	case spec.Name == "":
		return nil, ValidationError{Field: "name", Message: "must not be empty"}
	case spec.UnitPrice.IsZero():
		return nil, ValidationError{Field: "unit_price", Message: "must be positive"}
	case spec.MRP < spec.UnitPrice:
		return nil, ValidationError{Field: "mrp", Message: "must not be below unit price"}
	}

	if _, err := e.actorFor(ctx, caller, identity.RoleFactory); err != nil {
		return nil, err
	}

	factory, err := e.store.GetFactory(ctx, spec.Factory)
	if err != nil {
		return nil, err
	}
	if !factory.Owner.Equal(caller) {
		return nil, ErrUnauthorized
	}

	seq := factory.ProductCount + 1
	if seq == 0 {
		return nil, ErrOverflow
	}

	p := &inventory.Product{
		Record:         types.NewRecord(address.Derive(address.NamespaceProduct, factory.Addr(), seq)),
		SeqID:          seq,
		Factory:        factory.Addr(),
		FactoryID:      factory.SeqID,
		Name:           spec.Name,
		Description:    spec.Description,
		BatchNumber:    spec.BatchNumber,
		ImageURI:       spec.ImageURI,
		UnitPrice:      spec.UnitPrice,
		ProductionCost: spec.ProductionCost,
		MRP:            spec.MRP,
		Stock:          spec.Stock,
	}
	factory.ProductCount = seq

	if err := e.store.Apply(ctx, store.NewBatch().Create(p).Update(factory)); err != nil {
		return nil, err
	}

	e.plugins.EmitEntityCreated(ctx, "product", p)
	e.logger.Info("product created",
		"product", p.Addr().Short(),
		"factory", factory.Addr().Short(),
		"stock", p.Stock,
	)
	return p, nil
}

// GetFactory retrieves a factory by address.
func (e *Engine) GetFactory(ctx context.Context, addr address.Address) (*inventory.Factory, error) {
	return e.store.GetFactory(ctx, addr)
}

// GetProduct retrieves a product by address.
func (e *Engine) GetProduct(ctx context.Context, addr address.Address) (*inventory.Product, error) {
	return e.store.GetProduct(ctx, addr)
}

// GetWarehouse retrieves a warehouse by address.
func (e *Engine) GetWarehouse(ctx context.Context, addr address.Address) (*inventory.Warehouse, error) {
	return e.store.GetWarehouse(ctx, addr)
}

// GetSeller retrieves a seller by address.
func (e *Engine) GetSeller(ctx context.Context, addr address.Address) (*inventory.Seller, error) {
	return e.store.GetSeller(ctx, addr)
}

// GetOrder retrieves an order by address.
func (e *Engine) GetOrder(ctx context.Context, addr address.Address) (*inventory.Order, error) {
	return e.store.GetOrder(ctx, addr)
}

// GetLogistics retrieves a logistics record by address.
func (e *Engine) GetLogistics(ctx context.Context, addr address.Address) (*inventory.Logistics, error) {
	return e.store.GetLogistics(ctx, addr)
}

// GetSellerStock retrieves a seller stock lot by address.
func (e *Engine) GetSellerStock(ctx context.Context, addr address.Address) (*inventory.SellerStock, error) {
	return e.store.GetSellerStock(ctx, addr)
}

// GetCustomerProduct retrieves a customer holding by address.
func (e *Engine) GetCustomerProduct(ctx context.Context, addr address.Address) (*inventory.CustomerProduct, error) {
	return e.store.GetCustomerProduct(ctx, addr)
}

// ListProducts lists the products minted under a factory.
func (e *Engine) ListProducts(ctx context.Context, factory address.Address, opts store.ListOpts) ([]*inventory.Product, error) {
	return e.store.ListProductsByFactory(ctx, factory, opts)
}

// ListOrders lists the orders placed by a seller.
func (e *Engine) ListOrders(ctx context.Context, seller address.Address, opts store.ListOpts) ([]*inventory.Order, error) {
	return e.store.ListOrdersBySeller(ctx, seller, opts)
}

// ListSellerStock lists the stock lots held by a seller.
func (e *Engine) ListSellerStock(ctx context.Context, seller address.Address, opts store.ListOpts) ([]*inventory.SellerStock, error) {
	return e.store.ListStockBySeller(ctx, seller, opts)
}

// ListCustomerProducts lists the holdings bought by a customer wallet.
func (e *Engine) ListCustomerProducts(ctx context.Context, owner address.Address, opts store.ListOpts) ([]*inventory.CustomerProduct, error) {
	return e.store.ListHoldingsByCustomer(ctx, owner, opts)
}

// actorFor loads the caller's user record and checks the role required by
// the operation.
func (e *Engine) actorFor(ctx context.Context, caller address.Address, role identity.Role) (*identity.User, error) {
	user, err := e.userFor(ctx, caller)
	if err != nil {
		return nil, err
	}
	if user.Role != role {
		return nil, ErrInvalidRole
	}
	return user, nil
}
