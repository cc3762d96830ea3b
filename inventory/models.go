// Package inventory defines the stock-holding records along the product
// path — factory, warehouse, logistics shipment, seller lot, customer
// holding — and the order reservation that links them.
//
// Stock moves along a directed path, one atomic edge at a time:
//
//	Factory.Stock → Warehouse.Stock → Logistics.Carried →
//	SellerStock.Stock → CustomerProduct.Stock (terminal)
//
// Units are conserved: every decrement on a source field is matched by an
// equal increment on the destination field in the same batch.
package inventory

import (
	"time"

	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/types"
)

// Factory produces products. Its balance accrues net proceeds from
// warehouse purchases and is debited by inspection payments and
// withdrawals.
type Factory struct {
	types.Record
	SeqID       uint64          `json:"seq_id"` // index under the owning user
	Owner       address.Address `json:"owner"`
	User        address.Address `json:"user"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	ContactInfo string          `json:"contact_info"`

	ProductCount uint64       `json:"product_count"`
	Balance      types.Amount `json:"balance"`
}

// Product is one production batch. Stock only ever decreases here; sold
// units move down the path.
type Product struct {
	types.Record
	SeqID       uint64          `json:"seq_id"`
	Factory     address.Address `json:"factory"`
	FactoryID   uint64          `json:"factory_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	BatchNumber string          `json:"batch_number"`
	ImageURI    string          `json:"image_uri"`

	UnitPrice      types.Amount `json:"unit_price"`      // wholesale price per unit
	ProductionCost types.Amount `json:"production_cost"` // per-unit raw material cost
	MRP            types.Amount `json:"mrp"`             // maximum retail price
	Stock          uint64       `json:"stock"`

	QualityChecked    bool            `json:"quality_checked"`
	Inspection        address.Address `json:"inspection"` // zero until inspected
	InspectionFeePaid bool            `json:"inspection_fee_paid"`
}

// Warehouse buys stock from a factory and dispatches it to sellers via
// logistics.
type Warehouse struct {
	types.Record
	SeqID       uint64          `json:"seq_id"`
	Owner       address.Address `json:"owner"`
	User        address.Address `json:"user"`
	Factory     address.Address `json:"factory"` // linked source factory
	FactoryID   uint64          `json:"factory_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ContactInfo string          `json:"contact_info"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	Size        uint64          `json:"size"`

	Product        address.Address `json:"product"` // product currently held
	ProductID      uint64          `json:"product_id"`
	Stock          uint64          `json:"stock"`
	LogisticsCount uint64          `json:"logistics_count"`
	Balance        types.Amount    `json:"balance"`
}

// Seller lists stock lots for customers.
type Seller struct {
	types.Record
	SeqID       uint64          `json:"seq_id"`
	Owner       address.Address `json:"owner"`
	User        address.Address `json:"user"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ContactInfo string          `json:"contact_info"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`

	StockLotCount uint64       `json:"stock_lot_count"` // mints SellerStock indexes
	OrderCount    uint64       `json:"order_count"`     // mints Order indexes
	Balance       types.Amount `json:"balance"`
}

// OrderStatus is the order lifecycle state.
type OrderStatus string

// Order lifecycle states.
const (
	OrderPending    OrderStatus = "ordered"
	OrderDispatched OrderStatus = "dispatched"
	OrderDelivered  OrderStatus = "delivered"
)

// Order is a seller's paid reservation against warehouse stock. Stock does
// not move until dispatch.
type Order struct {
	types.Record
	SeqID       uint64          `json:"seq_id"`
	Seller      address.Address `json:"seller"`
	SellerID    uint64          `json:"seller_id"`
	Warehouse   address.Address `json:"warehouse"`
	WarehouseID uint64          `json:"warehouse_id"`
	Product     address.Address `json:"product"`
	ProductID   uint64          `json:"product_id"`
	Quantity    uint64          `json:"quantity"`
	TotalPrice  types.Amount    `json:"total_price"`

	Logistics   address.Address `json:"logistics"` // set on dispatch
	LogisticsID uint64          `json:"logistics_id"`
	Status      OrderStatus     `json:"status"`
}

// LogisticsStatus is the shipment lifecycle state.
type LogisticsStatus string

// Shipment lifecycle states.
const (
	LogisticsIdle      LogisticsStatus = "idle"
	LogisticsInTransit LogisticsStatus = "in_transit"
	LogisticsDelivered LogisticsStatus = "delivered"
)

// Logistics is a carrier shipment context. Carried units exist only while
// a dispatched order has not yet been received.
type Logistics struct {
	types.Record
	SeqID         uint64          `json:"seq_id"`
	Owner         address.Address `json:"owner"`
	User          address.Address `json:"user"`
	Name          string          `json:"name"`
	TransportMode string          `json:"transport_mode"`
	ContactInfo   string          `json:"contact_info"`
	Latitude      float64         `json:"latitude"`
	Longitude     float64         `json:"longitude"`

	Warehouse   address.Address `json:"warehouse"`
	WarehouseID uint64          `json:"warehouse_id"`
	Product     address.Address `json:"product"`
	ProductID   uint64          `json:"product_id"`
	Carried     uint64          `json:"carried"`

	Status            LogisticsStatus `json:"status"`
	ShipmentCost      types.Amount    `json:"shipment_cost"`
	Delivered         bool            `json:"delivered"`
	ShipmentStartedAt time.Time       `json:"shipment_started_at"`
	ShipmentEndedAt   time.Time       `json:"shipment_ended_at"`
	Balance           types.Amount    `json:"balance"`
}

// SellerStock is one received lot listed for retail. StockPrice is
// recomputed by the engine from the wholesale unit price plus the seller's
// margin at receipt time; it is never taken from caller input.
type SellerStock struct {
	types.Record
	SeqID      uint64          `json:"seq_id"`
	Seller     address.Address `json:"seller"`
	SellerID   uint64          `json:"seller_id"`
	Product    address.Address `json:"product"`
	ProductID  uint64          `json:"product_id"`
	Stock      uint64          `json:"stock"`
	StockPrice types.Amount    `json:"stock_price"`
}

// CustomerProduct is the terminal holding: units bought by a customer.
// Never mutated after creation.
type CustomerProduct struct {
	types.Record
	Owner       address.Address `json:"owner"` // customer wallet
	User        address.Address `json:"user"`
	Product     address.Address `json:"product"`
	ProductID   uint64          `json:"product_id"`
	Seller      address.Address `json:"seller"`
	Stock       uint64          `json:"stock"`
	PurchasedAt time.Time       `json:"purchased_at"`
}
