// Package identity defines the actor registry: one User record per wallet
// identity, carrying the role and the per-kind counters that drive child
// address derivation.
package identity

import (
	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/types"
)

// Role is the closed set of actor roles.
type Role string

// Role constants.
const (
	RoleFactory   Role = "FACTORY"
	RoleWarehouse Role = "WAREHOUSE"
	RoleSeller    Role = "SELLER"
	RoleLogistics Role = "LOGISTICS"
	RoleInspector Role = "INSPECTOR"
	RoleCustomer  Role = "CUSTOMER"
)

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleFactory, RoleWarehouse, RoleSeller, RoleLogistics, RoleInspector, RoleCustomer:
		return true
	}
	return false
}

// CounterKind names one of the per-user monotonic counters.
type CounterKind string

// Counter kinds. Each counter mints the index for the next child entity
// of that kind derived under the user.
const (
	CounterFactory    CounterKind = "factory"
	CounterWarehouse  CounterKind = "warehouse"
	CounterSeller     CounterKind = "seller"
	CounterLogistics  CounterKind = "logistics"
	CounterInspection CounterKind = "inspection"
	CounterProduct    CounterKind = "product"
	CounterTx         CounterKind = "transaction"
)

// User is one registered actor. Balances live on the role sub-entities,
// never here; the user record only holds identity and counters.
type User struct {
	types.Record
	Owner address.Address `json:"owner"` // attested wallet identity
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  Role            `json:"role"`

	FactoryCount    uint64 `json:"factory_count"`
	WarehouseCount  uint64 `json:"warehouse_count"`
	SellerCount     uint64 `json:"seller_count"`
	LogisticsCount  uint64 `json:"logistics_count"`
	InspectionCount uint64 `json:"inspection_count"`
	ProductCount    uint64 `json:"product_count"`
	TxCount         uint64 `json:"transaction_count"`
}

// AddressFor derives the deterministic user address for a wallet identity.
// Every wallet owns at most one user record, at index zero.
func AddressFor(owner address.Address) address.Address {
	return address.Derive(address.NamespaceUser, owner, 0)
}

// Counter returns the current value of the named counter.
func (u *User) Counter(kind CounterKind) uint64 {
	switch kind {
	case CounterFactory:
		return u.FactoryCount
	case CounterWarehouse:
		return u.WarehouseCount
	case CounterSeller:
		return u.SellerCount
	case CounterLogistics:
		return u.LogisticsCount
	case CounterInspection:
		return u.InspectionCount
	case CounterProduct:
		return u.ProductCount
	case CounterTx:
		return u.TxCount
	}
	return 0
}

// NextCounter returns the index the next child of this kind will take, and
// reports whether the increment is representable. Counters never wrap.
func (u *User) NextCounter(kind CounterKind) (uint64, bool) {
	cur := u.Counter(kind)
	if cur == ^uint64(0) {
		return 0, false
	}
	return cur + 1, true
}

// BumpCounter commits the increment. Called exactly once per successfully
// created child entity or posted transaction, inside the same batch.
func (u *User) BumpCounter(kind CounterKind) {
	switch kind {
	case CounterFactory:
		u.FactoryCount++
	case CounterWarehouse:
		u.WarehouseCount++
	case CounterSeller:
		u.SellerCount++
	case CounterLogistics:
		u.LogisticsCount++
	case CounterInspection:
		u.InspectionCount++
	case CounterProduct:
		u.ProductCount++
	case CounterTx:
		u.TxCount++
	}
}
