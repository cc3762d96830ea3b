// Package platform defines the singleton platform state: the owner
// identity and the fee rate consulted on every money-moving operation.
package platform

import (
	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/types"
)

// DefaultFeeBps is the fee rate set at bootstrap (2%).
const DefaultFeeBps uint32 = 200

// MaxFeeBps caps the fee rate an owner may set (5%).
const MaxFeeBps uint32 = 500

// State is the platform singleton. Exactly one record exists, at
// StateAddress(). Fee skims accrue on Accrued and are paid out to the
// owner through the ordinary withdrawal path.
type State struct {
	types.Record
	Owner       address.Address `json:"owner"`
	FeeBps      uint32          `json:"fee_bps"`
	Accrued     types.Amount    `json:"accrued"`
	Initialized bool            `json:"initialized"`
}

// StateAddress returns the deterministic address of the singleton.
func StateAddress() address.Address {
	return address.Derive(address.NamespacePlatform, address.Zero, 0)
}
