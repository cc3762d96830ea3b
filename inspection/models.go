// Package inspection defines quality inspection records attached to
// products by actors with the INSPECTOR role.
package inspection

import (
	"time"

	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/types"
)

// Outcome is the inspection verdict.
type Outcome string

// Inspection outcomes.
const (
	OutcomePass Outcome = "PASS"
	OutcomeFail Outcome = "FAIL"
)

// Valid reports whether the outcome is a member of the closed set.
func (o Outcome) Valid() bool {
	return o == OutcomePass || o == OutcomeFail
}

// Inspection is one quality record. The inspector's earnings accrue on
// Balance once the factory settles the fee; the Paid flag guards against
// double settlement.
type Inspection struct {
	types.Record
	SeqID     uint64          `json:"seq_id"`
	Owner     address.Address `json:"owner"` // inspector wallet
	User      address.Address `json:"user"`
	Name      string          `json:"name"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`

	Product   address.Address `json:"product"`
	ProductID uint64          `json:"product_id"`
	Outcome   Outcome         `json:"outcome"`
	Notes     string          `json:"notes"`

	FeePerUnit  types.Amount `json:"fee_per_unit"`
	FeeCharged  types.Amount `json:"fee_charged"` // set when paid
	Paid        bool         `json:"paid"`
	Balance     types.Amount `json:"balance"`
	InspectedAt time.Time    `json:"inspected_at"`
}
