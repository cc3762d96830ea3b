package provenance

import (
	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/types"
)

// Re-export common types for convenience so users don't have to import
// the address and types packages for everyday calls.

// Address is re-exported from the address package.
type Address = address.Address

// Amount is re-exported from the types package.
type Amount = types.Amount

// Record is re-exported from the types package.
type Record = types.Record

// Re-export address helpers.
var (
	Derive       = address.Derive
	ParseAddress = address.Parse
)
