// Package accounting defines the append-only transaction log. One
// Transaction is minted per money-moving operation and never mutated or
// deleted afterwards.
package accounting

import (
	"time"

	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/types"
)

// Kind classifies a transaction by the operation that minted it.
type Kind string

// Transaction kinds.
const (
	KindPurchase      Kind = "purchase"       // warehouse buys from factory
	KindOrder         Kind = "order"          // seller pays warehouse on order
	KindDelivery      Kind = "delivery"       // warehouse pays logistics on dispatch
	KindSale          Kind = "sale"           // customer buys from seller
	KindInspectionFee Kind = "inspection_fee" // factory settles inspection
	KindWithdrawal    Kind = "withdrawal"     // balance moved to external wallet
)

// Transaction is one immutable value movement between two parties.
// Amount is the gross value; Fee is the platform skim taken out of it, so
// the counterpart was credited Amount-Fee. Gross == net + fee always.
type Transaction struct {
	types.Record
	SeqID      uint64          `json:"seq_id"` // index under the minting user
	User       address.Address `json:"user"`   // actor whose counter minted it
	From       address.Address `json:"from"`
	To         address.Address `json:"to"`
	Amount     types.Amount    `json:"amount"`
	Fee        types.Amount    `json:"fee"`
	Kind       Kind            `json:"kind"`
	PaymentRef string          `json:"payment_ref,omitempty"` // external wallet ref, withdrawals only
	Timestamp  time.Time       `json:"timestamp"`
}

// Net returns the amount credited to the counterpart after the fee skim.
func (t *Transaction) Net() types.Amount {
	net, _ := t.Amount.Sub(t.Fee)
	return net
}
