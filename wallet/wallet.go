// Package wallet abstracts the external value-transfer primitive used by
// withdrawals. The ledger never holds external funds itself; a withdrawal
// asks the environment to move the net amount to the account owner's
// wallet and records the returned payment reference on the transaction.
package wallet

import (
	"context"
	"fmt"

	"go.jetify.com/typeid/v2"

	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/types"
)

// RefPrefix is the TypeID prefix for payment references.
const RefPrefix = "pay"

// Wallet moves value to an address outside the record store. Transfer
// returns an opaque payment reference on success. A failed transfer must
// leave no external effect; the engine aborts the whole operation and the
// ledger state is unchanged.
type Wallet interface {
	Transfer(ctx context.Context, from, to address.Address, amount types.Amount) (ref string, err error)
}

// TransferFunc adapts a plain function to the Wallet interface.
type TransferFunc func(ctx context.Context, from, to address.Address, amount types.Amount) (string, error)

// Transfer implements Wallet.
func (f TransferFunc) Transfer(ctx context.Context, from, to address.Address, amount types.Amount) (string, error) {
	return f(ctx, from, to, amount)
}

// NewRef generates a fresh payment reference ("pay_…"). K-sortable, so
// reference order follows issue order.
func NewRef() string {
	tid, err := typeid.Generate(RefPrefix)
	if err != nil {
		// The prefix is a compile-time constant; generation cannot fail.
		panic(fmt.Sprintf("wallet: generate ref: %v", err))
	}
	return tid.String()
}

// Nop returns a Wallet that performs no external transfer and always
// succeeds. The default for tests and for deployments that settle
// externally.
func Nop() Wallet {
	return TransferFunc(func(_ context.Context, _, _ address.Address, _ types.Amount) (string, error) {
		return NewRef(), nil
	})
}
