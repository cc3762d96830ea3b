package provenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/provenance/accounting"
	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/platform"
	"github.com/xraph/provenance/store"
	"github.com/xraph/provenance/types"
)

// MinWithdrawal is the smallest amount a withdrawal may move.
const MinWithdrawal types.Amount = 1_000_000_000

// Withdraw moves value from a balance-holding account out to its owner's
// external wallet. The account may be a factory, warehouse, seller,
// logistics carrier, inspection record, or the platform state itself; in
// every case only the account owner may withdraw. The gross amount is
// debited, the platform skims its fee, and the net goes out through the
// configured wallet. A failed external transfer aborts the operation with
// no ledger mutation. The external transfer runs before the ledger
// commit, so a commit failure can leave value sent but never debited;
// such a failure is logged with the payment reference, and callers must
// reconcile by that reference before retrying.
func (e *Engine) Withdraw(ctx context.Context, caller address.Address, account address.Address, amount types.Amount) (*accounting.Transaction, error) {
	if amount < MinWithdrawal {
		return nil, ErrBelowMinWithdrawal
	}

	user, err := e.userFor(ctx, caller)
	if err != nil {
		return nil, err
	}

	st, err := e.platformState(ctx)
	if err != nil {
		return nil, err
	}

	acct, err := e.balanceHolder(ctx, account, st)
	if err != nil {
		return nil, err
	}
	if !acct.owner.Equal(caller) {
		return nil, ErrUnauthorized
	}
	if acct.balance() < amount {
		return nil, ErrInsufficientBalance
	}

	net, fee := amount.SplitFee(st.FeeBps)

	acct.debit(amount)
	var ok bool
	if st.Accrued, ok = st.Accrued.Add(fee); !ok {
		return nil, ErrOverflow
	}

	tx, err := mintTransaction(user, accounting.KindWithdrawal, account, caller, amount, fee)
	if err != nil {
		return nil, err
	}

	// External settlement goes first: if it fails nothing is committed.
	ref, err := e.wallet.Transfer(ctx, account, caller, net)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	tx.PaymentRef = ref

	batch := store.NewBatch().
		Update(acct.record).
		Update(user).
		Create(tx)
	if acct.record != store.Record(st) {
		batch.Update(st)
	}
	if err := e.store.Apply(ctx, batch); err != nil {
		// Value already left via the wallet; the caller must reconcile
		// using the payment reference.
		e.logger.Error("withdrawal commit failed after external transfer",
			"account", account.Short(),
			"payment_ref", ref,
			"error", err,
		)
		return nil, err
	}

	e.plugins.EmitWithdrawn(ctx, account.Short(), uint64(amount), uint64(fee))
	e.plugins.EmitTransactionPosted(ctx, tx)
	e.logger.Info("withdrawal completed",
		"account", account.Short(),
		"amount", uint64(amount),
		"fee", uint64(fee),
		"payment_ref", ref,
	)
	return tx, nil
}

// GetBalance returns the current balance of any balance-holding account.
func (e *Engine) GetBalance(ctx context.Context, account address.Address) (types.Amount, error) {
	st, err := e.platformState(ctx)
	if err != nil {
		return 0, err
	}
	acct, err := e.balanceHolder(ctx, account, st)
	if err != nil {
		return 0, err
	}
	return acct.balance(), nil
}

// GetTransaction retrieves a transaction by address.
func (e *Engine) GetTransaction(ctx context.Context, addr address.Address) (*accounting.Transaction, error) {
	return e.store.GetTransaction(ctx, addr)
}

// ListTransactions lists transactions where the given address is the
// minting user, the payer, or the payee.
func (e *Engine) ListTransactions(ctx context.Context, party address.Address, opts store.ListOpts) ([]*accounting.Transaction, error) {
	return e.store.ListTransactionsByParty(ctx, party, opts)
}

// holder is a resolved balance account: the stored record, its owner and
// a debit closure over its balance field.
type holder struct {
	record  store.Record
	owner   address.Address
	balance func() types.Amount
	debit   func(types.Amount)
}

// balanceHolder resolves an address to whichever balance-holding account
// kind lives there. The platform state is matched by its well-known
// address; st is reused so fee accrual and a platform withdrawal touch
// the same record.
func (e *Engine) balanceHolder(ctx context.Context, addr address.Address, st *platform.State) (*holder, error) {
	if addr.Equal(platform.StateAddress()) {
		return &holder{
			record:  st,
			owner:   st.Owner,
			balance: func() types.Amount { return st.Accrued },
			debit:   func(a types.Amount) { st.Accrued -= a },
		}, nil
	}

	if f, err := e.store.GetFactory(ctx, addr); err == nil {
		return &holder{
			record:  f,
			owner:   f.Owner,
			balance: func() types.Amount { return f.Balance },
			debit:   func(a types.Amount) { f.Balance -= a },
		}, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if w, err := e.store.GetWarehouse(ctx, addr); err == nil {
		return &holder{
			record:  w,
			owner:   w.Owner,
			balance: func() types.Amount { return w.Balance },
			debit:   func(a types.Amount) { w.Balance -= a },
		}, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if s, err := e.store.GetSeller(ctx, addr); err == nil {
		return &holder{
			record:  s,
			owner:   s.Owner,
			balance: func() types.Amount { return s.Balance },
			debit:   func(a types.Amount) { s.Balance -= a },
		}, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if l, err := e.store.GetLogistics(ctx, addr); err == nil {
		return &holder{
			record:  l,
			owner:   l.Owner,
			balance: func() types.Amount { return l.Balance },
			debit:   func(a types.Amount) { l.Balance -= a },
		}, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if r, err := e.store.GetInspection(ctx, addr); err == nil {
		return &holder{
			record:  r,
			owner:   r.Owner,
			balance: func() types.Amount { return r.Balance },
			debit:   func(a types.Amount) { r.Balance -= a },
		}, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	return nil, ErrNotFound
}
