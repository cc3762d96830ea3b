package provenance

import (
	"context"
	"time"

	"github.com/xraph/provenance/accounting"
	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/inspection"
	"github.com/xraph/provenance/store"
	"github.com/xraph/provenance/types"
)

// InspectionSpec describes a quality inspection to record against a
// product.
type InspectionSpec struct {
	Product    address.Address
	Name       string
	Latitude   float64
	Longitude  float64
	Outcome    inspection.Outcome
	Notes      string
	FeePerUnit types.Amount
}

// InspectProduct records a quality verdict on a product. The caller must
// hold the INSPECTOR role. A PASS verdict marks the product quality
// checked; the inspection fee stays unpaid until the factory settles it
// via PayInspector.
func (e *Engine) InspectProduct(ctx context.Context, caller address.Address, spec InspectionSpec) (*inspection.Inspection, error) {
	switch {
	case spec.Name == "":
		return nil, ValidationError{Field: "name", Message: "must not be empty"}
	case !spec.Outcome.Valid():
		return nil, ValidationError{Field: "outcome", Message: "must be PASS or FAIL"}
	}

	user, err := e.actorFor(ctx, caller, identity.RoleInspector)
	if err != nil {
		return nil, err
	}

	product, err := e.store.GetProduct(ctx, spec.Product)
	if err != nil {
		return nil, err
	}
	if !product.Inspection.IsZero() {
		return nil, ErrAlreadyExists
	}

	seq, ok := user.NextCounter(identity.CounterInspection)
	if !ok {
		return nil, ErrOverflow
	}

	rec := &inspection.Inspection{
		Record:      types.NewRecord(address.Derive(address.NamespaceInspection, user.Addr(), seq)),
		SeqID:       seq,
		Owner:       caller,
		User:        user.Addr(),
		Name:        spec.Name,
		Latitude:    spec.Latitude,
		Longitude:   spec.Longitude,
		Product:     product.Addr(),
		ProductID:   product.SeqID,
		Outcome:     spec.Outcome,
		Notes:       spec.Notes,
		FeePerUnit:  spec.FeePerUnit,
		InspectedAt: time.Now().UTC(),
	}
	user.BumpCounter(identity.CounterInspection)

	product.Inspection = rec.Addr()
	product.QualityChecked = spec.Outcome == inspection.OutcomePass

	batch := store.NewBatch().
		Create(rec).
		Update(product).
		Update(user)
	if err := e.store.Apply(ctx, batch); err != nil {
		return nil, err
	}

	e.plugins.EmitProductInspected(ctx, rec)
	e.logger.Info("product inspected",
		"product", product.Addr().Short(),
		"inspection", rec.Addr().Short(),
		"outcome", string(spec.Outcome),
	)
	return rec, nil
}

// PayInspector settles the inspection fee for a product out of the
// owning factory's balance. The fee is the inspector's per-unit rate
// times the product's current stock; the platform skims its cut from it.
func (e *Engine) PayInspector(ctx context.Context, caller address.Address, productAddr address.Address) (*accounting.Transaction, error) {
	user, err := e.actorFor(ctx, caller, identity.RoleFactory)
	if err != nil {
		return nil, err
	}

	product, err := e.store.GetProduct(ctx, productAddr)
	if err != nil {
		return nil, err
	}
	if !product.QualityChecked {
		return nil, ErrNotQualityPassed
	}
	if product.InspectionFeePaid {
		return nil, ErrAlreadyPaid
	}

	factory, err := e.store.GetFactory(ctx, product.Factory)
	if err != nil {
		return nil, err
	}
	if !factory.Owner.Equal(caller) {
		return nil, ErrUnauthorized
	}

	rec, err := e.store.GetInspection(ctx, product.Inspection)
	if err != nil {
		return nil, err
	}
	if rec.Paid {
		return nil, ErrAlreadyPaid
	}

	st, err := e.platformState(ctx)
	if err != nil {
		return nil, err
	}

	fee, ok := rec.FeePerUnit.Mul(product.Stock)
	if !ok {
		return nil, ErrOverflow
	}
	if factory.Balance < fee {
		return nil, ErrInsufficientBalance
	}
	net, skim := fee.SplitFee(st.FeeBps)

	factory.Balance -= fee
	if rec.Balance, ok = rec.Balance.Add(net); !ok {
		return nil, ErrOverflow
	}
	if st.Accrued, ok = st.Accrued.Add(skim); !ok {
		return nil, ErrOverflow
	}
	rec.Paid = true
	rec.FeeCharged = fee
	product.InspectionFeePaid = true

	tx, err := mintTransaction(user, accounting.KindInspectionFee, factory.Addr(), rec.Addr(), fee, skim)
	if err != nil {
		return nil, err
	}

	batch := store.NewBatch().
		Update(product).
		Update(factory).
		Update(rec).
		Update(st).
		Update(user).
		Create(tx)
	if err := e.store.Apply(ctx, batch); err != nil {
		return nil, err
	}

	e.plugins.EmitInspectorPaid(ctx, rec)
	e.plugins.EmitTransactionPosted(ctx, tx)
	e.logger.Info("inspector paid",
		"product", product.Addr().Short(),
		"inspection", rec.Addr().Short(),
		"fee", uint64(fee),
	)
	return tx, nil
}

// GetInspection retrieves an inspection record by address.
func (e *Engine) GetInspection(ctx context.Context, addr address.Address) (*inspection.Inspection, error) {
	return e.store.GetInspection(ctx, addr)
}
