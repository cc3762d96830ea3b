package provenance

import (
	"context"
	"errors"

	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/platform"
	"github.com/xraph/provenance/store"
	"github.com/xraph/provenance/types"
)

// InitializePlatform bootstraps the platform state singleton with the
// given owner identity and the default fee rate. Fails with
// ErrAlreadyInitialized on any later call.
func (e *Engine) InitializePlatform(ctx context.Context, owner address.Address) (*platform.State, error) {
	if owner.IsZero() {
		return nil, ValidationError{Field: "owner", Message: "must not be zero"}
	}

	if _, err := e.store.GetPlatformState(ctx); err == nil {
		return nil, ErrAlreadyInitialized
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	st := &platform.State{
		Record:      types.NewRecord(platform.StateAddress()),
		Owner:       owner,
		FeeBps:      platform.DefaultFeeBps,
		Initialized: true,
	}

	if err := e.store.Apply(ctx, store.NewBatch().Create(st)); err != nil {
		return nil, err
	}

	e.plugins.EmitPlatformInitialized(ctx, st)
	e.logger.Info("platform initialized",
		"owner", st.Owner.Short(),
		"fee_bps", st.FeeBps,
	)

	return st, nil
}

// UpdatePlatformFee changes the fee rate. Only the platform owner may
// call; the rate is capped at platform.MaxFeeBps.
func (e *Engine) UpdatePlatformFee(ctx context.Context, caller address.Address, feeBps uint32) error {
	st, err := e.platformState(ctx)
	if err != nil {
		return err
	}

	if !st.Owner.Equal(caller) {
		return ErrUnauthorized
	}
	if feeBps > platform.MaxFeeBps {
		return ErrInvalidFee
	}

	oldBps := st.FeeBps
	st.FeeBps = feeBps

	if err := e.store.Apply(ctx, store.NewBatch().Update(st)); err != nil {
		return err
	}

	e.plugins.EmitPlatformFeeChanged(ctx, oldBps, feeBps)
	e.logger.Info("platform fee updated",
		"old_bps", oldBps,
		"new_bps", feeBps,
	)

	return nil
}

// GetPlatformState retrieves the platform singleton.
func (e *Engine) GetPlatformState(ctx context.Context) (*platform.State, error) {
	return e.platformState(ctx)
}

// platformState loads the singleton, mapping absence to ErrNotInitialized.
func (e *Engine) platformState(ctx context.Context) (*platform.State, error) {
	st, err := e.store.GetPlatformState(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotInitialized
		}
		return nil, err
	}
	return st, nil
}
