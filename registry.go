package provenance

import (
	"context"
	"errors"

	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/store"
	"github.com/xraph/provenance/types"
)

// Input length caps for registration.
const (
	maxNameLen  = 32
	maxEmailLen = 64
)

// RegisterUser creates the actor record for a wallet identity. The user
// address is derived deterministically from the wallet, so a wallet owns
// at most one user; a second registration fails with ErrAlreadyRegistered.
func (e *Engine) RegisterUser(ctx context.Context, caller address.Address, name, email string, role identity.Role) (*identity.User, error) {
	switch {
	case caller.IsZero():
		return nil, ValidationError{Field: "caller", Message: "must not be zero"}
	case name == "":
		return nil, ValidationError{Field: "name", Message: "must not be empty"}
	case len(name) > maxNameLen:
		return nil, ValidationError{Field: "name", Message: "too long"}
	case len(email) > maxEmailLen:
		return nil, ValidationError{Field: "email", Message: "too long"}
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	addr := identity.AddressFor(caller)
	if _, err := e.store.GetUser(ctx, addr); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user := &identity.User{
		Record: types.NewRecord(addr),
		Owner:  caller,
		Name:   name,
		Email:  email,
		Role:   role,
	}

	if err := e.store.Apply(ctx, store.NewBatch().Create(user)); err != nil {
		return nil, err
	}

	e.plugins.EmitUserRegistered(ctx, user)
	e.logger.Info("user registered",
		"user", user.Addr().Short(),
		"role", string(role),
	)

	return user, nil
}

// GetUser retrieves the user record registered by a wallet identity.
func (e *Engine) GetUser(ctx context.Context, owner address.Address) (*identity.User, error) {
	return e.store.GetUser(ctx, identity.AddressFor(owner))
}
