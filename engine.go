package provenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/provenance/accounting"
	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/plugin"
	"github.com/xraph/provenance/store"
	"github.com/xraph/provenance/types"
	"github.com/xraph/provenance/wallet"
)

// Engine is the main supply-chain ledger engine. One exported method per
// ledger operation; every mutating method builds a single atomic batch and
// commits it through the store, so an operation either happens in full or
// not at all.
type Engine struct {
	store   store.Store
	wallet  wallet.Wallet
	plugins *plugin.Registry
	logger  *slog.Logger

	// Configuration
	pricingPolicy string
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		wallet:  wallet.Nop(),
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithWallet sets the external value-transfer primitive used by
// withdrawals. Defaults to wallet.Nop().
func WithWallet(w wallet.Wallet) Option {
	return func(e *Engine) {
		e.wallet = w
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPricingPolicy selects a registered PricingPolicy plugin by name for
// seller stock price computation.
func WithPricingPolicy(name string) Option {
	return func(e *Engine) {
		e.pricingPolicy = name
	}
}

// Start migrates the store and initializes plugins. The engine has no
// background workers: every state transition is caller-initiated.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("provenance engine started")
	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	e.plugins.EmitShutdown(context.Background())
	e.logger.Info("provenance engine stopped")
	return nil
}

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// userFor loads the registered user record for a caller wallet identity.
func (e *Engine) userFor(ctx context.Context, caller address.Address) (*identity.User, error) {
	return e.store.GetUser(ctx, identity.AddressFor(caller))
}

// mintTransaction derives the next transaction address under the user's
// counter, bumps the counter, and returns the unposted record. The caller
// must include both the transaction and the user in the same batch.
func mintTransaction(u *identity.User, kind accounting.Kind, from, to address.Address, amount, fee types.Amount) (*accounting.Transaction, error) {
	seq, ok := u.NextCounter(identity.CounterTx)
	if !ok {
		return nil, ErrOverflow
	}

	addr := address.Derive(address.NamespaceTransaction, u.Addr(), seq)
	tx := &accounting.Transaction{
		Record:    types.NewRecord(addr),
		SeqID:     seq,
		User:      u.Addr(),
		From:      from,
		To:        to,
		Amount:    amount,
		Fee:       fee,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}

	u.BumpCounter(identity.CounterTx)
	return tx, nil
}
