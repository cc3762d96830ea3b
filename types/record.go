package types

import (
	"time"

	"github.com/xraph/provenance/address"
)

// Record is the base type for all addressed ledger entities. Embed it in
// domain types to get deterministic addressing, optimistic-concurrency
// revisions, and timestamp handling.
//
// Revision advances exactly once per committed batch that mutates the
// record; a batch whose expected revision does not match the stored one is
// rejected wholesale by the store.
type Record struct {
	Address   address.Address `json:"address"`
	Revision  uint64          `json:"revision"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewRecord creates a Record at the given address with current timestamps
// and revision zero.
func NewRecord(addr address.Address) Record {
	now := time.Now().UTC()
	return Record{
		Address:   addr,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Addr returns the record's address.
func (r *Record) Addr() address.Address { return r.Address }

// Rev returns the record's revision.
func (r *Record) Rev() uint64 { return r.Revision }

// Bump advances the revision and touches the update timestamp. Called by
// store drivers when a batch commits, never by the engine directly.
func (r *Record) Bump() {
	r.Revision++
	r.UpdatedAt = time.Now().UTC()
}

// Age returns how long ago the record was created.
func (r Record) Age() time.Duration {
	return time.Since(r.CreatedAt)
}
