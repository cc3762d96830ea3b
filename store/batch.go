package store

// Op distinguishes batch mutation kinds.
type Op string

// Mutation operations.
const (
	OpCreate Op = "create" // address must be vacant
	OpUpdate Op = "update" // stored revision must equal Record.Rev()
)

// Mutation is one record write inside a batch.
type Mutation struct {
	Op     Op
	Record Record
}

// Batch is an ordered, all-or-nothing write set. The engine builds one
// batch per operation; drivers must commit every mutation or none.
//
// For updates the record's revision carries the optimistic-concurrency
// expectation: it must equal the stored revision at commit time, i.e. the
// record was read and not modified since. Drivers bump the revision as
// part of the commit.
type Batch struct {
	muts []Mutation
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Create appends a creation of a record at a previously vacant address.
func (b *Batch) Create(r Record) *Batch {
	b.muts = append(b.muts, Mutation{Op: OpCreate, Record: r})
	return b
}

// Update appends a revision-guarded update of an existing record.
func (b *Batch) Update(r Record) *Batch {
	b.muts = append(b.muts, Mutation{Op: OpUpdate, Record: r})
	return b
}

// Mutations returns the ordered mutation list.
func (b *Batch) Mutations() []Mutation { return b.muts }

// Len returns the number of mutations in the batch.
func (b *Batch) Len() int { return len(b.muts) }
