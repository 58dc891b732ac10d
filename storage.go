package campus

import (
	"context"

	"github.com/google/uuid"
)

// Row is the scan target handed to Select callbacks. pgx.Row satisfies it.
type Row interface {
	Scan(dest ...any) error
}

// Condition restricts a selection to rows whose column is one of Values.
// Values must be a slice; it is bound as a single array parameter.
type Condition struct {
	Column string
	Values any
}

// Selection describes one batched read.
type Selection struct {
	Table   string
	Columns []string
	Where   []Condition
}

// Assignment is one column update in a bulk partial write.
type Assignment struct {
	Column string
	Value  any
}

// Record is a persisted row the storage layer can write.
type Record interface {
	Table() string
	// KeyColumns lists the primary key columns, which must lead Columns.
	KeyColumns() []string
	Columns() []string
	Values() []any
}

// Entity is a Record that can also be scanned back from a Selection.
type Entity interface {
	Record
	// ScanTargets returns pointers aligned with Columns.
	ScanTargets() []any
}

// LinkSet is the full set of children linked to one owner through a join table.
type LinkSet struct {
	Table        string
	OwnerColumns []string
	OwnerKey     []any
	ChildColumn  string
	ChildIDs     []uuid.UUID
}

// Linked is implemented by records that own many-to-many links.
// A nil slice from Links means the links were not loaded and are left untouched.
type Linked interface {
	Links() []LinkSet
}

// Reader issues batched reads. One call to Select is one round trip.
type Reader interface {
	Select(ctx context.Context, sel Selection, scan func(Row) error) error
}

// Tx is the write surface available while persisting a mutation.
// Every method is a constant number of round trips regardless of how many rows it touches.
type Tx interface {
	Insert(ctx context.Context, records ...Record) error
	Save(ctx context.Context, records ...Record) error
	UpdateWhereIDIn(ctx context.Context, table, idColumn string, set []Assignment, ids []uuid.UUID) error
	UpdateWhereKeyIn(ctx context.Context, table string, keyColumns []string, set []Assignment, keys [][]any) error
}

// Store combines batched reads with transactional writes.
type Store interface {
	Reader
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
