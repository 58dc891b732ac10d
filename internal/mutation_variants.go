package internal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	campus "github.com/lychee-technology/campus"
)

// NoNormalize keeps inputs as given.
type NoNormalize[In any] struct{}

func (NoNormalize[In]) Normalize(inputs []In) []In { return inputs }

func outputRecords[E campus.Record](results []ProcessedResult[E]) []campus.Record {
	records := make([]campus.Record, 0, len(results))
	for _, r := range results {
		records = append(records, r.Output)
	}
	return records
}

func modifiedRecords[E any](results []ProcessedResult[E]) []campus.Record {
	var records []campus.Record
	for _, r := range results {
		records = append(records, r.Modified...)
	}
	return records
}

// CreateVariant inserts the new entities together with any side-effect records.
type CreateVariant[E campus.Record] struct{}

func (CreateVariant[E]) ApplyToDatabase(ctx context.Context, tx campus.Tx, results []ProcessedResult[E]) error {
	records := append(outputRecords(results), modifiedRecords(results)...)
	if len(records) == 0 {
		return nil
	}
	return tx.Insert(ctx, records...)
}

// UpdateVariant saves the changed entities.
type UpdateVariant[E campus.Record] struct{}

func (UpdateVariant[E]) ApplyToDatabase(ctx context.Context, tx campus.Tx, results []ProcessedResult[E]) error {
	if len(results) == 0 {
		return nil
	}
	return tx.Save(ctx, outputRecords(results)...)
}

// AddRemoveVariant saves entities whose link sets were replaced.
type AddRemoveVariant[E campus.Record] struct{}

func (AddRemoveVariant[E]) ApplyToDatabase(ctx context.Context, tx campus.Tx, results []ProcessedResult[E]) error {
	if len(results) == 0 {
		return nil
	}
	return tx.Save(ctx, outputRecords(results)...)
}

// AddMembershipVariant saves only the memberships created or changed;
// the parent entity itself is untouched.
type AddMembershipVariant[E any] struct{}

func (AddMembershipVariant[E]) ApplyToDatabase(ctx context.Context, tx campus.Tx, results []ProcessedResult[E]) error {
	records := modifiedRecords(results)
	if len(records) == 0 {
		return nil
	}
	return tx.Save(ctx, records...)
}

// deletable is an entity that can be soft-deleted by id.
type deletable interface {
	identified
	campus.Statused
	SoftDelete(at time.Time)
}

// DeleteVariant soft-deletes every target in a single statement.
type DeleteVariant[E deletable] struct {
	At time.Time
}

// MarkDeleted applies the soft-delete state to a fetched entity.
func (v DeleteVariant[E]) MarkDeleted(e E) E {
	e.SoftDelete(v.At)
	return e
}

func (v DeleteVariant[E]) ApplyToDatabase(ctx context.Context, tx campus.Tx, results []ProcessedResult[E]) error {
	if len(results) == 0 {
		return nil
	}
	first := results[0].Output
	ids := make([]uuid.UUID, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Output.EntityID())
	}
	set := []campus.Assignment{
		{Column: "status", Value: string(campus.StatusInactive)},
		{Column: "deleted_at", Value: v.At},
	}
	return tx.UpdateWhereIDIn(ctx, first.Table(), first.KeyColumns()[0], set, ids)
}

// membershipRecord is a membership row addressed by (parent, user).
type membershipRecord interface {
	campus.Record
	Key() campus.MembershipKey
	CurrentStatus() campus.Status
}

// MembershipStatusVariant moves memberships to Status in one statement and
// writes an audit line for each.
type MembershipStatusVariant[E any] struct {
	Table      string
	KeyColumns []string
	Status     campus.Status
	At         time.Time
	Audit      bool
	Actor      uuid.UUID
}

func (v MembershipStatusVariant[E]) ApplyToDatabase(ctx context.Context, tx campus.Tx, results []ProcessedResult[E]) error {
	var keys [][]any
	var changed []membershipRecord
	for _, r := range results {
		for _, rec := range r.Modified {
			if m, ok := rec.(membershipRecord); ok {
				k := m.Key()
				keys = append(keys, []any{k.ParentID, k.UserID})
				changed = append(changed, m)
			}
		}
	}
	if len(keys) == 0 {
		zap.S().Warnw("no memberships to update", "table", v.Table, "status", v.Status)
		return nil
	}

	set := []campus.Assignment{
		{Column: "status", Value: string(v.Status)},
		{Column: "status_updated_at", Value: v.At},
	}
	if err := tx.UpdateWhereKeyIn(ctx, v.Table, v.KeyColumns, set, keys); err != nil {
		return err
	}

	if v.Audit {
		for _, m := range changed {
			k := m.Key()
			zap.S().Infow("membership status changed",
				"actor", v.Actor, "table", v.Table, "parentId", k.ParentID, "userId", k.UserID, "status", v.Status)
		}
	}
	return nil
}
