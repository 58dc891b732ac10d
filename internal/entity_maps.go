package internal

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	campus "github.com/lychee-technology/campus"
)

// identified is an entity addressed by a single uuid primary key.
type identified interface {
	campus.Entity
	EntityID() uuid.UUID
}

func statusStrings(statuses []campus.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// FetchWhere runs one batched select for E and returns the rows in storage order.
// A condition with an empty value slice short-circuits to no rows without a round trip.
func FetchWhere[E any, PE interface {
	*E
	campus.Entity
}](ctx context.Context, r campus.Reader, where ...campus.Condition) ([]PE, error) {
	for _, c := range where {
		if isEmptySlice(c.Values) {
			return nil, nil
		}
	}

	var zero E
	proto := PE(&zero)
	sel := campus.Selection{Table: proto.Table(), Columns: proto.Columns(), Where: where}

	var out []PE
	err := r.Select(ctx, sel, func(row campus.Row) error {
		e := PE(new(E))
		if err := row.Scan(e.ScanTargets()...); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", proto.Table(), err)
	}
	return out, nil
}

// FetchByIDs loads entities by primary key, restricted to the given statuses,
// and keys them by id. Ids are de-duplicated before querying.
func FetchByIDs[E any, PE interface {
	*E
	identified
}](ctx context.Context, r campus.Reader, ids []uuid.UUID, statuses []campus.Status) (map[uuid.UUID]PE, error) {
	var zero E
	key := PE(&zero).KeyColumns()[0]
	where := []campus.Condition{{Column: key, Values: Distinct(ids)}}
	if len(statuses) > 0 {
		where = append(where, campus.Condition{Column: "status", Values: statusStrings(statuses)})
	}

	rows, err := FetchWhere[E, PE](ctx, r, where...)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]PE, len(rows))
	for _, e := range rows {
		out[e.EntityID()] = e
	}
	return out, nil
}

// StatusCondition restricts a selection to the given statuses.
func StatusCondition(statuses ...campus.Status) campus.Condition {
	return campus.Condition{Column: "status", Values: statusStrings(statuses)}
}

// KeyBy indexes entities by a derived key. Later entities win on collision.
func KeyBy[K comparable, E any](items []E, key func(E) K) map[K]E {
	out := make(map[K]E, len(items))
	for _, e := range items {
		out[key(e)] = e
	}
	return out
}

// GroupBy buckets entities by a derived key, keeping order within each bucket.
func GroupBy[K comparable, E any](items []E, key func(E) K) map[K][]E {
	out := make(map[K][]E)
	for _, e := range items {
		k := key(e)
		out[k] = append(out[k], e)
	}
	return out
}

func isEmptySlice(v any) bool {
	switch s := v.(type) {
	case []uuid.UUID:
		return len(s) == 0
	case []string:
		return len(s) == 0
	case nil:
		return true
	}
	return false
}
