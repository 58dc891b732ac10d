package internal

import (
	"sort"
	"time"

	"github.com/google/uuid"

	campus "github.com/lychee-technology/campus"
)

const dateLayout = "2006-01-02"

// DateRange is a half-open [Start, End) period.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) String() string {
	return r.Start.Format(dateLayout) + " - " + r.End.Format(dateLayout)
}

// ValidateDateRanges flags ranges whose end is not strictly after their start.
func ValidateDateRanges(ranges []DateRange, entity string, variables []string) campus.ErrorMap {
	errs := campus.ErrorMap{}
	for i, r := range ranges {
		if !r.End.After(r.Start) {
			errs[i] = campus.NewInvalidDateRangeError(i, entity, variables)
		}
	}
	return errs
}

// ParentedRange is an input range placed under its parent entity. Index is
// the position of the input in the original call.
type ParentedRange struct {
	Index    int
	ParentID uuid.UUID
	Range    DateRange
}

type datedEntry struct {
	index int // -1 for ranges already persisted
	rng   DateRange
}

// ValidateNoDateOverlapsForParent flags input ranges that overlap another input
// or an existing range under the same parent. existing holds persisted ranges
// per parent and is never flagged itself.
func ValidateNoDateOverlapsForParent(
	ranges []ParentedRange,
	existing map[uuid.UUID][]DateRange,
	entity, parentEntity, parentAttribute string,
) campus.ErrorMap {
	byParent := make(map[uuid.UUID][]datedEntry)
	var parents []uuid.UUID
	for _, r := range ranges {
		if _, seen := byParent[r.ParentID]; !seen {
			parents = append(parents, r.ParentID)
		}
		byParent[r.ParentID] = append(byParent[r.ParentID], datedEntry{index: r.Index, rng: r.Range})
	}

	errs := campus.ErrorMap{}
	for _, pid := range parents {
		entries := byParent[pid]
		for _, r := range existing[pid] {
			entries = append(entries, datedEntry{index: -1, rng: r})
		}
		sort.SliceStable(entries, func(a, b int) bool {
			return entries[a].rng.Start.Before(entries[b].rng.Start)
		})

		latest := entries[0]
		for _, cur := range entries[1:] {
			if cur.rng.Start.Before(latest.rng.End) {
				victim, other := cur, latest
				if victim.index < 0 {
					victim, other = latest, cur
				}
				if victim.index >= 0 && !errs.Has(victim.index) {
					errs[victim.index] = campus.NewOverlappingDateRangeError(
						victim.index, entity, parentEntity, parentAttribute, pid.String(),
						victim.rng.String(), other.rng.String())
				}
			}
			if cur.rng.End.After(latest.rng.End) {
				latest = cur
			}
		}
	}
	return errs
}
