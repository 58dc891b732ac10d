package internal

import (
	"regexp"

	"github.com/google/uuid"

	campus "github.com/lychee-technology/campus"
)

// Indexed pairs an input with its position in the caller's array.
type Indexed[T any] struct {
	Index int
	Input T
}

// Number covers the numeric kinds the range and comparison checks accept.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// ValidateNoDuplicate flags every value that repeats an earlier one.
// The first occurrence is never flagged.
func ValidateNoDuplicate[K comparable](values []K, entity string, attributes []string) campus.ErrorMap {
	errs := campus.ErrorMap{}
	seen := make(map[K]struct{}, len(values))
	for i, v := range values {
		if _, ok := seen[v]; ok {
			errs[i] = campus.NewDuplicateAttributeError(i, attributes, entity)
			continue
		}
		seen[v] = struct{}{}
	}
	return errs
}

// ValidateNoDuplicateIDs is ValidateNoDuplicate over target ids.
func ValidateNoDuplicateIDs(ids []uuid.UUID, entity string) campus.ErrorMap {
	return ValidateNoDuplicate(ids, entity, []string{"id"})
}

// EntityAttributePair is one (entity id, attribute value) claim made by an input.
// Either part may be nil when the input does not set it.
type EntityAttributePair struct {
	EntityID *uuid.UUID
	Value    *string
}

// ValidateNoDuplicateAttribute flags inputs repeating an earlier (entity id, value)
// pair. Pairs with a nil part keep their index but are never compared.
func ValidateNoDuplicateAttribute(pairs []EntityAttributePair, entity, attribute string) campus.ErrorMap {
	errs := campus.ErrorMap{}
	seen := make(map[campus.OrgNameKey]struct{}, len(pairs))
	for i, p := range pairs {
		if p.EntityID == nil || p.Value == nil {
			continue
		}
		key := campus.OrgNameKey{OrganizationID: *p.EntityID, Name: *p.Value}
		if _, ok := seen[key]; ok {
			errs[i] = campus.NewDuplicateInputAttributeError(i, entity, p.EntityID.String(), attribute, *p.Value)
			continue
		}
		seen[key] = struct{}{}
	}
	return errs
}

// ValidateActiveEntityExists flags ids that are absent from m or not active.
// Only the first occurrence of a bad id is flagged; repeats belong to the duplicate check.
func ValidateActiveEntityExists[E campus.Statused](ids []uuid.UUID, entity string, m map[uuid.UUID]E) campus.ErrorMap {
	errs := campus.ErrorMap{}
	flagged := make(map[uuid.UUID]struct{})
	for i, id := range ids {
		if _, done := flagged[id]; done {
			continue
		}
		e, ok := m[id]
		if ok && e.CurrentStatus() == campus.StatusActive {
			continue
		}
		flagged[id] = struct{}{}
		errs[i] = campus.NewEntityError(campus.EntityNonExistent, i, entity, id.String(), "", "", "id")
	}
	return errs
}

// ValidateActiveAndNoDuplicates combines the existence and duplicate-id checks.
func ValidateActiveAndNoDuplicates[E campus.Statused](ids []uuid.UUID, entity string, m map[uuid.UUID]E) []campus.ErrorMap {
	return []campus.ErrorMap{
		ValidateActiveEntityExists(ids, entity, m),
		ValidateNoDuplicateIDs(ids, entity),
	}
}

// ValidateSubItemsArrayLength flags nested lists outside [min, max]. Nil lists are skipped.
func ValidateSubItemsArrayLength[T any](lists [][]T, entity, attribute string, min, max int) campus.ErrorMap {
	errs := campus.ErrorMap{}
	for i, list := range lists {
		if list == nil {
			continue
		}
		idx := i
		switch {
		case len(list) < min:
			errs[i] = campus.NewInputLengthError(entity, campus.LimitMin, min, attribute, &idx)
		case len(list) > max:
			errs[i] = campus.NewInputLengthError(entity, campus.LimitMax, max, attribute, &idx)
		}
	}
	return errs
}

// ValidateSubItemsArrayNoDuplicates flags nested lists containing a repeated element.
func ValidateSubItemsArrayNoDuplicates[T comparable](lists [][]T, entity, attribute string) campus.ErrorMap {
	errs := campus.ErrorMap{}
	for i, list := range lists {
		seen := make(map[T]struct{}, len(list))
		for _, item := range list {
			if _, ok := seen[item]; ok {
				errs[i] = campus.NewDuplicateAttributeError(i, []string{attribute}, entity)
				break
			}
			seen[item] = struct{}{}
		}
	}
	return errs
}

// ValidateSubItemsLengthAndNoDuplicates combines the nested list length and duplicate checks.
func ValidateSubItemsLengthAndNoDuplicates[T comparable](lists [][]T, entity, attribute string, min, max int) []campus.ErrorMap {
	return []campus.ErrorMap{
		ValidateSubItemsArrayLength(lists, entity, attribute, min, max),
		ValidateSubItemsArrayNoDuplicates(lists, entity, attribute),
	}
}

// ValidateAtLeastOne flags inputs that set none of fields. has reports whether
// a given field is present on an input.
func ValidateAtLeastOne[T any](inputs []T, entity string, fields []string, has func(input T, field string) bool) campus.ErrorMap {
	errs := campus.ErrorMap{}
	for i, in := range inputs {
		found := false
		for _, f := range fields {
			if has(in, f) {
				found = true
				break
			}
		}
		if !found {
			errs[i] = campus.NewRequiresAtLeastOneError(i, entity, fields)
		}
	}
	return errs
}

// ComparisonOperator names a numeric comparison between two attributes.
type ComparisonOperator string

const (
	OpEq  ComparisonOperator = "eq"
	OpNeq ComparisonOperator = "neq"
	OpGt  ComparisonOperator = "gt"
	OpLt  ComparisonOperator = "lt"
	OpGte ComparisonOperator = "gte"
	OpLte ComparisonOperator = "lte"
)

var comparisonDescriptions = map[ComparisonOperator]string{
	OpEq:  "equal",
	OpNeq: "not equal",
	OpGt:  "greater than",
	OpLt:  "less than",
	OpGte: "greater than or equal",
	OpLte: "less than or equal",
}

// Description returns the human wording of the operator.
func (op ComparisonOperator) Description() string {
	return comparisonDescriptions[op]
}

func compare[N Number](a, b N, op ComparisonOperator) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNeq:
		return a != b
	case OpGt:
		return a > b
	case OpLt:
		return a < b
	case OpGte:
		return a >= b
	case OpLte:
		return a <= b
	}
	return false
}

// NumberPair holds the two operands of one input's comparison.
type NumberPair[N Number] struct {
	A, B N
}

// ValidateNumbersComparison flags pairs for which "A op B" does not hold.
func ValidateNumbersComparison[N Number](pairs []NumberPair[N], op ComparisonOperator, entity, aName, bName string) campus.ErrorMap {
	errs := campus.ErrorMap{}
	for i, p := range pairs {
		if !compare(p.A, p.B, op) {
			errs[i] = campus.NewComparisonError(i, entity, aName, bName, op.Description())
		}
	}
	return errs
}

// ValidateNumberRange flags values outside the inclusive [min, max]. Nil values are skipped.
func ValidateNumberRange[N Number](values []*N, entity, attribute string, min, max N) campus.ErrorMap {
	errs := campus.ErrorMap{}
	for i, v := range values {
		if v == nil {
			continue
		}
		if *v < min || *v > max {
			errs[i] = campus.NewRangeError(i, entity, attribute, float64(min), float64(max))
		}
	}
	return errs
}

var hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{2}){3,4}$`)

// ValidateHexadecimalColor flags values that are not #RRGGBB or #RRGGBBAA. Nil values are skipped.
func ValidateHexadecimalColor(values []*string, entity, attribute string) campus.ErrorMap {
	errs := campus.ErrorMap{}
	for i, v := range values {
		if v == nil {
			continue
		}
		if !hexColorPattern.MatchString(*v) {
			errs[i] = campus.NewHexColorError(i, entity, attribute, *v)
		}
	}
	return errs
}

// ImageMimetypes lists the accepted image upload types.
var ImageMimetypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/svg+xml",
	"image/bmp",
	"image/webp",
}

// ValidateImageMimetype flags mimetypes outside ImageMimetypes. Nil values are skipped.
func ValidateImageMimetype(values []*string, entity, attribute string) campus.ErrorMap {
	allowed := NewSet(ImageMimetypes...)
	errs := campus.ErrorMap{}
	for i, v := range values {
		if v == nil {
			continue
		}
		if !allowed.Contains(*v) {
			errs[i] = campus.NewMimetypeError(i, entity, attribute, *v)
		}
	}
	return errs
}

// FilterInvalidInputs drops every input flagged by any map. It returns the
// survivors sorted by index and all errors sorted by index. Errors sharing an
// index keep the order of the maps they came from.
func FilterInvalidInputs[T any](inputs []T, maps ...campus.ErrorMap) ([]Indexed[T], []*campus.APIError) {
	var errs []*campus.APIError
	invalid := make(map[int]struct{})
	for _, m := range maps {
		for i := range m {
			invalid[i] = struct{}{}
		}
		errs = append(errs, m.Sorted()...)
	}
	campus.SortAPIErrors(errs)

	valid := make([]Indexed[T], 0, len(inputs))
	for i, in := range inputs {
		if _, bad := invalid[i]; bad {
			continue
		}
		valid = append(valid, Indexed[T]{Index: i, Input: in})
	}
	return valid, errs
}

// Flatten concatenates groups of error maps so composites can be passed to FilterInvalidInputs.
func Flatten(groups ...[]campus.ErrorMap) []campus.ErrorMap {
	var out []campus.ErrorMap
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Maps wraps single error maps for Flatten.
func Maps(ms ...campus.ErrorMap) []campus.ErrorMap {
	return ms
}
