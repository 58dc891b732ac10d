package internal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	campus "github.com/lychee-technology/campus"
)

func TestValidateNoDuplicateSkipsFirstOccurrence(t *testing.T) {
	errs := ValidateNoDuplicate([]string{"a", "b", "a", "a", "c"}, "Thing", []string{"name"})

	require.Len(t, errs, 2)
	assert.True(t, errs.Has(2))
	assert.True(t, errs.Has(3))
	assert.Equal(t, campus.ErrCodeDuplicateAttributeValues, errs[2].Code)
	assert.Equal(t, "(name)", errs[2].Attribute)
}

func TestValidateNoDuplicateAttributeIgnoresUnsetParts(t *testing.T) {
	org := uuid.New()
	name := "Kids"
	errs := ValidateNoDuplicateAttribute([]EntityAttributePair{
		{EntityID: &org, Value: &name},
		{EntityID: &org, Value: nil},
		{EntityID: nil, Value: &name},
		{EntityID: &org, Value: &name},
	}, "AgeRange", "name")

	require.Len(t, errs, 1)
	assert.Equal(t, campus.ErrCodeDuplicateInputAttributeValue, errs[3].Code)
}

func TestValidateActiveEntityExists(t *testing.T) {
	org := newOrg("Org")
	live, gone := newAgeRange(org, "Live", 1, 2), newAgeRange(org, "Gone", 1, 2)
	gone.Lifecycle = inactive()
	missing := uuid.New()
	m := map[uuid.UUID]*campus.AgeRange{live.ID: live, gone.ID: gone}

	errs := ValidateActiveEntityExists([]uuid.UUID{live.ID, gone.ID, missing, gone.ID}, "AgeRange", m)

	assert.Equal(t, []int{1, 2}, errorIndexes(errs.Sorted()), "repeats of a bad id are left to the duplicate check")
}

func TestValidateSubItemsArrayLength(t *testing.T) {
	lists := [][]int{nil, {}, {1, 2}, {1, 2, 3, 4}}
	errs := ValidateSubItemsArrayLength(lists, "Input", "ids", 1, 3)

	require.Len(t, errs, 2)
	assert.Equal(t, campus.ErrCodeInvalidArrayMinLength, errs[1].Code)
	assert.Equal(t, campus.ErrCodeInvalidArrayMaxLength, errs[3].Code)
}

func TestValidateNumbersComparison(t *testing.T) {
	tests := []struct {
		name  string
		op    ComparisonOperator
		a, b  int
		valid bool
	}{
		{"lt holds", OpLt, 1, 2, true},
		{"lt equal", OpLt, 2, 2, false},
		{"lte equal", OpLte, 2, 2, true},
		{"gt holds", OpGt, 3, 2, true},
		{"gte fails", OpGte, 1, 2, false},
		{"eq holds", OpEq, 5, 5, true},
		{"neq fails", OpNeq, 5, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateNumbersComparison([]NumberPair[int]{{A: tt.a, B: tt.b}}, tt.op, "AgeRange", "lowValue", "highValue")
			assert.Equal(t, tt.valid, len(errs) == 0)
		})
	}
}

func TestValidateNumberRange(t *testing.T) {
	low, mid, high := 0, 50, 100
	errs := ValidateNumberRange([]*int{&low, nil, &mid, &high}, "AgeRange", "value", 0, 99)

	require.Len(t, errs, 1)
	assert.Equal(t, campus.ErrCodeNotInInclusiveRange, errs[3].Code)
}

func TestValidateHexadecimalColor(t *testing.T) {
	values := []*string{ptr("#A1B2C3"), ptr("#a1b2c3ff"), ptr("red"), ptr("#ABC"), nil}
	errs := ValidateHexadecimalColor(values, "Program", "color")

	assert.Equal(t, []int{2, 3}, errorIndexes(errs.Sorted()))
	assert.Equal(t, campus.ErrCodeInvalidHexadecimalColor, errs[2].Code)
}

func TestValidateImageMimetype(t *testing.T) {
	errs := ValidateImageMimetype([]*string{ptr("image/png"), ptr("application/pdf"), nil}, "Branding", "mimetype")

	require.Len(t, errs, 1)
	assert.Equal(t, campus.ErrCodeUnsupportedMimetype, errs[1].Code)
}

func TestValidateAtLeastOne(t *testing.T) {
	type patch struct{ a, b *int }
	one := 1
	errs := ValidateAtLeastOne([]patch{{a: &one}, {}, {b: &one}}, "Patch", []string{"a", "b"},
		func(p patch, field string) bool {
			if field == "a" {
				return p.a != nil
			}
			return p.b != nil
		})

	require.Len(t, errs, 1)
	assert.Equal(t, campus.ErrCodeRequiresAtLeastOne, errs[1].Code)
}

func TestFilterInvalidInputs(t *testing.T) {
	inputs := []string{"a", "b", "c", "d"}
	first := campus.ErrorMap{2: campus.NewSchemaError(2, "X", "name", "bad")}
	second := campus.ErrorMap{
		0: campus.NewSchemaError(0, "X", "code", "bad"),
		2: campus.NewSchemaError(2, "X", "code", "bad"),
	}

	valid, errs := FilterInvalidInputs(inputs, first, second)

	assert.Equal(t, []Indexed[string]{{Index: 1, Input: "b"}, {Index: 3, Input: "d"}}, valid)
	assert.Equal(t, []int{0, 2, 2}, errorIndexes(errs))
	assert.Equal(t, "name", errs[1].Attribute, "errors sharing an index keep map order")
}

func TestFlagUnauthorized(t *testing.T) {
	org := newOrg("Org")
	mine, system := newAgeRange(org, "Mine", 1, 2), newAgeRange(nil, "None Specified", 0, 99)
	m := map[uuid.UUID]*campus.AgeRange{mine.ID: mine, system.ID: system}

	assert.NoError(t, FlagUnauthorized("AgeRange", []uuid.UUID{mine.ID, uuid.New()}, m, "id"))

	err := FlagUnauthorized("AgeRange", []uuid.UUID{mine.ID, system.ID}, m, "id")
	errs := requireCollection(t, err)
	assert.Equal(t, []int{1}, errorIndexes(errs))
	assert.Equal(t, campus.ErrCodeUnauthorized, errs[0].Code)
}

func TestValidateSubItemsInOrg(t *testing.T) {
	org, other := newOrg("Org"), newOrg("Other")
	own, shared, foreign := newSubcategory(org, "Own"), newSubcategory(nil, "Shared"), newSubcategory(other, "Foreign")
	m := map[uuid.UUID]*campus.Subcategory{own.ID: own, shared.ID: shared, foreign.ID: foreign}

	errs := ValidateSubItemsInOrg("Subcategory", 0, []uuid.UUID{own.ID, shared.ID, foreign.ID, uuid.New()}, org.ID, m)

	assert.Equal(t, []campus.ErrorCode{campus.ErrCodeNonExistentChild, campus.ErrCodeNonExistentEntity}, errorCodes(errs))
}
