package campus

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagesAreRendered(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "non existent",
			err:  NewEntityError(EntityNonExistent, 0, "AgeRange", "abc", "", ""),
			want: "AgeRange abc doesn't exist or is inactive.",
		},
		{
			name: "existent child",
			err:  NewEntityError(EntityExistentChild, 1, "School", "North", "Organization", "org-1"),
			want: "School North already exists for Organization org-1.",
		},
		{
			name: "comparison",
			err:  NewComparisonError(0, "AgeRange", "lowValue", "highValue", "less than"),
			want: "AgeRange lowValue must be less than highValue.",
		},
		{
			name: "range",
			err:  NewRangeError(0, "AgeRange", "highValue", 1, 99),
			want: "AgeRange highValue must be between 1 and 99.",
		},
		{
			name: "must have exactly n",
			err:  NewMustHaveExactlyNError(0, "AcademicTerm", "t-1", "classes", 0),
			want: "AcademicTerm t-1 must have exactly 0 classes.",
		},
		{
			name: "input length",
			err:  NewInputLengthError("Grade", LimitMax, 50, "input array", nil),
			want: "Grade input array can contain at most 50 item(s).",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Message)
		})
	}
}

func TestEntityErrorVariables(t *testing.T) {
	defaulted := NewEntityError(EntityExistent, 0, "Role", "r", "", "")
	assert.Equal(t, []string{"id"}, defaulted.Variables)

	explicit := NewEntityError(EntityExistentChild, 0, "School", "North", "Organization", "o", "organizationId", "name")
	assert.Equal(t, []string{"organizationId", "name"}, explicit.Variables)

	childless := NewEntityError(EntityNonExistent, 0, "User", "u", "Organization", "o")
	assert.Empty(t, childless.ParentEntity, "parent fields are only kept for child errors")
}

func TestNewDuplicateAttributeError(t *testing.T) {
	e := NewDuplicateAttributeError(3, []string{"organizationId", "name"}, "CreateSchoolInput")

	assert.Equal(t, ErrCodeDuplicateAttributeValues, e.Code)
	assert.Equal(t, "(organizationId,name)", e.Attribute)
	assert.Equal(t, []string{"organizationId", "name"}, e.Variables)
	assert.True(t, e.HasIndex(3))
}

func TestSortAPIErrorsIsStableByIndex(t *testing.T) {
	a := NewSchemaError(2, "X", "a", "r")
	b := NewSchemaError(0, "X", "b", "r")
	c := NewSchemaError(2, "X", "c", "r")
	callLevel := NewDatabaseSaveError("X", "boom")

	errs := []*APIError{a, b, c, callLevel}
	SortAPIErrors(errs)

	assert.Equal(t, []*APIError{callLevel, b, a, c}, errs)
}

func TestErrorHelpersSeeThroughWrapping(t *testing.T) {
	coll := NewAPIErrorCollection([]*APIError{NewSchemaError(0, "X", "a", "r")})
	wrapped := fmt.Errorf("run: %w", coll)
	assert.True(t, IsAPIErrorCollection(wrapped))

	got, ok := AsAPIErrorCollection(wrapped)
	require.True(t, ok)
	assert.Equal(t, 1, got.Len())

	perm := fmt.Errorf("authorize: %w", &PermissionError{UserID: "u", Permission: PermissionDeleteAgeRange, ScopeType: "Organization", ScopeIDs: []string{"a", "b"}})
	assert.True(t, IsPermissionError(perm))

	save := fmt.Errorf("apply: %w", NewDatabaseSaveError("AgeRange", "conn reset"))
	assert.True(t, IsDatabaseSaveError(save))
	assert.False(t, IsDatabaseSaveError(coll))
}

func TestPermissionErrorAsAPIError(t *testing.T) {
	p := &PermissionError{UserID: "u1", Permission: PermissionDeleteAgeRange, ScopeType: "Organization", ScopeIDs: []string{"o1", "o2"}}

	e := p.APIError()

	assert.Equal(t, ErrCodePermissionDenied, e.Code)
	assert.Equal(t, p.Error(), e.Message)
	assert.Contains(t, e.Message, "o1, o2")
	assert.Nil(t, e.Index)
}

func TestAPIErrorCollectionJSON(t *testing.T) {
	coll := NewAPIErrorCollection([]*APIError{NewEntityError(EntityNonExistent, 4, "Grade", "g", "", "")})

	raw, err := json.Marshal(coll)
	require.NoError(t, err)

	var decoded struct {
		Errors []map[string]any `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Errors, 1)
	assert.Equal(t, string(ErrCodeNonExistentEntity), decoded.Errors[0]["code"])
	assert.Equal(t, float64(4), decoded.Errors[0]["index"])
	assert.NotContains(t, decoded.Errors[0], "parentEntity")
}
