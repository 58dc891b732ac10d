package campus

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrorCode identifies the kind of problem an APIError describes.
type ErrorCode string

const (
	// Input array bounds
	ErrCodeInvalidArrayMinLength ErrorCode = "ERR_INVALID_ARRAY_MIN_LENGTH"
	ErrCodeInvalidArrayMaxLength ErrorCode = "ERR_INVALID_ARRAY_MAX_LENGTH"

	// Entity existence and state
	ErrCodeNonExistentEntity       ErrorCode = "ERR_NON_EXISTENT_ENTITY"
	ErrCodeNonExistentChild        ErrorCode = "ERR_NON_EXISTENT_CHILD_ENTITY"
	ErrCodeNonExistentOrInactive   ErrorCode = "ERR_NON_EXISTENT_OR_INACTIVE"
	ErrCodeInactiveStatus          ErrorCode = "ERR_INACTIVE_STATUS"
	ErrCodeExistentEntity          ErrorCode = "ERR_EXISTENT_ENTITY"
	ErrCodeExistentChild           ErrorCode = "ERR_EXISTENT_CHILD_ENTITY"
	ErrCodeExistentEntityAttribute ErrorCode = "ERR_EXISTENT_ENTITY_ATTRIBUTE"
	ErrCodeUnauthorized            ErrorCode = "ERR_UNAUTHORIZED"

	// Duplicates inside one call
	ErrCodeDuplicateEntity              ErrorCode = "ERR_DUPLICATE_ENTITY"
	ErrCodeDuplicateChild               ErrorCode = "ERR_DUPLICATE_CHILD_ENTITY"
	ErrCodeDuplicateAttributeValues     ErrorCode = "ERR_DUPLICATE_ATTRIBUTE_VALUES"
	ErrCodeDuplicateInputAttributeValue ErrorCode = "ERR_DUPLICATE_INPUT_ATTRIBUTE_VALUE"

	// Field validation
	ErrCodeRequiresAtLeastOne      ErrorCode = "ERR_REQUIRES_AT_LEAST_ONE"
	ErrCodeComparingValues         ErrorCode = "ERR_COMPARING_VALUES"
	ErrCodeNotInInclusiveRange     ErrorCode = "ERR_NOT_IN_INCLUSIVE_RANGE"
	ErrCodeInvalidHexadecimalColor ErrorCode = "ERR_INVALID_HEXADECIMAL_COLOR"
	ErrCodeUnsupportedMimetype     ErrorCode = "ERR_UNSUPPORTED_MIMETYPE"
	ErrCodeInvalidDateRange        ErrorCode = "ERR_INVALID_DATE_RANGE"
	ErrCodeOverlappingDateRange    ErrorCode = "ERR_OVERLAPPING_DATE_RANGE"
	ErrCodeMustHaveExactlyN        ErrorCode = "ERR_MUST_HAVE_EXACTLY_N"
	ErrCodeInvalidFormat           ErrorCode = "ERR_INVALID_FORMAT"

	// Call level
	ErrCodeDatabaseSave     ErrorCode = "ERR_DATABASE_SAVE"
	ErrCodePermissionDenied ErrorCode = "ERR_PERMISSION_DENIED"
)

var messageTemplates = map[ErrorCode]string{
	ErrCodeInvalidArrayMinLength:        "{entity} {attribute} requires at least {min} item(s).",
	ErrCodeInvalidArrayMaxLength:        "{entity} {attribute} can contain at most {max} item(s).",
	ErrCodeNonExistentEntity:            "{entity} {entityName} doesn't exist or is inactive.",
	ErrCodeNonExistentChild:             "{entity} {entityName} doesn't exist for {parentEntity} {parentName}.",
	ErrCodeNonExistentOrInactive:        "{attribute} doesn't exist or is inactive for {entity} {otherAttribute}.",
	ErrCodeInactiveStatus:               "{entity} {entityName} is inactive.",
	ErrCodeExistentEntity:               "{entity} {entityName} already exists.",
	ErrCodeExistentChild:                "{entity} {entityName} already exists for {parentEntity} {parentName}.",
	ErrCodeExistentEntityAttribute:      "{entity} {entityName} with {attribute} {attributeValue} already exists.",
	ErrCodeUnauthorized:                 "You are unauthorized to perform this action on {entity} {entityName}.",
	ErrCodeDuplicateEntity:              "{entity} {entityName} already exists.",
	ErrCodeDuplicateChild:               "{entity} {entityName} already exists for {parentEntity} {parentName}.",
	ErrCodeDuplicateAttributeValues:     "On {entity}, the attribute combination {attribute} must be unique within the input.",
	ErrCodeDuplicateInputAttributeValue: "On {entity} {entityName}, {attribute} {attributeValue} appears more than once in the input.",
	ErrCodeRequiresAtLeastOne:           "{entity} requires at least one of the following fields: ({fields}).",
	ErrCodeComparingValues:              "{entity} {attribute} must be {comparison} {otherAttribute}.",
	ErrCodeNotInInclusiveRange:          "{entity} {attribute} must be between {min} and {max}.",
	ErrCodeInvalidHexadecimalColor:      "{entity} {attribute} {attributeValue} is not a hexadecimal color.",
	ErrCodeUnsupportedMimetype:          "{entity} {attribute} has unsupported mimetype {attributeValue}.",
	ErrCodeInvalidDateRange:             "{entity} {attribute} must end after it starts.",
	ErrCodeOverlappingDateRange:         "{entity} {attributeValue} overlaps with {otherAttribute} in {parentEntity} {parentName}.",
	ErrCodeMustHaveExactlyN:             "{entity} {entityName} must have exactly {count} {attribute}.",
	ErrCodeInvalidFormat:                "{entity} {attribute} is invalid: {reason}.",
	ErrCodeDatabaseSave:                 "{entity} could not be saved: {attribute}.",
	ErrCodePermissionDenied:             "{reason}",
}

// APIError is one addressable problem found while running a mutation.
// Index is nil for call-level errors such as input length bounds.
type APIError struct {
	Code           ErrorCode `json:"code"`
	Message        string    `json:"message"`
	Index          *int      `json:"index,omitempty"`
	Entity         string    `json:"entity,omitempty"`
	EntityName     string    `json:"entityName,omitempty"`
	Attribute      string    `json:"attribute,omitempty"`
	AttributeValue string    `json:"attributeValue,omitempty"`
	OtherAttribute string    `json:"otherAttribute,omitempty"`
	ParentEntity   string    `json:"parentEntity,omitempty"`
	ParentName     string    `json:"parentName,omitempty"`
	Comparison     string    `json:"comparison,omitempty"`
	Min            *float64  `json:"min,omitempty"`
	Max            *float64  `json:"max,omitempty"`
	Count          *int      `json:"count,omitempty"`
	Fields         string    `json:"fields,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Variables      []string  `json:"variables,omitempty"`
}

func (e *APIError) Error() string {
	if e.Index != nil {
		return fmt.Sprintf("[%s] input %d: %s", e.Code, *e.Index, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// HasIndex reports whether the error is attributed to the given input index.
func (e *APIError) HasIndex(index int) bool {
	return e.Index != nil && *e.Index == index
}

// render fills the code's message template from the error fields.
func (e *APIError) render() *APIError {
	tmpl, ok := messageTemplates[e.Code]
	if !ok {
		tmpl = string(e.Code)
	}
	r := strings.NewReplacer(
		"{entity}", e.Entity,
		"{entityName}", e.EntityName,
		"{attribute}", e.Attribute,
		"{attributeValue}", e.AttributeValue,
		"{otherAttribute}", e.OtherAttribute,
		"{parentEntity}", e.ParentEntity,
		"{parentName}", e.ParentName,
		"{comparison}", e.Comparison,
		"{min}", formatNumber(e.Min),
		"{max}", formatNumber(e.Max),
		"{count}", formatCount(e.Count),
		"{fields}", e.Fields,
		"{reason}", e.Reason,
	)
	e.Message = strings.Join(strings.Fields(r.Replace(tmpl)), " ")
	return e
}

func formatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatCount(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// APIErrorCollection is the single failure value returned when a batch
// fails validation. Errors keep the order in which they were reported.
type APIErrorCollection struct {
	Errors []*APIError `json:"errors"`
}

// NewAPIErrorCollection wraps the given errors.
func NewAPIErrorCollection(errs []*APIError) *APIErrorCollection {
	return &APIErrorCollection{Errors: errs}
}

func (c *APIErrorCollection) Error() string {
	msgs := make([]string, 0, len(c.Errors))
	for _, e := range c.Errors {
		msgs = append(msgs, e.Error())
	}
	return fmt.Sprintf("%d api error(s): %s", len(c.Errors), strings.Join(msgs, "; "))
}

// Len returns the number of collected errors.
func (c *APIErrorCollection) Len() int {
	return len(c.Errors)
}

// ErrorMap is a sparse mapping from input index to the error found there.
// An absent index means the input passed the check.
type ErrorMap map[int]*APIError

// Has reports whether index has an error.
func (m ErrorMap) Has(index int) bool {
	_, ok := m[index]
	return ok
}

// Sorted returns the errors ordered by index.
func (m ErrorMap) Sorted() []*APIError {
	out := make([]*APIError, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	SortAPIErrors(out)
	return out
}

// SortAPIErrors orders errors by input index. Errors without an index sort first
// and ties keep their relative order.
func SortAPIErrors(errs []*APIError) {
	sort.SliceStable(errs, func(i, j int) bool {
		a, b := errs[i].Index, errs[j].Index
		if a == nil {
			return b != nil
		}
		if b == nil {
			return false
		}
		return *a < *b
	})
}

// PermissionError reports that the caller lacks a permission in one or more scopes.
type PermissionError struct {
	UserID     string         `json:"userId"`
	Permission PermissionName `json:"permission"`
	ScopeType  string         `json:"scopeType"`
	ScopeIDs   []string       `json:"scopeIds"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("User(%s) does not have Permission(%s) in %s(%s)",
		e.UserID, e.Permission, e.ScopeType, strings.Join(e.ScopeIDs, ", "))
}

// APIError converts the permission failure into a call-level APIError.
func (e *PermissionError) APIError() *APIError {
	return (&APIError{
		Code:      ErrCodePermissionDenied,
		Entity:    e.ScopeType,
		Reason:    e.Error(),
		Variables: []string{string(e.Permission)},
	}).render()
}

// ============================================================================
// APIError Constructors
// ============================================================================

// InputLimit selects which bound of an input array was violated.
type InputLimit string

const (
	LimitMin InputLimit = "min"
	LimitMax InputLimit = "max"
)

// NewInputLengthError creates the error for an input array outside its bounds.
// The whole-call variant passes attribute "input array" and a nil index.
func NewInputLengthError(entity string, limit InputLimit, bound int, attribute string, index *int) *APIError {
	e := &APIError{
		Entity:    entity,
		Attribute: attribute,
		Index:     index,
		Variables: []string{},
	}
	if limit == LimitMin {
		e.Code = ErrCodeInvalidArrayMinLength
		e.Min = floatPtr(float64(bound))
	} else {
		e.Code = ErrCodeInvalidArrayMaxLength
		e.Max = floatPtr(float64(bound))
	}
	return e.render()
}

// EntityErrorKind selects the flavour of a NewEntityError.
type EntityErrorKind string

const (
	EntityNonExistent      EntityErrorKind = "nonExistent"
	EntityNonExistentChild EntityErrorKind = "nonExistentChild"
	EntityInactive         EntityErrorKind = "inactive"
	EntityUnauthorized     EntityErrorKind = "unauthorized"
	EntityDuplicate        EntityErrorKind = "duplicate"
	EntityDuplicateChild   EntityErrorKind = "duplicateChild"
	EntityExistent         EntityErrorKind = "existent"
	EntityExistentChild    EntityErrorKind = "existentChild"
)

var entityErrorCodes = map[EntityErrorKind]struct {
	code      ErrorCode
	variables []string
	child     bool
}{
	EntityNonExistent:      {ErrCodeNonExistentEntity, []string{"id"}, false},
	EntityNonExistentChild: {ErrCodeNonExistentChild, nil, true},
	EntityInactive:         {ErrCodeInactiveStatus, []string{"id"}, false},
	EntityUnauthorized:     {ErrCodeUnauthorized, []string{"id"}, false},
	EntityDuplicate:        {ErrCodeDuplicateEntity, []string{"name"}, false},
	EntityDuplicateChild:   {ErrCodeDuplicateChild, nil, true},
	EntityExistent:         {ErrCodeExistentEntity, []string{"id"}, false},
	EntityExistentChild:    {ErrCodeExistentChild, nil, true},
}

// NewEntityError creates an error about one named entity, optionally inside a parent.
// Parent fields are only kept for the child kinds.
func NewEntityError(kind EntityErrorKind, index int, entity, name, parentEntity, parentName string, variables ...string) *APIError {
	def, ok := entityErrorCodes[kind]
	if !ok {
		def = entityErrorCodes[EntityNonExistent]
	}
	vars := def.variables
	if len(variables) > 0 {
		vars = variables
	}
	if vars == nil {
		vars = []string{""}
	}
	e := &APIError{
		Code:       def.code,
		Index:      intPtr(index),
		Entity:     entity,
		EntityName: name,
		Variables:  vars,
	}
	if def.child {
		e.ParentEntity = parentEntity
		e.ParentName = parentName
	}
	return e.render()
}

// NewDuplicateAttributeError flags an input repeating an attribute combination
// already used by an earlier input.
func NewDuplicateAttributeError(index int, attributes []string, entity string) *APIError {
	return (&APIError{
		Code:      ErrCodeDuplicateAttributeValues,
		Index:     intPtr(index),
		Entity:    entity,
		Attribute: "(" + strings.Join(attributes, ",") + ")",
		Variables: attributes,
	}).render()
}

// NewDuplicateInputAttributeError flags a repeated (entity id, attribute value) pair.
func NewDuplicateInputAttributeError(index int, entity, entityName, attribute, attributeValue string) *APIError {
	return (&APIError{
		Code:           ErrCodeDuplicateInputAttributeValue,
		Index:          intPtr(index),
		Entity:         entity,
		EntityName:     entityName,
		Attribute:      attribute,
		AttributeValue: attributeValue,
		Variables:      []string{"id"},
	}).render()
}

// NewExistentEntityAttributeError flags a value already used by a persisted entity.
func NewExistentEntityAttributeError(entity, entityName, attribute, attributeValue string, index int) *APIError {
	return (&APIError{
		Code:           ErrCodeExistentEntityAttribute,
		Index:          intPtr(index),
		Entity:         entity,
		EntityName:     entityName,
		Attribute:      attribute,
		AttributeValue: attributeValue,
		Variables:      []string{"id"},
	}).render()
}

// NewNonExistentOrInactiveError flags a reference that cannot be resolved for another attribute.
func NewNonExistentOrInactiveError(index int, variables []string, attribute, entity, otherAttribute string) *APIError {
	return (&APIError{
		Code:           ErrCodeNonExistentOrInactive,
		Index:          intPtr(index),
		Entity:         entity,
		Attribute:      attribute,
		OtherAttribute: otherAttribute,
		Variables:      variables,
	}).render()
}

// NewRequiresAtLeastOneError flags an input that sets none of the listed fields.
func NewRequiresAtLeastOneError(index int, entity string, fields []string) *APIError {
	return (&APIError{
		Code:      ErrCodeRequiresAtLeastOne,
		Index:     intPtr(index),
		Entity:    entity,
		Attribute: "input array",
		Fields:    strings.Join(fields, ","),
		Variables: fields,
	}).render()
}

// NewComparisonError flags two attributes failing a numeric comparison.
func NewComparisonError(index int, entity, attribute, otherAttribute, comparison string) *APIError {
	return (&APIError{
		Code:           ErrCodeComparingValues,
		Index:          intPtr(index),
		Entity:         entity,
		Attribute:      attribute,
		OtherAttribute: otherAttribute,
		Comparison:     comparison,
		Variables:      []string{attribute, otherAttribute},
	}).render()
}

// NewRangeError flags a value outside an inclusive range.
func NewRangeError(index int, entity, attribute string, min, max float64) *APIError {
	return (&APIError{
		Code:      ErrCodeNotInInclusiveRange,
		Index:     intPtr(index),
		Entity:    entity,
		Attribute: attribute,
		Min:       floatPtr(min),
		Max:       floatPtr(max),
		Variables: []string{attribute},
	}).render()
}

// NewHexColorError flags a malformed color value.
func NewHexColorError(index int, entity, attribute, value string) *APIError {
	return (&APIError{
		Code:           ErrCodeInvalidHexadecimalColor,
		Index:          intPtr(index),
		Entity:         entity,
		Attribute:      attribute,
		AttributeValue: value,
		Variables:      []string{attribute},
	}).render()
}

// NewMimetypeError flags an upload whose mimetype is not accepted.
func NewMimetypeError(index int, entity, attribute, mimetype string) *APIError {
	return (&APIError{
		Code:           ErrCodeUnsupportedMimetype,
		Index:          intPtr(index),
		Entity:         entity,
		Attribute:      attribute,
		AttributeValue: mimetype,
		Variables:      []string{attribute},
	}).render()
}

// NewInvalidDateRangeError flags a range whose end is not after its start.
func NewInvalidDateRangeError(index int, entity string, variables []string) *APIError {
	return (&APIError{
		Code:      ErrCodeInvalidDateRange,
		Index:     intPtr(index),
		Entity:    entity,
		Attribute: "(" + strings.Join(variables, ",") + ")",
		Variables: variables,
	}).render()
}

// NewOverlappingDateRangeError flags a range colliding with another one under the same parent.
func NewOverlappingDateRangeError(index int, entity, parentEntity, parentAttribute, parentValue, rangeText, otherRangeText string) *APIError {
	return (&APIError{
		Code:           ErrCodeOverlappingDateRange,
		Index:          intPtr(index),
		Entity:         entity,
		Attribute:      parentAttribute,
		AttributeValue: rangeText,
		OtherAttribute: otherRangeText,
		ParentEntity:   parentEntity,
		ParentName:     parentValue,
		Variables:      []string{"startDate", "endDate"},
	}).render()
}

// NewMustHaveExactlyNError flags an entity that must carry exactly count items of attribute.
func NewMustHaveExactlyNError(index int, entity, entityName, attribute string, count int) *APIError {
	return (&APIError{
		Code:       ErrCodeMustHaveExactlyN,
		Index:      intPtr(index),
		Entity:     entity,
		EntityName: entityName,
		Attribute:  attribute,
		Count:      intPtr(count),
		Variables:  []string{attribute},
	}).render()
}

// NewUnauthorizedError flags an entity the caller may never mutate, such as a system entity.
func NewUnauthorizedError(index int, entity, attribute, entityName string) *APIError {
	return (&APIError{
		Code:       ErrCodeUnauthorized,
		Index:      intPtr(index),
		Entity:     entity,
		EntityName: entityName,
		Variables:  []string{attribute},
	}).render()
}

// NewSchemaError flags an input failing its JSON schema.
func NewSchemaError(index int, entity, attribute, reason string) *APIError {
	return (&APIError{
		Code:      ErrCodeInvalidFormat,
		Index:     intPtr(index),
		Entity:    entity,
		Attribute: attribute,
		Reason:    reason,
		Variables: []string{attribute},
	}).render()
}

// NewDatabaseSaveError wraps a failed bulk write. The storage message travels
// in Attribute so callers never see the raw driver error type.
func NewDatabaseSaveError(entity, message string) *APIError {
	return (&APIError{
		Code:      ErrCodeDatabaseSave,
		Entity:    entity,
		Attribute: message,
		Variables: []string{},
	}).render()
}

// ============================================================================
// Helper functions
// ============================================================================

// AsAPIErrorCollection extracts an APIErrorCollection from err.
func AsAPIErrorCollection(err error) (*APIErrorCollection, bool) {
	var c *APIErrorCollection
	if errors.As(err, &c) {
		return c, true
	}
	return nil, false
}

// AsAPIError extracts a single APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var e *APIError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsPermissionError checks if an error is a permission failure.
func IsPermissionError(err error) bool {
	var p *PermissionError
	return errors.As(err, &p)
}

// IsDatabaseSaveError checks if an error is a wrapped persistence failure.
func IsDatabaseSaveError(err error) bool {
	e, ok := AsAPIError(err)
	return ok && e.Code == ErrCodeDatabaseSave
}

// IsAPIErrorCollection checks if an error is an aggregated validation failure.
func IsAPIErrorCollection(err error) bool {
	_, ok := AsAPIErrorCollection(err)
	return ok
}

// WithIndex attributes the error to an input index.
func (e *APIError) WithIndex(index int) *APIError {
	e.Index = intPtr(index)
	return e
}

// WithVariables replaces the interpolation variables.
func (e *APIError) WithVariables(variables ...string) *APIError {
	e.Variables = variables
	return e
}
