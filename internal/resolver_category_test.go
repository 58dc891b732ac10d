package internal

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	campus "github.com/lychee-technology/campus"
)

func newSubcategory(org *campus.Organization, name string) *campus.Subcategory {
	s := &campus.Subcategory{ID: uuid.New(), Name: name, Lifecycle: active()}
	if org == nil {
		s.System = true
	} else {
		s.OrganizationID = ptr(org.ID)
	}
	return s
}

func newCategory(org *campus.Organization, name string) *campus.Category {
	c := &campus.Category{ID: uuid.New(), Name: name, Lifecycle: active()}
	if org == nil {
		c.System = true
	} else {
		c.OrganizationID = ptr(org.ID)
	}
	return c
}

func linkedIDs(t *testing.T, store *memStore, categoryID uuid.UUID) []uuid.UUID {
	t.Helper()
	links, err := FetchWhere[campus.CategorySubcategory](context.Background(), store,
		campus.Condition{Column: "category_id", Values: []uuid.UUID{categoryID}})
	require.NoError(t, err)
	ids := make([]uuid.UUID, len(links))
	for i, l := range links {
		ids[i] = l.SubcategoryID
	}
	return ids
}

func TestCreateCategories(t *testing.T) {
	org, other := newOrg("Org"), newOrg("Other")
	own, shared, foreign := newSubcategory(org, "Phonics"), newSubcategory(nil, "None Specified"), newSubcategory(other, "Theirs")
	existing := newCategory(org, "Literacy")
	store := newMemStore(org, other, own, shared, foreign, existing)
	svc := newTestService(store)

	t.Run("links own and system subcategories", func(t *testing.T) {
		out, err := svc.CreateCategories(context.Background(), adminAuth(), []campus.CreateCategoryInput{
			{Name: "Reading", OrganizationID: org.ID, SubcategoryIDs: []uuid.UUID{own.ID, shared.ID}},
		})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.ElementsMatch(t, []uuid.UUID{own.ID, shared.ID}, linkedIDs(t, store, out[0].ID))
	})

	t.Run("rejects foreign subcategories and taken names", func(t *testing.T) {
		_, err := svc.CreateCategories(context.Background(), adminAuth(), []campus.CreateCategoryInput{
			{Name: "Literacy", OrganizationID: org.ID},
			{Name: "Maths", OrganizationID: org.ID, SubcategoryIDs: []uuid.UUID{foreign.ID}},
		})
		errs := requireCollection(t, err)
		assert.Equal(t, []int{0, 1}, errorIndexes(errs))
		assert.Equal(t, []campus.ErrorCode{campus.ErrCodeExistentEntityAttribute, campus.ErrCodeNonExistentChild}, errorCodes(errs))
	})

	t.Run("rejects repeated subcategories within one input", func(t *testing.T) {
		_, err := svc.CreateCategories(context.Background(), adminAuth(), []campus.CreateCategoryInput{
			{Name: "Writing", OrganizationID: org.ID, SubcategoryIDs: []uuid.UUID{own.ID, own.ID}},
		})
		errs := requireCollection(t, err)
		require.Len(t, errs, 1)
		assert.Equal(t, campus.ErrCodeDuplicateAttributeValues, errs[0].Code)
		assert.Equal(t, []string{"subcategoryIds"}, errs[0].Variables)
	})

	t.Run("rejects a blank name", func(t *testing.T) {
		_, err := svc.CreateCategories(context.Background(), adminAuth(), []campus.CreateCategoryInput{
			{Name: " ", OrganizationID: org.ID},
		})
		errs := requireCollection(t, err)
		assert.Equal(t, []campus.ErrorCode{campus.ErrCodeInvalidFormat}, errorCodes(errs))
	})
}

func TestUpdateCategories(t *testing.T) {
	org := newOrg("Org")
	a, b := newSubcategory(org, "A"), newSubcategory(org, "B")
	cat := newCategory(org, "Science")
	system := newCategory(nil, "None Specified")
	store := newMemStore(org, a, b, cat, system, &campus.CategorySubcategory{CategoryID: cat.ID, SubcategoryID: a.ID})
	svc := newTestService(store)

	out, err := svc.UpdateCategories(context.Background(), adminAuth(), []campus.UpdateCategoryInput{
		{ID: cat.ID, Name: ptr(" Natural  Science"), SubcategoryIDs: []uuid.UUID{b.ID}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Natural Science", out[0].Name)
	assert.Equal(t, []uuid.UUID{b.ID}, linkedIDs(t, store, cat.ID))

	_, err = svc.UpdateCategories(context.Background(), adminAuth(), []campus.UpdateCategoryInput{
		{ID: system.ID, Name: ptr("Mine now")},
	})
	errs := requireCollection(t, err)
	assert.Equal(t, []campus.ErrorCode{campus.ErrCodeUnauthorized}, errorCodes(errs))

	_, err = svc.UpdateCategories(context.Background(), adminAuth(), []campus.UpdateCategoryInput{
		{ID: cat.ID, Name: ptr("  ")},
	})
	errs = requireCollection(t, err)
	assert.Equal(t, []campus.ErrorCode{campus.ErrCodeInvalidFormat}, errorCodes(errs))
	assert.Equal(t, "Natural Science", memLoad[campus.Category](store, cat.ID).Name)
}

func TestCategoryLinks(t *testing.T) {
	org := newOrg("Org")
	a, b, c := newSubcategory(org, "A"), newSubcategory(org, "B"), newSubcategory(org, "C")
	cat := newCategory(org, "Arts")
	store := newMemStore(org, a, b, c, cat, &campus.CategorySubcategory{CategoryID: cat.ID, SubcategoryID: a.ID})
	svc := newTestService(store)
	auth := scopedAuth().grant(campus.PermissionEditSubjects, org.ID)

	t.Run("add rejects already linked", func(t *testing.T) {
		_, err := svc.AddSubcategoriesToCategories(context.Background(), auth, []campus.CategorySubcategoriesInput{
			{CategoryID: cat.ID, SubcategoryIDs: []uuid.UUID{a.ID, b.ID}},
		})
		errs := requireCollection(t, err)
		require.Len(t, errs, 1)
		assert.Equal(t, campus.ErrCodeExistentChild, errs[0].Code)
		assert.Equal(t, a.ID.String(), errs[0].EntityName)
	})

	t.Run("add appends to current links", func(t *testing.T) {
		_, err := svc.AddSubcategoriesToCategories(context.Background(), auth, []campus.CategorySubcategoriesInput{
			{CategoryID: cat.ID, SubcategoryIDs: []uuid.UUID{b.ID, c.ID}},
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID, c.ID}, linkedIDs(t, store, cat.ID))
	})

	t.Run("remove rejects unlinked", func(t *testing.T) {
		stray := newSubcategory(org, "Stray")
		_, err := svc.RemoveSubcategoriesFromCategories(context.Background(), auth, []campus.CategorySubcategoriesInput{
			{CategoryID: cat.ID, SubcategoryIDs: []uuid.UUID{stray.ID}},
		})
		errs := requireCollection(t, err)
		assert.Equal(t, []campus.ErrorCode{campus.ErrCodeNonExistentEntity, campus.ErrCodeNonExistentChild}, errorCodes(errs))
	})

	t.Run("remove keeps the rest", func(t *testing.T) {
		_, err := svc.RemoveSubcategoriesFromCategories(context.Background(), auth, []campus.CategorySubcategoriesInput{
			{CategoryID: cat.ID, SubcategoryIDs: []uuid.UUID{a.ID, c.ID}},
		})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{b.ID}, linkedIDs(t, store, cat.ID))
	})

	t.Run("rejects repeated categories", func(t *testing.T) {
		_, err := svc.RemoveSubcategoriesFromCategories(context.Background(), auth, []campus.CategorySubcategoriesInput{
			{CategoryID: cat.ID, SubcategoryIDs: []uuid.UUID{b.ID}},
			{CategoryID: cat.ID, SubcategoryIDs: []uuid.UUID{b.ID}},
		})
		errs := requireCollection(t, err)
		assert.Equal(t, []int{1}, errorIndexes(errs))
	})
}

func TestCreateAndDeleteSubcategories(t *testing.T) {
	org := newOrg("Org")
	system := newSubcategory(nil, "None Specified")
	store := newMemStore(org, system)
	svc := newTestService(store)

	out, err := svc.CreateSubcategories(context.Background(), adminAuth(), []campus.CreateSubcategoryInput{
		{Name: "Geometry", OrganizationID: org.ID},
		{Name: "Algebra", OrganizationID: org.ID},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	_, err = svc.CreateSubcategories(context.Background(), adminAuth(), []campus.CreateSubcategoryInput{
		{Name: "Geometry", OrganizationID: org.ID},
	})
	errs := requireCollection(t, err)
	assert.Equal(t, []campus.ErrorCode{campus.ErrCodeExistentEntityAttribute}, errorCodes(errs))

	deleted, err := svc.DeleteSubcategories(context.Background(), adminAuth(), deleteInputs(out[1].ID))
	require.NoError(t, err)
	assert.Equal(t, campus.StatusInactive, deleted[0].Status)

	_, err = svc.DeleteSubcategories(context.Background(), adminAuth(), deleteInputs(system.ID))
	errs = requireCollection(t, err)
	assert.Equal(t, []campus.ErrorCode{campus.ErrCodeUnauthorized}, errorCodes(errs))
}

func TestDeleteCategoriesChecksOwnerScope(t *testing.T) {
	org := newOrg("Org")
	cat := newCategory(org, "Music")
	store := newMemStore(org, cat)
	auth := scopedAuth()

	_, err := newTestService(store).DeleteCategories(context.Background(), auth, deleteInputs(cat.ID))

	require.True(t, campus.IsPermissionError(err))
	require.Len(t, auth.checks, 1)
	assert.Equal(t, campus.PermissionDeleteSubjects, auth.checks[0].permission)
	assert.Equal(t, campus.StatusActive, memLoad[campus.Category](store, cat.ID).Status)
}
