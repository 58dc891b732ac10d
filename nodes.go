package campus

import (
	"time"

	"github.com/google/uuid"
)

// AgeRangeNode is the caller-facing shape of an age range.
type AgeRangeNode struct {
	ID            uuid.UUID    `json:"id"`
	Name          string       `json:"name"`
	LowValue      int          `json:"lowValue"`
	HighValue     int          `json:"highValue"`
	LowValueUnit  AgeRangeUnit `json:"lowValueUnit"`
	HighValueUnit AgeRangeUnit `json:"highValueUnit"`
	System        bool         `json:"system"`
	Status        Status       `json:"status"`
}

func NewAgeRangeNode(a *AgeRange) AgeRangeNode {
	return AgeRangeNode{
		ID:            a.ID,
		Name:          a.Name,
		LowValue:      a.LowValue,
		HighValue:     a.HighValue,
		LowValueUnit:  a.LowValueUnit,
		HighValueUnit: a.HighValueUnit,
		System:        a.System,
		Status:        a.Status,
	}
}

// GradeNode is the caller-facing shape of a grade.
type GradeNode struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	System bool      `json:"system"`
	Status Status    `json:"status"`
}

func NewGradeNode(g *Grade) GradeNode {
	return GradeNode{ID: g.ID, Name: g.Name, System: g.System, Status: g.Status}
}

// CategoryNode is the caller-facing shape of a category.
type CategoryNode struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	System bool      `json:"system"`
	Status Status    `json:"status"`
}

func NewCategoryNode(c *Category) CategoryNode {
	return CategoryNode{ID: c.ID, Name: c.Name, System: c.System, Status: c.Status}
}

// SubcategoryNode is the caller-facing shape of a subcategory.
type SubcategoryNode struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	System bool      `json:"system"`
	Status Status    `json:"status"`
}

func NewSubcategoryNode(s *Subcategory) SubcategoryNode {
	return SubcategoryNode{ID: s.ID, Name: s.Name, System: s.System, Status: s.Status}
}

// SchoolNode is the caller-facing shape of a school.
type SchoolNode struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Shortcode      string    `json:"shortCode"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Status         Status    `json:"status"`
}

func NewSchoolNode(s *School) SchoolNode {
	return SchoolNode{
		ID:             s.ID,
		Name:           s.Name,
		Shortcode:      s.Shortcode,
		OrganizationID: s.OrganizationID,
		Status:         s.Status,
	}
}

// OrganizationNode is the caller-facing shape of an organization.
type OrganizationNode struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Status Status    `json:"status"`
}

func NewOrganizationNode(o *Organization) OrganizationNode {
	return OrganizationNode{ID: o.ID, Name: o.Name, Status: o.Status}
}

// AcademicTermNode is the caller-facing shape of an academic term.
type AcademicTermNode struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	SchoolID  uuid.UUID `json:"schoolId"`
	Status    Status    `json:"status"`
}

func NewAcademicTermNode(a *AcademicTerm) AcademicTermNode {
	return AcademicTermNode{
		ID:        a.ID,
		Name:      a.Name,
		StartDate: a.StartDate,
		EndDate:   a.EndDate,
		SchoolID:  a.SchoolID,
		Status:    a.Status,
	}
}
