package models

import "time"

// GroupType names the satisfaction rule of a requirement group.
type GroupType string

const (
	GroupAllOf      GroupType = "allOf"
	GroupAnyOf      GroupType = "anyOf"
	GroupChooseN    GroupType = "chooseN"
	GroupMinCredits GroupType = "minCredits"
	GroupMinCount   GroupType = "minCount"
)

// RequirementGroup is one rule inside a major's degree requirements. Exactly
// one of the rule fields is expected to be populated; Note carries optional
// advisor annotations such as "level>=300", "tag=Quant" or "double=true".
type RequirementGroup struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	AllOf      []string `json:"allOf,omitempty"`
	AnyOf      []string `json:"anyOf,omitempty"`
	ChooseN    *int     `json:"chooseN,omitempty"`
	MinCredits *int     `json:"minCredits,omitempty"`
	MinCount   *int     `json:"minCount,omitempty"`
	Note       string   `json:"note,omitempty"`
}

// Major describes a degree program and its requirement groups for a catalog
// year.
type Major struct {
	ID                string             `db:"id" json:"id"`
	Name              string             `db:"name" json:"name"`
	CatalogYear       string             `db:"catalog_year" json:"catalog_year"`
	RequirementGroups []RequirementGroup `db:"-" json:"requirement_groups"`
	CreatedAt         time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `db:"updated_at" json:"updated_at"`
}
