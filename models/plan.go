package models

import "time"

// Plan is a group trip that members join by its shareable code
// Table: plans
// SuggestionsMaterializedAt is set exactly once, in the same transaction
// that persists the plan's suggestion list
type Plan struct {
	ID                        uint       `gorm:"primaryKey" json:"id"`
	Code                      string     `gorm:"size:6;not null;uniqueIndex:uk_plans_code" json:"code"`
	Name                      string     `gorm:"size:255;not null" json:"name"`
	Description               string     `gorm:"type:text;not null;default:''" json:"description"`
	CreatorEmail              string     `gorm:"size:255;not null;index:idx_plans_creator_email" json:"creator_email"`
	StartDate                 time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate                   time.Time  `gorm:"type:date;not null" json:"end_date"`
	SuggestionsMaterializedAt *time.Time `json:"suggestions_materialized_at,omitempty"`
	CreatedAt                 time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_plans_created_at" json:"created_at"`
	UpdatedAt                 time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	Members []PlanMember `gorm:"foreignKey:PlanID" json:"members,omitempty"`
}

func (Plan) TableName() string { return "plans" }

// IsMaterialized reports whether the suggestion list has been frozen
func (p Plan) IsMaterialized() bool {
	return p.SuggestionsMaterializedAt != nil
}

// PlanFilter represents filter criteria for plan queries
type PlanFilter struct {
	ID            *uint
	Code          *string
	IDs           []uint
	CreatorEmail  *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
