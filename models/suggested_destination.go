package models

import "time"

// SuggestedDestination is one entry of a plan's frozen consensus list
// Table: plan_suggestions
// Unique by (plan_id, airport_code); position preserves consensus order
// Only likes changes after insertion. Fares are never stored
type SuggestedDestination struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PlanID      uint      `gorm:"not null;uniqueIndex:uk_plan_suggestions_plan_code,priority:1;index:idx_plan_suggestions_plan_id" json:"plan_id"`
	Position    int       `gorm:"not null" json:"position"`
	AirportCode string    `gorm:"size:3;not null;uniqueIndex:uk_plan_suggestions_plan_code,priority:2" json:"airport_code"`
	City        string    `gorm:"size:128;not null" json:"city"`
	Country     string    `gorm:"size:128;not null" json:"country"`
	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	PhotoURL    *string   `gorm:"type:text" json:"photo_url,omitempty"`
	Likes       int64     `gorm:"not null;default:0" json:"likes"`
	CreatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

func (SuggestedDestination) TableName() string { return "plan_suggestions" }

// SuggestedDestinationFilter represents filter criteria for suggestion queries
type SuggestedDestinationFilter struct {
	ID          *uint
	PlanID      *uint
	AirportCode *string
}

// LikeCount returns the suggestion's vote total
func (s SuggestedDestination) LikeCount() int64 { return s.Likes }
