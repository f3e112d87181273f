package models

import (
	"time"

	"github.com/lib/pq"
)

// PlanMember is a traveler's membership in one plan
// Table: plan_members
// Unique by (plan_id, email); members are ordered by joined_at, id
// TopDestinationCodes holds at most 25 distinct airport codes in rank order
type PlanMember struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	PlanID              uint           `gorm:"not null;uniqueIndex:uk_plan_members_plan_email,priority:1;index:idx_plan_members_plan_id" json:"plan_id"`
	Email               string         `gorm:"size:255;not null;uniqueIndex:uk_plan_members_plan_email,priority:2;index:idx_plan_members_email" json:"email"`
	Name                string         `gorm:"size:255;not null;default:''" json:"name"`
	HomeAirportCode     *string        `gorm:"size:3" json:"home_airport_code,omitempty"`
	HasCompletedQuiz    bool           `gorm:"not null;default:false" json:"has_completed_quiz"`
	PreferenceSummary   *string        `gorm:"type:text" json:"preference_summary,omitempty"`
	TasteVector         []float64      `gorm:"type:jsonb;serializer:json" json:"-"`
	TopDestinationCodes pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"top_destination_codes"`
	HasVoted            bool           `gorm:"not null;default:false" json:"has_voted"`
	JoinedAt            time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"joined_at"`
	UpdatedAt           time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (PlanMember) TableName() string { return "plan_members" }

// PlanMemberFilter represents filter criteria for plan member queries
type PlanMemberFilter struct {
	ID               *uint
	PlanID           *uint
	Email            *string
	HasCompletedQuiz *bool
	HasVoted         *bool
}
