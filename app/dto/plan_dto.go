package dto

import "time"

// CreatePlanRequest represents a request to start a new group plan
type CreatePlanRequest struct {
	Name            string  `json:"name" validate:"required,min=1,max=255"`
	Description     string  `json:"description" validate:"max=2000"`
	StartDate       string  `json:"start_date" validate:"required,len=10"`
	EndDate         string  `json:"end_date" validate:"required,len=10"`
	CreatorName     string  `json:"creator_name,omitempty" validate:"max=255"`
	HomeAirportCode *string `json:"home_airport_code,omitempty" validate:"omitempty,len=3,alpha"`

	// Populated from the authenticated traveller
	CreatorEmail string `json:"-"`
}

// PlanMemberDTO is a member as shown to other members of the plan
type PlanMemberDTO struct {
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	HomeAirportCode  *string   `json:"home_airport_code,omitempty"`
	HasCompletedQuiz bool      `json:"has_completed_quiz"`
	HasVoted         bool      `json:"has_voted"`
	JoinedAt         time.Time `json:"joined_at"`
}

// PlanDTO represents a plan in API responses
type PlanDTO struct {
	ID               uint            `json:"id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	CreatorEmail     string          `json:"creator_email"`
	StartDate        string          `json:"start_date"`
	EndDate          string          `json:"end_date"`
	SuggestionsReady bool            `json:"suggestions_ready"`
	MemberCount      int             `json:"member_count"`
	Members          []PlanMemberDTO `json:"members,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// CreatePlanResponse represents the response of plan creation
type CreatePlanResponse struct {
	Message string  `json:"message"`
	Plan    PlanDTO `json:"plan"`
}

// ListPlansResponse lists the plans the caller belongs to
type ListPlansResponse struct {
	Message string    `json:"message"`
	Plans   []PlanDTO `json:"plans"`
}

// GetPlanResponse returns a plan; Joined is true when this call added the caller
type GetPlanResponse struct {
	Message string  `json:"message"`
	Plan    PlanDTO `json:"plan"`
	Joined  bool    `json:"joined"`
}
