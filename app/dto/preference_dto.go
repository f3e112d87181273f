package dto

// QuizAnswerDTO is one answered quiz question
type QuizAnswerDTO struct {
	Question string `json:"question" validate:"required,max=500"`
	Answer   string `json:"answer" validate:"required,max=2000"`
}

// SubmitPreferencesRequest carries a member's quiz answers
type SubmitPreferencesRequest struct {
	Answers         []QuizAnswerDTO `json:"answers" validate:"required,min=1,max=50,dive"`
	HomeAirportCode *string         `json:"home_airport_code,omitempty" validate:"omitempty,len=3,alpha"`
}

// SubmitPreferencesResponse returns the generated travel summary
type SubmitPreferencesResponse struct {
	Message          string   `json:"message"`
	Summary          string   `json:"summary"`
	TopDestinations  []string `json:"top_destinations"`
	CompletedMembers int      `json:"completed_members"`
	TotalMembers     int      `json:"total_members"`
}
