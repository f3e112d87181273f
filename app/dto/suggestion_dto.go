package dto

// Suggestion list states
const (
	SuggestionStatusPending = "pending"
	SuggestionStatusReady   = "ready"
)

// PriceDTO is a live fare for the whole party
type PriceDTO struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// SuggestionDTO is one consensus destination, enriched for display
type SuggestionDTO struct {
	Position    int       `json:"position"`
	AirportCode string    `json:"airport_code"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Description string    `json:"description"`
	PhotoURL    *string   `json:"photo_url"`
	Price       *PriceDTO `json:"price"`
	Likes       int64     `json:"likes"`
}

// GetSuggestionsResponse returns the plan's consensus list.
// Status is pending while no common destination exists yet.
type GetSuggestionsResponse struct {
	Message     string          `json:"message"`
	Status      string          `json:"status"`
	Suggestions []SuggestionDTO `json:"suggestions"`
}

// CastVoteRequest votes for one of the plan's suggestions
type CastVoteRequest struct {
	AirportCode string `json:"airport_code" validate:"required,len=3,alpha"`
}

// CastVoteResponse acknowledges a vote
type CastVoteResponse struct {
	Message     string `json:"message"`
	AirportCode string `json:"airport_code"`
}

// PodiumResponse returns the most liked suggestions
type PodiumResponse struct {
	Message string          `json:"message"`
	Podium  []SuggestionDTO `json:"podium"`
}

// PhotoResponse is the result of a destination photo lookup
type PhotoResponse struct {
	City     string `json:"city"`
	Country  string `json:"country"`
	PhotoURL string `json:"photo_url"`
}
