// Package businessflow contains the business logic for the application.
package businessflow

import (
	"strings"

	"github.com/amirphl/planeit/app/dto"
	"github.com/amirphl/planeit/config"
	"github.com/amirphl/planeit/models"
	"github.com/amirphl/planeit/utils"
)

// ClientMetadata holds client information attached to a request for logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// Traveller identifies the authenticated caller
type Traveller struct {
	Email string
	Name  string
}

// NewTraveller normalizes the identity carried by a bearer token
func NewTraveller(email, name string) Traveller {
	email = utils.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if name == "" {
		if at := strings.IndexByte(email, '@'); at > 0 {
			name = email[:at]
		}
	}
	return Traveller{Email: email, Name: name}
}

// redisKey namespaces key with the configured prefix
func redisKey(cfg *config.CacheConfig, key string) string {
	if cfg == nil {
		return key
	}
	return cfg.RedisPrefix + key
}

// normalizePlanCode upper-cases a code typed or pasted by a traveller
func normalizePlanCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ToPlanDTO converts a plan and its members to the API shape
func ToPlanDTO(plan models.Plan, members []*models.PlanMember) dto.PlanDTO {
	out := dto.PlanDTO{
		ID:               plan.ID,
		Code:             plan.Code,
		Name:             plan.Name,
		Description:      plan.Description,
		CreatorEmail:     plan.CreatorEmail,
		StartDate:        utils.FormatDate(plan.StartDate),
		EndDate:          utils.FormatDate(plan.EndDate),
		SuggestionsReady: plan.IsMaterialized(),
		MemberCount:      len(members),
		CreatedAt:        plan.CreatedAt,
	}
	if len(members) > 0 {
		out.Members = make([]dto.PlanMemberDTO, 0, len(members))
		for _, m := range members {
			out.Members = append(out.Members, ToPlanMemberDTO(*m))
		}
	}
	return out
}

func ToPlanMemberDTO(m models.PlanMember) dto.PlanMemberDTO {
	return dto.PlanMemberDTO{
		Name:             m.Name,
		Email:            m.Email,
		HomeAirportCode:  m.HomeAirportCode,
		HasCompletedQuiz: m.HasCompletedQuiz,
		HasVoted:         m.HasVoted,
		JoinedAt:         m.JoinedAt,
	}
}

// ToSuggestionDTO converts a stored suggestion without live enrichment
func ToSuggestionDTO(s models.SuggestedDestination) dto.SuggestionDTO {
	return dto.SuggestionDTO{
		Position:    s.Position,
		AirportCode: s.AirportCode,
		City:        s.City,
		Country:     s.Country,
		Description: s.Description,
		PhotoURL:    s.PhotoURL,
		Likes:       s.Likes,
	}
}

// ToEnrichedSuggestionDTO converts an enriched suggestion
func ToEnrichedSuggestionDTO(e EnrichedSuggestion) dto.SuggestionDTO {
	out := ToSuggestionDTO(e.SuggestedDestination)
	out.PhotoURL = e.PhotoURL
	if e.Price != nil {
		out.Price = &dto.PriceDTO{Amount: e.Price.Amount, Currency: e.Price.Currency}
	}
	return out
}

func derefSuggestions(rows []*models.SuggestedDestination) []models.SuggestedDestination {
	out := make([]models.SuggestedDestination, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
