// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/planeit/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// Transactor runs fn inside a single database transaction carried by ctx
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
}

// DestinationRepository defines operations for the destination catalog
type DestinationRepository interface {
	Repository[models.Destination, models.DestinationFilter]
	ByAirportCode(ctx context.Context, airportCode string) (*models.Destination, error)
	ListAll(ctx context.Context) ([]*models.Destination, error)
	UpdateEmbedding(ctx context.Context, id uint, description string, embedding []float64) error
	IncrementLikes(ctx context.Context, airportCode string) (int64, error)
}

// PlanRepository defines operations for plans
type PlanRepository interface {
	Repository[models.Plan, models.PlanFilter]
	ByCode(ctx context.Context, code string) (*models.Plan, error)
	ListByMemberEmail(ctx context.Context, email string) ([]*models.Plan, error)
	MarkSuggestionsMaterialized(ctx context.Context, planID uint, at time.Time) (bool, error)
}

// PlanMemberRepository defines operations for plan members
type PlanMemberRepository interface {
	Repository[models.PlanMember, models.PlanMemberFilter]
	ByPlanAndEmail(ctx context.Context, planID uint, email string) (*models.PlanMember, error)
	ListByPlan(ctx context.Context, planID uint) ([]*models.PlanMember, error)
	CountByPlan(ctx context.Context, planID uint) (int64, error)
	UpdatePreferences(ctx context.Context, memberID uint, update PreferenceUpdate) error
	MarkVoted(ctx context.Context, planID uint, email string) (int64, error)
}

// PreferenceUpdate carries the fields replaced by a quiz submission
type PreferenceUpdate struct {
	Summary             string
	TasteVector         []float64
	TopDestinationCodes []string
	HomeAirportCode     *string
}

// SuggestedDestinationRepository defines operations for plan suggestions
type SuggestedDestinationRepository interface {
	Repository[models.SuggestedDestination, models.SuggestedDestinationFilter]
	ListByPlan(ctx context.Context, planID uint) ([]*models.SuggestedDestination, error)
	IncrementLikes(ctx context.Context, planID uint, airportCode string) (int64, error)
}
