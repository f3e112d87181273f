package repository

import (
	"context"

	"github.com/amirphl/planeit/models"
	"gorm.io/gorm"
)

// SuggestedDestinationRepositoryImpl implements SuggestedDestinationRepository interface
type SuggestedDestinationRepositoryImpl struct {
	*BaseRepository[models.SuggestedDestination, models.SuggestedDestinationFilter]
}

// NewSuggestedDestinationRepository creates a new plan suggestion repository
func NewSuggestedDestinationRepository(db *gorm.DB) SuggestedDestinationRepository {
	return &SuggestedDestinationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SuggestedDestination, models.SuggestedDestinationFilter](db),
	}
}

// ListByPlan returns the plan's suggestions in list order
func (r *SuggestedDestinationRepositoryImpl) ListByPlan(ctx context.Context, planID uint) ([]*models.SuggestedDestination, error) {
	return r.ByFilter(ctx, models.SuggestedDestinationFilter{PlanID: &planID}, "position ASC, id ASC", 0, 0)
}

// IncrementLikes atomically adds one like to the plan's suggestion for airportCode.
// Zero affected rows means the code is not among the plan's suggestions.
func (r *SuggestedDestinationRepositoryImpl) IncrementLikes(ctx context.Context, planID uint, airportCode string) (int64, error) {
	return r.write(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.SuggestedDestination{}).
			Where("plan_id = ? AND airport_code = ?", planID, airportCode).
			UpdateColumn("likes", gorm.Expr("likes + ?", 1))
	})
}

// applyFilter applies filter criteria to a GORM query
func (r *SuggestedDestinationRepositoryImpl) applyFilter(query *gorm.DB, filter models.SuggestedDestinationFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.PlanID != nil {
		query = query.Where("plan_id = ?", *filter.PlanID)
	}
	if filter.AirportCode != nil {
		query = query.Where("airport_code = ?", *filter.AirportCode)
	}
	return query
}

// ByFilter retrieves plan suggestions based on filter criteria
func (r *SuggestedDestinationRepositoryImpl) ByFilter(ctx context.Context, filter models.SuggestedDestinationFilter, orderBy string, limit, offset int) ([]*models.SuggestedDestination, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.SuggestedDestination{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "position ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.SuggestedDestination
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of plan suggestions matching the filter
func (r *SuggestedDestinationRepositoryImpl) Count(ctx context.Context, filter models.SuggestedDestinationFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.SuggestedDestination{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any plan suggestion matching the filter exists
func (r *SuggestedDestinationRepositoryImpl) Exists(ctx context.Context, filter models.SuggestedDestinationFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
