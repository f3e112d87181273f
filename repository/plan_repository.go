package repository

import (
	"context"
	"errors"
	"time"

	"github.com/amirphl/planeit/models"
	"gorm.io/gorm"
)

// PlanRepositoryImpl implements PlanRepository interface
type PlanRepositoryImpl struct {
	*BaseRepository[models.Plan, models.PlanFilter]
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &PlanRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Plan, models.PlanFilter](db),
	}
}

// ByCode retrieves a plan by its shareable code
func (r *PlanRepositoryImpl) ByCode(ctx context.Context, code string) (*models.Plan, error) {
	db := r.getDB(ctx)
	var row models.Plan
	if err := db.Where("code = ?", code).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListByMemberEmail returns the plans the given traveler belongs to, newest first
func (r *PlanRepositoryImpl) ListByMemberEmail(ctx context.Context, email string) ([]*models.Plan, error) {
	db := r.getDB(ctx)
	var rows []*models.Plan
	err := db.Model(&models.Plan{}).
		Joins("JOIN plan_members ON plan_members.plan_id = plans.id").
		Where("plan_members.email = ?", email).
		Order("plans.created_at DESC, plans.id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkSuggestionsMaterialized sets the materialization guard if it is still unset.
// It returns false when another writer already claimed the plan.
func (r *PlanRepositoryImpl) MarkSuggestionsMaterialized(ctx context.Context, planID uint, at time.Time) (bool, error) {
	affected, err := r.write(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Plan{}).
			Where("id = ? AND suggestions_materialized_at IS NULL", planID).
			Updates(map[string]any{
				"suggestions_materialized_at": at,
				"updated_at":                  at,
			})
	})
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *PlanRepositoryImpl) applyFilter(query *gorm.DB, filter models.PlanFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Code != nil {
		query = query.Where("code = ?", *filter.Code)
	}
	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	}
	if filter.CreatorEmail != nil {
		query = query.Where("creator_email = ?", *filter.CreatorEmail)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves plans based on filter criteria
func (r *PlanRepositoryImpl) ByFilter(ctx context.Context, filter models.PlanFilter, orderBy string, limit, offset int) ([]*models.Plan, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Plan{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Plan
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of plans matching the filter
func (r *PlanRepositoryImpl) Count(ctx context.Context, filter models.PlanFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Plan{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any plan matching the filter exists
func (r *PlanRepositoryImpl) Exists(ctx context.Context, filter models.PlanFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
