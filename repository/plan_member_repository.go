package repository

import (
	"context"
	"errors"

	"github.com/amirphl/planeit/models"
	"github.com/amirphl/planeit/utils"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// PlanMemberRepositoryImpl implements PlanMemberRepository interface
type PlanMemberRepositoryImpl struct {
	*BaseRepository[models.PlanMember, models.PlanMemberFilter]
}

// NewPlanMemberRepository creates a new plan member repository
func NewPlanMemberRepository(db *gorm.DB) PlanMemberRepository {
	return &PlanMemberRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PlanMember, models.PlanMemberFilter](db),
	}
}

// ByPlanAndEmail retrieves one membership
func (r *PlanMemberRepositoryImpl) ByPlanAndEmail(ctx context.Context, planID uint, email string) (*models.PlanMember, error) {
	db := r.getDB(ctx)
	var row models.PlanMember
	if err := db.Where("plan_id = ? AND email = ?", planID, email).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListByPlan returns the plan's members in join order
func (r *PlanMemberRepositoryImpl) ListByPlan(ctx context.Context, planID uint) ([]*models.PlanMember, error) {
	return r.ByFilter(ctx, models.PlanMemberFilter{PlanID: &planID}, "joined_at ASC, id ASC", 0, 0)
}

// CountByPlan returns the party size of a plan
func (r *PlanMemberRepositoryImpl) CountByPlan(ctx context.Context, planID uint) (int64, error) {
	return r.Count(ctx, models.PlanMemberFilter{PlanID: &planID})
}

// UpdatePreferences replaces the member's quiz outcome and marks the quiz completed
func (r *PlanMemberRepositoryImpl) UpdatePreferences(ctx context.Context, memberID uint, update PreferenceUpdate) error {
	updates := map[string]any{
		"preference_summary":    update.Summary,
		"taste_vector":          gorm.Expr("?::jsonb", mustJSON(update.TasteVector)),
		"top_destination_codes": pq.StringArray(update.TopDestinationCodes),
		"has_completed_quiz":    true,
		"updated_at":            utils.UTCNow(),
	}
	if update.HomeAirportCode != nil {
		updates["home_airport_code"] = *update.HomeAirportCode
	}

	_, err := r.write(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.PlanMember{}).Where("id = ?", memberID).Updates(updates)
	})
	return err
}

// MarkVoted flags the member with the given email as having voted
func (r *PlanMemberRepositoryImpl) MarkVoted(ctx context.Context, planID uint, email string) (int64, error) {
	return r.write(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.PlanMember{}).
			Where("plan_id = ? AND email = ?", planID, email).
			Updates(map[string]any{
				"has_voted":  true,
				"updated_at": utils.UTCNow(),
			})
	})
}

// applyFilter applies filter criteria to a GORM query
func (r *PlanMemberRepositoryImpl) applyFilter(query *gorm.DB, filter models.PlanMemberFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.PlanID != nil {
		query = query.Where("plan_id = ?", *filter.PlanID)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.HasCompletedQuiz != nil {
		query = query.Where("has_completed_quiz = ?", *filter.HasCompletedQuiz)
	}
	if filter.HasVoted != nil {
		query = query.Where("has_voted = ?", *filter.HasVoted)
	}
	return query
}

// ByFilter retrieves plan members based on filter criteria
func (r *PlanMemberRepositoryImpl) ByFilter(ctx context.Context, filter models.PlanMemberFilter, orderBy string, limit, offset int) ([]*models.PlanMember, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.PlanMember{})

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

	var rows []*models.PlanMember
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of plan members matching the filter
func (r *PlanMemberRepositoryImpl) Count(ctx context.Context, filter models.PlanMemberFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PlanMember{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any plan member matching the filter exists
func (r *PlanMemberRepositoryImpl) Exists(ctx context.Context, filter models.PlanMemberFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
