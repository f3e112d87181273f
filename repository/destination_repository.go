package repository

import (
	"context"
	"errors"

	"github.com/amirphl/planeit/models"
	"gorm.io/gorm"
)

// DestinationRepositoryImpl implements DestinationRepository interface
type DestinationRepositoryImpl struct {
	*BaseRepository[models.Destination, models.DestinationFilter]
}

// NewDestinationRepository creates a new destination repository
func NewDestinationRepository(db *gorm.DB) DestinationRepository {
	return &DestinationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Destination, models.DestinationFilter](db),
	}
}

// ByAirportCode retrieves a destination by its airport code
func (r *DestinationRepositoryImpl) ByAirportCode(ctx context.Context, airportCode string) (*models.Destination, error) {
	db := r.getDB(ctx)
	var row models.Destination
	if err := db.Where("airport_code = ?", airportCode).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListAll returns the whole catalog in catalog order
func (r *DestinationRepositoryImpl) ListAll(ctx context.Context) ([]*models.Destination, error) {
	return r.ByFilter(ctx, models.DestinationFilter{}, "id ASC", 0, 0)
}

// UpdateEmbedding stores a backfilled description and embedding
func (r *DestinationRepositoryImpl) UpdateEmbedding(ctx context.Context, id uint, description string, embedding []float64) error {
	_, err := r.write(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Destination{ID: id}).Updates(&models.Destination{
			Description: description,
			Embedding:   embedding,
		})
	})
	return err
}

// IncrementLikes atomically bumps the global popularity counter
func (r *DestinationRepositoryImpl) IncrementLikes(ctx context.Context, airportCode string) (int64, error) {
	return r.write(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Destination{}).
			Where("airport_code = ?", airportCode).
			UpdateColumn("likes", gorm.Expr("likes + ?", 1))
	})
}

// embeddingLengthExpr is 0 for NULL, JSON null and empty arrays
const embeddingLengthExpr = "(CASE WHEN jsonb_typeof(embedding) = 'array' THEN jsonb_array_length(embedding) ELSE 0 END)"

// applyFilter applies filter criteria to a GORM query
func (r *DestinationRepositoryImpl) applyFilter(query *gorm.DB, filter models.DestinationFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.AirportCode != nil {
		query = query.Where("airport_code = ?", *filter.AirportCode)
	}
	if len(filter.AirportCodes) > 0 {
		query = query.Where("airport_code IN ?", filter.AirportCodes)
	}
	if filter.Country != nil {
		query = query.Where("country = ?", *filter.Country)
	}
	if filter.HasEmbedding != nil {
		if *filter.HasEmbedding {
			query = query.Where(embeddingLengthExpr + " > 0")
		} else {
			query = query.Where(embeddingLengthExpr + " = 0")
		}
	}
	return query
}

// ByFilter retrieves destinations based on filter criteria
func (r *DestinationRepositoryImpl) ByFilter(ctx context.Context, filter models.DestinationFilter, orderBy string, limit, offset int) ([]*models.Destination, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Destination{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Destination
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of destinations matching the filter
func (r *DestinationRepositoryImpl) Count(ctx context.Context, filter models.DestinationFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Destination{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any destination matching the filter exists
func (r *DestinationRepositoryImpl) Exists(ctx context.Context, filter models.DestinationFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
