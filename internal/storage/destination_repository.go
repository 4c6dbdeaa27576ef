package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tripplanner/internal/models"
)

// DestinationRepository defines the interface for the destination catalog.
type DestinationRepository interface {
	List(ctx context.Context) ([]models.Destination, error)
	Upsert(ctx context.Context, destination *models.Destination) error
}

type gormDestinationRepository struct {
	db *gorm.DB
}

// NewGormDestinationRepository creates a new GORM-based DestinationRepository.
func NewGormDestinationRepository(db *gorm.DB) DestinationRepository {
	return &gormDestinationRepository{db: db}
}

// List returns the full destination catalog in name order.
func (r *gormDestinationRepository) List(ctx context.Context) ([]models.Destination, error) {
	var destinations []models.Destination
	err := r.db.WithContext(ctx).Order("name ASC").Find(&destinations).Error
	if err != nil {
		return nil, err
	}
	return destinations, nil
}

// Upsert creates or refreshes a catalog entry by name. Used by seeding.
func (r *gormDestinationRepository) Upsert(ctx context.Context, destination *models.Destination) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "updated_at"}),
		}).
		Create(destination).Error
}
