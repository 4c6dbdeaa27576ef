package storage

import (
	"context"

	"gorm.io/gorm"

	"tripplanner/internal/models"
)

// CommentRepository defines the interface for the per-itinerary comment list.
// Append and DeleteExact follow arrayUnion/arrayRemove semantics: membership
// is decided by field-for-field value equality, never by index.
type CommentRepository interface {
	ExistsExact(ctx context.Context, comment *models.ItineraryComment) (bool, error)
	Append(ctx context.Context, comment *models.ItineraryComment) error
	DeleteExact(ctx context.Context, comment *models.ItineraryComment) (int64, error)
	ListByItinerary(ctx context.Context, itineraryID uint) ([]models.ItineraryComment, error)
	WithTx(ctx context.Context, fn func(repo CommentRepository) error) error
}

type gormCommentRepository struct {
	db *gorm.DB
}

// NewGormCommentRepository creates a new GORM-based CommentRepository.
func NewGormCommentRepository(db *gorm.DB) CommentRepository {
	return &gormCommentRepository{db: db}
}

// ExistsExact reports whether a record equal to the given one is already in
// the itinerary's list.
func (r *gormCommentRepository) ExistsExact(ctx context.Context, comment *models.ItineraryComment) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ItineraryComment{}).
		Where("itinerary_id = ? AND user_id = ? AND text = ? AND timestamp_ms = ?",
			comment.ItineraryID, comment.UserID, comment.Text, comment.TimestampMs).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Append adds a comment record to the end of the itinerary's list.
func (r *gormCommentRepository) Append(ctx context.Context, comment *models.ItineraryComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// DeleteExact removes the record(s) that match the supplied one field for
// field, returning how many were removed. 物理删除，移除即彻底退出集合。
func (r *gormCommentRepository) DeleteExact(ctx context.Context, comment *models.ItineraryComment) (int64, error) {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("itinerary_id = ? AND user_id = ? AND text = ? AND timestamp_ms = ?",
			comment.ItineraryID, comment.UserID, comment.Text, comment.TimestampMs).
		Delete(&models.ItineraryComment{})
	return result.RowsAffected, result.Error
}

// ListByItinerary returns the comments in append order. An itinerary with no
// comment document reads as an empty list.
func (r *gormCommentRepository) ListByItinerary(ctx context.Context, itineraryID uint) ([]models.ItineraryComment, error) {
	var comments []models.ItineraryComment
	err := r.db.WithContext(ctx).
		Where("itinerary_id = ?", itineraryID).
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// WithTx runs fn inside a database transaction with a tx-scoped repository.
func (r *gormCommentRepository) WithTx(ctx context.Context, fn func(repo CommentRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormCommentRepository{db: tx})
	})
}
