package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"tripplanner/internal/models"
)

// ItineraryRepository defines the interface for itinerary documents and their
// like/recommendation membership sets.
type ItineraryRepository interface {
	Create(ctx context.Context, itinerary *models.Itinerary) error
	GetByID(ctx context.Context, id uint) (*models.Itinerary, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Itinerary, error)
	ListOthers(ctx context.Context, excludeOwnerID uint) ([]models.Itinerary, error)
	ListByDestination(ctx context.Context, destination string, excludeOwnerID uint) ([]models.Itinerary, error)
	Delete(ctx context.Context, id uint) error

	HasLike(ctx context.Context, itineraryID, userID uint) (bool, error)
	AddLike(ctx context.Context, itineraryID, userID uint) error
	RemoveLike(ctx context.Context, itineraryID, userID uint) error
	CountLikes(ctx context.Context, itineraryID uint) (int, error)
	HasRecommendation(ctx context.Context, itineraryID, userID uint) (bool, error)
	AddRecommendation(ctx context.Context, itineraryID, userID uint) error
	RemoveRecommendation(ctx context.Context, itineraryID, userID uint) error
	CountRecommendations(ctx context.Context, itineraryID uint) (int, error)
	UpdateCounters(ctx context.Context, itineraryID uint, likeCount, recommendationCount int) error

	// WithTx runs fn against a transaction-scoped repository. The counter
	// toggles read and write inside a single transaction so the counters
	// cannot drift from the membership sets.
	WithTx(ctx context.Context, fn func(repo ItineraryRepository) error) error
}

type gormItineraryRepository struct {
	db *gorm.DB
}

// NewGormItineraryRepository creates a new GORM-based ItineraryRepository.
func NewGormItineraryRepository(db *gorm.DB) ItineraryRepository {
	return &gormItineraryRepository{db: db}
}

// Create creates a new itinerary record.
func (r *gormItineraryRepository) Create(ctx context.Context, itinerary *models.Itinerary) error {
	return r.db.WithContext(ctx).Create(itinerary).Error
}

// GetByID retrieves an itinerary by its id only (owner-scoped lookups were
// redundant and are deliberately not offered).
func (r *gormItineraryRepository) GetByID(ctx context.Context, id uint) (*models.Itinerary, error) {
	var itinerary models.Itinerary
	err := r.db.WithContext(ctx).First(&itinerary, id).Error
	if err != nil {
		return nil, err
	}
	return &itinerary, nil
}

// ListByOwner retrieves all itineraries created by the given user.
func (r *gormItineraryRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Itinerary, error) {
	var itineraries []models.Itinerary
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&itineraries).Error
	if err != nil {
		return nil, err
	}
	return itineraries, nil
}

// ListOthers retrieves itineraries created by anyone but the given user.
func (r *gormItineraryRepository) ListOthers(ctx context.Context, excludeOwnerID uint) ([]models.Itinerary, error) {
	var itineraries []models.Itinerary
	err := r.db.WithContext(ctx).
		Where("owner_id != ?", excludeOwnerID).
		Order("created_at DESC").
		Find(&itineraries).Error
	if err != nil {
		return nil, err
	}
	return itineraries, nil
}

// ListByDestination retrieves other users' itineraries whose destination list
// contains the given name. DestinationsRaw is a JSONB array of strings.
func (r *gormItineraryRepository) ListByDestination(ctx context.Context, destination string, excludeOwnerID uint) ([]models.Itinerary, error) {
	containsArg, err := destinationContainsArg(destination)
	if err != nil {
		return nil, err
	}
	var itineraries []models.Itinerary
	err = r.db.WithContext(ctx).
		Where("destinations_raw @> ?", containsArg).
		Where("owner_id != ?", excludeOwnerID).
		Order("created_at DESC").
		Find(&itineraries).Error
	if err != nil {
		return nil, err
	}
	return itineraries, nil
}

// Delete permanently removes an itinerary and its membership rows.
func (r *gormItineraryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("itinerary_id = ?", id).Delete(&models.ItineraryLike{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("itinerary_id = ?", id).Delete(&models.ItineraryRecommendation{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("itinerary_id = ?", id).Delete(&models.ItineraryComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Itinerary{}, id).Error
	})
}

// HasLike reports whether the user is in the likedBy set.
func (r *gormItineraryRepository) HasLike(ctx context.Context, itineraryID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ItineraryLike{}).
		Where("itinerary_id = ? AND user_id = ?", itineraryID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddLike inserts the user into the likedBy set.
func (r *gormItineraryRepository) AddLike(ctx context.Context, itineraryID, userID uint) error {
	return r.db.WithContext(ctx).Create(&models.ItineraryLike{ItineraryID: itineraryID, UserID: userID}).Error
}

// RemoveLike removes the user from the likedBy set. 物理删除，否则软删除的
// 行占用唯一索引，再次点赞会失败。
func (r *gormItineraryRepository) RemoveLike(ctx context.Context, itineraryID, userID uint) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("itinerary_id = ? AND user_id = ?", itineraryID, userID).
		Delete(&models.ItineraryLike{}).Error
}

// CountLikes returns the size of the likedBy set.
func (r *gormItineraryRepository) CountLikes(ctx context.Context, itineraryID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ItineraryLike{}).
		Where("itinerary_id = ?", itineraryID).
		Count(&count).Error
	return int(count), err
}

// HasRecommendation reports whether the user is in the recommendedBy set.
func (r *gormItineraryRepository) HasRecommendation(ctx context.Context, itineraryID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ItineraryRecommendation{}).
		Where("itinerary_id = ? AND user_id = ?", itineraryID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddRecommendation inserts the user into the recommendedBy set.
func (r *gormItineraryRepository) AddRecommendation(ctx context.Context, itineraryID, userID uint) error {
	return r.db.WithContext(ctx).Create(&models.ItineraryRecommendation{ItineraryID: itineraryID, UserID: userID}).Error
}

// RemoveRecommendation removes the user from the recommendedBy set. 物理删除，
// 同 RemoveLike。
func (r *gormItineraryRepository) RemoveRecommendation(ctx context.Context, itineraryID, userID uint) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("itinerary_id = ? AND user_id = ?", itineraryID, userID).
		Delete(&models.ItineraryRecommendation{}).Error
}

// CountRecommendations returns the size of the recommendedBy set.
func (r *gormItineraryRepository) CountRecommendations(ctx context.Context, itineraryID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ItineraryRecommendation{}).
		Where("itinerary_id = ?", itineraryID).
		Count(&count).Error
	return int(count), err
}

// UpdateCounters writes both counter fields of an itinerary.
func (r *gormItineraryRepository) UpdateCounters(ctx context.Context, itineraryID uint, likeCount, recommendationCount int) error {
	return r.db.WithContext(ctx).
		Model(&models.Itinerary{}).
		Where("id = ?", itineraryID).
		Updates(map[string]interface{}{
			"like_count":           likeCount,
			"recommendation_count": recommendationCount,
		}).Error
}

// WithTx runs fn inside a database transaction with a tx-scoped repository.
func (r *gormItineraryRepository) WithTx(ctx context.Context, fn func(repo ItineraryRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormItineraryRepository{db: tx})
	})
}

// destinationContainsArg 生成 JSONB @> 的右操作数：单元素 JSON 数组。
// 经过 json.Marshal，目的地名称里的引号、反斜杠不会破坏 JSON 语法。
func destinationContainsArg(destination string) (string, error) {
	raw, err := json.Marshal([]string{destination})
	if err != nil {
		return "", fmt.Errorf("编码目的地查询参数失败: %w", err)
	}
	return string(raw), nil
}

// IsNotFound reports whether err is the repository's record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
