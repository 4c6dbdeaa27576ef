package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tripplanner/internal/models"
)

// FriendshipRepository defines the interface for directed friendship-edge
// operations. A nil edge result from GetEdge means the edge does not exist.
type FriendshipRepository interface {
	GetEdge(ctx context.Context, ownerID, otherID uint) (*models.FriendshipEdge, error)
	CreateEdge(ctx context.Context, edge *models.FriendshipEdge) error
	UpdateEdgeStatus(ctx context.Context, ownerID, otherID uint, status models.EdgeStatus) error
	DeleteEdge(ctx context.Context, ownerID, otherID uint) error
	ListFriendIDs(ctx context.Context, ownerID uint) ([]uint, error)
	// WithTx runs fn against a transaction-scoped repository; the multi-edge
	// accept/delete writes go through here so no half-updated pair survives.
	WithTx(ctx context.Context, fn func(repo FriendshipRepository) error) error
}

type gormFriendshipRepository struct {
	db *gorm.DB
}

// NewGormFriendshipRepository creates a new GORM-based FriendshipRepository.
func NewGormFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &gormFriendshipRepository{db: db}
}

// GetEdge fetches the directed edge ownerID→otherID, or nil when absent.
func (r *gormFriendshipRepository) GetEdge(ctx context.Context, ownerID, otherID uint) (*models.FriendshipEdge, error) {
	var edge models.FriendshipEdge
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND other_id = ?", ownerID, otherID).
		First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &edge, nil
}

// CreateEdge creates a new directed edge record.
func (r *gormFriendshipRepository) CreateEdge(ctx context.Context, edge *models.FriendshipEdge) error {
	return r.db.WithContext(ctx).Create(edge).Error
}

// UpdateEdgeStatus updates the status of an existing directed edge.
func (r *gormFriendshipRepository) UpdateEdgeStatus(ctx context.Context, ownerID, otherID uint, status models.EdgeStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.FriendshipEdge{}).
		Where("owner_id = ? AND other_id = ?", ownerID, otherID).
		Update("status", status).Error
}

// DeleteEdge removes the directed edge ownerID→otherID. Deleting an absent
// edge is not an error. 物理删除：软删除的行仍占用 (owner_id, other_id)
// 唯一索引，会让取消后重新发送请求失败。
func (r *gormFriendshipRepository) DeleteEdge(ctx context.Context, ownerID, otherID uint) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("owner_id = ? AND other_id = ?", ownerID, otherID).
		Delete(&models.FriendshipEdge{}).Error
}

// ListFriendIDs returns the IDs of users the owner holds a friend edge to.
func (r *gormFriendshipRepository) ListFriendIDs(ctx context.Context, ownerID uint) ([]uint, error) {
	var friendIDs []uint
	err := r.db.WithContext(ctx).
		Model(&models.FriendshipEdge{}).
		Where("owner_id = ? AND status = ?", ownerID, models.EdgeStatusFriend).
		Pluck("other_id", &friendIDs).Error
	if err != nil {
		return nil, err
	}
	return friendIDs, nil
}

// WithTx runs fn inside a database transaction with a tx-scoped repository.
func (r *gormFriendshipRepository) WithTx(ctx context.Context, fn func(repo FriendshipRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormFriendshipRepository{db: tx})
	})
}
