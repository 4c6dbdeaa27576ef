package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tripplanner/internal/models"
)

// ChatRepository defines the interface for message threads and the per-user
// denormalized preview entries.
type ChatRepository interface {
	GetThreadByPairKey(ctx context.Context, pairKey string) (*models.ChatThread, error)
	CreateThread(ctx context.Context, thread *models.ChatThread) error
	AppendMessage(ctx context.Context, message *models.ChatMessage) error
	ListMessages(ctx context.Context, threadID uint) ([]models.ChatMessage, error)

	UpsertPreview(ctx context.Context, preview *models.ChatPreview) error
	GetPreview(ctx context.Context, ownerID, peerID uint) (*models.ChatPreview, error)
	ListPreviews(ctx context.Context, ownerID uint) ([]models.ChatPreview, error)
	SetPreviewUnread(ctx context.Context, ownerID, peerID uint, unread bool) error
	SetPreviewUsername(ctx context.Context, ownerID, peerID uint, username string) error

	WithTx(ctx context.Context, fn func(repo ChatRepository) error) error
}

type gormChatRepository struct {
	db *gorm.DB
}

// NewGormChatRepository creates a new GORM-based ChatRepository.
func NewGormChatRepository(db *gorm.DB) ChatRepository {
	return &gormChatRepository{db: db}
}

// GetThreadByPairKey fetches the thread for a deterministic participant pair
// key, or nil when the pair has never chatted.
func (r *gormChatRepository) GetThreadByPairKey(ctx context.Context, pairKey string) (*models.ChatThread, error) {
	var thread models.ChatThread
	err := r.db.WithContext(ctx).Where("pair_key = ?", pairKey).First(&thread).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &thread, nil
}

// CreateThread creates a new thread record. The caller is expected to have
// called EnsureCanonicalOrder and set PairKey.
func (r *gormChatRepository) CreateThread(ctx context.Context, thread *models.ChatThread) error {
	return r.db.WithContext(ctx).Create(thread).Error
}

// AppendMessage appends one message to a thread.
func (r *gormChatRepository) AppendMessage(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListMessages returns a thread's messages in timestamp order.
func (r *gormChatRepository) ListMessages(ctx context.Context, threadID uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("timestamp_ms ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// UpsertPreview creates or overwrites the (owner, peer) preview entry in a
// single statement, removing the update-else-create race.
func (r *gormChatRepository) UpsertPreview(ctx context.Context, preview *models.ChatPreview) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "owner_id"}, {Name: "peer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "last_message", "last_message_date", "is_unread", "updated_at",
			}),
		}).
		Create(preview).Error
}

// GetPreview fetches the (owner, peer) preview entry, or nil when absent.
func (r *gormChatRepository) GetPreview(ctx context.Context, ownerID, peerID uint) (*models.ChatPreview, error) {
	var preview models.ChatPreview
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND peer_id = ?", ownerID, peerID).
		First(&preview).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &preview, nil
}

// ListPreviews returns all preview entries owned by the user, most recent
// conversation first.
func (r *gormChatRepository) ListPreviews(ctx context.Context, ownerID uint) ([]models.ChatPreview, error) {
	var previews []models.ChatPreview
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&previews).Error
	if err != nil {
		return nil, err
	}
	return previews, nil
}

// SetPreviewUnread flips the unread flag of the (owner, peer) preview entry.
func (r *gormChatRepository) SetPreviewUnread(ctx context.Context, ownerID, peerID uint, unread bool) error {
	return r.db.WithContext(ctx).
		Model(&models.ChatPreview{}).
		Where("owner_id = ? AND peer_id = ?", ownerID, peerID).
		Update("is_unread", unread).Error
}

// SetPreviewUsername patches the username of the (owner, peer) preview entry
// in place (the self-healing path).
func (r *gormChatRepository) SetPreviewUsername(ctx context.Context, ownerID, peerID uint, username string) error {
	return r.db.WithContext(ctx).
		Model(&models.ChatPreview{}).
		Where("owner_id = ? AND peer_id = ?", ownerID, peerID).
		Update("username", username).Error
}

// WithTx runs fn inside a database transaction with a tx-scoped repository.
func (r *gormChatRepository) WithTx(ctx context.Context, fn func(repo ChatRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormChatRepository{db: tx})
	})
}
