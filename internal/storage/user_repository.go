package storage

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"tripplanner/internal/models"
)

// UserRepository defines the interface for user profile data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateProfileImageURL(ctx context.Context, id uint, imageURL string) error
	SearchUsers(ctx context.Context, query string, currentUserID uint) ([]models.User, error)
	GetBasicInfoByID(ctx context.Context, id uint) (*models.UserBasicInfo, error)
	GetMultipleBasicInfoByIDs(ctx context.Context, userIDs []uint) ([]*models.UserBasicInfo, error)
	GetByFederatedIdentity(ctx context.Context, provider, providerUserID string) (*models.User, error)
	CreateFederatedIdentity(ctx context.Context, identity *models.FederatedIdentity) error
}

// gormUserRepository implements UserRepository using GORM.
type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based UserRepository.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

// Create creates a new user record in the database.
func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID retrieves a user by their ID.
func (r *gormUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err // Handles gorm.ErrRecordNotFound as well
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email.
func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user record in the database.
func (r *gormUserRepository) Update(ctx context.Context, user *models.User) error {
	if user.ID == 0 {
		return gorm.ErrMissingWhereClause
	}
	return r.db.WithContext(ctx).Save(user).Error
}

// UpdateProfileImageURL sets only the profile image URL for the given user.
func (r *gormUserRepository) UpdateProfileImageURL(ctx context.Context, id uint, imageURL string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("profile_image_url", imageURL).Error
}

// SearchUsers performs a case-insensitive username/email prefix search,
// excluding the searching user.
func (r *gormUserRepository) SearchUsers(ctx context.Context, query string, currentUserID uint) ([]models.User, error) {
	var users []models.User
	searchTerm := "%" + strings.ToLower(query) + "%"

	err := r.db.WithContext(ctx).
		Where("(LOWER(username) LIKE ? OR LOWER(email) LIKE ?) AND id != ?", searchTerm, searchTerm, currentUserID).
		// 明确选择需要的字段，避免泄露敏感信息
		Select("id", "username", "email", "bio", "profile_image_url").
		Limit(10).
		Find(&users).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return users, nil // 搜索无结果不是错误
		}
		return nil, err
	}
	return users, nil
}

// GetBasicInfoByID retrieves minimal public user info by ID.
func (r *gormUserRepository) GetBasicInfoByID(ctx context.Context, id uint) (*models.UserBasicInfo, error) {
	var basicInfo models.UserBasicInfo
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "username", "profile_image_url").
		Where("id = ?", id).
		First(&basicInfo).Error
	if err != nil {
		return nil, err
	}
	return &basicInfo, nil
}

// GetMultipleBasicInfoByIDs retrieves minimal public user info for a list of user IDs.
func (r *gormUserRepository) GetMultipleBasicInfoByIDs(ctx context.Context, userIDs []uint) ([]*models.UserBasicInfo, error) {
	var basicInfos []*models.UserBasicInfo
	if len(userIDs) == 0 {
		return basicInfos, nil
	}

	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "username", "profile_image_url").
		Where("id IN ?", userIDs).
		Find(&basicInfos).Error

	if err != nil {
		return nil, err
	}
	return basicInfos, nil
}

// GetByFederatedIdentity resolves a local user from a provider identity.
func (r *gormUserRepository) GetByFederatedIdentity(ctx context.Context, provider, providerUserID string) (*models.User, error) {
	var identity models.FederatedIdentity
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&identity).Error
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, identity.UserID)
}

// CreateFederatedIdentity links a provider identity to a local user.
func (r *gormUserRepository) CreateFederatedIdentity(ctx context.Context, identity *models.FederatedIdentity) error {
	return r.db.WithContext(ctx).Create(identity).Error
}
