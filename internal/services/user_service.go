package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"tripplanner/internal/models"
	"tripplanner/internal/storage"
	"tripplanner/internal/tptypes"

	"gorm.io/gorm"
)

// UserService handles profile reads, updates and avatar uploads.
type UserService interface {
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uint, username, bio string) (*models.User, error)
	SaveProfileImage(ctx context.Context, userID uint, reader io.Reader, fileSize int64, fileName, mimeType string) (string, error)
	SearchUsers(ctx context.Context, query string, currentUserID uint) ([]models.User, error)
	GetBasicInfo(ctx context.Context, userID uint) (*models.UserBasicInfo, error)
}

type userService struct {
	userRepo       storage.UserRepository
	storageService tptypes.StorageService
}

// NewUserService creates a new UserService instance.
func NewUserService(userRepo storage.UserRepository, storageService tptypes.StorageService) UserService {
	return &userService{
		userRepo:       userRepo,
		storageService: storageService,
	}
}

// GetProfile retrieves the full profile of a user.
func (s *userService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("获取用户资料失败: %w", err)
	}
	return user, nil
}

// UpdateProfile updates username and bio. A blank username keeps the old one.
func (s *userService) UpdateProfile(ctx context.Context, userID uint, username, bio string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("获取用户资料失败: %w", err)
	}

	username = strings.TrimSpace(username)
	if username != "" {
		user.Username = username
	}
	user.Bio = bio

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("更新用户资料失败: %w", err)
	}
	return user, nil
}

// SaveProfileImage stores the uploaded avatar and records its URL.
func (s *userService) SaveProfileImage(ctx context.Context, userID uint, reader io.Reader, fileSize int64, fileName, mimeType string) (string, error) {
	fileInfo, err := s.storageService.UploadFile(ctx, reader, fileSize, fileName, mimeType)
	if err != nil {
		return "", fmt.Errorf("上传头像文件失败: %w", err)
	}
	if err := s.userRepo.UpdateProfileImageURL(ctx, userID, fileInfo.URL); err != nil {
		return "", fmt.Errorf("保存头像地址失败: %w", err)
	}
	return fileInfo.URL, nil
}

// SearchUsers searches by username or email, excluding the searcher.
func (s *userService) SearchUsers(ctx context.Context, query string, currentUserID uint) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.User{}, nil
	}
	users, err := s.userRepo.SearchUsers(ctx, query, currentUserID)
	if err != nil {
		return nil, fmt.Errorf("搜索用户失败: %w", err)
	}
	return users, nil
}

// GetBasicInfo returns the minimal public info for a user.
func (s *userService) GetBasicInfo(ctx context.Context, userID uint) (*models.UserBasicInfo, error) {
	info, err := s.userRepo.GetBasicInfoByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("获取用户基本信息失败: %w", err)
	}
	return info, nil
}
