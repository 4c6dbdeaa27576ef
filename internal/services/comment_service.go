package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tripplanner/internal/models"
	"tripplanner/internal/storage"
)

var (
	ErrEmptyComment     = errors.New("评论内容不能为空")
	ErrCommentNotFound  = errors.New("评论不存在")
	ErrNotCommentAuthor = errors.New("只能删除自己发表的评论")
)

// CommentService handles the append-style comment list of an itinerary.
// Comments are identified by value (itinerary, author, text, timestamp)
// rather than by a surrogate key, so Append deduplicates exact duplicates
// and Remove deletes by full value match.
type CommentService interface {
	Append(ctx context.Context, itineraryID, authorID uint, text string) (*models.ItineraryComment, error)
	Remove(ctx context.Context, actorID uint, comment *models.ItineraryComment) error
	List(ctx context.Context, itineraryID uint) ([]models.ItineraryComment, error)
}

type commentService struct {
	commentRepo   storage.CommentRepository
	itineraryRepo storage.ItineraryRepository
	userRepo      storage.UserRepository
}

// NewCommentService creates a new CommentService instance.
func NewCommentService(
	commentRepo storage.CommentRepository,
	itineraryRepo storage.ItineraryRepository,
	userRepo storage.UserRepository,
) CommentService {
	return &commentService{
		commentRepo:   commentRepo,
		itineraryRepo: itineraryRepo,
		userRepo:      userRepo,
	}
}

// Append adds a comment stamped with the current wall-clock time. An exact
// duplicate already in the list leaves the list unchanged.
func (s *commentService) Append(ctx context.Context, itineraryID, authorID uint, text string) (*models.ItineraryComment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}

	if _, err := s.itineraryRepo.GetByID(ctx, itineraryID); err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrItineraryNotFound
		}
		return nil, fmt.Errorf("获取行程失败: %w", err)
	}

	authorInfo, err := s.userRepo.GetBasicInfoByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("获取评论人信息失败: %w", err)
	}

	comment := &models.ItineraryComment{
		ItineraryID:     itineraryID,
		UserID:          authorID,
		Username:        authorInfo.Username,
		ProfileImageURL: authorInfo.ProfileImageURL,
		Text:            text,
		TimestampMs:     time.Now().UnixMilli(),
	}

	err = s.commentRepo.WithTx(ctx, func(repo storage.CommentRepository) error {
		exists, err := repo.ExistsExact(ctx, comment)
		if err != nil {
			return fmt.Errorf("检查重复评论失败: %w", err)
		}
		if exists {
			return nil // 完全相同的评论已存在，保持列表不变
		}
		return repo.Append(ctx, comment)
	})
	if err != nil {
		return nil, fmt.Errorf("发表评论失败: %w", err)
	}
	return comment, nil
}

// Remove deletes the comment matching the given value exactly. Only the
// comment's author may remove it. Matching on the full value means two
// comments with identical text but different timestamps are distinct.
func (s *commentService) Remove(ctx context.Context, actorID uint, comment *models.ItineraryComment) error {
	if comment.UserID != actorID {
		return ErrNotCommentAuthor
	}
	affected, err := s.commentRepo.DeleteExact(ctx, comment)
	if err != nil {
		return fmt.Errorf("删除评论失败: %w", err)
	}
	if affected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// List returns the itinerary's comments in append order.
func (s *commentService) List(ctx context.Context, itineraryID uint) ([]models.ItineraryComment, error) {
	comments, err := s.commentRepo.ListByItinerary(ctx, itineraryID)
	if err != nil {
		return nil, fmt.Errorf("获取评论列表失败: %w", err)
	}
	return comments, nil
}
