package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"tripplanner/internal/models"
	"tripplanner/internal/storage"
)

var (
	ErrItineraryNotFound = errors.New("行程不存在")
	ErrItineraryTitle    = errors.New("行程标题不能为空")
	ErrNotItineraryOwner = errors.New("只有行程的发布者才能执行此操作")
)

// ToggleResult reports the outcome of a like/recommendation toggle: whether
// the actor is now a member of the set and the resulting counter value.
type ToggleResult struct {
	Active bool `json:"active"`
	Count  int  `json:"count"`
}

// ItineraryService handles trip plans and their social counters.
type ItineraryService interface {
	Create(ctx context.Context, ownerID uint, title, description, startDate, endDate string, destinations []string) (*models.Itinerary, error)
	GetByID(ctx context.Context, id uint) (*models.Itinerary, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Itinerary, error)
	ListOthers(ctx context.Context, viewerID uint) ([]models.ItineraryWithOwner, error)
	ListByDestination(ctx context.Context, destination string, viewerID uint) ([]models.ItineraryWithOwner, error)
	Delete(ctx context.Context, itineraryID, actorID uint) error

	// ToggleLike applies the desired membership direction for the actor. A
	// request that matches the current state (liking an already-liked
	// itinerary, or unliking one never liked) is a no-op, not an error.
	ToggleLike(ctx context.Context, itineraryID, actorID uint, like bool) (*ToggleResult, error)
	ToggleRecommendation(ctx context.Context, itineraryID, actorID uint, recommend bool) (*ToggleResult, error)
	HasLiked(ctx context.Context, itineraryID, actorID uint) (bool, error)
	HasRecommended(ctx context.Context, itineraryID, actorID uint) (bool, error)

	ListDestinations(ctx context.Context) ([]models.Destination, error)
	SeedDestinations(ctx context.Context, destinations []models.Destination) error
}

type itineraryService struct {
	itineraryRepo   storage.ItineraryRepository
	destinationRepo storage.DestinationRepository
	userRepo        storage.UserRepository
}

// NewItineraryService creates a new ItineraryService instance.
func NewItineraryService(
	itineraryRepo storage.ItineraryRepository,
	destinationRepo storage.DestinationRepository,
	userRepo storage.UserRepository,
) ItineraryService {
	return &itineraryService{
		itineraryRepo:   itineraryRepo,
		destinationRepo: destinationRepo,
		userRepo:        userRepo,
	}
}

// Create publishes a new itinerary for the owner.
func (s *itineraryService) Create(ctx context.Context, ownerID uint, title, description, startDate, endDate string, destinations []string) (*models.Itinerary, error) {
	if title == "" {
		return nil, ErrItineraryTitle
	}

	itinerary := &models.Itinerary{
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		StartDate:   startDate,
		EndDate:     endDate,
	}
	if err := itinerary.SetDestinations(destinations); err != nil {
		return nil, fmt.Errorf("序列化目的地列表失败: %w", err)
	}
	if err := s.itineraryRepo.Create(ctx, itinerary); err != nil {
		return nil, fmt.Errorf("创建行程失败: %w", err)
	}
	return itinerary, nil
}

// GetByID retrieves a single itinerary.
func (s *itineraryService) GetByID(ctx context.Context, id uint) (*models.Itinerary, error) {
	itinerary, err := s.itineraryRepo.GetByID(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrItineraryNotFound
		}
		return nil, fmt.Errorf("获取行程失败: %w", err)
	}
	return itinerary, nil
}

// ListByOwner lists the user's own itineraries.
func (s *itineraryService) ListByOwner(ctx context.Context, ownerID uint) ([]models.Itinerary, error) {
	itineraries, err := s.itineraryRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("获取行程列表失败: %w", err)
	}
	return itineraries, nil
}

// ListOthers lists other users' itineraries enriched with owner info.
func (s *itineraryService) ListOthers(ctx context.Context, viewerID uint) ([]models.ItineraryWithOwner, error) {
	itineraries, err := s.itineraryRepo.ListOthers(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("获取其他用户行程失败: %w", err)
	}
	return s.attachOwners(ctx, itineraries), nil
}

// ListByDestination lists other users' itineraries containing the destination.
func (s *itineraryService) ListByDestination(ctx context.Context, destination string, viewerID uint) ([]models.ItineraryWithOwner, error) {
	itineraries, err := s.itineraryRepo.ListByDestination(ctx, destination, viewerID)
	if err != nil {
		return nil, fmt.Errorf("按目的地搜索行程失败: %w", err)
	}
	return s.attachOwners(ctx, itineraries), nil
}

// attachOwners 批量补全行程发布者的公开信息；单个查询失败不影响整个列表。
func (s *itineraryService) attachOwners(ctx context.Context, itineraries []models.Itinerary) []models.ItineraryWithOwner {
	result := make([]models.ItineraryWithOwner, 0, len(itineraries))
	ownerCache := make(map[uint]*models.UserBasicInfo)
	for _, itinerary := range itineraries {
		ownerInfo, ok := ownerCache[itinerary.OwnerID]
		if !ok {
			info, err := s.userRepo.GetBasicInfoByID(ctx, itinerary.OwnerID)
			if err != nil {
				log.Printf("获取行程发布者信息失败 (用户 %d): %v", itinerary.OwnerID, err)
			}
			ownerInfo = info
			ownerCache[itinerary.OwnerID] = ownerInfo
		}
		result = append(result, models.ItineraryWithOwner{Itinerary: itinerary, OwnerInfo: ownerInfo})
	}
	return result
}

// Delete removes an itinerary together with its likes, recommendations and
// comments. Only the owner may delete.
func (s *itineraryService) Delete(ctx context.Context, itineraryID, actorID uint) error {
	itinerary, err := s.itineraryRepo.GetByID(ctx, itineraryID)
	if err != nil {
		if storage.IsNotFound(err) {
			return ErrItineraryNotFound
		}
		return fmt.Errorf("获取行程失败: %w", err)
	}
	if itinerary.OwnerID != actorID {
		return ErrNotItineraryOwner
	}
	if err := s.itineraryRepo.Delete(ctx, itineraryID); err != nil {
		return fmt.Errorf("删除行程失败: %w", err)
	}
	return nil
}

// ToggleLike applies the desired like direction inside one transaction and
// recomputes the counter from the membership set.
func (s *itineraryService) ToggleLike(ctx context.Context, itineraryID, actorID uint, like bool) (*ToggleResult, error) {
	var result *ToggleResult
	err := s.itineraryRepo.WithTx(ctx, func(repo storage.ItineraryRepository) error {
		itinerary, err := repo.GetByID(ctx, itineraryID)
		if err != nil {
			if storage.IsNotFound(err) {
				return ErrItineraryNotFound
			}
			return fmt.Errorf("获取行程失败: %w", err)
		}

		has, err := repo.HasLike(ctx, itineraryID, actorID)
		if err != nil {
			return fmt.Errorf("查询点赞状态失败: %w", err)
		}

		active := has
		switch {
		case like && !has:
			if err := repo.AddLike(ctx, itineraryID, actorID); err != nil {
				return fmt.Errorf("添加点赞失败: %w", err)
			}
			active = true
		case !like && has:
			if err := repo.RemoveLike(ctx, itineraryID, actorID); err != nil {
				return fmt.Errorf("取消点赞失败: %w", err)
			}
			active = false
		default:
			// 请求方向与当前状态一致：保持原状，不算错误。
			result = &ToggleResult{Active: has, Count: itinerary.LikeCount}
			return nil
		}

		likeCount, err := repo.CountLikes(ctx, itineraryID)
		if err != nil {
			return fmt.Errorf("统计点赞数失败: %w", err)
		}
		if likeCount < 0 {
			likeCount = 0
		}
		if err := repo.UpdateCounters(ctx, itineraryID, likeCount, itinerary.RecommendationCount); err != nil {
			return fmt.Errorf("更新点赞计数失败: %w", err)
		}
		result = &ToggleResult{Active: active, Count: likeCount}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ToggleRecommendation mirrors ToggleLike for the recommendedBy set.
func (s *itineraryService) ToggleRecommendation(ctx context.Context, itineraryID, actorID uint, recommend bool) (*ToggleResult, error) {
	var result *ToggleResult
	err := s.itineraryRepo.WithTx(ctx, func(repo storage.ItineraryRepository) error {
		itinerary, err := repo.GetByID(ctx, itineraryID)
		if err != nil {
			if storage.IsNotFound(err) {
				return ErrItineraryNotFound
			}
			return fmt.Errorf("获取行程失败: %w", err)
		}

		has, err := repo.HasRecommendation(ctx, itineraryID, actorID)
		if err != nil {
			return fmt.Errorf("查询推荐状态失败: %w", err)
		}

		active := has
		switch {
		case recommend && !has:
			if err := repo.AddRecommendation(ctx, itineraryID, actorID); err != nil {
				return fmt.Errorf("添加推荐失败: %w", err)
			}
			active = true
		case !recommend && has:
			if err := repo.RemoveRecommendation(ctx, itineraryID, actorID); err != nil {
				return fmt.Errorf("取消推荐失败: %w", err)
			}
			active = false
		default:
			result = &ToggleResult{Active: has, Count: itinerary.RecommendationCount}
			return nil
		}

		recommendationCount, err := repo.CountRecommendations(ctx, itineraryID)
		if err != nil {
			return fmt.Errorf("统计推荐数失败: %w", err)
		}
		if recommendationCount < 0 {
			recommendationCount = 0
		}
		if err := repo.UpdateCounters(ctx, itineraryID, itinerary.LikeCount, recommendationCount); err != nil {
			return fmt.Errorf("更新推荐计数失败: %w", err)
		}
		result = &ToggleResult{Active: active, Count: recommendationCount}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// HasLiked reports whether the actor has liked the itinerary.
func (s *itineraryService) HasLiked(ctx context.Context, itineraryID, actorID uint) (bool, error) {
	return s.itineraryRepo.HasLike(ctx, itineraryID, actorID)
}

// HasRecommended reports whether the actor has recommended the itinerary.
func (s *itineraryService) HasRecommended(ctx context.Context, itineraryID, actorID uint) (bool, error) {
	return s.itineraryRepo.HasRecommendation(ctx, itineraryID, actorID)
}

// ListDestinations returns the destination catalog.
func (s *itineraryService) ListDestinations(ctx context.Context) ([]models.Destination, error) {
	destinations, err := s.destinationRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取目的地目录失败: %w", err)
	}
	return destinations, nil
}

// SeedDestinations ensures the given catalog entries exist.
func (s *itineraryService) SeedDestinations(ctx context.Context, destinations []models.Destination) error {
	for i := range destinations {
		if err := s.destinationRepo.Upsert(ctx, &destinations[i]); err != nil {
			return fmt.Errorf("写入目的地 %q 失败: %w", destinations[i].Name, err)
		}
	}
	return nil
}
