package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"tripplanner/internal/config"
	"tripplanner/internal/kafka"
	"tripplanner/internal/models"
	"tripplanner/internal/storage"
	"tripplanner/internal/tptypes"

	"gorm.io/gorm"
)

var (
	ErrFriendRequestSelf   = errors.New("不能添加自己为好友")
	ErrFriendRequestExists = errors.New("已存在待处理的好友请求")
	ErrRecipientNotFound   = errors.New("目标用户不存在")
	ErrAlreadyFriends      = errors.New("你们已经是好友了")
	ErrNoPendingRequest    = errors.New("对方没有发给你的待处理好友请求")
	ErrNoRequestToCancel   = errors.New("没有可取消的好友请求")
	ErrNotFriends          = errors.New("你们不是好友关系")
)

// FriendshipService reconciles the effective relationship between two users
// from their directed friendship edges and applies the state transitions.
type FriendshipService interface {
	// CheckStatus derives the effective state the viewer observes towards
	// other. Any query failure reads as StateNotFriend (fail-safe default,
	// no automatic retry).
	CheckStatus(ctx context.Context, viewerID, otherID uint) models.FriendshipState
	SendRequest(ctx context.Context, viewerID, otherID uint) error
	CancelRequest(ctx context.Context, viewerID, otherID uint) error
	AcceptRequest(ctx context.Context, viewerID, otherID uint) error
	RemoveFriend(ctx context.Context, viewerID, otherID uint) error
	ListFriends(ctx context.Context, userID uint) ([]*models.UserBasicInfo, error)
	CountFriends(ctx context.Context, userID uint) (int, error)
}

type friendshipService struct {
	edgeRepo    storage.FriendshipRepository
	userRepo    storage.UserRepository
	producer    kafka.MessageProducer
	kafkaConfig config.KafkaConfig
}

// NewFriendshipService creates a new FriendshipService instance.
// producer may be nil; notifications are then skipped.
func NewFriendshipService(
	edgeRepo storage.FriendshipRepository,
	userRepo storage.UserRepository,
	producer kafka.MessageProducer,
	kafkaCfg config.KafkaConfig,
) FriendshipService {
	return &friendshipService{
		edgeRepo:    edgeRepo,
		userRepo:    userRepo,
		producer:    producer,
		kafkaConfig: kafkaCfg,
	}
}

// CheckStatus implements the read path of the reconciliation state machine:
// the viewer's own edge wins; otherwise the reverse edge is consulted.
func (s *friendshipService) CheckStatus(ctx context.Context, viewerID, otherID uint) models.FriendshipState {
	own, err := s.edgeRepo.GetEdge(ctx, viewerID, otherID)
	if err != nil {
		log.Printf("查询好友关系边失败 (%d -> %d): %v", viewerID, otherID, err)
		return models.StateNotFriend
	}
	if own != nil {
		return models.DeriveFriendshipState(own, nil)
	}

	reverse, err := s.edgeRepo.GetEdge(ctx, otherID, viewerID)
	if err != nil {
		log.Printf("查询反向好友关系边失败 (%d -> %d): %v", otherID, viewerID, err)
		return models.StateNotFriend
	}
	return models.DeriveFriendshipState(nil, reverse)
}

// SendRequest transitions NotFriend → RequestSent by creating the directed
// edge (viewer → other, request_sent).
func (s *friendshipService) SendRequest(ctx context.Context, viewerID, otherID uint) error {
	if viewerID == otherID {
		return ErrFriendRequestSelf
	}

	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecipientNotFound
		}
		return fmt.Errorf("检查目标用户时出错: %w", err)
	}

	switch s.CheckStatus(ctx, viewerID, otherID) {
	case models.StateFriend:
		return ErrAlreadyFriends
	case models.StateRequestSent, models.StateAcceptRequest:
		return ErrFriendRequestExists
	}

	edge := &models.FriendshipEdge{
		OwnerID: viewerID,
		OtherID: otherID,
		Status:  models.EdgeStatusRequestSent,
	}
	if err := s.edgeRepo.CreateEdge(ctx, edge); err != nil {
		return fmt.Errorf("创建好友请求边失败: %w", err)
	}

	s.publishEvent(ctx, tptypes.FriendRequestEvent, viewerID, otherID)
	return nil
}

// CancelRequest transitions RequestSent → NotFriend by deleting the viewer's
// own pending edge.
func (s *friendshipService) CancelRequest(ctx context.Context, viewerID, otherID uint) error {
	own, err := s.edgeRepo.GetEdge(ctx, viewerID, otherID)
	if err != nil {
		return fmt.Errorf("查询好友请求失败: %w", err)
	}
	if own == nil || own.Status != models.EdgeStatusRequestSent {
		return ErrNoRequestToCancel
	}
	if err := s.edgeRepo.DeleteEdge(ctx, viewerID, otherID); err != nil {
		return fmt.Errorf("删除好友请求边失败: %w", err)
	}
	return nil
}

// AcceptRequest transitions AcceptRequest → Friend. The reverse edge update
// and the forward edge creation run in one transaction, so a half-accepted
// pair cannot be observed.
func (s *friendshipService) AcceptRequest(ctx context.Context, viewerID, otherID uint) error {
	err := s.edgeRepo.WithTx(ctx, func(repo storage.FriendshipRepository) error {
		reverse, err := repo.GetEdge(ctx, otherID, viewerID)
		if err != nil {
			return fmt.Errorf("查询待处理好友请求失败: %w", err)
		}
		if reverse == nil || reverse.Status != models.EdgeStatusRequestSent {
			return ErrNoPendingRequest
		}

		if err := repo.UpdateEdgeStatus(ctx, otherID, viewerID, models.EdgeStatusFriend); err != nil {
			return fmt.Errorf("更新对方好友边状态失败: %w", err)
		}

		own, err := repo.GetEdge(ctx, viewerID, otherID)
		if err != nil {
			return fmt.Errorf("查询己方好友边失败: %w", err)
		}
		if own == nil {
			return repo.CreateEdge(ctx, &models.FriendshipEdge{
				OwnerID: viewerID,
				OtherID: otherID,
				Status:  models.EdgeStatusFriend,
			})
		}
		return repo.UpdateEdgeStatus(ctx, viewerID, otherID, models.EdgeStatusFriend)
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, tptypes.FriendAcceptedEvent, viewerID, otherID)
	return nil
}

// RemoveFriend transitions Friend → NotFriend by deleting both directional
// edges in one transaction.
func (s *friendshipService) RemoveFriend(ctx context.Context, viewerID, otherID uint) error {
	if s.CheckStatus(ctx, viewerID, otherID) != models.StateFriend {
		return ErrNotFriends
	}
	return s.edgeRepo.WithTx(ctx, func(repo storage.FriendshipRepository) error {
		if err := repo.DeleteEdge(ctx, viewerID, otherID); err != nil {
			return fmt.Errorf("删除己方好友边失败: %w", err)
		}
		if err := repo.DeleteEdge(ctx, otherID, viewerID); err != nil {
			return fmt.Errorf("删除对方好友边失败: %w", err)
		}
		return nil
	})
}

// ListFriends returns basic info for all users the given user is friends with.
func (s *friendshipService) ListFriends(ctx context.Context, userID uint) ([]*models.UserBasicInfo, error) {
	friendIDs, err := s.edgeRepo.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取好友列表失败: %w", err)
	}
	if len(friendIDs) == 0 {
		return []*models.UserBasicInfo{}, nil
	}

	friendsInfo, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, friendIDs)
	if err != nil {
		return nil, fmt.Errorf("获取好友信息失败: %w", err)
	}
	return friendsInfo, nil
}

// CountFriends returns the number of friends the given user has.
func (s *friendshipService) CountFriends(ctx context.Context, userID uint) (int, error) {
	friendIDs, err := s.edgeRepo.ListFriendIDs(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("获取好友数量失败: %w", err)
	}
	return len(friendIDs), nil
}

// publishEvent 发布社交通知事件；失败只记录日志，不影响主流程。
func (s *friendshipService) publishEvent(ctx context.Context, eventType tptypes.PushEventType, fromUserID, toUserID uint) {
	if s.producer == nil {
		return
	}
	event := tptypes.PushEvent{
		Type:       eventType,
		SenderID:   fmt.Sprintf("%d", fromUserID),
		ReceiverID: fmt.Sprintf("%d", toUserID),
		Timestamp:  time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("序列化好友事件失败: %v", err)
		return
	}
	key := []byte(fmt.Sprintf("%d-%d", fromUserID, toUserID))
	if err := s.producer.SendMessage(ctx, s.kafkaConfig.NotificationsTopic, key, payload); err != nil {
		log.Printf("发送好友事件到 Kafka 失败 (%d -> %d): %v", fromUserID, toUserID, err)
	}
}
