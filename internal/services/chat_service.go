package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tripplanner/internal/config"
	"tripplanner/internal/kafka"
	"tripplanner/internal/models"
	"tripplanner/internal/storage"
	"tripplanner/internal/tptypes"
)

var (
	ErrEmptyMessage = errors.New("消息内容不能为空")
	ErrChatWithSelf = errors.New("不能给自己发消息")
	ErrPeerNotFound = errors.New("对方用户不存在")
)

// previewDateLayout 是预览条目中最后消息时间的展示格式。
const previewDateLayout = "2006-01-02 15:04"

// ChatMessageView is a message decorated with the viewer's perspective.
type ChatMessageView struct {
	models.ChatMessage
	IsSentByUser bool `json:"isSentByUser"`
}

// ChatService handles direct messages between two users and maintains the
// denormalized per-user preview entries.
type ChatService interface {
	// SendMessage appends a message to the pair's thread (creating it on
	// first contact) and refreshes both participants' previews in the same
	// transaction. Live push to the receiver is fire-and-forget.
	SendMessage(ctx context.Context, senderID, receiverID uint, text string) (*models.ChatMessage, error)
	ListMessages(ctx context.Context, viewerID, peerID uint) ([]ChatMessageView, error)
	ListPreviews(ctx context.Context, ownerID uint) ([]models.ChatPreview, error)
	MarkThreadRead(ctx context.Context, ownerID, peerID uint) error
}

type chatService struct {
	chatRepo    storage.ChatRepository
	userRepo    storage.UserRepository
	producer    kafka.MessageProducer
	kafkaConfig config.KafkaConfig
}

// NewChatService creates a new ChatService instance.
// producer may be nil; live push is then skipped.
func NewChatService(
	chatRepo storage.ChatRepository,
	userRepo storage.UserRepository,
	producer kafka.MessageProducer,
	kafkaCfg config.KafkaConfig,
) ChatService {
	return &chatService{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		producer:    producer,
		kafkaConfig: kafkaCfg,
	}
}

// SendMessage implements the write path of a direct message.
func (s *chatService) SendMessage(ctx context.Context, senderID, receiverID uint, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if senderID == receiverID {
		return nil, ErrChatWithSelf
	}

	receiverInfo, err := s.userRepo.GetBasicInfoByID(ctx, receiverID)
	if err != nil {
		return nil, ErrPeerNotFound
	}
	senderInfo, err := s.userRepo.GetBasicInfoByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("获取发送者信息失败: %w", err)
	}

	now := time.Now()
	message := &models.ChatMessage{
		SenderID:    senderID,
		Text:        text,
		TimestampMs: now.UnixMilli(),
	}

	err = s.chatRepo.WithTx(ctx, func(repo storage.ChatRepository) error {
		pairKey := models.ThreadPairKey(senderID, receiverID)
		thread, err := repo.GetThreadByPairKey(ctx, pairKey)
		if err != nil {
			return fmt.Errorf("查询消息线程失败: %w", err)
		}
		if thread == nil {
			thread = &models.ChatThread{
				PairKey: pairKey,
				UserID1: senderID,
				UserID2: receiverID,
			}
			thread.EnsureCanonicalOrder()
			if err := repo.CreateThread(ctx, thread); err != nil {
				return fmt.Errorf("创建消息线程失败: %w", err)
			}
		}

		message.ThreadID = thread.ID
		if err := repo.AppendMessage(ctx, message); err != nil {
			return fmt.Errorf("写入消息失败: %w", err)
		}

		lastMessageDate := now.Format(previewDateLayout)

		// 发送方的预览：对方的名字。两侧都写成未读，发送方打开
		// 会话时由 MarkThreadRead 清除。
		senderPreview := &models.ChatPreview{
			OwnerID:         senderID,
			PeerID:          receiverID,
			Username:        receiverInfo.Username,
			LastMessage:     text,
			LastMessageDate: lastMessageDate,
			IsUnread:        true,
		}
		if err := repo.UpsertPreview(ctx, senderPreview); err != nil {
			return fmt.Errorf("更新发送方预览失败: %w", err)
		}

		// 接收方的预览：发送方的名字，标记未读。
		receiverPreview := &models.ChatPreview{
			OwnerID:         receiverID,
			PeerID:          senderID,
			Username:        senderInfo.Username,
			LastMessage:     text,
			LastMessageDate: lastMessageDate,
			IsUnread:        true,
		}
		if err := repo.UpsertPreview(ctx, receiverPreview); err != nil {
			return fmt.Errorf("更新接收方预览失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishChatEvent(ctx, message, senderID, receiverID)
	return message, nil
}

// ListMessages returns the conversation between the viewer and peer in
// chronological order, tagged with the viewer's perspective.
func (s *chatService) ListMessages(ctx context.Context, viewerID, peerID uint) ([]ChatMessageView, error) {
	pairKey := models.ThreadPairKey(viewerID, peerID)
	thread, err := s.chatRepo.GetThreadByPairKey(ctx, pairKey)
	if err != nil {
		return nil, fmt.Errorf("查询消息线程失败: %w", err)
	}
	if thread == nil {
		return []ChatMessageView{}, nil
	}

	messages, err := s.chatRepo.ListMessages(ctx, thread.ID)
	if err != nil {
		return nil, fmt.Errorf("获取消息列表失败: %w", err)
	}

	views := make([]ChatMessageView, 0, len(messages))
	for _, message := range messages {
		views = append(views, ChatMessageView{
			ChatMessage:  message,
			IsSentByUser: message.SenderID == viewerID,
		})
	}
	return views, nil
}

// ListPreviews returns the user's chat list. Previews missing the peer's
// username are healed in place: the returned copy is patched immediately and
// the stored row is fixed in the background.
func (s *chatService) ListPreviews(ctx context.Context, ownerID uint) ([]models.ChatPreview, error) {
	previews, err := s.chatRepo.ListPreviews(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("获取会话预览失败: %w", err)
	}

	for i := range previews {
		if previews[i].Username != "" {
			continue
		}
		peerInfo, err := s.userRepo.GetBasicInfoByID(ctx, previews[i].PeerID)
		if err != nil {
			log.Printf("修复会话预览用户名失败 (用户 %d): %v", previews[i].PeerID, err)
			continue
		}
		previews[i].Username = peerInfo.Username

		go func(peerID uint, username string) {
			healCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.chatRepo.SetPreviewUsername(healCtx, ownerID, peerID, username); err != nil {
				log.Printf("持久化会话预览用户名失败 (用户 %d): %v", peerID, err)
			}
		}(previews[i].PeerID, peerInfo.Username)
	}
	return previews, nil
}

// MarkThreadRead clears the unread flag on the owner's preview of the peer.
func (s *chatService) MarkThreadRead(ctx context.Context, ownerID, peerID uint) error {
	if err := s.chatRepo.SetPreviewUnread(ctx, ownerID, peerID, false); err != nil {
		return fmt.Errorf("标记会话已读失败: %w", err)
	}
	return nil
}

// publishChatEvent 把消息事件发到 Kafka 供 chatserver 实时推送；失败只记录日志。
func (s *chatService) publishChatEvent(ctx context.Context, message *models.ChatMessage, senderID, receiverID uint) {
	if s.producer == nil {
		return
	}
	event := tptypes.PushEvent{
		ID:         fmt.Sprintf("%d", message.ID),
		Type:       tptypes.ChatMessageEvent,
		SenderID:   fmt.Sprintf("%d", senderID),
		ReceiverID: fmt.Sprintf("%d", receiverID),
		Text:       message.Text,
		Timestamp:  time.UnixMilli(message.TimestampMs),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("序列化聊天事件失败: %v", err)
		return
	}
	key := []byte(models.ThreadPairKey(senderID, receiverID))
	if err := s.producer.SendMessage(ctx, s.kafkaConfig.ChatOutgoingTopic, key, payload); err != nil {
		log.Printf("发送聊天事件到 Kafka 失败 (%d -> %d): %v", senderID, receiverID, err)
	}
}
