package tptypes

import "time"

// PushEventType 定义推送给客户端的事件类型。
type PushEventType string

const (
	ChatMessageEvent    PushEventType = "chat_message"    // 新的聊天消息
	FriendRequestEvent  PushEventType = "friend_request"  // 收到好友请求
	FriendAcceptedEvent PushEventType = "friend_accepted" // 好友请求被接受
)

// PushEvent is the envelope delivered to connected WebSocket clients. It is
// also the payload published to Kafka by the API server; the chat server
// consumes it and routes it to ReceiverID.
type PushEvent struct {
	ID         string        `json:"id,omitempty"`
	Type       PushEventType `json:"type"`
	SenderID   string        `json:"senderId"`
	ReceiverID string        `json:"receiverId"`
	Text       string        `json:"text,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}
