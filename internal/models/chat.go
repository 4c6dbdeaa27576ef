package models

import "fmt"

// ChatThread 是一对用户之间的消息线程。
// PairKey 由排序后的参与者 ID 确定性地生成，保证同一对用户只存在一个线程。
type ChatThread struct {
	BaseModel
	PairKey string `gorm:"type:varchar(50);uniqueIndex;not null" json:"pairKey"`
	UserID1 uint   `gorm:"not null;index" json:"userId1"`
	UserID2 uint   `gorm:"not null;index" json:"userId2"`

	Messages []ChatMessage `gorm:"foreignKey:ThreadID" json:"messages,omitempty"`
}

// TableName 指定 ChatThread 模型的表名。
func (ChatThread) TableName() string {
	return "chat_threads"
}

// EnsureCanonicalOrder sets UserID1 to the smaller ID and UserID2 to the
// larger one. Call before persisting a new thread.
func (t *ChatThread) EnsureCanonicalOrder() {
	if t.UserID1 > t.UserID2 {
		t.UserID1, t.UserID2 = t.UserID2, t.UserID1
	}
}

// ThreadPairKey returns the deterministic thread key for two participants,
// independent of argument order.
func ThreadPairKey(userA, userB uint) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("%d:%d", userA, userB)
}

// ChatMessage 是线程中的一条消息。
type ChatMessage struct {
	BaseModel
	ThreadID    uint   `gorm:"not null;index" json:"threadId"`
	SenderID    uint   `gorm:"not null" json:"senderId"`
	Text        string `gorm:"type:text;not null" json:"text"`
	TimestampMs int64  `gorm:"not null" json:"timestampMs"`
}

// TableName 指定 ChatMessage 模型的表名。
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// ChatPreview is the denormalized per-user summary of the latest state of a
// thread with one peer, used for list rendering without reading the full
// thread. It may transiently diverge from the thread (e.g. missing username)
// and is healed in place.
type ChatPreview struct {
	BaseModel
	OwnerID         uint   `gorm:"not null;uniqueIndex:idx_chat_preview" json:"ownerId"`
	PeerID          uint   `gorm:"not null;uniqueIndex:idx_chat_preview" json:"peerId"`
	Username        string `gorm:"type:varchar(100)" json:"username"`
	LastMessage     string `gorm:"type:text" json:"lastMessage"`
	LastMessageDate string `gorm:"type:varchar(30)" json:"lastMessageDate"`
	IsUnread        bool   `gorm:"not null;default:false" json:"isUnread"`
}

// TableName 指定 ChatPreview 模型的表名。
func (ChatPreview) TableName() string {
	return "chat_previews"
}
