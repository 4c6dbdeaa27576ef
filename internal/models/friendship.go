package models

// EdgeStatus 定义好友关系边的持久化状态。
// 只有两个值会被写入存储；其余的有效状态是派生出来的（见 FriendshipState）。
type EdgeStatus string

const (
	EdgeStatusRequestSent EdgeStatus = "request_sent" // Owner 已向 Other 发出好友请求
	EdgeStatusFriend      EdgeStatus = "friend"       // Owner 视 Other 为好友
)

// FriendshipState 是从两个方向的边派生出来的有效关系状态。
type FriendshipState string

const (
	StateNotFriend     FriendshipState = "not_friend"
	StateRequestSent   FriendshipState = "request_sent"   // 观察者已发出请求，等待对方处理
	StateAcceptRequest FriendshipState = "accept_request" // 对方已发出请求，等待观察者处理
	StateFriend        FriendshipState = "friend"
)

// FriendshipEdge is one directed record of relationship intent/state from
// OwnerID towards OtherID. The edge A→B is independent of B→A; the effective
// relationship between two users is always derived from both directions and
// never stored directly.
type FriendshipEdge struct {
	BaseModel
	OwnerID uint       `gorm:"not null;uniqueIndex:idx_friendship_edge" json:"ownerId"`
	OtherID uint       `gorm:"not null;uniqueIndex:idx_friendship_edge" json:"otherId"`
	Status  EdgeStatus `gorm:"type:varchar(20);not null" json:"status"`
}

// TableName 指定 FriendshipEdge 模型的表名。
func (FriendshipEdge) TableName() string {
	return "friendship_edges"
}

// DeriveFriendshipState computes the effective state for the ordered pair
// (viewer, other) from the viewer's own edge and the reverse edge. A nil
// edge means the record does not exist.
//
// 读路径：观察者自己的边优先（request_sent / friend 即为最终状态）；
// 否则检查反向边：request_sent → accept_request，friend → friend；
// 两边都不存在则为 not_friend。
func DeriveFriendshipState(own, reverse *FriendshipEdge) FriendshipState {
	if own != nil {
		switch own.Status {
		case EdgeStatusRequestSent:
			return StateRequestSent
		case EdgeStatusFriend:
			return StateFriend
		}
	}
	if reverse != nil {
		switch reverse.Status {
		case EdgeStatusRequestSent:
			return StateAcceptRequest
		case EdgeStatusFriend:
			return StateFriend
		}
	}
	return StateNotFriend
}
