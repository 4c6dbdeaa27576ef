package models

// User 代表系统中的一个用户（旅行者）。
type User struct {
	BaseModel
	Username        string `gorm:"type:varchar(100);not null" json:"username"`
	PasswordHash    string `gorm:"type:varchar(255)" json:"-"` // 不暴露密码哈希；联合登录用户可能为空
	Email           string `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Bio             string `gorm:"type:text" json:"bio,omitempty"`
	ProfileImageURL string `gorm:"type:varchar(255)" json:"profileImageUrl,omitempty"`
}

// TableName 指定 User 模型的表名。
func (User) TableName() string {
	return "users"
}

// UserBasicInfo holds minimal public information about a user.
// Used wherever another user is rendered (friends list, comments, chat).
type UserBasicInfo struct {
	ID              uint   `json:"id"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

// FederatedIdentity links an external identity-provider account to a local user.
// One row per (provider, providerUserID) pair.
type FederatedIdentity struct {
	BaseModel
	UserID         uint   `gorm:"not null;index" json:"userId"`
	Provider       string `gorm:"type:varchar(50);not null;uniqueIndex:idx_federated_identity" json:"provider"`
	ProviderUserID string `gorm:"type:varchar(255);not null;uniqueIndex:idx_federated_identity" json:"providerUserId"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定 FederatedIdentity 模型的表名。
func (FederatedIdentity) TableName() string {
	return "federated_identities"
}
