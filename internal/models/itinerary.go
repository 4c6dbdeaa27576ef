package models

import "encoding/json"

// Itinerary 代表一个用户发布的旅行计划，带有社交计数器（点赞、推荐）。
// 计数器的不变量：每次切换操作之后 LikeCount == 点赞成员数，
// RecommendationCount == 推荐成员数，且两者永不为负。
type Itinerary struct {
	BaseModel
	OwnerID     uint   `gorm:"not null;index" json:"ownerId"`
	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	StartDate   string `gorm:"type:varchar(20)" json:"startDate"`
	EndDate     string `gorm:"type:varchar(20)" json:"endDate"`

	// DestinationsRaw 以 JSONB 形式存储目的地名称列表。
	DestinationsRaw json.RawMessage `gorm:"type:jsonb" json:"destinations,omitempty"`

	LikeCount           int `gorm:"not null;default:0" json:"likeCount"`
	RecommendationCount int `gorm:"not null;default:0" json:"recommendationCount"`

	// 关联关系（按需加载）
	Owner           User                      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Likes           []ItineraryLike           `gorm:"foreignKey:ItineraryID" json:"likes,omitempty"`
	Recommendations []ItineraryRecommendation `gorm:"foreignKey:ItineraryID" json:"recommendations,omitempty"`
}

// TableName 指定 Itinerary 模型的表名。
func (Itinerary) TableName() string {
	return "itineraries"
}

// SetDestinations serializes the destination names into DestinationsRaw.
func (i *Itinerary) SetDestinations(destinations []string) error {
	raw, err := json.Marshal(destinations)
	if err != nil {
		return err
	}
	i.DestinationsRaw = raw
	return nil
}

// GetDestinations deserializes DestinationsRaw back into a name list.
// A missing value reads as an empty list.
func (i *Itinerary) GetDestinations() ([]string, error) {
	if len(i.DestinationsRaw) == 0 {
		return []string{}, nil
	}
	var destinations []string
	if err := json.Unmarshal(i.DestinationsRaw, &destinations); err != nil {
		return nil, err
	}
	return destinations, nil
}

// ItineraryLike 是 likedBy 集合中的一个成员记录。
// (ItineraryID, UserID) 上的唯一索引保证同一用户不会重复点赞。
type ItineraryLike struct {
	BaseModel
	ItineraryID uint `gorm:"not null;uniqueIndex:idx_itinerary_like" json:"itineraryId"`
	UserID      uint `gorm:"not null;uniqueIndex:idx_itinerary_like" json:"userId"`
}

// TableName 指定 ItineraryLike 模型的表名。
func (ItineraryLike) TableName() string {
	return "itinerary_likes"
}

// ItineraryRecommendation 是 recommendedBy 集合中的一个成员记录。
type ItineraryRecommendation struct {
	BaseModel
	ItineraryID uint `gorm:"not null;uniqueIndex:idx_itinerary_recommendation" json:"itineraryId"`
	UserID      uint `gorm:"not null;uniqueIndex:idx_itinerary_recommendation" json:"userId"`
}

// TableName 指定 ItineraryRecommendation 模型的表名。
func (ItineraryRecommendation) TableName() string {
	return "itinerary_recommendations"
}

// ItineraryWithOwner is a DTO pairing an itinerary with its owner's public
// info, used when browsing other users' itineraries.
type ItineraryWithOwner struct {
	Itinerary
	OwnerInfo *UserBasicInfo `json:"ownerInfo"`
}
