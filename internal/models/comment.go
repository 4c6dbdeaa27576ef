package models

// ItineraryComment is one element of the ordered comment list scoped to a
// single itinerary. Removal matches by value equality (user, text and
// timestamp), not by index; TimestampMs disambiguates identical texts.
type ItineraryComment struct {
	BaseModel
	ItineraryID     uint   `gorm:"not null;index" json:"itineraryId"`
	UserID          uint   `gorm:"not null" json:"userId"`
	Username        string `gorm:"type:varchar(100);not null" json:"username"`
	ProfileImageURL string `gorm:"type:varchar(255)" json:"profileImageUrl,omitempty"`
	Text            string `gorm:"type:text;not null" json:"text"`
	TimestampMs     int64  `gorm:"not null" json:"timestampMs"`
}

// TableName 指定 ItineraryComment 模型的表名。
func (ItineraryComment) TableName() string {
	return "itinerary_comments"
}

// Matches reports whether two comment records are field-for-field equal in
// the sense of the append/remove contract (arrayUnion / arrayRemove).
func (c *ItineraryComment) Matches(other *ItineraryComment) bool {
	return c.ItineraryID == other.ItineraryID &&
		c.UserID == other.UserID &&
		c.Text == other.Text &&
		c.TimestampMs == other.TimestampMs
}
