package models

// Destination 是目的地目录中的一个条目，供创建行程时选择。
type Destination struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// TableName 指定 Destination 模型的表名。
func (Destination) TableName() string {
	return "destinations"
}
