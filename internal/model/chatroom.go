package model

import "time"

// Chatroom represents a chatroom stored in a tenant's storage.
type Chatroom struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(64);not null"`
	Description string    `json:"description" gorm:"type:varchar(128)"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	ModifiedAt  time.Time `json:"modified_at" gorm:"column:modified_at;autoUpdateTime"`
}

// TableName overrides the default table name
func (Chatroom) TableName() string {
	return "chatrooms"
}
