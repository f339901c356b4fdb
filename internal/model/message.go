package model

import "time"

// Message is a chat message authored by a user in a chatroom. Like
// Membership, messages use opaque token ids to avoid id-generation
// contention between concurrent senders.
type Message struct {
	ID         string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID     uint      `json:"user_id" gorm:"index;not null"`
	ChatroomID uint      `json:"chatroom_id" gorm:"index;not null"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	Timestamp  time.Time `json:"timestamp" gorm:"column:timestamp;autoCreateTime"`
}

// TableName overrides the default table name
func (Message) TableName() string {
	return "messages"
}
