package model

import "time"

// Membership links a user to a chatroom with a role. Memberships are created
// concurrently by independent actors, so they carry an opaque token id
// instead of a sequential one. A user holds at most one membership per
// chatroom, enforced by the composite unique index.
type Membership struct {
	ID         string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID     uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_memberships_room_user,priority:2"`
	ChatroomID uint      `json:"chatroom_id" gorm:"not null;uniqueIndex:idx_memberships_room_user,priority:1"`
	Role       string    `json:"role" gorm:"type:varchar(32);default:member"`
	JoinedAt   time.Time `json:"joined_at" gorm:"column:joined_at;autoCreateTime"`
}

// TableName overrides the default table name
func (Membership) TableName() string {
	return "memberships"
}
