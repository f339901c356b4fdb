package model

import "time"

// User represents a chat user stored in a tenant's storage. Ids are
// sequential and unique only within that tenant's storage.
type User struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Username   string    `json:"username" gorm:"type:varchar(64);uniqueIndex;not null"`
	Email      string    `json:"email" gorm:"type:varchar(128);uniqueIndex;not null"`
	Password   string    `json:"-" gorm:"type:varchar(128);not null"`
	Mobile     *string   `json:"mobile,omitempty" gorm:"type:varchar(10);uniqueIndex"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	ModifiedAt time.Time `json:"modified_at" gorm:"column:modified_at;autoUpdateTime"`
}

// TableName overrides the default table name
func (User) TableName() string {
	return "users"
}
