package repository

import (
	"strings"
	"time"

	"github.com/chatstack/chatroom/internal/errs"
	"github.com/chatstack/chatroom/internal/model"
	"github.com/chatstack/chatroom/internal/tenantdb"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageInput holds the fields accepted when sending a message.
type MessageInput struct {
	UserID     uint   `json:"user_id"`
	ChatroomID uint   `json:"chatroom_id"`
	Content    string `json:"content"`
}

// MessageFilter narrows a chatroom's message listing. The date range is
// inclusive on both ends; Search matches message content case-insensitively.
type MessageFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
}

// Chatroom message listings join users so messages can be sorted by author.
var messageSortColumns = map[string]string{
	"timestamp": "messages.timestamp",
	"username":  "users.username",
}

// User message listings join chatrooms instead.
var userMessageSortColumns = map[string]string{
	"timestamp": "messages.timestamp",
	"chatroom":  "chatrooms.name",
}

// CreateMessage stores a message. The author and chatroom must exist in the
// same tenant storage; the message id is an opaque token so concurrent
// senders never contend on id generation.
func CreateMessage(s *tenantdb.Session, in MessageInput) (*model.Message, error) {
	if in.UserID == 0 {
		return nil, errs.Validation("user_id", "required")
	}
	if in.ChatroomID == 0 {
		return nil, errs.Validation("chatroom_id", "required")
	}
	if in.Content == "" {
		return nil, errs.Validation("content", "required")
	}

	message := &model.Message{
		ID:         uuid.New().String(),
		UserID:     in.UserID,
		ChatroomID: in.ChatroomID,
		Content:    in.Content,
	}

	err := s.DB().Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &model.User{}, in.UserID, "user"); err != nil {
			return err
		}
		if err := requireRow(tx, &model.Chatroom{}, in.ChatroomID, "chatroom"); err != nil {
			return err
		}
		return tx.Create(message).Error
	})
	if err != nil {
		return nil, errs.Classify("create message", "message", err)
	}
	return message, nil
}

// GetMessage fetches a message by its token id.
func GetMessage(s *tenantdb.Session, id string) (*model.Message, error) {
	var message model.Message
	if err := s.DB().Where("id = ?", id).First(&message).Error; err != nil {
		return nil, errs.Classify("get message", "message", err)
	}
	return &message, nil
}

// ListMessages returns one page of a chatroom's messages, newest first by
// default, with optional date-range and content filters.
func ListMessages(s *tenantdb.Session, chatroomID uint, p ListParams, f MessageFilter) (*Page[model.Message], error) {
	p = p.normalize("timestamp")
	order, err := orderClause(messageSortColumns, p)
	if err != nil {
		return nil, err
	}

	query := s.DB().Model(&model.Message{}).
		Joins("JOIN users ON users.id = messages.user_id").
		Where("messages.chatroom_id = ?", chatroomID)

	if f.StartDate != nil {
		query = query.Where("messages.timestamp >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		query = query.Where("messages.timestamp <= ?", *f.EndDate)
	}
	if f.Search != "" {
		query = query.Where("LOWER(messages.content) LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}

	page, err := paginate[model.Message](query, p, order)
	if err != nil {
		return nil, errs.Classify("list messages", "message", err)
	}
	return page, nil
}

// ListUserMessages returns one page of a user's messages across chatrooms.
func ListUserMessages(s *tenantdb.Session, userID uint, p ListParams) (*Page[model.Message], error) {
	p = p.normalize("timestamp")
	order, err := orderClause(userMessageSortColumns, p)
	if err != nil {
		return nil, err
	}

	query := s.DB().Model(&model.Message{}).
		Joins("JOIN chatrooms ON chatrooms.id = messages.chatroom_id").
		Where("messages.user_id = ?", userID)

	page, err := paginate[model.Message](query, p, order)
	if err != nil {
		return nil, errs.Classify("list user messages", "message", err)
	}
	return page, nil
}

// DeleteMessage removes a message. A missing row is a false result, not an
// error.
func DeleteMessage(s *tenantdb.Session, id string) (bool, error) {
	result := s.DB().Where("id = ?", id).Delete(&model.Message{})
	if result.Error != nil {
		return false, errs.Classify("delete message", "message", result.Error)
	}
	return result.RowsAffected > 0, nil
}
