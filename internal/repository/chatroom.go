package repository

import (
	"errors"

	"github.com/chatstack/chatroom/internal/errs"
	"github.com/chatstack/chatroom/internal/model"
	"github.com/chatstack/chatroom/internal/tenantdb"
	"gorm.io/gorm"
)

// ChatroomInput holds the fields accepted when creating a chatroom.
type ChatroomInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var chatroomSortColumns = map[string]string{
	"id":          "id",
	"name":        "name",
	"created_at":  "created_at",
	"modified_at": "modified_at",
}

var chatroomUpdateFields = map[string]bool{
	"name":        true,
	"description": true,
}

// CreateChatroom creates a chatroom in the session's tenant storage.
func CreateChatroom(s *tenantdb.Session, in ChatroomInput) (*model.Chatroom, error) {
	if in.Name == "" {
		return nil, errs.Validation("name", "required")
	}

	chatroom := &model.Chatroom{
		Name:        in.Name,
		Description: in.Description,
	}

	err := s.DB().Transaction(func(tx *gorm.DB) error {
		return tx.Create(chatroom).Error
	})
	if err != nil {
		return nil, errs.Classify("create chatroom", "chatroom", err)
	}
	return chatroom, nil
}

// GetChatroom fetches a chatroom by id.
func GetChatroom(s *tenantdb.Session, id uint) (*model.Chatroom, error) {
	var chatroom model.Chatroom
	if err := s.DB().First(&chatroom, id).Error; err != nil {
		return nil, errs.Classify("get chatroom", "chatroom", err)
	}
	return &chatroom, nil
}

// ListChatrooms returns one page of the tenant's chatrooms.
func ListChatrooms(s *tenantdb.Session, p ListParams) (*Page[model.Chatroom], error) {
	p = p.normalize("id")
	order, err := orderClause(chatroomSortColumns, p)
	if err != nil {
		return nil, err
	}

	query := s.DB().Model(&model.Chatroom{})
	page, err := paginate[model.Chatroom](query, p, order)
	if err != nil {
		return nil, errs.Classify("list chatrooms", "chatroom", err)
	}
	return page, nil
}

// UpdateChatroom applies a partial update. Unknown fields are ignored.
func UpdateChatroom(s *tenantdb.Session, id uint, fields map[string]interface{}) (*model.Chatroom, error) {
	updates := make(map[string]interface{})
	for k, v := range fields {
		if chatroomUpdateFields[k] {
			updates[k] = v
		}
	}

	var chatroom model.Chatroom
	err := s.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&chatroom, id).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&chatroom).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&chatroom, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, errs.Classify("update chatroom", "chatroom", err)
	}
	return &chatroom, nil
}

// DeleteChatroom removes a chatroom. A missing row is a false result, not an
// error.
func DeleteChatroom(s *tenantdb.Session, id uint) (bool, error) {
	result := s.DB().Delete(&model.Chatroom{}, id)
	if result.Error != nil {
		return false, errs.Classify("delete chatroom", "chatroom", result.Error)
	}
	return result.RowsAffected > 0, nil
}
