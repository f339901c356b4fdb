package repository

import (
	"fmt"
	"strings"

	"github.com/chatstack/chatroom/internal/errs"
	"github.com/chatstack/chatroom/internal/model"
	"github.com/chatstack/chatroom/internal/tenantdb"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MembershipInput holds the fields accepted when adding a user to a chatroom.
type MembershipInput struct {
	UserID     uint   `json:"user_id"`
	ChatroomID uint   `json:"chatroom_id"`
	Role       string `json:"role"`
}

// Membership listings always join users, so sort columns are qualified.
var membershipSortColumns = map[string]string{
	"joined_at": "memberships.joined_at",
	"role":      "memberships.role",
	"username":  "users.username",
}

// AddMember adds a user to a chatroom. The referenced user and chatroom must
// exist in the same tenant storage; the membership id is an opaque token.
func AddMember(s *tenantdb.Session, in MembershipInput) (*model.Membership, error) {
	if in.UserID == 0 {
		return nil, errs.Validation("user_id", "required")
	}
	if in.ChatroomID == 0 {
		return nil, errs.Validation("chatroom_id", "required")
	}
	if in.Role == "" {
		in.Role = "member"
	}

	membership := &model.Membership{
		ID:         uuid.New().String(),
		UserID:     in.UserID,
		ChatroomID: in.ChatroomID,
		Role:       in.Role,
	}

	err := s.DB().Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &model.User{}, in.UserID, "user"); err != nil {
			return err
		}
		if err := requireRow(tx, &model.Chatroom{}, in.ChatroomID, "chatroom"); err != nil {
			return err
		}
		return tx.Create(membership).Error
	})
	if err != nil {
		return nil, errs.Classify("add member", "membership", err)
	}
	return membership, nil
}

// GetMembership fetches a membership by its token id.
func GetMembership(s *tenantdb.Session, id string) (*model.Membership, error) {
	var membership model.Membership
	if err := s.DB().Where("id = ?", id).First(&membership).Error; err != nil {
		return nil, errs.Classify("get membership", "membership", err)
	}
	return &membership, nil
}

// ListMembers returns one page of a chatroom's memberships, optionally
// filtered by a case-insensitive substring of the member's username.
func ListMembers(s *tenantdb.Session, chatroomID uint, p ListParams, nameSearch string) (*Page[model.Membership], error) {
	p = p.normalize("joined_at")
	order, err := orderClause(membershipSortColumns, p)
	if err != nil {
		return nil, err
	}

	query := s.DB().Model(&model.Membership{}).
		Joins("JOIN users ON users.id = memberships.user_id").
		Where("memberships.chatroom_id = ?", chatroomID)

	if nameSearch != "" {
		query = query.Where("LOWER(users.username) LIKE ?", "%"+strings.ToLower(nameSearch)+"%")
	}

	page, err := paginate[model.Membership](query, p, order)
	if err != nil {
		return nil, errs.Classify("list members", "membership", err)
	}
	return page, nil
}

// RemoveMember removes a user from a chatroom. A missing membership is a
// false result, not an error.
func RemoveMember(s *tenantdb.Session, chatroomID, userID uint) (bool, error) {
	result := s.DB().
		Where("chatroom_id = ? AND user_id = ?", chatroomID, userID).
		Delete(&model.Membership{})
	if result.Error != nil {
		return false, errs.Classify("remove member", "membership", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// requireRow fails with ErrNotFound if the referenced row is absent.
func requireRow(tx *gorm.DB, modelPtr interface{}, id uint, entity string) error {
	var count int64
	if err := tx.Model(modelPtr).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, errs.ErrNotFound)
	}
	return nil
}
