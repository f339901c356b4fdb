package repository

import (
	"errors"

	"github.com/chatstack/chatroom/internal/errs"
	"github.com/chatstack/chatroom/internal/model"
	"github.com/chatstack/chatroom/internal/tenantdb"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserInput holds the fields accepted when creating a user.
type UserInput struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Mobile   *string `json:"mobile,omitempty"`
}

var userSortColumns = map[string]string{
	"id":          "id",
	"username":    "username",
	"email":       "email",
	"created_at":  "created_at",
	"modified_at": "modified_at",
}

// updatable user fields; anything else in a partial update is ignored
var userUpdateFields = map[string]bool{
	"username": true,
	"email":    true,
	"password": true,
	"mobile":   true,
}

// CreateUser creates a user in the session's tenant storage. The password is
// stored as a bcrypt hash.
func CreateUser(s *tenantdb.Session, in UserInput) (*model.User, error) {
	if in.Username == "" {
		return nil, errs.Validation("username", "required")
	}
	if in.Email == "" {
		return nil, errs.Validation("email", "required")
	}
	if in.Password == "" {
		return nil, errs.Validation("password", "required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errs.Classify("hash password", "user", err)
	}

	user := &model.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hash),
		Mobile:   in.Mobile,
	}

	err = s.DB().Transaction(func(tx *gorm.DB) error {
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, errs.Classify("create user", "user", err)
	}
	return user, nil
}

// GetUser fetches a user by id.
func GetUser(s *tenantdb.Session, id uint) (*model.User, error) {
	var user model.User
	if err := s.DB().First(&user, id).Error; err != nil {
		return nil, errs.Classify("get user", "user", err)
	}
	return &user, nil
}

// ListUsers returns one page of the tenant's users.
func ListUsers(s *tenantdb.Session, p ListParams) (*Page[model.User], error) {
	p = p.normalize("id")
	order, err := orderClause(userSortColumns, p)
	if err != nil {
		return nil, err
	}

	query := s.DB().Model(&model.User{})
	page, err := paginate[model.User](query, p, order)
	if err != nil {
		return nil, errs.Classify("list users", "user", err)
	}
	return page, nil
}

// UpdateUser applies a partial update. Unknown fields are ignored, not
// errors; a password value is re-hashed before storage.
func UpdateUser(s *tenantdb.Session, id uint, fields map[string]interface{}) (*model.User, error) {
	updates := make(map[string]interface{})
	for k, v := range fields {
		if userUpdateFields[k] {
			updates[k] = v
		}
	}

	if pw, ok := updates["password"].(string); ok {
		hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			return nil, errs.Classify("hash password", "user", err)
		}
		updates["password"] = string(hash)
	}

	var user model.User
	err := s.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&user, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, errs.Classify("update user", "user", err)
	}
	return &user, nil
}

// DeleteUser removes a user. A missing row is a false result, not an error.
func DeleteUser(s *tenantdb.Session, id uint) (bool, error) {
	result := s.DB().Delete(&model.User{}, id)
	if result.Error != nil {
		return false, errs.Classify("delete user", "user", result.Error)
	}
	return result.RowsAffected > 0, nil
}
