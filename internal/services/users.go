package services

// 用户服务：令牌签发、令牌/管理员校验、带授权检查的删除。

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Qolorerr/Stroy-test-task/internal/storage"
)

// UserService 提供用户注册、令牌解析与删除能力。
// 每个公开操作使用一次短生命周期的数据库会话（见包说明）。
type UserService struct{ db *gorm.DB }

func NewUserService(db *gorm.DB) *UserService { return &UserService{db: db} }

// Create 创建用户并签发全新的随机令牌（uuid4 级熵）。用户名不要求唯一。
func (s *UserService) Create(ctx context.Context, username string, admin bool) (*storage.User, error) {
	u := &storage.User{Username: username, Token: uuid.NewString(), Admin: admin}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// VerifyToken 按精确字符串匹配把令牌解析为 user_id；无匹配时以 unauthorized 失败。
func (s *UserService) VerifyToken(ctx context.Context, token string) (uint64, error) {
	var u storage.User
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, unauthorized("wrong token")
		}
		return 0, err
	}
	return u.UserID, nil
}

// VerifyAdmin 解析令牌并要求管理员标记；非管理员以 forbidden 失败。
func (s *UserService) VerifyAdmin(ctx context.Context, token string) error {
	var u storage.User
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return unauthorized("wrong token")
		}
		return err
	}
	if !u.Admin {
		return forbidden("you can't do it")
	}
	return nil
}

// CheckAdminRights 返回用户是否具备管理员权限；用户不存在视为 false，从不报错。
func (s *UserService) CheckAdminRights(ctx context.Context, userID uint64) bool {
	var u storage.User
	if err := s.db.WithContext(ctx).First(&u, "user_id = ?", userID).Error; err != nil {
		return false
	}
	return u.Admin
}

// DeleteSelf 删除当前用户；用户不存在以 not_found 失败。
func (s *UserService) DeleteSelf(ctx context.Context, userID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u storage.User
		if err := tx.First(&u, "user_id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("can't find user with this ID")
			}
			return err
		}
		return tx.Delete(&u).Error
	})
}

// Delete 删除目标用户。非本人删除要求请求方具备管理员权限。
func (s *UserService) Delete(ctx context.Context, targetID, requesterID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u storage.User
		if err := tx.First(&u, "user_id = ?", targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("can't find user with this ID")
			}
			return err
		}
		if u.UserID != requesterID && !adminRights(tx, requesterID) {
			return forbidden("you can't do it")
		}
		return tx.Delete(&u).Error
	})
}

// IDPtr 便于向审计日志传递可空的用户ID。
func (s *UserService) IDPtr(id uint64) *uint64 { return &id }

// adminRights 在给定会话内检查管理员标记；用户不存在视为 false。
func adminRights(tx *gorm.DB, userID uint64) bool {
	var u storage.User
	if err := tx.First(&u, "user_id = ?", userID).Error; err != nil {
		return false
	}
	return u.Admin
}
