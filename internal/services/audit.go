package services

// 审计服务：把变更操作的轨迹持久化到数据库，便于审计与排查。
// 写入为尽力而为，失败不影响业务请求。

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Qolorerr/Stroy-test-task/internal/storage"
)

// AuditService 将审计记录持久化到数据库。
type AuditService struct{ db *gorm.DB }

func NewAuditService(db *gorm.DB) *AuditService { return &AuditService{db: db} }

// Write 写入一条审计记录。
func (s *AuditService) Write(ctx context.Context, level, event string, userID, itemID *uint64, desc, ip, requestID string) {
	_ = s.db.WithContext(ctx).Create(&storage.AuditRecord{
		Timestamp:   time.Now(),
		Level:       level,
		Event:       event,
		UserID:      userID,
		ItemID:      itemID,
		Description: desc,
		IPAddress:   ip,
		RequestID:   requestID,
	}).Error
}

// Recent 返回最近的若干条审计记录（时间倒序）。
func (s *AuditService) Recent(ctx context.Context, limit int) ([]storage.AuditRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var recs []storage.AuditRecord
	if err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
