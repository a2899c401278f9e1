package storage

import (
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Qolorerr/Stroy-test-task/internal/config"
)

// 本文件定义服务使用的所有 GORM 模型，集中管理数据结构。

// User 持有不透明的 Bearer 令牌与管理员标记。
// 令牌按精确字符串匹配解析身份，唯一索引保证一个令牌至多对应一名用户。
type User struct {
	UserID    uint64 `gorm:"column:user_id;primaryKey;autoIncrement"`
	Username  string `gorm:"size:190"` // 用户名不要求唯一
	Token     string `gorm:"size:190;uniqueIndex"`
	Admin     bool   `gorm:"index"`
	CreatedAt time.Time
}

// Item 的 OwnerID 在创建后不可变；时间戳以 ISO-8601 字符串存储。
type Item struct {
	ItemID    uint64  `gorm:"column:item_id;primaryKey;autoIncrement"`
	OwnerID   uint64  `gorm:"index"`
	Content   string  `gorm:"type:text"`
	Price     float64 `gorm:"index"`
	CreatedAt string  `gorm:"size:64"`
	UpdatedAt string  `gorm:"size:64"`
}

// Tag 的主键由调用方提供，首次引用未知 tag_id 时隐式创建；从不删除。
type Tag struct {
	TagID uint64 `gorm:"column:tag_id;primaryKey;autoIncrement:false"`
}

// ItemTag 是条目与标签的多对多关联；自增主键同时充当关联顺序。
type ItemTag struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	ItemID uint64 `gorm:"index"`
	TagID  uint64 `gorm:"index"`
}

// AuditRecord 持久化变更操作的审计轨迹。
type AuditRecord struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Timestamp   time.Time `gorm:"index"`
	Level       string    `gorm:"size:16;index"`
	Event       string    `gorm:"size:64;index"`
	UserID      *uint64   `gorm:"index"`
	ItemID      *uint64   `gorm:"index"`
	Description string    `gorm:"type:text"`
	IPAddress   string    `gorm:"size:64"`
	RequestID   string    `gorm:"size:64;index"`
}

// AutoMigrate 执行数据库自动迁移，并在首次建表后按配置种入初始管理员。
func AutoMigrate(db *gorm.DB, cfg config.Config) error {
	if err := db.AutoMigrate(&User{}, &Item{}, &Tag{}, &ItemTag{}, &AuditRecord{}); err != nil {
		return err
	}
	return bootstrapInitialAdmin(db, cfg)
}

// bootstrapInitialAdmin 在用户表为空时创建首个管理员。
// 创建管理员的 HTTP 接口要求已有管理员令牌，没有这一步系统将无法进入管理状态。
func bootstrapInitialAdmin(db *gorm.DB, cfg config.Config) error {
	ia := cfg.Bootstrap.InitialAdmin
	if !ia.Enable {
		return nil
	}
	var cnt int64
	if err := db.Model(&User{}).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt > 0 {
		return nil
	}
	token := ia.Token
	if token == "" {
		token = uuid.NewString()
	}
	u := &User{Username: ia.Username, Token: token, Admin: true}
	if err := db.Create(u).Error; err != nil {
		return err
	}
	if ia.Token == "" {
		// 仅在自动生成时打印一次，便于首次部署后接管
		log.WithFields(log.Fields{"user_id": u.UserID, "token": token}).Warn("initial admin created with generated token")
	} else {
		log.WithField("user_id", u.UserID).Info("initial admin created")
	}
	return nil
}
