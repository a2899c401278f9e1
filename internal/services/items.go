package services

// 条目服务：带标签关联的 CRUD、基于所有权的授权与多谓词过滤。
// 列表结果固定按 item_id 升序返回（原始实现依赖数据库默认顺序，这里显式化）。

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Qolorerr/Stroy-test-task/internal/storage"
)

// timeLayout 与源系统一致：不带时区的 ISO-8601 微秒精度字符串。
const timeLayout = "2006-01-02T15:04:05.000000"

// ItemService 提供条目的创建、查询、部分更新与删除。
type ItemService struct{ db *gorm.DB }

func NewItemService(db *gorm.DB) *ItemService { return &ItemService{db: db} }

// ItemView 是条目对外的规范形态，列表与单查共用。
// TagIDs 按关联建立顺序排列。
type ItemView struct {
	ItemID    uint64   `json:"item_id"`
	TagIDs    []uint64 `json:"tag_ids"`
	OwnerID   uint64   `json:"owner_id"`
	Content   string   `json:"content"`
	Price     float64  `json:"price"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// ListFilter 的全部条件可选且取合取（AND）；价格比较为严格不等。
// 分页在查询结果之上切片：offset 始终生效，limit 缺省表示取到结尾。
type ListFilter struct {
	OwnerID       *uint64
	TagID         *uint64
	PriceMoreThan *float64
	PriceLessThan *float64
	Limit         *int
	Offset        int
}

// CreateItem 是创建条目的入参；未知 tag_id 会被隐式建立。
type CreateItem struct {
	TagIDs  []uint64 `json:"tag_ids"`
	Content string   `json:"content"`
	Price   float64  `json:"price"`
}

// PatchItem 是部分更新：nil 字段保持不变；TagIDs 非 nil 时整组替换。
type PatchItem struct {
	TagIDs  *[]uint64 `json:"tag_ids"`
	Content *string   `json:"content"`
	Price   *float64  `json:"price"`
}

// List 按过滤条件返回条目视图。
// 过滤引用了不存在的标签时直接短路返回空列表（设计内行为，不是错误）。
func (s *ItemService) List(ctx context.Context, f ListFilter) ([]ItemView, error) {
	db := s.db.WithContext(ctx)
	if f.TagID != nil {
		var tag storage.Tag
		if err := db.First(&tag, "tag_id = ?", *f.TagID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return []ItemView{}, nil
			}
			return nil, err
		}
	}

	q := db.Model(&storage.Item{})
	if f.TagID != nil {
		q = q.Joins("JOIN item_tags ON item_tags.item_id = items.item_id").
			Where("item_tags.tag_id = ?", *f.TagID)
	}
	if f.OwnerID != nil {
		q = q.Where("items.owner_id = ?", *f.OwnerID)
	}
	if f.PriceMoreThan != nil {
		q = q.Where("items.price > ?", *f.PriceMoreThan)
	}
	if f.PriceLessThan != nil {
		q = q.Where("items.price < ?", *f.PriceLessThan)
	}
	var items []storage.Item
	if err := q.Order("items.item_id ASC").Find(&items).Error; err != nil {
		return nil, err
	}

	items = paginate(items, f.Limit, f.Offset)
	tagsByItem, err := loadTagIDs(db, items)
	if err != nil {
		return nil, err
	}
	views := make([]ItemView, 0, len(items))
	for _, it := range items {
		views = append(views, render(it, tagsByItem[it.ItemID]))
	}
	return views, nil
}

// Get 返回单个条目的视图；不存在以 not_found 失败。
func (s *ItemService) Get(ctx context.Context, itemID uint64) (*ItemView, error) {
	db := s.db.WithContext(ctx)
	var it storage.Item
	if err := db.First(&it, "item_id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("can't find item with this ID")
		}
		return nil, err
	}
	tagsByItem, err := loadTagIDs(db, []storage.Item{it})
	if err != nil {
		return nil, err
	}
	v := render(it, tagsByItem[it.ItemID])
	return &v, nil
}

// Create 在同一事务内创建条目、按需物化标签并建立关联，返回新条目ID。
func (s *ItemService) Create(ctx context.Context, ownerID uint64, in CreateItem) (uint64, error) {
	var itemID uint64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().Format(timeLayout)
		it := &storage.Item{OwnerID: ownerID, Content: in.Content, Price: in.Price, CreatedAt: now, UpdatedAt: now}
		if err := tx.Create(it).Error; err != nil {
			return err
		}
		if err := attachTags(tx, it.ItemID, in.TagIDs); err != nil {
			return err
		}
		itemID = it.ItemID
		return nil
	})
	return itemID, err
}

// Patch 对条目做部分更新。请求方必须是所有者或管理员。
// TagIDs 非 nil 时关联整组替换（先清空再重建，未知标签照常物化）。
// 无论更新了哪些字段，UpdatedAt 都会刷新。
func (s *ItemService) Patch(ctx context.Context, itemID, requesterID uint64, in PatchItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it storage.Item
		if err := tx.First(&it, "item_id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("can't find item with this ID")
			}
			return err
		}
		if it.OwnerID != requesterID && !adminRights(tx, requesterID) {
			return forbidden("you can't do it")
		}
		if in.TagIDs != nil {
			if err := tx.Where("item_id = ?", it.ItemID).Delete(&storage.ItemTag{}).Error; err != nil {
				return err
			}
			if err := attachTags(tx, it.ItemID, *in.TagIDs); err != nil {
				return err
			}
		}
		if in.Content != nil {
			it.Content = *in.Content
		}
		if in.Price != nil {
			it.Price = *in.Price
		}
		it.UpdatedAt = time.Now().Format(timeLayout)
		return tx.Save(&it).Error
	})
}

// Delete 删除条目及其标签关联（标签本身保留，允许孤儿标签存在）。
// 请求方必须是所有者或管理员。重复删除以 not_found 失败，不做静默幂等。
func (s *ItemService) Delete(ctx context.Context, itemID, requesterID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it storage.Item
		if err := tx.First(&it, "item_id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("can't find item with this ID")
			}
			return err
		}
		if it.OwnerID != requesterID && !adminRights(tx, requesterID) {
			return forbidden("you can't do it")
		}
		if err := tx.Where("item_id = ?", it.ItemID).Delete(&storage.ItemTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&it).Error
	})
}

// attachTags 按给定顺序建立条目与标签的关联；未知 tag_id 先物化为标签行。
func attachTags(tx *gorm.DB, itemID uint64, tagIDs []uint64) error {
	for _, tid := range tagIDs {
		var tag storage.Tag
		if err := tx.First(&tag, "tag_id = ?", tid).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := tx.Create(&storage.Tag{TagID: tid}).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(&storage.ItemTag{ItemID: itemID, TagID: tid}).Error; err != nil {
			return err
		}
	}
	return nil
}

// loadTagIDs 批量加载一组条目的 tag_id 列表，按关联行ID（即建立顺序）排序。
func loadTagIDs(db *gorm.DB, items []storage.Item) (map[uint64][]uint64, error) {
	out := make(map[uint64][]uint64, len(items))
	if len(items) == 0 {
		return out, nil
	}
	ids := make([]uint64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ItemID)
	}
	var links []storage.ItemTag
	if err := db.Where("item_id IN ?", ids).Order("id ASC").Find(&links).Error; err != nil {
		return nil, err
	}
	for _, l := range links {
		out[l.ItemID] = append(out[l.ItemID], l.TagID)
	}
	return out, nil
}

// paginate 在内存中的结果集上应用 offset/limit 切片。
func paginate(items []storage.Item, limit *int, offset int) []storage.Item {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit != nil && *limit >= 0 && *limit < len(items) {
		items = items[:*limit]
	}
	return items
}

func render(it storage.Item, tagIDs []uint64) ItemView {
	if tagIDs == nil {
		tagIDs = []uint64{}
	}
	return ItemView{
		ItemID:    it.ItemID,
		TagIDs:    tagIDs,
		OwnerID:   it.OwnerID,
		Content:   it.Content,
		Price:     it.Price,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}
