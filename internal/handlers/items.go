package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Qolorerr/Stroy-test-task/internal/metrics"
	"github.com/Qolorerr/Stroy-test-task/internal/middlewares"
	"github.com/Qolorerr/Stroy-test-task/internal/services"
)

// listItems 按可选的合取过滤条件返回条目列表。
// 过滤引用不存在的标签时返回空列表而非错误。
func (h *Handler) listItems(c *gin.Context) {
	var f services.ListFilter
	var ok bool
	if f.OwnerID, ok = queryUint(c, "owner_id"); !ok {
		c.JSON(400, gin.H{"error": "bad_owner_id"})
		return
	}
	if f.TagID, ok = queryUint(c, "tag_id"); !ok {
		c.JSON(400, gin.H{"error": "bad_tag_id"})
		return
	}
	if f.PriceMoreThan, ok = queryFloat(c, "price_more_than"); !ok {
		c.JSON(400, gin.H{"error": "bad_price_more_than"})
		return
	}
	if f.PriceLessThan, ok = queryFloat(c, "price_less_than"); !ok {
		c.JSON(400, gin.H{"error": "bad_price_less_than"})
		return
	}
	if f.Limit, ok = queryInt(c, "limit"); !ok {
		c.JSON(400, gin.H{"error": "bad_limit"})
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		c.JSON(400, gin.H{"error": "bad_offset"})
		return
	}
	if offset != nil {
		f.Offset = *offset
	}
	views, err := h.itemSvc.List(c, f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(200, views)
}

// getItem 返回单个条目视图。
func (h *Handler) getItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.itemSvc.Get(c, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(200, view)
}

// createItem 以当前用户为所有者创建条目。
func (h *Handler) createItem(c *gin.Context) {
	uid, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(401, gin.H{"error": "unauthorized"})
		return
	}
	var req services.CreateItem
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "bad_request"})
		return
	}
	itemID, err := h.itemSvc.Create(c, uid, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	metrics.ItemsCreated.Inc()
	h.auditSvc.Write(c, "INFO", "ITEM_CREATED", h.userSvc.IDPtr(uid), &itemID, "item created", c.ClientIP(), middlewares.GetRequestID(c))
	c.JSON(201, gin.H{"item_id": itemID})
}

// patchItem 对条目做部分更新；权限判定（所有者或管理员）在服务层完成。
func (h *Handler) patchItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	uid, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(401, gin.H{"error": "unauthorized"})
		return
	}
	var req services.PatchItem
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "bad_request"})
		return
	}
	if err := h.itemSvc.Patch(c, id, uid, req); err != nil {
		h.writeError(c, err)
		return
	}
	h.auditSvc.Write(c, "INFO", "ITEM_PATCHED", h.userSvc.IDPtr(uid), &id, "item patched", c.ClientIP(), middlewares.GetRequestID(c))
	c.Status(200)
}

// deleteItem 删除条目及其标签关联。
func (h *Handler) deleteItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	uid, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(401, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.itemSvc.Delete(c, id, uid); err != nil {
		h.writeError(c, err)
		return
	}
	h.auditSvc.Write(c, "INFO", "ITEM_DELETED", h.userSvc.IDPtr(uid), &id, "item deleted", c.ClientIP(), middlewares.GetRequestID(c))
	c.Status(204)
}
