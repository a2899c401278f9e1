package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// listAudit 返回最近的审计记录（管理员专用，时间倒序）。
func (h *Handler) listAudit(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	recs, err := h.auditSvc.Recent(c, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(recs))
	for _, rec := range recs {
		out = append(out, gin.H{
			"timestamp":   rec.Timestamp.Unix(),
			"level":       rec.Level,
			"event":       rec.Event,
			"user_id":     rec.UserID,
			"item_id":     rec.ItemID,
			"description": rec.Description,
			"ip":          rec.IPAddress,
			"request_id":  rec.RequestID,
		})
	}
	c.JSON(200, out)
}
