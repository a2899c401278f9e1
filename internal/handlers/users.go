package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Qolorerr/Stroy-test-task/internal/metrics"
	"github.com/Qolorerr/Stroy-test-task/internal/middlewares"
)

// createUser 注册普通用户并返回身份与新签发的令牌。
// 与源接口保持一致：username 经查询参数传入。
func (h *Handler) createUser(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(400, gin.H{"error": "username_required"})
		return
	}
	u, err := h.userSvc.Create(c, username, false)
	if err != nil {
		h.writeError(c, err)
		return
	}
	metrics.UsersCreated.Inc()
	h.auditSvc.Write(c, "INFO", "USER_CREATED", h.userSvc.IDPtr(u.UserID), nil, "user registered", c.ClientIP(), middlewares.GetRequestID(c))
	c.JSON(201, gin.H{"user_id": u.UserID, "token": u.Token})
}

// createAdmin 由管理员创建新的管理员账号（AdminAuth 中间件已校验令牌与权限）。
func (h *Handler) createAdmin(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(400, gin.H{"error": "username_required"})
		return
	}
	u, err := h.userSvc.Create(c, username, true)
	if err != nil {
		h.writeError(c, err)
		return
	}
	metrics.UsersCreated.Inc()
	h.auditSvc.Write(c, "INFO", "ADMIN_CREATED", h.userSvc.IDPtr(u.UserID), nil, "admin registered", c.ClientIP(), middlewares.GetRequestID(c))
	c.JSON(201, gin.H{"user_id": u.UserID, "token": u.Token})
}

// deleteSelf 删除当前认证用户。
func (h *Handler) deleteSelf(c *gin.Context) {
	uid, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(401, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.userSvc.DeleteSelf(c, uid); err != nil {
		h.writeError(c, err)
		return
	}
	h.auditSvc.Write(c, "INFO", "USER_DELETED", h.userSvc.IDPtr(uid), nil, "self deletion", c.ClientIP(), middlewares.GetRequestID(c))
	c.Status(204)
}

// deleteUser 删除指定用户；非本人操作要求管理员权限（由服务层判定）。
func (h *Handler) deleteUser(c *gin.Context) {
	target, ok := pathID(c, "id")
	if !ok {
		return
	}
	uid, ok := middlewares.UserID(c)
	if !ok {
		c.JSON(401, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.userSvc.Delete(c, target, uid); err != nil {
		h.writeError(c, err)
		return
	}
	h.auditSvc.Write(c, "INFO", "USER_DELETED", h.userSvc.IDPtr(target), nil, "deleted by user", c.ClientIP(), middlewares.GetRequestID(c))
	c.Status(204)
}
