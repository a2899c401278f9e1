package middlewares

// 认证中间件：在处理器执行前把 Token 请求头解析为 user_id。
// 缺失令牌由边界直接拒绝，服务层只处理非空令牌。

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Qolorerr/Stroy-test-task/internal/metrics"
	"github.com/Qolorerr/Stroy-test-task/internal/services"
)

const ctxUserID = "user_id"

// TokenAuth 校验 Token 请求头并把解析出的 user_id 存入请求上下文。
// 令牌缺失或无效一律 401。
func TokenAuth(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Token")
		if token == "" {
			metrics.AuthFailures.WithLabelValues("missing_token").Inc()
			c.AbortWithStatusJSON(401, gin.H{"error": "unauthorized"})
			return
		}
		uid, err := users.VerifyToken(c, token)
		if err != nil {
			if errors.Is(err, services.ErrUnauthorized) {
				metrics.AuthFailures.WithLabelValues("unauthorized").Inc()
				c.AbortWithStatusJSON(401, gin.H{"error": err.Error()})
			} else {
				c.AbortWithStatusJSON(500, gin.H{"error": "internal"})
			}
			return
		}
		c.Set(ctxUserID, uid)
		c.Next()
	}
}

// AdminAuth 校验 Token 请求头且要求管理员身份：非法令牌 401，非管理员 403。
func AdminAuth(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Token")
		if token == "" {
			metrics.AuthFailures.WithLabelValues("missing_token").Inc()
			c.AbortWithStatusJSON(401, gin.H{"error": "unauthorized"})
			return
		}
		if err := users.VerifyAdmin(c, token); err != nil {
			switch {
			case errors.Is(err, services.ErrUnauthorized):
				metrics.AuthFailures.WithLabelValues("unauthorized").Inc()
				c.AbortWithStatusJSON(401, gin.H{"error": err.Error()})
			case errors.Is(err, services.ErrForbidden):
				metrics.AuthFailures.WithLabelValues("forbidden").Inc()
				c.AbortWithStatusJSON(403, gin.H{"error": err.Error()})
			default:
				c.AbortWithStatusJSON(500, gin.H{"error": "internal"})
			}
			return
		}
		c.Next()
	}
}

// UserID 读取 TokenAuth 存入的 user_id。
func UserID(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	uid, ok := v.(uint64)
	return uid, ok
}
