package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/Qolorerr/Stroy-test-task/internal/metrics"
	"github.com/Qolorerr/Stroy-test-task/internal/services"
)

// writeError 是领域错误到 HTTP 状态码的唯一映射表：
// unauthorized→401、forbidden→403、not_found→404，其余（存储故障等）一律 500。
func (h *Handler) writeError(c *gin.Context, err error) {
	if kind, ok := services.AsKind(err); ok {
		switch kind {
		case services.KindUnauthorized:
			metrics.AuthFailures.WithLabelValues("unauthorized").Inc()
			c.JSON(401, gin.H{"error": err.Error()})
		case services.KindForbidden:
			metrics.AuthFailures.WithLabelValues("forbidden").Inc()
			c.JSON(403, gin.H{"error": err.Error()})
		case services.KindNotFound:
			c.JSON(404, gin.H{"error": err.Error()})
		}
		return
	}
	log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	c.JSON(500, gin.H{"error": "internal"})
}

// pathID 解析路径中的数值ID；非法时写出 400 并返回 false。
func pathID(c *gin.Context, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"error": "bad_id"})
		return 0, false
	}
	return v, true
}

// queryUint / queryFloat / queryInt 解析可选查询参数；缺失返回 nil，非法返回错误。
func queryUint(c *gin.Context, name string) (*uint64, bool) {
	s := c.Query(name)
	if s == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func queryFloat(c *gin.Context, name string) (*float64, bool) {
	s := c.Query(name)
	if s == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func queryInt(c *gin.Context, name string) (*int, bool) {
	s := c.Query(name)
	if s == "" {
		return nil, true
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return nil, false
	}
	return &v, true
}
