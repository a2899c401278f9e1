package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/Qolorerr/Stroy-test-task/internal/config"
	"github.com/Qolorerr/Stroy-test-task/internal/metrics"
	"github.com/Qolorerr/Stroy-test-task/internal/middlewares"
	"github.com/Qolorerr/Stroy-test-task/internal/services"
)

// Handler 聚合所有依赖（配置、服务）并注册全部 HTTP 路由。
type Handler struct {
	cfg      config.Config
	userSvc  *services.UserService
	itemSvc  *services.ItemService
	auditSvc *services.AuditService
	rdb      *redis.Client
}

// New 构造 Handler，将各领域服务注入，用于后续路由注册与处理。
func New(cfg config.Config, us *services.UserService, is *services.ItemService, as *services.AuditService, rdb *redis.Client) *Handler {
	return &Handler{cfg: cfg, userSvc: us, itemSvc: is, auditSvc: as, rdb: rdb}
}

// RegisterRoutes 在 Gin 路由上挂载用户与条目的全部端点。
// 认证经由 Token 头中间件完成，处理器拿到的是已解析的 user_id。
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	auth := middlewares.TokenAuth(h.userSvc)

	window := h.cfg.Limits.Window
	if window <= 0 {
		window = time.Minute
	}

	// 用户：注册、自删、指定删除、创建管理员
	users := r.Group("/users")
	users.POST("", middlewares.RateLimit(h.rdb, "signup", h.cfg.Limits.SignupPerMinute, window, func(c *gin.Context) string { return c.ClientIP() }), h.createUser)
	users.DELETE("", auth, h.deleteSelf)
	users.DELETE("/:id", auth, h.deleteUser)
	users.POST("/admin", middlewares.AdminAuth(h.userSvc), h.createAdmin)

	// 条目：列表与单查公开，写操作要求认证
	items := r.Group("/items")
	items.GET("", h.listItems)
	items.GET("/:id", h.getItem)
	items.POST("", auth, h.createItem)
	items.PATCH("/:id", auth, h.patchItem)
	items.DELETE("/:id", auth, h.deleteItem)

	// 运维端点
	r.GET("/metrics", h.metrics)
	r.GET("/healthz", h.healthz)
	// 审计记录查询（管理员）
	r.GET("/audit", middlewares.AdminAuth(h.userSvc), h.listAudit)
}

// metrics 暴露 Prometheus 指标。
func (h *Handler) metrics(c *gin.Context) { metrics.Exposer()(c) }

// healthz 健康检查。
func (h *Handler) healthz(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) }
