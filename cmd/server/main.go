package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/Qolorerr/Stroy-test-task/internal/config"
	"github.com/Qolorerr/Stroy-test-task/internal/handlers"
	"github.com/Qolorerr/Stroy-test-task/internal/metrics"
	"github.com/Qolorerr/Stroy-test-task/internal/middlewares"
	"github.com/Qolorerr/Stroy-test-task/internal/services"
	"github.com/Qolorerr/Stroy-test-task/internal/storage"
)

// main 为服务入口：加载配置、初始化日志/存储/服务、注册路由并启动 HTTP 服务。
func main() {
	// 配置结构化日志格式
	log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	// 加载配置（以配置文件为主，配合内置默认值）
	cfg := config.Load()
	// 生产环境基线检查：禁止默认数据库口令与固定管理员令牌进入生产。
	if cfg.Env == "prod" {
		if cfg.MySQL.Password == "123456" || cfg.MySQL.Password == "password" || cfg.MySQL.Password == "" {
			log.Fatal("insecure mysql password in prod; configure mysql.password in config.yaml")
		}
		if strings.Contains(cfg.MySQL.User, "root") {
			log.Warn("using MySQL root in prod is discouraged")
		}
		if cfg.Bootstrap.InitialAdmin.Enable && cfg.Bootstrap.InitialAdmin.Token != "" {
			log.Warn("bootstrap.initial_admin.token is set; rotate it after first login")
		}
	}
	log.WithFields(log.Fields{
		"env":        cfg.Env,
		"http_addr":  cfg.HTTPAddr,
		"mysql_dsn":  cfg.MySQL.DSNMasked(),
		"redis_addr": cfg.Redis.Addr,
	}).Info("configuration loaded")

	// 初始化存储（MySQL + Redis）
	db, err := storage.InitMySQL(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect mysql")
	}
	defer storage.CloseMySQL(db)

	rdb, err := storage.InitRedis(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect redis")
	}
	defer func() { _ = rdb.Close() }()

	// 初始化核心服务
	userSvc := services.NewUserService(db)
	itemSvc := services.NewItemService(db)
	auditSvc := services.NewAuditService(db)

	// HTTP 路由与中间件
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestID())
	router.Use(middlewares.RequestLogger())
	router.Use(middlewares.SecurityHeaders(cfg))
	router.Use(metrics.Handler())

	// 装载 HTTP 处理器
	h := handlers.New(cfg, userSvc, itemSvc, auditSvc, rdb)
	h.RegisterRoutes(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("starting http server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	// 优雅退出
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown")
	} else {
		log.Info("server stopped")
	}
}
