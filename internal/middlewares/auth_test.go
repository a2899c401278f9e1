package middlewares

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Qolorerr/Stroy-test-task/internal/config"
	"github.com/Qolorerr/Stroy-test-task/internal/services"
	"github.com/Qolorerr/Stroy-test-task/internal/storage"
)

func TestTokenAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, storage.AutoMigrate(db, config.Config{}))

	users := services.NewUserService(db)
	u, err := users.Create(context.Background(), "alice", false)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/whoami", TokenAuth(users), func(c *gin.Context) {
		uid, ok := UserID(c)
		require.True(t, ok)
		c.JSON(200, gin.H{"user_id": uid})
	})

	// 缺失与无效令牌都是 401，有效令牌放行并注入 user_id
	for _, tc := range []struct {
		token string
		code  int
	}{
		{"", 401},
		{"bogus", 401},
		{u.Token, 200},
	} {
		req := httptest.NewRequest("GET", "/whoami", nil)
		if tc.token != "" {
			req.Header.Set("Token", tc.token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, tc.code, w.Code, "token=%q", tc.token)
	}
}
