package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Qolorerr/Stroy-test-task/internal/config"
	"github.com/Qolorerr/Stroy-test-task/internal/middlewares"
	"github.com/Qolorerr/Stroy-test-task/internal/services"
	"github.com/Qolorerr/Stroy-test-task/internal/storage"
)

// newTestServer 装配与 cmd/server 相同形态的路由（内存 SQLite、无 Redis 限流）。
func newTestServer(t *testing.T) (*gin.Engine, *services.UserService, *services.ItemService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, storage.AutoMigrate(db, config.Config{}))

	userSvc := services.NewUserService(db)
	itemSvc := services.NewItemService(db)
	auditSvc := services.NewAuditService(db)

	r := gin.New()
	r.Use(middlewares.RequestID())
	New(config.Config{}, userSvc, itemSvc, auditSvc, nil).RegisterRoutes(r)
	return r, userSvc, itemSvc
}

func doReq(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewBuffer(b)
	} else {
		buf = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Token", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type userResp struct {
	UserID uint64 `json:"user_id"`
	Token  string `json:"token"`
}

func createUserHTTP(t *testing.T, r *gin.Engine, username string) userResp {
	t.Helper()
	w := doReq(t, r, "POST", "/users?username="+username, "", nil)
	require.Equal(t, 201, w.Code)
	var u userResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u))
	require.NotZero(t, u.UserID)
	require.NotEmpty(t, u.Token)
	return u
}

func TestUserLifecycle(t *testing.T) {
	r, _, _ := newTestServer(t)

	u := createUserHTTP(t, r, "alice")

	// 自删 204；令牌随之失效，重复请求 401
	require.Equal(t, 204, doReq(t, r, "DELETE", "/users", u.Token, nil).Code)
	require.Equal(t, 401, doReq(t, r, "DELETE", "/users", u.Token, nil).Code)
}

func TestCreateUserRequiresUsername(t *testing.T) {
	r, _, _ := newTestServer(t)
	require.Equal(t, 400, doReq(t, r, "POST", "/users", "", nil).Code)
}

func TestAdminCreation(t *testing.T) {
	r, userSvc, _ := newTestServer(t)
	admin, err := userSvc.Create(context.Background(), "root", true)
	require.NoError(t, err)
	regular := createUserHTTP(t, r, "alice")

	require.Equal(t, 401, doReq(t, r, "POST", "/users/admin?username=boss", "", nil).Code)
	require.Equal(t, 401, doReq(t, r, "POST", "/users/admin?username=boss", "bogus", nil).Code)
	require.Equal(t, 403, doReq(t, r, "POST", "/users/admin?username=boss", regular.Token, nil).Code)

	w := doReq(t, r, "POST", "/users/admin?username=boss", admin.Token, nil)
	require.Equal(t, 201, w.Code)
	var u userResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u))
	// 新管理员立即具备管理员权限
	require.NoError(t, userSvc.VerifyAdmin(context.Background(), u.Token))
}

func TestAuditListingIsAdminOnly(t *testing.T) {
	r, userSvc, _ := newTestServer(t)
	admin, err := userSvc.Create(context.Background(), "root", true)
	require.NoError(t, err)
	regular := createUserHTTP(t, r, "alice")

	require.Equal(t, 401, doReq(t, r, "GET", "/audit", "", nil).Code)
	require.Equal(t, 403, doReq(t, r, "GET", "/audit", regular.Token, nil).Code)

	w := doReq(t, r, "GET", "/audit?limit=10", admin.Token, nil)
	require.Equal(t, 200, w.Code)
	var recs []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	// 上面的注册操作已留下 USER_CREATED 审计记录
	require.NotEmpty(t, recs)
	require.Equal(t, "USER_CREATED", recs[0]["event"])
}

func TestDeleteUserAuthorization(t *testing.T) {
	r, userSvc, _ := newTestServer(t)
	admin, err := userSvc.Create(context.Background(), "root", true)
	require.NoError(t, err)
	victim := createUserHTTP(t, r, "victim")
	peer := createUserHTTP(t, r, "peer")

	target := "/users/" + itoa(victim.UserID)
	require.Equal(t, 403, doReq(t, r, "DELETE", target, peer.Token, nil).Code)
	require.Equal(t, 204, doReq(t, r, "DELETE", target, admin.Token, nil).Code)
	require.Equal(t, 404, doReq(t, r, "DELETE", target, admin.Token, nil).Code)
	require.Equal(t, 400, doReq(t, r, "DELETE", "/users/abc", admin.Token, nil).Code)
}

func TestItemCRUDOverHTTP(t *testing.T) {
	r, _, _ := newTestServer(t)
	owner := createUserHTTP(t, r, "alice")
	outsider := createUserHTTP(t, r, "bob")

	// 未认证创建被拒
	body := map[string]interface{}{"tag_ids": []uint64{1, 2, 3}, "content": "Some new product", "price": 5.99}
	require.Equal(t, 401, doReq(t, r, "POST", "/items", "", body).Code)

	w := doReq(t, r, "POST", "/items", owner.Token, body)
	require.Equal(t, 201, w.Code)
	var created struct {
		ItemID uint64 `json:"item_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	itemPath := "/items/" + itoa(created.ItemID)

	// 单查公开可见
	w = doReq(t, r, "GET", itemPath, "", nil)
	require.Equal(t, 200, w.Code)
	var view services.ItemView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Equal(t, owner.UserID, view.OwnerID)
	require.ElementsMatch(t, []uint64{1, 2, 3}, view.TagIDs)
	require.Equal(t, view.CreatedAt, view.UpdatedAt)

	// 非所有者补丁 403；不存在的条目 404
	patch := map[string]interface{}{"tag_ids": []uint64{2}}
	require.Equal(t, 403, doReq(t, r, "PATCH", itemPath, outsider.Token, patch).Code)
	require.Equal(t, 404, doReq(t, r, "PATCH", "/items/99999", owner.Token, patch).Code)

	// 所有者补丁：标签整组替换
	require.Equal(t, 200, doReq(t, r, "PATCH", itemPath, owner.Token, patch).Code)
	w = doReq(t, r, "GET", itemPath, "", nil)
	require.Equal(t, 200, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Equal(t, []uint64{2}, view.TagIDs)

	// 删除：非所有者 403，所有者 204，重复 404
	require.Equal(t, 403, doReq(t, r, "DELETE", itemPath, outsider.Token, nil).Code)
	require.Equal(t, 204, doReq(t, r, "DELETE", itemPath, owner.Token, nil).Code)
	require.Equal(t, 404, doReq(t, r, "DELETE", itemPath, owner.Token, nil).Code)
	require.Equal(t, 404, doReq(t, r, "GET", itemPath, "", nil).Code)
}

func TestListItemsHTTP(t *testing.T) {
	r, _, _ := newTestServer(t)
	owner := createUserHTTP(t, r, "alice")
	for _, b := range []map[string]interface{}{
		{"tag_ids": []uint64{1, 2, 3}, "content": "Some new product", "price": 5.99},
		{"tag_ids": []uint64{1, 4}, "content": "Some used product", "price": 15.30},
		{"tag_ids": []uint64{2, 4}, "content": "Some free product", "price": 0},
	} {
		require.Equal(t, 201, doReq(t, r, "POST", "/items", owner.Token, b).Code)
	}

	var views []services.ItemView
	w := doReq(t, r, "GET", "/items?price_less_than=10", "", nil)
	require.Equal(t, 200, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 2)

	// 未知标签：空列表而非错误
	w = doReq(t, r, "GET", "/items?tag_id=999", "", nil)
	require.Equal(t, 200, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Empty(t, views)

	// 非法查询参数
	require.Equal(t, 400, doReq(t, r, "GET", "/items?price_less_than=abc", "", nil).Code)
	require.Equal(t, 400, doReq(t, r, "GET", "/items?limit=-1", "", nil).Code)

	w = doReq(t, r, "GET", "/items?limit=1&offset=1", "", nil)
	require.Equal(t, 200, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)
	require.Equal(t, 15.30, views[0].Price)
}

func TestHealthz(t *testing.T) {
	r, _, _ := newTestServer(t)
	w := doReq(t, r, "GET", "/healthz", "", nil)
	require.Equal(t, 200, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	// 请求ID回写
	require.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func itoa(v uint64) string { return strconv.FormatUint(v, 10) }
