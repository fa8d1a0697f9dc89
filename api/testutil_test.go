package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"fixedpay/config"
	"fixedpay/middleware"
	"fixedpay/models"
	"fixedpay/router"
	"fixedpay/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// testEnv 基于本地存储的完整路由测试环境
type testEnv struct {
	router *gin.Engine
	store  *store.LocalStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{Port: ":0", Mode: gin.TestMode},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireHours: 1, ExpireTime: time.Hour},
	}
	middleware.InitJWT(cfg)

	st, err := store.NewLocalStore("")
	require.NoError(t, err)

	return &testEnv{
		router: router.SetupRouter(cfg, st),
		store:  st,
	}
}

// newUser 直接写入存储并生成可用的登录 token
func (env *testEnv) newUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username: username,
		Password: string(hashed),
		Email:    username + "@example.com",
		Theme:    models.ThemeSystem,
	}
	require.NoError(t, env.store.CreateUser(user))

	token, err := middleware.GenerateToken(user.ID, user.Username, time.Hour)
	require.NoError(t, err)
	return user, token
}

// do 发起请求，body 为 nil 时不带请求体
func (env *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// decodeData 解析响应并把 data 字段反序列化到 out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, http.StatusOK, envelope.Code, "message: %s", envelope.Message)
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
