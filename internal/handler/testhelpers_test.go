package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/auditgate/auditgate/internal/audit"
	"github.com/auditgate/auditgate/internal/middleware"
	"github.com/auditgate/auditgate/internal/model"
	"github.com/auditgate/auditgate/internal/repository"
	"github.com/auditgate/auditgate/internal/service"
)

// testServer carries the wired API plus direct database access so tests
// can seed fixtures and inspect the audit trail behind the handlers.
type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	auth   *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repository.Migrate(db))

	auditRepo := repository.NewAuditRepo(db)
	recorder := audit.NewRecorder(auditRepo)
	recorder.SetReady()

	productRepo := repository.NewProductRepo(db, recorder)
	categoryRepo := repository.NewCategoryRepo(db, recorder)
	userRepo := repository.NewUserRepo(db, recorder)

	authSvc := service.NewAuthService(userRepo, recorder, "test-secret", time.Hour)
	productSvc := service.NewProductService(productRepo, categoryRepo, recorder)
	auditSvc := service.NewAuditQueryService(auditRepo, nil)

	authHandler := NewAuthHandler(authSvc)
	productHandler := NewProductHandler(productSvc)
	categoryHandler := NewCategoryHandler(productSvc)
	auditHandler := NewAuditHandler(auditSvc)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.ErrorHandler(), middleware.Correlation())

	router.POST("/v1/auth/login", authHandler.Login)

	authed := router.Group("/v1", middleware.Auth(authSvc))
	authed.POST("/auth/logout", authHandler.Logout)
	productHandler.RegisterRoutes(authed.Group("/products"))
	categoryHandler.RegisterRoutes(authed.Group("/categories"))
	auditHandler.RegisterRoutes(authed.Group("/audit"))

	return &testServer{router: router, db: db, auth: authSvc}
}

func (s *testServer) user(t *testing.T, username string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{Username: username, Role: role, IsActive: true}
	require.NoError(t, user.SetPassword("secret"))
	require.NoError(t, s.db.Create(user).Error)
	return user
}

func (s *testServer) category(t *testing.T, name string) *model.Category {
	t.Helper()
	category := &model.Category{Name: name, Slug: model.Slugify(name)}
	require.NoError(t, s.db.Create(category).Error)
	return category
}

// token logs the user in through the API and returns the bearer token.
func (s *testServer) token(t *testing.T, username string) string {
	t.Helper()
	resp := s.request(t, http.MethodPost, "/v1/auth/login", "", gin.H{
		"username": username,
		"password": "secret",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body model.LoginResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body.Token
}

func (s *testServer) request(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

func decodeJSON[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out
}
