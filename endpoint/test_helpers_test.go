package endpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ariebrainware/crm-backend/auth"
	"github.com/ariebrainware/crm-backend/model"
	"github.com/ariebrainware/crm-backend/util"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	svc    *auth.Service
	tokens *auth.TokenIssuer
}

// setupEndpointTest returns a router over a fresh in-memory database with the
// built-in roles seeded.
func setupEndpointTest(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:endpointdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	require.NoError(t, model.SeedRoles(db))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	security := util.NewSecurityLogger(log, db)

	registry := prometheus.NewRegistry()
	metrics := auth.NewMetrics(registry)

	svc := auth.NewService(auth.ServiceOptions{
		DB:       db,
		Hasher:   util.NewPasswordHasher(bcrypt.MinCost),
		Security: security,
		Metrics:  metrics,
	})
	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Key:      []byte("endpoint-test-key"),
		Issuer:   "crm",
		Audience: "crm-clients",
	})
	require.NoError(t, err)
	tokens.WithMetrics(metrics)

	router := NewRouter(RouterConfig{
		AppName:  "CRM",
		Auth:     svc,
		Tokens:   tokens,
		Security: security,
		Gatherer: registry,
	})
	return &testEnv{router: router, db: db, svc: svc, tokens: tokens}
}

func (e *testEnv) roleID(t *testing.T, name string) uint {
	t.Helper()
	var role model.Role
	require.NoError(t, e.db.Where("name = ?", name).First(&role).Error)
	return role.ID
}

// createUser registers a user with the given role and returns it.
func (e *testEnv) createUser(t *testing.T, username, password, role string) *model.User {
	t.Helper()
	user, err := e.svc.Register(context.Background(), auth.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
		RoleID:   e.roleID(t, role),
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

// bearer returns an Authorization header for a fresh user with role.
func (e *testEnv) bearer(t *testing.T, username, role string) (map[string]string, *model.User) {
	t.Helper()
	user := e.createUser(t, username, "password-123", role)
	token, err := e.tokens.Issue(user)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}, user
}

type testRequest struct {
	method      string
	requestPath string
	body        interface{}
	headers     map[string]string
}

func performRequest(r *gin.Engine, tr testRequest) (*httptest.ResponseRecorder, map[string]interface{}, error) {
	var reader *strings.Reader
	setJSONHeader := false
	switch v := tr.body.(type) {
	case nil:
		reader = strings.NewReader("")
	case string:
		reader = strings.NewReader(v)
		setJSONHeader = true
	default:
		b, _ := json.Marshal(tr.body)
		reader = strings.NewReader(string(b))
		setJSONHeader = true
	}

	req := httptest.NewRequest(tr.method, tr.requestPath, reader)
	if setJSONHeader {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range tr.headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			return w, nil, err
		}
	}
	return w, response, nil
}

func mustRequest(t *testing.T, r *gin.Engine, tr testRequest) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w, response, err := performRequest(r, tr)
	require.NoError(t, err)
	return w, response
}
