package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ariebrainware/crm-backend/auth"
	"github.com/ariebrainware/crm-backend/model"
	"github.com/ariebrainware/crm-backend/util"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newInMemoryDB creates an in-memory sqlite DB with the system_logs table.
func newInMemoryDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:mwdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := db.AutoMigrate(&model.SystemLog{}); err != nil {
		t.Fatalf("failed to auto-migrate: %v", err)
	}
	return db
}

// newBufferLogger returns a security logger writing text lines to buf.
func newBufferLogger(buf *bytes.Buffer, db *gorm.DB) *util.SecurityLogger {
	l := logrus.New()
	l.SetOutput(buf)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	return util.NewSecurityLogger(l, db)
}

func setGinTestMode() {
	gin.SetMode(gin.TestMode)
}

func newTestIssuer(t *testing.T) *auth.TokenIssuer {
	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{
		Key:      []byte("middleware-test-key"),
		Issuer:   "crm",
		Audience: "crm-clients",
	})
	if err != nil {
		t.Fatalf("failed to create token issuer: %v", err)
	}
	return issuer
}

func issueToken(t *testing.T, issuer *auth.TokenIssuer, id uint, role string) string {
	user := &model.User{Username: "tester", Role: model.Role{Name: role}}
	user.ID = id
	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

type gateParams struct {
	security *util.SecurityLogger
	roles    []string
	header   string
}

// runGateRequest sends GET /protected through RequireAuth (and RequireRoles
// when roles are given) and returns the recorder plus what the handler saw.
func runGateRequest(t *testing.T, issuer *auth.TokenIssuer, p gateParams) (*httptest.ResponseRecorder, map[string]interface{}) {
	setGinTestMode()
	r := gin.New()
	r.Use(RequestID(), SecurityLoggerMiddleware(p.security))

	seen := map[string]interface{}{}
	handlers := []gin.HandlerFunc{RequireAuth(issuer)}
	if len(p.roles) > 0 {
		handlers = append(handlers, RequireRoles(p.roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		seen["userID"], _ = GetUserID(c)
		seen["username"], _ = GetUsername(c)
		seen["role"], _ = GetRole(c)
		c.Status(http.StatusOK)
	})
	r.GET("/protected", handlers...)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	if p.header != "" {
		req.Header.Set("Authorization", p.header)
	}
	r.ServeHTTP(w, req)
	return w, seen
}

func TestCORSMiddleware(t *testing.T) {
	setGinTestMode()
	r := gin.New()
	r.Use(CORSMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if got := w.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("expected Access-Control-Allow-Origin header to be set")
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
		t.Fatalf("expected Authorization in allowed headers, got %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	setGinTestMode()
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if seen == "" || w.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("expected generated request id to be echoed, got %q / %q", seen, w.Header().Get(RequestIDHeader))
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "client-id-1")
	r.ServeHTTP(w, req)
	if seen != "client-id-1" {
		t.Fatalf("expected client request id to be kept, got %q", seen)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	r.ServeHTTP(w, req)
	if len(seen) > maxRequestIDLength {
		t.Fatalf("expected oversized request id to be replaced, got %d chars", len(seen))
	}
}

func TestRequireAuth_ValidTokenSetsContext(t *testing.T) {
	issuer := newTestIssuer(t)
	token := issueToken(t, issuer, 42, model.RoleAdmin)

	w, seen := runGateRequest(t, issuer, gateParams{header: "Bearer " + token})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if seen["userID"] != uint(42) {
		t.Errorf("expected userID 42, got %v", seen["userID"])
	}
	if seen["username"] != "tester" {
		t.Errorf("expected username tester, got %v", seen["username"])
	}
	if seen["role"] != model.RoleAdmin {
		t.Errorf("expected role Admin, got %v", seen["role"])
	}
}

func TestRequireAuth_Rejects(t *testing.T) {
	issuer := newTestIssuer(t)
	other, err := auth.NewTokenIssuer(auth.TokenConfig{Key: []byte("other"), Issuer: "crm", Audience: "crm-clients"})
	if err != nil {
		t.Fatalf("failed to create issuer: %v", err)
	}
	token := issueToken(t, issuer, 1, model.RoleUser)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + token},
		{"bearer without token", "Bearer "},
		{"garbage token", "Bearer abc.def.ghi"},
		{"foreign signature", "Bearer " + issueToken(t, other, 1, model.RoleUser)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := runGateRequest(t, issuer, gateParams{header: tt.header})
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), `"success":false`) {
				t.Errorf("expected error envelope, got %s", w.Body.String())
			}
		})
	}
}

func TestRequireAuth_LogsUnauthorizedAccess(t *testing.T) {
	db := newInMemoryDB(t)
	var buf bytes.Buffer
	issuer := newTestIssuer(t)

	w, _ := runGateRequest(t, issuer, gateParams{security: newBufferLogger(&buf, db)})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(buf.String(), "event=UNAUTHORIZED_ACCESS") {
		t.Errorf("expected UNAUTHORIZED_ACCESS in log, got %s", buf.String())
	}

	var count int64
	db.Model(&model.SystemLog{}).Where("event_type = ?", string(util.EventUnauthorizedAccess)).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 persisted event, got %d", count)
	}
}

func TestRequireRoles(t *testing.T) {
	issuer := newTestIssuer(t)
	allowList := []string{model.RoleUser, model.RoleAdmin, model.RoleSalesperson}

	tests := []struct {
		name   string
		role   string
		roles  []string
		expect int
	}{
		{"user allowed", model.RoleUser, allowList, http.StatusOK},
		{"salesperson allowed", model.RoleSalesperson, allowList, http.StatusOK},
		{"admin only rejects user", model.RoleUser, []string{model.RoleAdmin}, http.StatusForbidden},
		{"match is exact", "admin", []string{model.RoleAdmin}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := issueToken(t, issuer, 5, tt.role)
			w, _ := runGateRequest(t, issuer, gateParams{header: "Bearer " + token, roles: tt.roles})
			if w.Code != tt.expect {
				t.Fatalf("expected %d, got %d", tt.expect, w.Code)
			}
		})
	}
}

func TestRequireRoles_LogsForbiddenAccess(t *testing.T) {
	var buf bytes.Buffer
	issuer := newTestIssuer(t)
	token := issueToken(t, issuer, 9, model.RoleUser)

	w, _ := runGateRequest(t, issuer, gateParams{
		security: newBufferLogger(&buf, nil),
		roles:    []string{model.RoleAdmin},
		header:   "Bearer " + token,
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if !strings.Contains(buf.String(), "event=FORBIDDEN_ACCESS") {
		t.Errorf("expected FORBIDDEN_ACCESS in log, got %s", buf.String())
	}
	if !strings.Contains(buf.String(), "user_id=9") {
		t.Errorf("expected user id in log, got %s", buf.String())
	}
}

func TestRequireRoles_WithoutAuthIsForbidden(t *testing.T) {
	setGinTestMode()
	r := gin.New()
	r.GET("/admin", RequireRoles(model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/admin", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
