package auth_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ariebrainware/crm-backend/auth"
	"github.com/ariebrainware/crm-backend/model"
	"github.com/ariebrainware/crm-backend/util"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a fresh in-memory database with every table migrated and
// the built-in roles seeded.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:authdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	return db
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestService(db *gorm.DB) *auth.Service {
	return auth.NewService(auth.ServiceOptions{
		DB:       db,
		Hasher:   util.NewPasswordHasher(bcrypt.MinCost),
		Security: util.NewSecurityLogger(quietLogger(), db),
	})
}

func roleID(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	var role model.Role
	require.NoError(t, db.Where("name = ?", name).First(&role).Error)
	return role.ID
}

func mustRegister(t *testing.T, svc *auth.Service, db *gorm.DB, username, password string) *model.User {
	t.Helper()
	user, err := svc.Register(context.Background(), auth.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
		RoleID:   roleID(t, db, model.RoleUser),
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

func countRows(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}
