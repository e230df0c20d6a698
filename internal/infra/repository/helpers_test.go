package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ordering/internal/domain/model"
	"ordering/internal/infra/db"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// テストごとに独立したインメモリDB
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func seedMenuItem(t *testing.T, gdb *gorm.DB, name string, price string) model.MenuItem {
	t.Helper()

	m := model.MenuItem{
		Name:        name,
		Description: name,
		Price:       decimal.RequireFromString(price),
		Category:    "Kabab Specialties",
		Available:   true,
	}
	require.NoError(t, gdb.WithContext(context.Background()).Create(&m).Error)
	return m
}
