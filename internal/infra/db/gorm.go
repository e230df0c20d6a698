package db

import (
	"fmt"

	"ordering/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
// TranslateError を有効にして、ユニーク違反を gorm.ErrDuplicatedKey で受け取る。
func Connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

// Migrate はテーブル作成（ユニーク制約もここで作られる）
func Migrate(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(
		&model.MenuItem{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusUpdate{},
		&model.Notification{},
	)
}
