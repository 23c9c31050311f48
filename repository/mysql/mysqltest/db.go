// Package mysqltest 为测试提供迁移完成的内存 SQLite 数据库，
// 仓库层和服务层测试共用，避免依赖真实的 MySQL。
package mysqltest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Xushengqwer/starter_hub/models/entities"
)

// NewDB 为每个测试创建一个独立的内存数据库并完成迁移，测试结束时关闭。
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// SQLite 不支持真正的并发写，单连接即可
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(entities.Models()...))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}
