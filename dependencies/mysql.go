package dependencies

import (
	"fmt"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Xushengqwer/starter_hub/config"
	"github.com/Xushengqwer/starter_hub/models/entities"
)

// InitMySQL 初始化 MySQL 连接、配置连接池并迁移全部实体。
// - TranslateError 打开后，唯一约束冲突会被翻译成 gorm.ErrDuplicatedKey，服务层据此判断“已存在”。
func InitMySQL(cfg *config.StarterHubConfig, logger *core.ZapLogger) (*gorm.DB, error) {
	if cfg.MySQLConfig.DSN == "" {
		return nil, fmt.Errorf("MySQL DSN 未配置")
	}

	gormConfig := &gorm.Config{
		Logger:         core.NewGormLogger(logger, cfg.GormLogConfig),
		TranslateError: true,
	}

	dsnPreview := previewDSN(cfg.MySQLConfig.DSN)
	logger.Info("正在连接 MySQL", zap.String("dsn_preview", dsnPreview))

	var db *gorm.DB
	err := connectWithRetry(logger, "mysql", func() error {
		var openErr error
		if db, openErr = gorm.Open(mysql.Open(cfg.MySQLConfig.DSN), gormConfig); openErr != nil {
			return openErr
		}
		sqlDB, openErr := db.DB()
		if openErr != nil {
			return openErr
		}
		return sqlDB.Ping()
	})
	if err != nil {
		logger.Error("无法连接到数据库", zap.Error(err), zap.String("dsn_preview", dsnPreview))
		return nil, fmt.Errorf("无法连接到数据库 (DSN: %s): %w", dsnPreview, err)
	}

	// 获取通用数据库对象 sql.DB 以便进行底层操作
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("无法获取数据库对象", zap.Error(err))
		return nil, fmt.Errorf("无法获取数据库对象: %w", err)
	}

	// 配置连接池
	sqlDB.SetMaxIdleConns(cfg.MySQLConfig.MaxIdleConn)
	sqlDB.SetMaxOpenConns(cfg.MySQLConfig.MaxOpenConn)
	lifetime := cfg.MySQLConfig.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	sqlDB.SetConnMaxLifetime(lifetime)

	if cfg.MySQLConfig.SkipMigrate {
		logger.Info("成功连接到 MySQL，已跳过自动迁移")
		return db, nil
	}
	if err = db.AutoMigrate(entities.Models()...); err != nil {
		logger.Error("数据库迁移失败", zap.Error(err))
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	logger.Info("成功连接到 MySQL 并完成自动迁移", zap.Int("models", len(entities.Models())))
	return db, nil
}

// previewDSN 把 DSN 中 user:password@ 的密码部分替换为 ****，用于日志。
func previewDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	colon := strings.Index(dsn[:at], ":")
	if colon < 0 {
		return dsn
	}
	return dsn[:colon+1] + "****" + dsn[at:]
}
