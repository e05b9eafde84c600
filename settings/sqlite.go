package settings

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Setting 是 setting 表的一行。
type Setting struct {
	Key          string `gorm:"column:setting_key;primaryKey"`
	Value        string `gorm:"column:value;type:text"`
	LastModified time.Time
}

// TableName 与 Spoolman 的表名保持一致。
func (Setting) TableName() string { return "setting" }

// SQL 是基于 gorm 的设置存储。
type SQL struct {
	db     *gorm.DB
	closed atomic.Bool
}

// OpenSQLite 打开 SQLite 数据库文件；path 为空时使用内存数据库。
func OpenSQLite(path string) (*SQL, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("打开设置数据库失败: %w", err)
	}
	if path == "" {
		// 每个连接都有独立的内存数据库，只能保留一个连接
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return NewSQL(db)
}

// NewSQL 在已有连接上创建存储，并确保表结构存在。
func NewSQL(db *gorm.DB) (*SQL, error) {
	if err := db.AutoMigrate(&Setting{}); err != nil {
		return nil, fmt.Errorf("迁移设置表失败: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrClosed
	}
	var row Setting
	err := s.db.WithContext(ctx).Where("setting_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("读取设置 %s 失败: %w", key, err)
	}
	return row.Value, true, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	row := Setting{Key: key, Value: value, LastModified: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "last_modified"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("写入设置 %s 失败: %w", key, err)
	}
	return nil
}

func (s *SQL) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
