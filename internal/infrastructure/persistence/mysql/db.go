package mysql

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookreview/internal/infrastructure/config"
)

// NewDB 创建数据库连接并迁移表结构
// debug模式下SQL日志输出到logrus
func NewDB(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}
	log.Info("✓ 数据库连接成功")

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	return db, nil
}

// AutoMigrate 迁移表结构
// 唯一约束（users.username、reviews(user_id, isbn)）是并发写入的最终保证
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&BookModel{},
		&ReviewModel{},
	)
}

// UserModel GORM用户模型
// username使用utf8mb4_bin排序规则，唯一性和查询都区分大小写
type UserModel struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"type:varchar(64) COLLATE utf8mb4_bin;uniqueIndex:idx_users_username;not null;comment:用户名"`
	PasswordHash string    `gorm:"column:password_hash;size:255;not null;comment:密码（bcrypt）"`
	CreatedAt    time.Time `gorm:"comment:注册时间"`
}

func (UserModel) TableName() string {
	return "users"
}

// BookModel GORM图书模型，数据由外部导入
type BookModel struct {
	ISBN   string `gorm:"column:isbn;primaryKey;size:20;comment:ISBN号"`
	Title  string `gorm:"size:255;not null;index:idx_books_title;comment:书名"`
	Author string `gorm:"size:255;not null;index:idx_books_author;comment:作者"`
	Year   int    `gorm:"not null;comment:出版年份"`
}

func (BookModel) TableName() string {
	return "books"
}

// ReviewModel GORM评论模型
type ReviewModel struct {
	ID         uint      `gorm:"column:review_id;primaryKey"`
	ISBN       string    `gorm:"column:isbn;size:20;not null;uniqueIndex:idx_reviews_user_isbn,priority:2;index:idx_reviews_isbn;comment:ISBN号"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_reviews_user_isbn,priority:1;comment:评论者ID"`
	Rating     int       `gorm:"type:tinyint;not null;comment:评分(1-5)"`
	TextReview string    `gorm:"column:text_review;type:text;not null;comment:评论内容"`
	CreatedAt  time.Time `gorm:"comment:评论时间"`
}

func (ReviewModel) TableName() string {
	return "reviews"
}
