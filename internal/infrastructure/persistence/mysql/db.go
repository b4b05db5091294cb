package mysql

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. 开发环境开启SQL日志，生产环境关闭
// 4. 自动迁移表结构（AutoMigrate）
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.Database.DSN()

	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info // 开发环境打印SQL
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true, // 唯一索引冲突转换为gorm.ErrDuplicatedKey
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

	log.Println("✓ 数据库连接成功")

	// 自动迁移表结构（开发环境）
	// 注意：生产环境应使用专门的迁移工具（如golang-migrate）
	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// autoMigrate 自动迁移表结构
// 注意:这里使用GORM的模型定义(带tag),不是domain层的实体
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&BookModel{},
		&ReviewModel{},
	)
}

// UserModel GORM用户模型
// 设计说明：
// 1. 这是infrastructure层的数据模型，包含GORM tag
// 2. domain/user/entity.go是领域实体，不依赖GORM
// 3. Repository负责两者之间的转换
type UserModel struct {
	ID         uint           `gorm:"primaryKey"`
	Email      string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password   string         `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	Nickname   string         `gorm:"size:50;not null;comment:昵称"`
	ProfileKey string         `gorm:"size:255;not null;comment:头像对象key"`
	CreatedAt  time.Time      `gorm:"comment:创建时间"`
	UpdatedAt  time.Time      `gorm:"comment:更新时间"`
	DeletedAt  gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// BookModel GORM图书模型
// 设计说明:
// 1. Title/Author建FULLTEXT索引供长关键词搜索;短关键词走普通索引列匹配
// 2. CoverKey/DocumentKey存对象存储key,URL在读路径动态解析
// 3. Genre/Author加普通索引优化列表过滤
type BookModel struct {
	ID          uint           `gorm:"primaryKey"`
	Title       string         `gorm:"index:idx_title;index:idx_fulltext,class:FULLTEXT;size:200;not null;comment:书名"`
	Author      string         `gorm:"index:idx_author;index:idx_fulltext,class:FULLTEXT;size:100;not null;comment:作者"`
	Genre       string         `gorm:"index;size:50;comment:分类"`
	CoverKey    string         `gorm:"size:500;not null;comment:封面图对象key"`
	DocumentKey string         `gorm:"size:500;comment:文档对象key"`
	OwnerID     uint           `gorm:"index;not null;comment:录入者用户ID"`
	CreatedAt   time.Time      `gorm:"index;comment:创建时间"` // 列表排序索引
	UpdatedAt   time.Time      `gorm:"comment:更新时间"`
	DeletedAt   gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// ReviewModel GORM评论模型
// 设计说明:
// 1. (BookID, UserID)复合唯一索引:同一用户对同一本书只能评论一次
// 2. 平均评分不落库,读路径用AVG实时聚合
type ReviewModel struct {
	ID        uint           `gorm:"primaryKey"`
	BookID    uint           `gorm:"uniqueIndex:idx_book_user;index;not null;comment:图书ID"`
	UserID    uint           `gorm:"uniqueIndex:idx_book_user;not null;comment:评论者用户ID"`
	Rating    int            `gorm:"type:tinyint;not null;comment:评分(1-5)"`
	Comment   string         `gorm:"type:text;comment:评论内容"`
	CreatedAt time.Time      `gorm:"index;comment:创建时间"` // 列表排序索引
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (ReviewModel) TableName() string {
	return "reviews"
}
