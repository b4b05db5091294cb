package user

import (
	"context"
)

// Repository 用户仓储接口
// 接口定义在domain层,MySQL实现在infrastructure/persistence/mysql。
// 错误契约:找不到返回errors.ErrUserNotFound,
// 邮箱唯一冲突返回errors.ErrEmailDuplicate,其余包装为数据库错误
type Repository interface {
	// Create 创建用户(含头像对象key)
	Create(ctx context.Context, user *User) error

	// FindByID 根据ID查找用户
	FindByID(ctx context.Context, id uint) (*User, error)

	// FindByEmail 根据邮箱查找用户(登录路径)
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Update 更新用户资料,只覆盖昵称;邮箱、密码与头像key不在此更新
	Update(ctx context.Context, user *User) error

	// Delete 删除用户(软删除)
	Delete(ctx context.Context, id uint) error
}
