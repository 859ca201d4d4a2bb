package user

import (
	"context"
)

// Repository 用户仓储接口
// 实现在infrastructure/persistence/mysql
type Repository interface {
	// Create 创建用户，用户名冲突时返回ErrDuplicateUsername
	Create(ctx context.Context, user *User) error

	// FindByID 不存在时返回ErrUnknownUsername
	FindByID(ctx context.Context, id uint) (*User, error)

	// FindByUsername 精确匹配（区分大小写），不存在时返回ErrUnknownUsername
	FindByUsername(ctx context.Context, username string) (*User, error)
}
