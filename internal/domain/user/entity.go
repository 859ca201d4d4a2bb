package user

import (
	"time"
)

// User 用户实体
// 用户名区分大小写，注册后不再修改；密码只保存bcrypt哈希
type User struct {
	ID           uint
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// NewUser 创建新用户，passwordHash必须是bcrypt哈希
func NewUser(username, passwordHash string) *User {
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
}
