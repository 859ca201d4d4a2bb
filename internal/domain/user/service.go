package user

import (
	"context"
	"errors"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

const (
	// DefaultBcryptCost 默认bcrypt cost
	DefaultBcryptCost = 12

	maxUsernameLength = 64
	// bcrypt只使用前72字节，超出部分会被拒绝
	maxPasswordBytes = 72
)

// Service 凭证服务：注册与凭证校验
type Service interface {
	// Register 注册新用户，用户名已存在时返回ErrDuplicateUsername
	Register(ctx context.Context, username, password string) (*User, error)

	// Verify 校验用户名和密码
	// 用户名不存在返回ErrUnknownUsername，密码不匹配返回ErrInvalidPassword
	Verify(ctx context.Context, username, password string) (*User, error)

	// FindByID 按ID查询用户
	FindByID(ctx context.Context, id uint) (*User, error)
}

type service struct {
	repo       Repository
	bcryptCost int
}

// NewService 创建凭证服务，cost<=0时使用DefaultBcryptCost
func NewService(repo Repository, bcryptCost int) Service {
	if bcryptCost <= 0 {
		bcryptCost = DefaultBcryptCost
	}
	return &service{repo: repo, bcryptCost: bcryptCost}
}

// Register 用户注册
// 先查一次用户名给出友好提示；并发注册同名用户时由唯一索引兜底，
// Repository把唯一约束冲突转换为ErrDuplicateUsername
func (s *service) Register(ctx context.Context, username, password string) (*User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	_, err := s.repo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, ErrDuplicateUsername
	case !errors.Is(err, ErrUnknownUsername):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.Wrap(err, "密码加密失败")
	}

	user := NewUser(username, string(hash))
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Verify 凭证校验
func (s *service) Verify(ctx context.Context, username, password string) (*User, error) {
	if username == "" {
		return nil, ErrEmptyUsername
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := comparePassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) FindByID(ctx context.Context, id uint) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func comparePassword(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return ErrInvalidPassword
	}
	return apperrors.Wrap(err, "密码验证失败")
}

func validateCredentials(username, password string) error {
	if username == "" {
		return ErrEmptyUsername
	}
	if password == "" {
		return ErrEmptyPassword
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return ErrUsernameTooLong
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}
