package user

import (
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

var (
	// ErrDuplicateUsername 用户名已被注册
	ErrDuplicateUsername = apperrors.ErrUsernameDuplicate

	// ErrUnknownUsername 用户名不存在
	ErrUnknownUsername = apperrors.ErrUserNotFound

	// ErrInvalidPassword 密码错误
	ErrInvalidPassword = apperrors.ErrInvalidPassword

	ErrEmptyUsername   = apperrors.New(apperrors.ErrCodeInvalidParams, "请输入用户名")
	ErrEmptyPassword   = apperrors.New(apperrors.ErrCodeInvalidParams, "请输入密码")
	ErrUsernameTooLong = apperrors.New(apperrors.ErrCodeInvalidParams, "用户名不能超过64个字符")
	ErrPasswordTooLong = apperrors.New(apperrors.ErrCodeInvalidParams, "密码不能超过72个字节")
)
