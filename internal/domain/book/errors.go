package book

import (
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.ErrBookNotFound

	// ErrEmptyQuery 所有搜索条件都为空
	ErrEmptyQuery = apperrors.ErrEmptyQuery

	// ErrNoMatch 有搜索条件但没有匹配结果（由搜索编排层返回，仓储层返回空切片）
	ErrNoMatch = apperrors.ErrNoMatch
)
