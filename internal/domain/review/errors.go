package review

import (
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

var (
	// ErrAlreadyReviewed 同一用户对同一本书只能评论一次
	ErrAlreadyReviewed = apperrors.ErrAlreadyReviewed

	// ErrInvalidRating 评分不是1-5的整数
	ErrInvalidRating = apperrors.ErrInvalidRating

	ErrEmptyText   = apperrors.New(apperrors.ErrCodeInvalidParams, "请填写评论内容")
	ErrTextTooLong = apperrors.New(apperrors.ErrCodeInvalidParams, "评论内容不能超过5000字")
)
