package review

import (
	"context"
)

// Repository 评论仓储接口
type Repository interface {
	// HasReviewed 用户是否已评论过该书
	HasReviewed(ctx context.Context, userID uint, isbn string) (bool, error)

	// Create 保存评论，(user_id, isbn)唯一约束冲突时返回ErrAlreadyReviewed
	Create(ctx context.Context, review *Review) error

	// ListByISBN 按评论ID升序返回该书全部评论
	// 评论者不存在时Username为UnknownUsername
	ListByISBN(ctx context.Context, isbn string) ([]*View, error)
}
