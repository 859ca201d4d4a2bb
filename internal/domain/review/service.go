package review

import (
	"context"
)

// Service 评论领域服务
type Service interface {
	HasReviewed(ctx context.Context, userID uint, isbn string) (bool, error)

	// AddReview 添加评论：先检查是否已评论，插入时再由唯一约束兜底
	AddReview(ctx context.Context, userID uint, isbn string, rating int, text string) (*Review, error)

	ListReviews(ctx context.Context, isbn string) ([]*View, error)
}

type service struct {
	repo Repository
}

// NewService 创建评论服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) HasReviewed(ctx context.Context, userID uint, isbn string) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	return s.repo.HasReviewed(ctx, userID, isbn)
}

func (s *service) AddReview(ctx context.Context, userID uint, isbn string, rating int, text string) (*Review, error) {
	r, err := NewReview(userID, isbn, rating, text)
	if err != nil {
		return nil, err
	}

	reviewed, err := s.repo.HasReviewed(ctx, userID, isbn)
	if err != nil {
		return nil, err
	}
	if reviewed {
		return nil, ErrAlreadyReviewed
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *service) ListReviews(ctx context.Context, isbn string) ([]*View, error) {
	views, err := s.repo.ListByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		if v.Username == "" {
			v.Username = UnknownUsername
		}
	}
	return views, nil
}
