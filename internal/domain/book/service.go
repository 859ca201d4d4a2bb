package book

import (
	"context"
)

// Service 目录查询服务
type Service interface {
	// GetBookByISBN 根据ISBN获取图书
	GetBookByISBN(ctx context.Context, isbn string) (*Book, error)

	// Search 按ISBN/书名/作者模糊搜索，最多MaxSearchResults条
	Search(ctx context.Context, params SearchParams) ([]*Book, error)
}

type service struct {
	repo Repository
}

// NewService 创建目录查询服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetBookByISBN(ctx context.Context, isbn string) (*Book, error) {
	if isbn == "" {
		return nil, ErrBookNotFound
	}
	return s.repo.FindByISBN(ctx, isbn)
}

func (s *service) Search(ctx context.Context, params SearchParams) ([]*Book, error) {
	if params.IsEmpty() {
		return nil, ErrEmptyQuery
	}

	books, err := s.repo.Search(ctx, params, MaxSearchResults)
	if err != nil {
		return nil, err
	}
	if len(books) > MaxSearchResults {
		books = books[:MaxSearchResults]
	}
	return books, nil
}
