package mysql

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/xiebiao/bookreview/internal/domain/book"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

// bookRepository 图书仓储（MySQL），只读
type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB) book.Repository {
	return &bookRepository{db: db}
}

func (r *bookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	var model BookModel
	err := getDB(ctx, r.db).Where("isbn = ?", isbn).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// Search 多字段模糊搜索
// 生成的SQL形如：
//
//	SELECT * FROM books WHERE LOWER(isbn) LIKE ? OR LOWER(title) LIKE ? LIMIT 10
func (r *bookRepository) Search(ctx context.Context, params book.SearchParams, limit int) ([]*book.Book, error) {
	if params.IsEmpty() {
		return nil, book.ErrEmptyQuery
	}
	if limit <= 0 || limit > book.MaxSearchResults {
		limit = book.MaxSearchResults
	}

	var (
		conds []string
		args  []interface{}
	)
	for _, f := range []struct {
		column  string
		pattern string
	}{
		{"isbn", params.ISBN},
		{"title", params.Title},
		{"author", params.Author},
	} {
		if f.pattern == "" {
			continue
		}
		conds = append(conds, "LOWER("+f.column+") LIKE ?")
		args = append(args, containsPattern(f.pattern))
	}

	var models []BookModel
	err := getDB(ctx, r.db).
		Where(strings.Join(conds, " OR "), args...).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "搜索图书失败")
	}

	books := make([]*book.Book, 0, len(models))
	for i := range models {
		books = append(books, toBookEntity(&models[i]))
	}
	return books, nil
}

func toBookEntity(model *BookModel) *book.Book {
	return &book.Book{
		ISBN:   model.ISBN,
		Title:  model.Title,
		Author: model.Author,
		Year:   model.Year,
	}
}
