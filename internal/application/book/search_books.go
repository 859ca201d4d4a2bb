package book

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/unicode/norm"

	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/pkg/metrics"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

// SearchBooksUseCase 图书搜索用例
// 区分两种失败：没有任何搜索条件（EmptyQuery）和有条件但无结果（NoMatch）
type SearchBooksUseCase struct {
	bookService book.Service
	log         logrus.FieldLogger
}

// NewSearchBooksUseCase 创建搜索用例
func NewSearchBooksUseCase(bookService book.Service, log logrus.FieldLogger) *SearchBooksUseCase {
	return &SearchBooksUseCase{
		bookService: bookService,
		log:         log,
	}
}

// SearchBooksRequest 搜索请求，三个字段都是原始输入
type SearchBooksRequest struct {
	ISBN   string
	Title  string
	Author string
}

// SearchBooksResponse 搜索结果
type SearchBooksResponse struct {
	List  []BookDTO `json:"list"`
	Total int       `json:"total"`
}

// Execute 执行搜索
func (uc *SearchBooksUseCase) Execute(ctx context.Context, req SearchBooksRequest) (*SearchBooksResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "SearchBooksUseCase.Execute")
	defer span.End()

	params := book.SearchParams{
		ISBN:   normalizeQuery(req.ISBN),
		Title:  normalizeQuery(req.Title),
		Author: normalizeQuery(req.Author),
	}

	books, err := uc.bookService.Search(ctx, params)
	if err != nil {
		if errors.Is(err, book.ErrEmptyQuery) {
			metrics.IncCounterVec(metrics.SearchesTotal, "empty_query")
		} else {
			metrics.IncCounterVec(metrics.SearchesTotal, "failure")
			tracing.RecordError(span, err)
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("search.results", len(books)))
	if len(books) == 0 {
		metrics.IncCounterVec(metrics.SearchesTotal, "no_match")
		return nil, book.ErrNoMatch
	}
	metrics.IncCounterVec(metrics.SearchesTotal, "found")

	list := make([]BookDTO, len(books))
	for i, b := range books {
		list[i] = toBookDTO(b)
	}
	return &SearchBooksResponse{List: list, Total: len(list)}, nil
}

// normalizeQuery 去掉首尾空白，NFC归一化，连续空白合并为一个空格
func normalizeQuery(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}
