package redis

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/book"
)

// DefaultBookCacheTTL 目录只读，详情可以缓存较长时间
const DefaultBookCacheTTL = 6 * time.Hour

// cachedBookRepository 给图书仓储加一层读缓存
// 只缓存FindByISBN，搜索结果不缓存；缓存故障时直接回源
type cachedBookRepository struct {
	next  book.Repository
	cache *CacheStore
	ttl   time.Duration
	log   logrus.FieldLogger
}

// NewCachedBookRepository 包装图书仓储
func NewCachedBookRepository(next book.Repository, cache *CacheStore, ttl time.Duration, log logrus.FieldLogger) book.Repository {
	if ttl <= 0 {
		ttl = DefaultBookCacheTTL
	}
	return &cachedBookRepository{next: next, cache: cache, ttl: ttl, log: log}
}

type cachedBook struct {
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   int    `json:"year"`
}

func (r *cachedBookRepository) FindByISBN(ctx context.Context, isbn string) (*book.Book, error) {
	key := bookKey(isbn)

	var cached cachedBook
	hit, err := r.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		r.log.WithError(err).WithField("isbn", isbn).Warn("读取图书缓存失败")
	}
	if hit {
		return &book.Book{ISBN: cached.ISBN, Title: cached.Title, Author: cached.Author, Year: cached.Year}, nil
	}

	b, err := r.next.FindByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}

	entry := cachedBook{ISBN: b.ISBN, Title: b.Title, Author: b.Author, Year: b.Year}
	if err := r.cache.SetJSON(ctx, key, entry, r.ttl); err != nil {
		r.log.WithError(err).WithField("isbn", isbn).Warn("写入图书缓存失败")
	}
	return b, nil
}

func (r *cachedBookRepository) Search(ctx context.Context, params book.SearchParams, limit int) ([]*book.Book, error) {
	return r.next.Search(ctx, params, limit)
}

func bookKey(isbn string) string {
	return "book:" + isbn
}
