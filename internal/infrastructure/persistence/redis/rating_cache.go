package redis

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/rating"
)

// cachedRatingProvider 缓存外部评分查询成功的结果，失败结果不缓存
type cachedRatingProvider struct {
	next  rating.Provider
	cache *CacheStore
	ttl   time.Duration
	log   logrus.FieldLogger
}

// NewCachedRatingProvider 包装外部评分查询
func NewCachedRatingProvider(next rating.Provider, cache *CacheStore, ttl time.Duration, log logrus.FieldLogger) rating.Provider {
	return &cachedRatingProvider{next: next, cache: cache, ttl: ttl, log: log}
}

func (p *cachedRatingProvider) LookupRatingCount(ctx context.Context, isbn string) (*rating.Info, error) {
	key := "rating:" + isbn

	var info rating.Info
	hit, err := p.cache.GetJSON(ctx, key, &info)
	if err != nil {
		p.log.WithError(err).WithField("isbn", isbn).Debug("读取评分缓存失败")
	}
	if hit {
		return &info, nil
	}

	fresh, err := p.next.LookupRatingCount(ctx, isbn)
	if err != nil {
		return nil, err
	}

	if err := p.cache.SetJSON(ctx, key, fresh, p.ttl); err != nil {
		p.log.WithError(err).WithField("isbn", isbn).Debug("写入评分缓存失败")
	}
	return fresh, nil
}
