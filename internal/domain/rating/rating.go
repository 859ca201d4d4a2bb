package rating

import (
	"context"

	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

// ErrExternalUnavailable 外部评分服务失败、超时或熔断
// 只在聚合层内部使用，不会作为请求失败返回给调用方
var ErrExternalUnavailable = apperrors.ErrExternalUnavailable

// Info 外部评分信息
type Info struct {
	ISBN          string  `json:"isbn"`
	RatingsCount  int     `json:"ratings_count"`
	AverageRating float64 `json:"average_rating"`
}

// Provider 外部评分查询能力
type Provider interface {
	// LookupRatingCount 按ISBN查询评分数，失败时返回ErrExternalUnavailable
	LookupRatingCount(ctx context.Context, isbn string) (*Info, error)
}

// DisabledProvider 未配置外部服务时使用，总是返回ErrExternalUnavailable
type DisabledProvider struct{}

func (DisabledProvider) LookupRatingCount(context.Context, string) (*Info, error) {
	return nil, ErrExternalUnavailable
}
