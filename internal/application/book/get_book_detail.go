package book

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/xiebiao/bookreview/internal/domain/auth"
	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/domain/rating"
	"github.com/xiebiao/bookreview/internal/domain/review"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

// DefaultRatingTimeout 外部评分查询的默认超时
const DefaultRatingTimeout = 3 * time.Second

// GetBookDetailUseCase 图书详情用例
// 本地评论和外部评分并发获取；外部评分失败不影响页面，ExternalRating为nil
type GetBookDetailUseCase struct {
	bookService   book.Service
	reviewService review.Service
	ratings       rating.Provider
	ratingTimeout time.Duration
	log           logrus.FieldLogger
}

// NewGetBookDetailUseCase 创建详情用例
func NewGetBookDetailUseCase(
	bookService book.Service,
	reviewService review.Service,
	ratings rating.Provider,
	ratingTimeout time.Duration,
	log logrus.FieldLogger,
) *GetBookDetailUseCase {
	if ratingTimeout <= 0 {
		ratingTimeout = DefaultRatingTimeout
	}
	return &GetBookDetailUseCase{
		bookService:   bookService,
		reviewService: reviewService,
		ratings:       ratings,
		ratingTimeout: ratingTimeout,
		log:           log,
	}
}

// GetBookDetailRequest 详情请求
type GetBookDetailRequest struct {
	Identity auth.Identity
	ISBN     string
}

// BookDetailResponse 详情页数据
type BookDetailResponse struct {
	Book           BookDTO     `json:"book"`
	Reviews        []ReviewDTO `json:"reviews"`
	ReviewCount    int         `json:"review_count"`
	AverageRating  float64     `json:"average_rating"`
	ExternalRating *RatingDTO  `json:"external_rating"`
	HasReviewed    bool        `json:"has_reviewed"`
}

// Execute 执行详情查询
func (uc *GetBookDetailUseCase) Execute(ctx context.Context, req GetBookDetailRequest) (*BookDetailResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "GetBookDetailUseCase.Execute")
	defer span.End()

	b, err := uc.bookService.GetBookByISBN(ctx, req.ISBN)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	var (
		views       []*review.View
		hasReviewed bool
		external    *rating.Info
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		views, err = uc.reviewService.ListReviews(gctx, b.ISBN)
		return err
	})
	g.Go(func() error {
		var err error
		hasReviewed, err = uc.reviewService.HasReviewed(gctx, req.Identity.UserID(), b.ISBN)
		return err
	})
	g.Go(func() error {
		external = uc.lookupRating(gctx, b.ISBN)
		return nil
	})
	if err := g.Wait(); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	stats := review.Summarize(views)
	reviews := make([]ReviewDTO, len(views))
	for i, v := range views {
		reviews[i] = toReviewDTO(v)
	}

	return &BookDetailResponse{
		Book:           toBookDTO(b),
		Reviews:        reviews,
		ReviewCount:    stats.Count,
		AverageRating:  stats.AverageRating,
		ExternalRating: toRatingDTO(external),
		HasReviewed:    hasReviewed,
	}, nil
}

// lookupRating 失败只记日志
func (uc *GetBookDetailUseCase) lookupRating(ctx context.Context, isbn string) *rating.Info {
	ctx, cancel := context.WithTimeout(ctx, uc.ratingTimeout)
	defer cancel()

	ctx, span := tracing.StartSpan(ctx, "RatingProvider.LookupRatingCount")
	defer span.End()

	info, err := uc.ratings.LookupRatingCount(ctx, isbn)
	if err != nil {
		uc.log.WithError(err).WithField("isbn", isbn).Warn("外部评分不可用")
		return nil
	}
	return info
}
