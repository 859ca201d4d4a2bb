package review

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xiebiao/bookreview/internal/domain/auth"
	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/domain/review"
	"github.com/xiebiao/bookreview/pkg/metrics"
	"github.com/xiebiao/bookreview/pkg/mq"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

const publishTimeout = 2 * time.Second

// Transactor 事务管理（MySQL TxManager实现）
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// AddReviewUseCase 添加评论用例
// 1. 解析评分（表单里是字符串）
// 2. 事务内：确认图书存在 → 检查是否已评论 → 插入
// 3. 提交后发布review.created事件（失败只记日志）
type AddReviewUseCase struct {
	tx            Transactor
	bookService   book.Service
	reviewService review.Service
	publisher     mq.Publisher
	log           logrus.FieldLogger
}

// NewAddReviewUseCase 创建添加评论用例
func NewAddReviewUseCase(
	tx Transactor,
	bookService book.Service,
	reviewService review.Service,
	publisher mq.Publisher,
	log logrus.FieldLogger,
) *AddReviewUseCase {
	return &AddReviewUseCase{
		tx:            tx,
		bookService:   bookService,
		reviewService: reviewService,
		publisher:     publisher,
		log:           log,
	}
}

// AddReviewRequest 添加评论请求
type AddReviewRequest struct {
	Identity auth.Identity
	ISBN     string
	Rating   string
	Text     string
}

// AddReviewResponse 添加评论响应
type AddReviewResponse struct {
	ID        uint   `json:"id"`
	ISBN      string `json:"isbn"`
	Rating    int    `json:"rating"`
	Text      string `json:"text_review"`
	CreatedAt string `json:"created_at"`
}

// Execute 执行添加评论
func (uc *AddReviewUseCase) Execute(ctx context.Context, req AddReviewRequest) (*AddReviewResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "AddReviewUseCase.Execute")
	defer span.End()

	decision := auth.Guard(req.Identity, "")
	if !decision.Authorized() {
		return nil, decision.Err()
	}
	userID := decision.UserID()

	rating, err := review.ParseRating(req.Rating)
	if err != nil {
		return nil, err
	}

	var created *review.Review
	err = uc.tx.Transaction(ctx, func(ctx context.Context) error {
		if _, err := uc.bookService.GetBookByISBN(ctx, req.ISBN); err != nil {
			return err
		}
		r, err := uc.reviewService.AddReview(ctx, userID, req.ISBN, rating, req.Text)
		if err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	metrics.IncCounter(metrics.ReviewsCreatedTotal)
	span.SetAttributes(attribute.Int("review.id", int(created.ID)))
	uc.log.WithFields(logrus.Fields{
		"review_id": created.ID,
		"user_id":   userID,
		"isbn":      created.ISBN,
		"rating":    created.Rating,
	}).Info("新增评论")

	uc.publishCreated(ctx, created)

	return &AddReviewResponse{
		ID:        created.ID,
		ISBN:      created.ISBN,
		Rating:    created.Rating,
		Text:      created.Text,
		CreatedAt: created.CreatedAt.Format(time.DateTime),
	}, nil
}

func (uc *AddReviewUseCase) publishCreated(ctx context.Context, r *review.Review) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := uc.publisher.Publish(ctx, review.CreatedRoutingKey, review.NewCreatedEvent(r)); err != nil {
		uc.log.WithError(err).WithField("review_id", r.ID).Warn("发布评论事件失败")
	}
}
