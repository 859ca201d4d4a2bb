package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/bookreview/internal/domain/review"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

// reviewRepository 评论仓储（MySQL）
type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建评论仓储
func NewReviewRepository(db *gorm.DB) review.Repository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) HasReviewed(ctx context.Context, userID uint, isbn string) (bool, error) {
	var count int64
	err := getDB(ctx, r.db).Model(&ReviewModel{}).
		Where("user_id = ? AND isbn = ?", userID, isbn).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(err, "查询评论失败")
	}
	return count > 0, nil
}

// Create 保存评论，(user_id, isbn)冲突转换为ErrAlreadyReviewed
func (r *reviewRepository) Create(ctx context.Context, rv *review.Review) error {
	model := &ReviewModel{
		ISBN:       rv.ISBN,
		UserID:     rv.UserID,
		Rating:     rv.Rating,
		TextReview: rv.Text,
		CreatedAt:  rv.CreatedAt,
	}

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return review.ErrAlreadyReviewed.WithErr(err)
		}
		return apperrors.Wrap(err, "保存评论失败")
	}

	rv.ID = model.ID
	rv.CreatedAt = model.CreatedAt
	return nil
}

// reviewRow 评论与用户名的联表结果，用户不存在时Username为NULL
type reviewRow struct {
	ReviewID   uint
	ISBN       string `gorm:"column:isbn"`
	UserID     uint
	Rating     int
	TextReview string
	CreatedAt  time.Time
	Username   *string
}

// ListByISBN LEFT JOIN users，单条评论的用户缺失不影响整个列表
func (r *reviewRepository) ListByISBN(ctx context.Context, isbn string) ([]*review.View, error) {
	var rows []reviewRow
	err := getDB(ctx, r.db).
		Table("reviews AS r").
		Select("r.review_id, r.isbn, r.user_id, r.rating, r.text_review, r.created_at, u.username").
		Joins("LEFT JOIN users AS u ON u.id = r.user_id").
		Where("r.isbn = ?", isbn).
		Order("r.review_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询评论列表失败")
	}

	views := make([]*review.View, 0, len(rows))
	for _, row := range rows {
		username := review.UnknownUsername
		if row.Username != nil && *row.Username != "" {
			username = *row.Username
		}
		views = append(views, &review.View{
			ID:        row.ReviewID,
			ISBN:      row.ISBN,
			UserID:    row.UserID,
			Username:  username,
			Rating:    row.Rating,
			Text:      row.TextReview,
			CreatedAt: row.CreatedAt,
		})
	}
	return views, nil
}
