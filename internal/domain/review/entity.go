package review

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MinRating = 1
	MaxRating = 5

	// MaxTextLength 评论正文最大字符数
	MaxTextLength = 5000

	// UnknownUsername 评论者账号无法解析时的展示名
	UnknownUsername = "未知用户"
)

// Review 评论实体，每个用户对每本书最多一条
type Review struct {
	ID        uint
	ISBN      string
	UserID    uint
	Rating    int
	Text      string
	CreatedAt time.Time
}

// View 评论展示模型，附带评论者用户名
type View struct {
	ID        uint
	ISBN      string
	UserID    uint
	Username  string
	Rating    int
	Text      string
	CreatedAt time.Time
}

// NewReview 创建评论，评分和正文不合法时返回对应错误
func NewReview(userID uint, isbn string, rating int, text string) (*Review, error) {
	if err := ValidateRating(rating); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return nil, ErrTextTooLong
	}
	return &Review{
		ISBN:      isbn,
		UserID:    userID,
		Rating:    rating,
		Text:      text,
		CreatedAt: time.Now(),
	}, nil
}

// ValidateRating 评分必须在[MinRating, MaxRating]之间
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

// ParseRating 解析表单里的字符串评分
func ParseRating(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrInvalidRating
	}
	if err := ValidateRating(n); err != nil {
		return 0, err
	}
	return n, nil
}

// Stats 本地评论统计
type Stats struct {
	Count         int
	AverageRating float64
}

// Summarize 统计评论数和平均分（保留两位小数），没有评论时平均分为0
func Summarize(views []*View) Stats {
	if len(views) == 0 {
		return Stats{}
	}
	sum := 0
	for _, v := range views {
		sum += v.Rating
	}
	avg := float64(sum) / float64(len(views))
	return Stats{
		Count:         len(views),
		AverageRating: float64(int(avg*100+0.5)) / 100,
	}
}
