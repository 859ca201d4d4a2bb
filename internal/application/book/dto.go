package book

import (
	"time"

	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/domain/rating"
	"github.com/xiebiao/bookreview/internal/domain/review"
)

// BookDTO 图书
type BookDTO struct {
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   int    `json:"year"`
}

// ReviewDTO 评论
type ReviewDTO struct {
	ID        uint   `json:"id"`
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Rating    int    `json:"rating"`
	Text      string `json:"text_review"`
	CreatedAt string `json:"created_at"`
}

// RatingDTO 外部评分
type RatingDTO struct {
	RatingsCount  int     `json:"ratings_count"`
	AverageRating float64 `json:"average_rating"`
}

func toBookDTO(b *book.Book) BookDTO {
	return BookDTO{
		ISBN:   b.ISBN,
		Title:  b.Title,
		Author: b.Author,
		Year:   b.Year,
	}
}

func toReviewDTO(v *review.View) ReviewDTO {
	return ReviewDTO{
		ID:        v.ID,
		UserID:    v.UserID,
		Username:  v.Username,
		Rating:    v.Rating,
		Text:      v.Text,
		CreatedAt: v.CreatedAt.Format(time.DateTime),
	}
}

func toRatingDTO(info *rating.Info) *RatingDTO {
	if info == nil {
		return nil
	}
	return &RatingDTO{
		RatingsCount:  info.RatingsCount,
		AverageRating: info.AverageRating,
	}
}
