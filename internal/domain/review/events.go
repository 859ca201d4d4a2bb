package review

import "time"

// CreatedRoutingKey 评论创建事件的路由键
const CreatedRoutingKey = "review.created"

// CreatedEvent 评论创建事件
type CreatedEvent struct {
	ReviewID  uint      `json:"review_id"`
	ISBN      string    `json:"isbn"`
	UserID    uint      `json:"user_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCreatedEvent 由已保存的评论生成事件
func NewCreatedEvent(r *Review) CreatedEvent {
	return CreatedEvent{
		ReviewID:  r.ID,
		ISBN:      r.ISBN,
		UserID:    r.UserID,
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt,
	}
}
