package dto

// SearchRequest 搜索条件，字段名沿用搜索表单
type SearchRequest struct {
	ISBN   string `form:"isbnQuery" json:"isbnQuery" binding:"max=256"`
	Title  string `form:"titleQuery" json:"titleQuery" binding:"max=256"`
	Author string `form:"authorQuery" json:"authorQuery" binding:"max=256"`
}

// AddReviewRequest 添加评论
// rating 按字符串接收，由领域层解析并校验范围
type AddReviewRequest struct {
	Rating string `form:"rating" json:"rating"`
	Text   string `form:"text_review" json:"text_review"`
}
