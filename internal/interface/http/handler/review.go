package handler

import (
	"github.com/gin-gonic/gin"

	appreview "github.com/xiebiao/bookreview/internal/application/review"
	"github.com/xiebiao/bookreview/internal/interface/http/dto"
	"github.com/xiebiao/bookreview/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
	"github.com/xiebiao/bookreview/pkg/response"
)

// ReviewHandler 评论
type ReviewHandler struct {
	addReviewUseCase *appreview.AddReviewUseCase
}

// NewReviewHandler 创建评论处理器
func NewReviewHandler(addReviewUseCase *appreview.AddReviewUseCase) *ReviewHandler {
	return &ReviewHandler{addReviewUseCase: addReviewUseCase}
}

// AddReview 发表评论
// @Summary      发表评论
// @Description  每个用户对每本书只能评论一次，评分为1到5的整数
// @Tags         评论
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        isbn    path string               true "ISBN"
// @Param        request body dto.AddReviewRequest true "评论"
// @Success      200 {object} response.Response{data=appreview.AddReviewResponse} "评论成功"
// @Failure      200 {object} response.Response "40006 已评论过 / 40007 评分非法 / 40402 图书不存在 / 40100 未登录"
// @Router       /api/v1/books/{isbn}/reviews [post]
func (h *ReviewHandler) AddReview(c *gin.Context) {
	var req dto.AddReviewRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, apperrors.ErrBindError.WithErr(err))
		return
	}

	result, err := h.addReviewUseCase.Execute(c.Request.Context(), appreview.AddReviewRequest{
		Identity: middleware.GetIdentity(c),
		ISBN:     c.Param("isbn"),
		Rating:   req.Rating,
		Text:     req.Text,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, "评论成功", result)
}
