package handler

import (
	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/bookreview/internal/application/book"
	"github.com/xiebiao/bookreview/internal/interface/http/dto"
	"github.com/xiebiao/bookreview/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
	"github.com/xiebiao/bookreview/pkg/response"
)

// BookHandler 搜索与详情
type BookHandler struct {
	searchUseCase *appbook.SearchBooksUseCase
	detailUseCase *appbook.GetBookDetailUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(searchUseCase *appbook.SearchBooksUseCase, detailUseCase *appbook.GetBookDetailUseCase) *BookHandler {
	return &BookHandler{
		searchUseCase: searchUseCase,
		detailUseCase: detailUseCase,
	}
}

// Search 按ISBN/书名/作者搜索
// @Summary      搜索图书
// @Description  每个条件做不区分大小写的子串匹配，条件之间为OR，最多返回10条
// @Tags         图书
// @Produce      json
// @Param        isbnQuery   query string false "ISBN"
// @Param        titleQuery  query string false "书名"
// @Param        authorQuery query string false "作者"
// @Success      200 {object} response.Response{data=response.ListData{list=[]appbook.BookDTO}}
// @Failure      200 {object} response.Response "40008 未输入条件 / 40410 没有匹配结果 / 40100 未登录"
// @Router       /api/v1/search [get]
// @Router       /api/v1/search [post]
func (h *BookHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, apperrors.ErrBindError.WithErr(err))
		return
	}

	result, err := h.searchUseCase.Execute(c.Request.Context(), appbook.SearchBooksRequest{
		ISBN:   req.ISBN,
		Title:  req.Title,
		Author: req.Author,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithList(c, result.List, result.Total)
}

// GetBook 图书详情
// @Summary      图书详情
// @Description  图书信息、本站评论、外部评分（不可用时为null）以及当前用户是否已评论
// @Tags         图书
// @Produce      json
// @Param        isbn path string true "ISBN"
// @Success      200 {object} response.Response{data=appbook.BookDetailResponse}
// @Failure      200 {object} response.Response "40402 图书不存在 / 40100 未登录"
// @Router       /api/v1/books/{isbn} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	result, err := h.detailUseCase.Execute(c.Request.Context(), appbook.GetBookDetailRequest{
		Identity: middleware.GetIdentity(c),
		ISBN:     c.Param("isbn"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
