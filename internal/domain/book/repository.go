package book

import (
	"context"
)

// MaxSearchResults 单次搜索最多返回的图书数
const MaxSearchResults = 10

// Repository 图书仓储接口
type Repository interface {
	// FindByISBN 精确查找，不存在时返回ErrBookNotFound
	FindByISBN(ctx context.Context, isbn string) (*Book, error)

	// Search 多字段模糊搜索
	// 每个非空字段做不区分大小写的子串匹配，字段之间为OR，最多返回limit条
	// 所有字段为空时返回ErrEmptyQuery，无匹配时返回空切片
	Search(ctx context.Context, params SearchParams, limit int) ([]*Book, error)
}

// SearchParams 搜索条件，空字符串表示未提供
type SearchParams struct {
	ISBN   string
	Title  string
	Author string
}

// IsEmpty 是否所有条件都为空
func (p SearchParams) IsEmpty() bool {
	return p.ISBN == "" && p.Title == "" && p.Author == ""
}
