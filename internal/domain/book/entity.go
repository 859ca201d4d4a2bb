package book

// Book 图书实体，ISBN为主键
// 目录由外部批量导入，本系统只读
type Book struct {
	ISBN   string
	Title  string
	Author string
	Year   int
}
