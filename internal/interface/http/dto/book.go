package dto

// PublishBookForm 录入图书表单(multipart/form-data)
// 文件部分: cover(必填,图片)、document(可选,PDF),不走JSON绑定
type PublishBookForm struct {
	Title  string `form:"title" binding:"required,max=200"`
	Author string `form:"author" binding:"required,max=100"`
	Genre  string `form:"genre" binding:"required,max=50"`
}

// UpdateBookRequest 更新图书请求(空字段不覆盖)
type UpdateBookRequest struct {
	Title  string `json:"title" binding:"omitempty,max=200"`
	Author string `json:"author" binding:"omitempty,max=100"`
	Genre  string `json:"genre" binding:"omitempty,max=50"`
}

// ListBooksQuery 图书列表查询参数
type ListBooksQuery struct {
	Page     int    `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size,default=10" binding:"omitempty,min=1,max=100"`
	Author   string `form:"author"`
	Genre    string `form:"genre"`
}

// SearchBooksQuery 图书搜索查询参数
type SearchBooksQuery struct {
	Q     string `form:"q" binding:"required"`
	Limit int    `form:"limit,default=10" binding:"omitempty,min=1,max=100"`
}
