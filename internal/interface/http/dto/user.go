package dto

// RegisterForm 注册表单(multipart:元数据字段+头像文件)
// binding tag做第一层校验(格式/长度),业务规则由领域服务校验
type RegisterForm struct {
	Email    string `form:"email" binding:"required,email" example:"reader@example.com"`
	Password string `form:"password" binding:"required,min=8,max=20" example:"passw0rd123"`
	Nickname string `form:"nickname" binding:"required,min=2,max=50" example:"书虫"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse 用户信息响应
type UserResponse struct {
	ID         uint   `json:"id"`
	Email      string `json:"email"`
	Nickname   string `json:"nickname"`
	ProfileURL string `json:"profile_url"`
}

// UserInfo 登录响应中的用户信息
type UserInfo struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
}

// RefreshTokenRequest 刷新Token请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshTokenResponse 刷新Token响应
type RefreshTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}
