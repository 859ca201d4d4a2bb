package dto

// RegisterRequest 注册请求（表单或JSON）
// 空用户名/密码由领域层校验，返回和表单一致的提示
type RegisterRequest struct {
	Username string `form:"username" json:"username" binding:"max=64"`
	Password string `form:"password" json:"password"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	Next     string `form:"next" json:"next" binding:"max=2048"`
}

// LoginResponse 登录/注册成功
type LoginResponse struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
	Next      string `json:"next"`
}
