package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appuser "github.com/xiebiao/bookreview/internal/application/user"
	"github.com/xiebiao/bookreview/internal/domain/auth"
	"github.com/xiebiao/bookreview/internal/interface/http/dto"
	"github.com/xiebiao/bookreview/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
	"github.com/xiebiao/bookreview/pkg/response"
)

// CookieConfig 会话Cookie
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// UserHandler 注册、登录、登出
type UserHandler struct {
	registerUseCase *appuser.RegisterUseCase
	loginUseCase    *appuser.LoginUseCase
	logoutUseCase   *appuser.LogoutUseCase
	cookie          CookieConfig
}

// NewUserHandler 创建用户处理器
func NewUserHandler(
	registerUseCase *appuser.RegisterUseCase,
	loginUseCase *appuser.LoginUseCase,
	logoutUseCase *appuser.LogoutUseCase,
	cookie CookieConfig,
) *UserHandler {
	return &UserHandler{
		registerUseCase: registerUseCase,
		loginUseCase:    loginUseCase,
		logoutUseCase:   logoutUseCase,
		cookie:          cookie,
	}
}

// Register 用户注册，成功后直接登录
// @Summary      用户注册
// @Description  创建账号并登录，返回会话令牌（同时写入Cookie）
// @Tags         用户
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        request body dto.RegisterRequest true "注册信息"
// @Success      200 {object} response.Response{data=dto.LoginResponse} "注册成功"
// @Failure      200 {object} response.Response "40003 用户名已存在 / 40900 参数错误"
// @Router       /api/v1/users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, apperrors.ErrBindError.WithErr(err))
		return
	}

	result, err := h.registerUseCase.Execute(c.Request.Context(), appuser.RegisterRequest{
		CurrentToken: middleware.GetToken(c),
		Username:     req.Username,
		Password:     req.Password,
		IP:           c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, result.Token)
	response.SuccessWithMessage(c, "注册成功", toLoginResponse(result))
}

// Login 用户登录
// @Summary      用户登录
// @Description  校验用户名密码，返回会话令牌和登录后的跳转地址
// @Tags         用户
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        request body dto.LoginRequest true "登录信息"
// @Success      200 {object} response.Response{data=dto.LoginResponse} "登录成功"
// @Failure      200 {object} response.Response "40401 用户名不存在 / 40103 密码错误"
// @Router       /api/v1/users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, apperrors.ErrBindError.WithErr(err))
		return
	}
	if req.Next == "" {
		req.Next = c.Query("next")
	}

	result, err := h.loginUseCase.Execute(c.Request.Context(), appuser.LoginRequest{
		Identity:     middleware.GetIdentity(c),
		CurrentToken: middleware.GetToken(c),
		Username:     req.Username,
		Password:     req.Password,
		Next:         req.Next,
		IP:           c.ClientIP(),
	})
	if err != nil {
		// 旧会话已经销毁
		h.clearSessionCookie(c)
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, result.Token)
	response.SuccessWithMessage(c, "登录成功", toLoginResponse(result))
}

// LoginPrompt 未登录跳转的落点，回显登录后的跳转地址
// @Summary      登录提示
// @Description  RequireAuth跳转到这里，客户端带上同样的next提交POST登录
// @Tags         用户
// @Produce      json
// @Param        next query string false "登录后跳转地址"
// @Success      200 {object} response.Response "请提交用户名和密码"
// @Router       /api/v1/users/login [get]
func (h *UserHandler) LoginPrompt(c *gin.Context) {
	response.SuccessWithMessage(c, "请提交用户名和密码", gin.H{
		"next": auth.SafeRedirectTarget(c.Query("next"), appuser.DefaultLandingPath),
	})
}

// Logout 登出
// @Summary      登出
// @Tags         用户
// @Produce      json
// @Success      200 {object} response.Response "已退出登录"
// @Router       /api/v1/users/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	if _, err := h.logoutUseCase.Execute(c.Request.Context(), middleware.GetIdentity(c), middleware.GetToken(c)); err != nil {
		response.Error(c, err)
		return
	}

	h.clearSessionCookie(c)
	response.SuccessWithMessage(c, "已退出登录", nil)
}

func (h *UserHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.cookie.TTL.Seconds()), "/", "", h.cookie.Secure, true)
}

func (h *UserHandler) clearSessionCookie(c *gin.Context) {
	if _, err := c.Cookie(h.cookie.Name); err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}

func toLoginResponse(r *appuser.LoginResponse) *dto.LoginResponse {
	return &dto.LoginResponse{
		UserID:    r.UserID,
		Username:  r.Username,
		Token:     r.Token,
		ExpiresIn: r.ExpiresIn,
		Next:      r.Next,
	}
}
