package user

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/auth"
	"github.com/xiebiao/bookreview/internal/domain/user"
	"github.com/xiebiao/bookreview/pkg/metrics"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

// DefaultLandingPath 登录后没有合法next时的跳转地址
const DefaultLandingPath = "/search"

// LoginUseCase 用户登录用例
// 1. 先销毁请求携带的旧会话（无论登录是否成功，都不再保留之前的身份）
// 2. 校验凭证
// 3. 建立新会话、签发令牌
type LoginUseCase struct {
	authenticator *auth.Authenticator
	sessions      *SessionManager
	log           logrus.FieldLogger
}

// NewLoginUseCase 创建登录用例
func NewLoginUseCase(authenticator *auth.Authenticator, sessions *SessionManager, log logrus.FieldLogger) *LoginUseCase {
	return &LoginUseCase{
		authenticator: authenticator,
		sessions:      sessions,
		log:           log,
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Identity     auth.Identity // 当前身份
	CurrentToken string        // 当前令牌（可能为空）
	Username     string
	Password     string
	Next         string
	IP           string
}

// LoginResponse 登录响应
type LoginResponse struct {
	Identity  auth.Identity `json:"-"`
	UserID    uint          `json:"user_id"`
	Username  string        `json:"username"`
	Token     string        `json:"token"`
	ExpiresIn int64         `json:"expires_in"` // 秒
	Next      string        `json:"next"`
}

// Execute 执行登录
func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "LoginUseCase.Execute")
	defer span.End()

	if err := uc.sessions.End(ctx, req.CurrentToken); err != nil {
		uc.log.WithError(err).Warn("销毁旧会话失败")
	}

	identity, err := uc.authenticator.Login(ctx, req.Identity, req.Username, req.Password)
	if err != nil {
		metrics.IncCounterVec(metrics.LoginAttemptsTotal, loginResult(err))
		tracing.RecordError(span, err)
		return nil, err
	}

	resp, err := issue(ctx, uc.sessions, identity, req.IP, req.Next)
	if err != nil {
		metrics.IncCounterVec(metrics.LoginAttemptsTotal, "failure")
		tracing.RecordError(span, err)
		return nil, err
	}

	metrics.IncCounterVec(metrics.LoginAttemptsTotal, "success")
	uc.log.WithFields(logrus.Fields{"user_id": identity.UserID(), "ip": req.IP}).Info("用户登录")
	return resp, nil
}

func issue(ctx context.Context, sessions *SessionManager, identity auth.Identity, ip, next string) (*LoginResponse, error) {
	info, err := sessions.Start(ctx, identity, ip)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		Identity:  identity,
		UserID:    identity.UserID(),
		Username:  identity.Username(),
		Token:     info.Token,
		ExpiresIn: int64(sessions.ttl.Seconds()),
		Next:      auth.SafeRedirectTarget(next, DefaultLandingPath),
	}, nil
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, user.ErrUnknownUsername):
		return "unknown_username"
	case errors.Is(err, user.ErrInvalidPassword):
		return "invalid_password"
	default:
		return "failure"
	}
}

// LogoutUseCase 用户登出用例
type LogoutUseCase struct {
	authenticator *auth.Authenticator
	sessions      *SessionManager
}

// NewLogoutUseCase 创建登出用例
func NewLogoutUseCase(authenticator *auth.Authenticator, sessions *SessionManager) *LogoutUseCase {
	return &LogoutUseCase{authenticator: authenticator, sessions: sessions}
}

// Execute 执行登出，返回登出后的身份（总是匿名）
func (uc *LogoutUseCase) Execute(ctx context.Context, identity auth.Identity, token string) (auth.Identity, error) {
	if err := uc.sessions.End(ctx, token); err != nil {
		return identity, err
	}
	return uc.authenticator.Logout(identity), nil
}
