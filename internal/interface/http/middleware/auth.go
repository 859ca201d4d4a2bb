package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookreview/internal/domain/auth"
	"github.com/xiebiao/bookreview/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookreview/pkg/jwt"
	"github.com/xiebiao/bookreview/pkg/logger"
	"github.com/xiebiao/bookreview/pkg/response"
)

const (
	identityKey = "identity"
	tokenKey    = "session_token"
)

// TokenParser 会话令牌解析
type TokenParser interface {
	Parse(token string) (*jwt.Claims, error)
}

// SessionReader 会话查询
type SessionReader interface {
	Get(ctx context.Context, sid string) (*redis.Session, error)
	IsInBlacklist(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware 身份解析与登录保护
//
//	r.Use(authMiddleware.LoadIdentity())
//	protected := v1.Group("", authMiddleware.RequireAuth())
type AuthMiddleware struct {
	tokens     TokenParser
	sessions   SessionReader
	cookieName string
	loginPath  string
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(tokens TokenParser, sessions SessionReader, cookieName, loginPath string) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:     tokens,
		sessions:   sessions,
		cookieName: cookieName,
		loginPath:  loginPath,
	}
}

// LoadIdentity 解析每个请求的身份
// 令牌缺失、无效、过期、已拉黑或会话不存在时都是匿名身份，不会中断请求
func (m *AuthMiddleware) LoadIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		identity := auth.Anonymous()

		if token != "" {
			c.Set(tokenKey, token)
			id, err := m.resolve(c.Request.Context(), token)
			if err != nil {
				logger.FromContext(c).WithError(err).Debug("会话令牌无效，按匿名处理")
			} else {
				identity = id
			}
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

func (m *AuthMiddleware) resolve(ctx context.Context, token string) (auth.Identity, error) {
	claims, err := m.tokens.Parse(token)
	if err != nil {
		return auth.Anonymous(), err
	}

	blocked, err := m.sessions.IsInBlacklist(ctx, token)
	if err != nil {
		return auth.Anonymous(), err
	}
	if blocked {
		return auth.Anonymous(), errors.New("token revoked")
	}

	sess, err := m.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return auth.Anonymous(), err
	}
	if sess.UserID != claims.UserID {
		return auth.Anonymous(), errors.New("session does not belong to token subject")
	}
	return auth.Authenticated(sess.UserID, sess.Username), nil
}

// extractToken 优先Authorization: Bearer，其次会话Cookie
func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}
	if cookie, err := c.Cookie(m.cookieName); err == nil {
		return cookie
	}
	return ""
}

// RequireAuth 要求登录
// 未登录时：浏览器（Accept含text/html）302跳转登录页，其余返回40100和登录地址
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := auth.Guard(GetIdentity(c), c.Request.URL.RequestURI())
		if decision.Authorized() {
			c.Next()
			return
		}

		target := decision.RedirectTarget()
		loginURL := m.loginPath + "?next=" + url.QueryEscape(target)
		if strings.Contains(c.GetHeader("Accept"), "text/html") {
			c.Redirect(http.StatusFound, loginURL)
			c.Abort()
			return
		}

		response.ErrorWithData(c, decision.Err(), gin.H{
			"login_url": loginURL,
			"next":      target,
		})
		c.Abort()
	}
}

// GetIdentity 当前请求的身份，未经过LoadIdentity时为匿名
func GetIdentity(c *gin.Context) auth.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(auth.Identity); ok {
			return identity
		}
	}
	return auth.Anonymous()
}

// GetToken 当前请求携带的会话令牌
func GetToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}
