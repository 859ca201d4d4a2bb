package user

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookreview/internal/domain/auth"
	"github.com/xiebiao/bookreview/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookreview/pkg/jwt"
)

// SessionStore 会话存储（Redis实现）
type SessionStore interface {
	Create(ctx context.Context, userID uint, username, ip string, ttl time.Duration) (*redis.Session, error)
	Delete(ctx context.Context, sid string) error
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error
}

// TokenManager 会话令牌签发与解析
type TokenManager interface {
	Sign(sessionID string, userID uint, username string) (*jwt.Token, error)
	Parse(token string) (*jwt.Claims, error)
	RemainingTTL(claims *jwt.Claims) time.Duration
}

// SessionManager 登录会话的建立与销毁，注册、登录、登出共用
type SessionManager struct {
	sessions SessionStore
	tokens   TokenManager
	ttl      time.Duration
	log      logrus.FieldLogger
}

// NewSessionManager 创建会话管理器
func NewSessionManager(sessions SessionStore, tokens TokenManager, ttl time.Duration, log logrus.FieldLogger) *SessionManager {
	return &SessionManager{
		sessions: sessions,
		tokens:   tokens,
		ttl:      ttl,
		log:      log,
	}
}

// SessionInfo 新会话
type SessionInfo struct {
	Token     string
	ExpiresAt time.Time
}

// Start 为已认证身份建立新会话并签发令牌
func (m *SessionManager) Start(ctx context.Context, identity auth.Identity, ip string) (*SessionInfo, error) {
	sess, err := m.sessions.Create(ctx, identity.UserID(), identity.Username(), ip, m.ttl)
	if err != nil {
		return nil, err
	}

	token, err := m.tokens.Sign(sess.ID, identity.UserID(), identity.Username())
	if err != nil {
		_ = m.sessions.Delete(ctx, sess.ID)
		return nil, err
	}
	return &SessionInfo{Token: token.Value, ExpiresAt: token.ExpiresAt}, nil
}

// End 销毁令牌对应的会话并拉黑令牌
// 令牌为空、无效或已过期时没有需要销毁的会话，直接返回nil
func (m *SessionManager) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := m.tokens.Parse(token)
	if err != nil {
		return nil
	}

	if err := m.sessions.Delete(ctx, claims.SessionID); err != nil {
		return err
	}
	return m.sessions.AddToBlacklist(ctx, token, m.tokens.RemainingTTL(claims))
}
