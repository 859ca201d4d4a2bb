package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

// ErrSessionNotFound 会话不存在或已过期
var ErrSessionNotFound = apperrors.New(apperrors.ErrCodeUnauthorized, "会话已失效，请重新登录")

// Session 登录会话
type Session struct {
	ID       string
	UserID   uint
	Username string
	LoginAt  time.Time
	IP       string
}

// SessionStore 会话存储
// Key设计：session:{sid}（Hash）、blacklist:{token}（String）
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore 创建会话存储
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Create 创建会话并返回新的会话ID
func (s *SessionStore) Create(ctx context.Context, userID uint, username, ip string, ttl time.Duration) (*Session, error) {
	sess := &Session{
		ID:       uuid.NewString(),
		UserID:   userID,
		Username: username,
		LoginAt:  time.Now(),
		IP:       ip,
	}

	key := sessionKey(sess.ID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"user_id":  sess.UserID,
		"username": sess.Username,
		"login_at": sess.LoginAt.Unix(),
		"ip":       sess.IP,
	})
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, apperrors.Wrap(err, "保存会话失败")
	}
	return sess, nil
}

// Get 获取会话，不存在时返回ErrSessionNotFound
func (s *SessionStore) Get(ctx context.Context, sid string) (*Session, error) {
	result, err := s.client.HGetAll(ctx, sessionKey(sid)).Result()
	if err != nil {
		return nil, apperrors.Wrap(err, "获取会话失败")
	}
	if len(result) == 0 {
		return nil, ErrSessionNotFound
	}

	userID, err := strconv.ParseUint(result["user_id"], 10, 64)
	if err != nil || userID == 0 {
		return nil, ErrSessionNotFound
	}
	loginAt, _ := strconv.ParseInt(result["login_at"], 10, 64)

	return &Session{
		ID:       sid,
		UserID:   uint(userID),
		Username: result["username"],
		LoginAt:  time.Unix(loginAt, 0),
		IP:       result["ip"],
	}, nil
}

// Delete 删除会话，会话不存在不算错误
func (s *SessionStore) Delete(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	if err := s.client.Del(ctx, sessionKey(sid)).Err(); err != nil {
		return apperrors.Wrap(err, "删除会话失败")
	}
	return nil
}

// AddToBlacklist 令牌加入黑名单，ttl取令牌剩余有效期
func (s *SessionStore) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, blacklistKey(token), "revoked", ttl).Err(); err != nil {
		return apperrors.Wrap(err, "添加Token到黑名单失败")
	}
	return nil
}

// IsInBlacklist 检查令牌是否已注销
func (s *SessionStore) IsInBlacklist(ctx context.Context, token string) (bool, error) {
	err := s.client.Get(ctx, blacklistKey(token)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Wrap(err, "检查黑名单失败")
	}
	return true, nil
}

func sessionKey(sid string) string {
	return fmt.Sprintf("session:%s", sid)
}

func blacklistKey(token string) string {
	return fmt.Sprintf("blacklist:%s", token)
}
