package auth

import (
	"context"

	"github.com/xiebiao/bookreview/internal/domain/user"
)

// CredentialVerifier 凭证校验
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (*user.User, error)
}

// Authenticator 会话身份状态机：Anonymous ⇄ Authenticated
type Authenticator struct {
	verifier CredentialVerifier
}

// NewAuthenticator 创建认证器
func NewAuthenticator(verifier CredentialVerifier) *Authenticator {
	return &Authenticator{verifier: verifier}
}

// Login 无论当前身份如何，先回到匿名，再按凭证校验结果决定新身份
// 失败时返回匿名身份和user.ErrUnknownUsername / user.ErrInvalidPassword
func (a *Authenticator) Login(ctx context.Context, _ Identity, username, password string) (Identity, error) {
	u, err := a.verifier.Verify(ctx, username, password)
	if err != nil {
		return Anonymous(), err
	}
	return Authenticated(u.ID, u.Username), nil
}

// Logout 总是回到匿名
func (a *Authenticator) Logout(Identity) Identity {
	return Anonymous()
}
