package auth

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/xiebiao/bookreview/pkg/errors"
)

// Decision 访问控制结果：Authorized(userID) 或 Unauthorized(target)
type Decision struct {
	authorized bool
	userID     uint
	target     string
}

// Authorized 是否放行
func (d Decision) Authorized() bool {
	return d.authorized
}

// UserID 放行时的用户ID
func (d Decision) UserID() uint {
	return d.userID
}

// RedirectTarget 未放行时，登录成功后应返回的地址
func (d Decision) RedirectTarget() string {
	return d.target
}

// Err 未放行时返回携带NotAuthenticatedError的ErrUnauthorized，放行时返回nil
func (d Decision) Err() error {
	if d.authorized {
		return nil
	}
	return apperrors.ErrUnauthorized.WithErr(&NotAuthenticatedError{Target: d.target})
}

// NotAuthenticatedError 未登录访问受保护资源
type NotAuthenticatedError struct {
	Target string
}

func (e *NotAuthenticatedError) Error() string {
	return fmt.Sprintf("not authenticated, requested %q", e.Target)
}

// Guard 受保护操作的前置检查，target是被拒绝时原本要访问的地址
func Guard(identity Identity, target string) Decision {
	if identity.IsAuthenticated() {
		return Decision{authorized: true, userID: identity.UserID()}
	}
	return Decision{target: target}
}

// SafeRedirectTarget 只接受站内相对路径，其余情况返回fallback
// 拒绝 //evil.com、http://evil.com、/\evil.com 这类跳出站点的地址
func SafeRedirectTarget(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, `/\`) {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return raw
}
