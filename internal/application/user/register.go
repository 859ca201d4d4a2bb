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

// RegisterUseCase 用户注册用例
// 注册成功后直接以新账号登录，和登录用例返回同样的结果
type RegisterUseCase struct {
	userService user.Service
	sessions    *SessionManager
	log         logrus.FieldLogger
}

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(userService user.Service, sessions *SessionManager, log logrus.FieldLogger) *RegisterUseCase {
	return &RegisterUseCase{
		userService: userService,
		sessions:    sessions,
		log:         log,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	CurrentToken string
	Username     string
	Password     string
	IP           string
}

// Execute 执行注册
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "RegisterUseCase.Execute")
	defer span.End()

	u, err := uc.userService.Register(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateUsername) {
			metrics.IncCounterVec(metrics.RegistrationsTotal, "duplicate")
		} else {
			metrics.IncCounterVec(metrics.RegistrationsTotal, "failure")
		}
		tracing.RecordError(span, err)
		return nil, err
	}
	metrics.IncCounterVec(metrics.RegistrationsTotal, "success")
	uc.log.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("用户注册")

	if err := uc.sessions.End(ctx, req.CurrentToken); err != nil {
		uc.log.WithError(err).Warn("销毁旧会话失败")
	}
	return issue(ctx, uc.sessions, auth.Authenticated(u.ID, u.Username), req.IP, "")
}
