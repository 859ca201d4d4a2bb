//go:build wireinject
// +build wireinject

// Wire依赖注入配置
// 运行 `wire gen ./cmd/api` 生成wire_gen.go后，可用InitializeApp替换main.go中的buildApp

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/sirupsen/logrus"

	appbook "github.com/xiebiao/bookreview/internal/application/book"
	appreview "github.com/xiebiao/bookreview/internal/application/review"
	appuser "github.com/xiebiao/bookreview/internal/application/user"
	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/domain/review"
	"github.com/xiebiao/bookreview/internal/infrastructure/config"
	"github.com/xiebiao/bookreview/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookreview/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookreview/internal/interface/http/handler"
	"github.com/xiebiao/bookreview/internal/interface/http/router"
	"github.com/xiebiao/bookreview/pkg/jwt"
)

// infrastructureSet 连接与外部依赖
var infrastructureSet = wire.NewSet(
	provideDB,
	provideRedisClient,
	providePublisher,
	provideTokenManager,
	provideRatingProvider,
	redis.NewCacheStore,
	redis.NewSessionStore,
	mysql.NewTxManager,
	wire.Bind(new(appreview.Transactor), new(*mysql.TxManager)),
	wire.Bind(new(appuser.SessionStore), new(*redis.SessionStore)),
	wire.Bind(new(appuser.TokenManager), new(*jwt.Manager)),
	wire.Bind(new(logrus.FieldLogger), new(*logrus.Logger)),
)

// repositorySet 仓储
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewReviewRepository,
	provideBookRepository,
)

// domainSet 领域服务
var domainSet = wire.NewSet(
	provideUserService,
	provideAuthenticator,
	book.NewService,
	review.NewService,
)

// applicationSet 用例
var applicationSet = wire.NewSet(
	provideSessionManager,
	appuser.NewRegisterUseCase,
	appuser.NewLoginUseCase,
	appuser.NewLogoutUseCase,
	appbook.NewSearchBooksUseCase,
	provideBookDetailUseCase,
	appreview.NewAddReviewUseCase,
)

// interfaceSet HTTP接口
var interfaceSet = wire.NewSet(
	provideCookieConfig,
	provideAuthMiddleware,
	handler.NewUserHandler,
	handler.NewBookHandler,
	handler.NewReviewHandler,
	wire.Struct(new(router.Handlers), "*"),
	provideRouter,
	provideHTTPServer,
	wire.Struct(new(App), "*"),
)

// InitializeApp 初始化整个应用，cleanup按创建的逆序释放连接
func InitializeApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		interfaceSet,
	)
	return nil, nil, nil
}
