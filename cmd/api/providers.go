package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	appbook "github.com/xiebiao/bookreview/internal/application/book"
	appuser "github.com/xiebiao/bookreview/internal/application/user"
	"github.com/xiebiao/bookreview/internal/domain/auth"
	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/domain/rating"
	"github.com/xiebiao/bookreview/internal/domain/review"
	"github.com/xiebiao/bookreview/internal/domain/user"
	"github.com/xiebiao/bookreview/internal/infrastructure/config"
	"github.com/xiebiao/bookreview/internal/infrastructure/external/goodreads"
	"github.com/xiebiao/bookreview/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookreview/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookreview/internal/interface/http/handler"
	"github.com/xiebiao/bookreview/internal/interface/http/middleware"
	"github.com/xiebiao/bookreview/internal/interface/http/router"
	"github.com/xiebiao/bookreview/pkg/jwt"
	"github.com/xiebiao/bookreview/pkg/mq"
)

// App 进程内需要生命周期管理的对象
type App struct {
	Server *http.Server
}

// 需要从Config提取参数或带cleanup的依赖，统一写成provider
// main.go手动组装和wire.go共用这些函数

func provideDB(cfg *config.Config, log *logrus.Logger) (*gorm.DB, func(), error) {
	db, err := mysql.NewDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

func provideRedisClient(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*goredis.Client, func(), error) {
	client, err := redis.NewClient(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func provideBookRepository(db *gorm.DB, cache *redis.CacheStore, cfg *config.Config, log *logrus.Logger) book.Repository {
	return redis.NewCachedBookRepository(mysql.NewBookRepository(db), cache, cfg.Redis.CacheTTL, log)
}

func provideUserService(repo user.Repository, cfg *config.Config) user.Service {
	return user.NewService(repo, cfg.Auth.BcryptCost)
}

func provideAuthenticator(userService user.Service) *auth.Authenticator {
	return auth.NewAuthenticator(userService)
}

// provideRatingProvider 未启用外部评分时详情页不展示外部评分
func provideRatingProvider(cfg *config.Config, cache *redis.CacheStore, log *logrus.Logger) rating.Provider {
	if !cfg.Rating.Enabled {
		log.Info("外部评分服务未启用")
		return rating.DisabledProvider{}
	}

	client := goodreads.NewClient(goodreads.Config{
		BaseURL:      cfg.Rating.BaseURL,
		APIKey:       cfg.Rating.APIKey,
		Timeout:      cfg.Rating.Timeout,
		MaxFailures:  cfg.Rating.MaxFailures,
		ResetTimeout: cfg.Rating.ResetTimeout,
	}, log)
	return redis.NewCachedRatingProvider(client, cache, cfg.Rating.CacheTTL, log)
}

func providePublisher(cfg *config.Config, log *logrus.Logger) (mq.Publisher, func(), error) {
	if !cfg.MQ.Enabled {
		return mq.NoopPublisher{}, func() {}, nil
	}

	publisher, err := mq.NewAMQPPublisher(cfg.MQ.URL, cfg.MQ.Exchange, log)
	if err != nil {
		return nil, nil, err
	}
	return publisher, func() { _ = publisher.Close() }, nil
}

func provideTokenManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.Session.Secret, cfg.Session.TTL)
}

func provideSessionManager(store *redis.SessionStore, tokens *jwt.Manager, cfg *config.Config, log *logrus.Logger) *appuser.SessionManager {
	return appuser.NewSessionManager(store, tokens, cfg.Session.TTL, log)
}

func provideBookDetailUseCase(
	bookService book.Service,
	reviewService review.Service,
	ratings rating.Provider,
	cfg *config.Config,
	log *logrus.Logger,
) *appbook.GetBookDetailUseCase {
	return appbook.NewGetBookDetailUseCase(bookService, reviewService, ratings, cfg.Rating.Timeout, log)
}

func provideCookieConfig(cfg *config.Config) handler.CookieConfig {
	return handler.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
		TTL:    cfg.Session.TTL,
	}
}

func provideAuthMiddleware(tokens *jwt.Manager, store *redis.SessionStore, cfg *config.Config) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(tokens, store, cfg.Session.CookieName, cfg.Session.LoginPath)
}

func provideRouter(cfg *config.Config, log *logrus.Logger, authMiddleware *middleware.AuthMiddleware, h router.Handlers) *gin.Engine {
	switch cfg.Server.Mode {
	case gin.ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	}

	return router.New(log, authMiddleware, h, router.Options{
		Metrics:     cfg.Metrics.Enabled,
		MetricsPath: cfg.Metrics.Path,
		Swagger:     cfg.Server.Mode != gin.ReleaseMode,
	})
}

func provideHTTPServer(cfg *config.Config, engine *gin.Engine) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
