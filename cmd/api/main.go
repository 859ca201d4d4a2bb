package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	"github.com/xiebiao/bookreview/pkg/logger"
	"github.com/xiebiao/bookreview/pkg/metrics"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

// @title           图书检索与评论 API
// @version         1.0
// @description     登录后按ISBN、书名、作者检索图书，查看详情并发表评论
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("加载配置失败: %v", err)
	}

	log := logger.New(logger.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	log.WithFields(logrus.Fields{
		"port":  cfg.Server.Port,
		"mode":  cfg.Server.Mode,
		"db":    cfg.Database.DBName,
		"redis": cfg.Redis.Addr(),
	}).Info("✓ 配置加载成功")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. 可观测性
	if cfg.Metrics.Enabled {
		metrics.InitMetrics()
	}
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(ctx, tracing.Config{
			ServiceName: cfg.Tracing.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			log.WithError(err).Fatal("初始化链路追踪失败")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("关闭链路追踪失败")
			}
		}()
	}

	// 3. 依赖注入
	app, cleanup, err := buildApp(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("初始化应用失败")
	}
	defer cleanup()

	// 4. 启动服务
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", app.Server.Addr).Info("🚀 服务启动")
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.WithError(err).Error("服务异常退出")
	case <-ctx.Done():
		log.Info("收到退出信号，开始优雅关闭")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("关闭HTTP服务失败")
		os.Exit(1)
	}
	log.Info("服务已停止")
}

// buildApp 手动组装依赖
// Repository ← Service ← UseCase ← Handler ← Router
// 组装顺序与wire.go中的InitializeApp一致
func buildApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// 基础设施层
	db, dbCleanup, err := provideDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanups = append(cleanups, dbCleanup)

	redisClient, redisCleanup, err := provideRedisClient(ctx, cfg, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, redisCleanup)

	publisher, mqCleanup, err := providePublisher(cfg, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, mqCleanup)

	cache := redis.NewCacheStore(redisClient)
	sessionStore := redis.NewSessionStore(redisClient)
	tokens := provideTokenManager(cfg)
	txManager := mysql.NewTxManager(db)

	userRepo := mysql.NewUserRepository(db)
	bookRepo := provideBookRepository(db, cache, cfg, log)
	reviewRepo := mysql.NewReviewRepository(db)
	ratings := provideRatingProvider(cfg, cache, log)

	// 领域层
	userService := provideUserService(userRepo, cfg)
	bookService := book.NewService(bookRepo)
	reviewService := review.NewService(reviewRepo)
	authenticator := provideAuthenticator(userService)

	// 应用层
	sessions := provideSessionManager(sessionStore, tokens, cfg, log)
	registerUseCase := appuser.NewRegisterUseCase(userService, sessions, log)
	loginUseCase := appuser.NewLoginUseCase(authenticator, sessions, log)
	logoutUseCase := appuser.NewLogoutUseCase(authenticator, sessions)
	searchUseCase := appbook.NewSearchBooksUseCase(bookService, log)
	detailUseCase := provideBookDetailUseCase(bookService, reviewService, ratings, cfg, log)
	addReviewUseCase := appreview.NewAddReviewUseCase(txManager, bookService, reviewService, publisher, log)

	// 接口层
	handlers := router.Handlers{
		User:   handler.NewUserHandler(registerUseCase, loginUseCase, logoutUseCase, provideCookieConfig(cfg)),
		Book:   handler.NewBookHandler(searchUseCase, detailUseCase),
		Review: handler.NewReviewHandler(addReviewUseCase),
	}
	engine := provideRouter(cfg, log, provideAuthMiddleware(tokens, sessionStore, cfg), handlers)

	return &App{Server: provideHTTPServer(cfg, engine)}, cleanup, nil
}
