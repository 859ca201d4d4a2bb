// Package router 注册HTTP路由和全局中间件
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/xiebiao/bookreview/docs"
	"github.com/xiebiao/bookreview/internal/interface/http/handler"
	"github.com/xiebiao/bookreview/internal/interface/http/middleware"
	"github.com/xiebiao/bookreview/pkg/response"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	User   *handler.UserHandler
	Book   *handler.BookHandler
	Review *handler.ReviewHandler
}

// Options 可选路由
type Options struct {
	Metrics     bool
	MetricsPath string
	Swagger     bool
}

// New 创建gin引擎
//
// 中间件顺序：追踪 → 请求日志 → panic恢复 → 指标 → 身份解析
func New(log *logrus.Logger, authMiddleware *middleware.AuthMiddleware, h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Tracing(),
		middleware.RequestLogger(log),
		middleware.Recovery(),
		middleware.Metrics(),
		authMiddleware.LoadIdentity(),
	)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	if opts.Metrics {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.Handler()))
	}

	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("/register", h.User.Register)
			users.GET("/login", h.User.LoginPrompt)
			users.POST("/login", h.User.Login)
			users.POST("/logout", h.User.Logout)
		}

		protected := v1.Group("", authMiddleware.RequireAuth())
		{
			protected.GET("/search", h.Book.Search)
			protected.POST("/search", h.Book.Search)
			protected.GET("/books/:isbn", h.Book.GetBook)
			protected.POST("/books/:isbn/reviews", h.Review.AddReview)
		}
	}

	return r
}
