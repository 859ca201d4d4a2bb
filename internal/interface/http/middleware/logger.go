package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "github.com/xiebiao/bookreview/pkg/errors"
	"github.com/xiebiao/bookreview/pkg/logger"
	"github.com/xiebiao/bookreview/pkg/response"
	"github.com/xiebiao/bookreview/pkg/tracing"
)

// RequestIDHeader 请求ID头
const RequestIDHeader = "X-Request-ID"

// RequestLogger 请求日志
// 为每个请求生成请求ID，把带request_id的logrus.Entry放进gin.Context，
// 请求结束后记录状态码和耗时
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		fields := logrus.Fields{"request_id": requestID}
		if traceID := tracing.ExtractTraceID(c.Request.Context()); traceID != "" {
			fields["trace_id"] = traceID
		}
		entry := log.WithFields(fields)
		c.Set(logger.ContextKey, entry)

		c.Next()

		status := c.Writer.Status()
		entry = entry.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    status,
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		})
		if identity := GetIdentity(c); identity.IsAuthenticated() {
			entry = entry.WithField("user_id", identity.UserID())
		}

		switch {
		case status >= 500:
			entry.Error("请求完成")
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Warn("请求完成")
		default:
			entry.Info("请求完成")
		}
	}
}

// Recovery panic恢复，记录堆栈并返回统一的内部错误
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered interface{}) {
		logger.FromContext(c).WithField("panic", recovered).Error("请求处理panic")
		response.Error(c, apperrors.ErrInternal)
		c.Abort()
	})
}
