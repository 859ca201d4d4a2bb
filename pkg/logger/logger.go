package logger

import (
	"io"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ContextKey gin.Context中保存请求级日志的key
const ContextKey = "logger"

// Config 日志配置
type Config struct {
	Level        string // debug | info | warn | error
	Format       string // text | json
	Output       string // stdout | stderr | 文件路径
	EnableCaller bool
}

// New 按配置创建logrus实例
// 输出为文件路径时以追加方式打开，打开失败回退到stdout
func New(cfg Config) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}

	log.SetOutput(openOutput(cfg.Output, log))
	log.SetReportCaller(cfg.EnableCaller)
	return log
}

func openOutput(output string, log *logrus.Logger) io.Writer {
	switch output {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.WithError(err).Warnf("打开日志文件 %s 失败，改为输出到stdout", output)
		return os.Stdout
	}
	return f
}

// FromContext 取出请求级日志，没有则返回标准logger
func FromContext(c *gin.Context) logrus.FieldLogger {
	if c != nil {
		if v, ok := c.Get(ContextKey); ok {
			if entry, ok := v.(*logrus.Entry); ok {
				return entry
			}
		}
	}
	return logrus.StandardLogger()
}
