package logger

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Run("json格式和级别", func(t *testing.T) {
		log := New(Config{Level: "warn", Format: "json", Output: "stderr"})
		assert.Equal(t, logrus.WarnLevel, log.GetLevel())
		assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
	})

	t.Run("非法级别回退到info", func(t *testing.T) {
		log := New(Config{Level: "verbose"})
		assert.Equal(t, logrus.InfoLevel, log.GetLevel())
		assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
	})

	t.Run("输出到文件", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		log := New(Config{Level: "info", Output: path})
		log.Info("hello")
		assert.FileExists(t, path)
	})
}

func TestFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("返回请求级日志", func(t *testing.T) {
		log, hook := test.NewNullLogger()
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(ContextKey, log.WithField("request_id", "r-1"))

		FromContext(c).Info("ok")
		if assert.Len(t, hook.Entries, 1) {
			assert.Equal(t, "r-1", hook.LastEntry().Data["request_id"])
		}
	})

	t.Run("未设置时返回标准logger", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		assert.Equal(t, logrus.StandardLogger(), FromContext(c))
		assert.Equal(t, logrus.StandardLogger(), FromContext(nil))
	})
}
