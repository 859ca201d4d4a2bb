package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Run("缺省值生效", func(t *testing.T) {
		path := writeConfig(t, `
session:
  secret: test-secret
database:
  host: db
  port: 3306
  user: u
  password: p
  dbname: books
`)
		cfg, err := LoadFile(path)
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
		assert.Equal(t, "bookreview_session", cfg.Session.CookieName)
		assert.Equal(t, "/api/v1/users/login", cfg.Session.LoginPath)
		assert.Equal(t, 12, cfg.Auth.BcryptCost)
		assert.Equal(t, 3*time.Second, cfg.Rating.Timeout)
		assert.Equal(t, "u:p@tcp(db:3306)/books?charset=utf8mb4&parseTime=true&loc=Local", cfg.Database.DSN())
	})

	t.Run("环境变量覆盖", func(t *testing.T) {
		t.Setenv("BOOKREVIEW_SERVER_PORT", "9090")
		t.Setenv("BOOKREVIEW_RATING_API_KEY", "k-123")
		path := writeConfig(t, "session:\n  secret: test-secret\n")

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "k-123", cfg.Rating.APIKey)
	})

	t.Run("生产环境禁止默认密钥", func(t *testing.T) {
		path := writeConfig(t, "server:\n  mode: release\nsession:\n  secret: change-me-session-secret\n")
		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("非法bcrypt cost", func(t *testing.T) {
		path := writeConfig(t, "session:\n  secret: s\nauth:\n  bcrypt_cost: 2\n")
		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("启用MQ但未配置url", func(t *testing.T) {
		path := writeConfig(t, "session:\n  secret: s\nmq:\n  enabled: true\n  url: \"\"\n")
		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("文件不存在", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}
