package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 集成测试针对已经启动的服务（docker compose + cmd/api）
// 未设置BOOKREVIEW_TEST_BASE_URL时全部跳过
//
//	BOOKREVIEW_TEST_BASE_URL=http://localhost:8080/api/v1 go test ./test/integration/...

const timeout = 10 * time.Second

// Response 统一响应结构
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// SessionData 注册/登录响应数据
type SessionData struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
	Next      string `json:"next"`
}

// BookItem 检索结果项
type BookItem struct {
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   int    `json:"year"`
}

// SearchData 检索响应数据
type SearchData struct {
	List  []BookItem `json:"list"`
	Total int        `json:"total"`
}

// DetailData 详情响应数据
type DetailData struct {
	Book        BookItem `json:"book"`
	ReviewCount int      `json:"review_count"`
	HasReviewed bool     `json:"has_reviewed"`
}

// BaseURL 被测服务地址
func BaseURL(t *testing.T) string {
	t.Helper()
	base := os.Getenv("BOOKREVIEW_TEST_BASE_URL")
	if base == "" {
		t.Skip("BOOKREVIEW_TEST_BASE_URL未设置，跳过集成测试")
	}
	return base
}

// PostJSON 发送POST请求并解析统一响应
func PostJSON(t *testing.T, url string, data interface{}, token string) *Response {
	t.Helper()
	jsonData, err := json.Marshal(data)
	require.NoError(t, err, "JSON序列化失败")

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	require.NoError(t, err, "创建HTTP请求失败")
	req.Header.Set("Content-Type", "application/json")
	return do(t, req, token)
}

// GetJSON 发送GET请求并解析统一响应
func GetJSON(t *testing.T, url string, token string) *Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err, "创建HTTP请求失败")
	return do(t, req, token)
}

func do(t *testing.T, req *http.Request, token string) *Response {
	t.Helper()
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	require.NoError(t, err, "发送HTTP请求失败")
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")

	var result Response
	require.NoError(t, json.Unmarshal(body, &result), "解析JSON响应失败: %s", string(body))
	return &result
}

// GenerateUsername 生成唯一的测试用户名，重复运行不会冲突
func GenerateUsername(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

// RegisterTestUser 注册测试用户并返回令牌
func RegisterTestUser(t *testing.T, base, prefix string) (username, token string) {
	t.Helper()
	username = GenerateUsername(prefix)
	resp := PostJSON(t, base+"/users/register", map[string]string{
		"username": username,
		"password": "Test1234",
	}, "")
	require.Equal(t, 0, resp.Code, "注册失败: %s", resp.Message)

	var data SessionData
	require.NoError(t, json.Unmarshal(resp.Data, &data), "解析注册响应失败")
	require.NotEmpty(t, data.Token)
	return username, data.Token
}
