package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwaggerDoc(t *testing.T) {
	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		BasePath string                                `json:"basePath"`
		Paths    map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &doc))

	assert.Equal(t, "图书检索与评论 API", doc.Info.Title)
	// 路由注解写的是完整路径
	assert.Equal(t, "/", doc.BasePath)

	routes := map[string][]string{
		"/api/v1/users/register":       {"post"},
		"/api/v1/users/login":          {"get", "post"},
		"/api/v1/users/logout":         {"post"},
		"/api/v1/search":               {"get", "post"},
		"/api/v1/books/{isbn}":         {"get"},
		"/api/v1/books/{isbn}/reviews": {"post"},
	}
	for path, methods := range routes {
		require.Contains(t, doc.Paths, path)
		for _, m := range methods {
			assert.Contains(t, doc.Paths[path], m, "%s %s", m, path)
		}
	}
}
