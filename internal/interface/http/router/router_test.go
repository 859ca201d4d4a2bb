package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbook "github.com/xiebiao/bookreview/internal/application/book"
	appreview "github.com/xiebiao/bookreview/internal/application/review"
	appuser "github.com/xiebiao/bookreview/internal/application/user"
	"github.com/xiebiao/bookreview/internal/domain/auth"
	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/domain/rating"
	"github.com/xiebiao/bookreview/internal/domain/review"
	"github.com/xiebiao/bookreview/internal/domain/user"
	"github.com/xiebiao/bookreview/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookreview/internal/interface/http/handler"
	"github.com/xiebiao/bookreview/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookreview/pkg/errors"
	"github.com/xiebiao/bookreview/pkg/jwt"
	"github.com/xiebiao/bookreview/pkg/mq"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---- 内存仓储 ----

type memUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[string]*user.User
}

func (r *memUserRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Username]; ok {
		return user.ErrDuplicateUsername
	}
	r.nextID++
	u.ID = r.nextID
	r.users[u.Username] = u
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id uint) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrUnknownUsername
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[username]; ok {
		return u, nil
	}
	return nil, user.ErrUnknownUsername
}

type memBookRepo struct {
	books []*book.Book
}

func (r *memBookRepo) FindByISBN(_ context.Context, isbn string) (*book.Book, error) {
	for _, b := range r.books {
		if b.ISBN == isbn {
			return b, nil
		}
	}
	return nil, book.ErrBookNotFound
}

func (r *memBookRepo) Search(_ context.Context, p book.SearchParams, limit int) ([]*book.Book, error) {
	contains := func(field, pattern string) bool {
		return pattern != "" && strings.Contains(strings.ToLower(field), strings.ToLower(pattern))
	}
	result := []*book.Book{}
	for _, b := range r.books {
		if contains(b.ISBN, p.ISBN) || contains(b.Title, p.Title) || contains(b.Author, p.Author) {
			result = append(result, b)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

type memReviewRepo struct {
	mu      sync.Mutex
	users   *memUserRepo
	reviews []*review.Review
}

func (r *memReviewRepo) HasReviewed(_ context.Context, userID uint, isbn string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.UserID == userID && rv.ISBN == isbn {
			return true, nil
		}
	}
	return false, nil
}

func (r *memReviewRepo) Create(_ context.Context, rv *review.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews {
		if existing.UserID == rv.UserID && existing.ISBN == rv.ISBN {
			return review.ErrAlreadyReviewed
		}
	}
	rv.ID = uint(len(r.reviews) + 1)
	r.reviews = append(r.reviews, rv)
	return nil
}

func (r *memReviewRepo) ListByISBN(ctx context.Context, isbn string) ([]*review.View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	views := []*review.View{}
	for _, rv := range r.reviews {
		if rv.ISBN != isbn {
			continue
		}
		v := &review.View{ID: rv.ID, ISBN: rv.ISBN, UserID: rv.UserID, Rating: rv.Rating, Text: rv.Text, CreatedAt: rv.CreatedAt}
		if u, err := r.users.FindByID(ctx, rv.UserID); err == nil {
			v.Username = u.Username
		}
		views = append(views, v)
	}
	return views, nil
}

type noTx struct{}

func (noTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type staticProvider struct{}

func (staticProvider) LookupRatingCount(_ context.Context, isbn string) (*rating.Info, error) {
	if isbn == "0380795272" {
		return &rating.Info{ISBN: isbn, RatingsCount: 28455, AverageRating: 4.05}, nil
	}
	return nil, rating.ErrExternalUnavailable
}

// ---- 组装 ----

const (
	cookieName = "bookreview_session"
	loginPath  = "/api/v1/users/login"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	log, _ := test.NewNullLogger()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := &memUserRepo{users: map[string]*user.User{}}
	books := &memBookRepo{books: []*book.Book{
		{ISBN: "0380795272", Title: "Krondor: The Betrayal", Author: "Raymond E. Feist", Year: 1998},
		{ISBN: "1416949658", Title: "The Dark Is Rising", Author: "Susan Cooper", Year: 1973},
		{ISBN: "0812521390", Title: "Aztec", Author: "Gary Jennings", Year: 1980},
	}}
	reviews := &memReviewRepo{users: users}

	userService := user.NewService(users, 4)
	bookService := book.NewService(books)
	reviewService := review.NewService(reviews)

	sessionStore := redis.NewSessionStore(client)
	tokens := jwt.NewManager("test-secret", time.Hour)
	sessions := appuser.NewSessionManager(sessionStore, tokens, time.Hour, log)
	authenticator := auth.NewAuthenticator(userService)

	h := Handlers{
		User: handler.NewUserHandler(
			appuser.NewRegisterUseCase(userService, sessions, log),
			appuser.NewLoginUseCase(authenticator, sessions, log),
			appuser.NewLogoutUseCase(authenticator, sessions),
			handler.CookieConfig{Name: cookieName, TTL: time.Hour},
		),
		Book: handler.NewBookHandler(
			appbook.NewSearchBooksUseCase(bookService, log),
			appbook.NewGetBookDetailUseCase(bookService, reviewService, staticProvider{}, time.Second, log),
		),
		Review: handler.NewReviewHandler(
			appreview.NewAddReviewUseCase(noTx{}, bookService, reviewService, mq.NoopPublisher{}, log),
		),
	}
	authMiddleware := middleware.NewAuthMiddleware(tokens, sessionStore, cookieName, loginPath)
	return New(log, authMiddleware, h, Options{})
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type request struct {
	method      string
	path        string
	body        string
	contentType string
	token       string
	accept      string
	headers     map[string]string
}

func do(t *testing.T, r *gin.Engine, req request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	httpReq := httptest.NewRequest(req.method, req.path, strings.NewReader(req.body))
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	if req.accept != "" {
		httpReq.Header.Set("Accept", req.accept)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)

	var env envelope
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func registerUser(t *testing.T, r *gin.Engine, username, password string) string {
	t.Helper()
	_, env := do(t, r, request{
		method:      http.MethodPost,
		path:        "/api/v1/users/register",
		body:        `{"username":"` + username + `","password":"` + password + `"}`,
		contentType: "application/json",
	})
	require.Equal(t, 0, env.Code, env.Message)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

// ---- 测试 ----

func TestPing(t *testing.T) {
	r := newTestServer(t)
	w, env := do(t, r, request{method: http.MethodGet, path: "/ping"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestRequireAuth(t *testing.T) {
	r := newTestServer(t)

	t.Run("API客户端返回登录地址", func(t *testing.T) {
		_, env := do(t, r, request{method: http.MethodGet, path: "/api/v1/search?titleQuery=aztec"})
		assert.Equal(t, apperrors.ErrCodeUnauthorized, env.Code)

		var data struct {
			LoginURL string `json:"login_url"`
			Next     string `json:"next"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "/api/v1/search?titleQuery=aztec", data.Next)
		assert.Equal(t, loginPath+"?next=%2Fapi%2Fv1%2Fsearch%3FtitleQuery%3Daztec", data.LoginURL)
	})

	t.Run("浏览器302跳转", func(t *testing.T) {
		w, _ := do(t, r, request{method: http.MethodGet, path: "/api/v1/books/0380795272", accept: "text/html,application/xhtml+xml"})
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, loginPath+"?next=%2Fapi%2Fv1%2Fbooks%2F0380795272", w.Header().Get("Location"))
	})

	t.Run("伪造令牌按匿名处理", func(t *testing.T) {
		_, env := do(t, r, request{method: http.MethodGet, path: "/api/v1/search?isbnQuery=1", token: "forged"})
		assert.Equal(t, apperrors.ErrCodeUnauthorized, env.Code)
	})
}

func TestLoginURLRoundTrip(t *testing.T) {
	r := newTestServer(t)
	registerUser(t, r, "bob", "secret")
	const target = "/api/v1/books/0380795272"

	// 浏览器跟随302落到登录入口
	w, _ := do(t, r, request{method: http.MethodGet, path: target, accept: "text/html"})
	require.Equal(t, http.StatusFound, w.Code)
	location := w.Header().Get("Location")

	w, env := do(t, r, request{method: http.MethodGet, path: location})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, env.Code, env.Message)
	var prompt struct {
		Next string `json:"next"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &prompt))
	assert.Equal(t, target, prompt.Next)

	// API客户端向login_url提交凭证，next原样带回
	_, env = do(t, r, request{method: http.MethodGet, path: target})
	require.Equal(t, apperrors.ErrCodeUnauthorized, env.Code)
	var denied struct {
		LoginURL string `json:"login_url"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &denied))
	assert.Equal(t, location, denied.LoginURL)

	_, env = do(t, r, request{
		method:      http.MethodPost,
		path:        denied.LoginURL,
		body:        `{"username":"bob","password":"secret"}`,
		contentType: "application/json",
	})
	require.Equal(t, 0, env.Code, env.Message)
	var session struct {
		Token string `json:"token"`
		Next  string `json:"next"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.Equal(t, target, session.Next)

	_, env = do(t, r, request{method: http.MethodGet, path: session.Next, token: session.Token})
	assert.Equal(t, 0, env.Code, env.Message)
}

func TestRegisterAndLogin(t *testing.T) {
	r := newTestServer(t)
	registerUser(t, r, "alice", "secret")

	t.Run("重复注册", func(t *testing.T) {
		_, env := do(t, r, request{
			method:      http.MethodPost,
			path:        "/api/v1/users/register",
			body:        `{"username":"alice","password":"other"}`,
			contentType: "application/json",
		})
		assert.Equal(t, apperrors.ErrCodeUsernameDuplicate, env.Code)
	})

	t.Run("用户名区分大小写", func(t *testing.T) {
		registerUser(t, r, "Alice", "secret")
	})

	t.Run("空用户名", func(t *testing.T) {
		_, env := do(t, r, request{
			method:      http.MethodPost,
			path:        "/api/v1/users/register",
			body:        `{"username":"","password":"x"}`,
			contentType: "application/json",
		})
		assert.Equal(t, apperrors.ErrCodeInvalidParams, env.Code)
		assert.Equal(t, "请输入用户名", env.Message)
	})

	t.Run("表单登录写入Cookie并返回next", func(t *testing.T) {
		w, env := do(t, r, request{
			method:      http.MethodPost,
			path:        "/api/v1/users/login",
			body:        "username=alice&password=secret&next=%2Fapi%2Fv1%2Fbooks%2F0380795272",
			contentType: "application/x-www-form-urlencoded",
		})
		require.Equal(t, 0, env.Code, env.Message)
		assert.Contains(t, w.Header().Get("Set-Cookie"), cookieName+"=")
		assert.Contains(t, w.Header().Get("Set-Cookie"), "HttpOnly")

		var data struct {
			Next string `json:"next"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "/api/v1/books/0380795272", data.Next)
	})

	t.Run("用户名不存在", func(t *testing.T) {
		_, env := do(t, r, request{
			method:      http.MethodPost,
			path:        "/api/v1/users/login",
			body:        `{"username":"bob","password":"secret"}`,
			contentType: "application/json",
		})
		assert.Equal(t, apperrors.ErrCodeUserNotFound, env.Code)
		assert.Equal(t, "用户名不存在", env.Message)
	})

	t.Run("密码错误", func(t *testing.T) {
		_, env := do(t, r, request{
			method:      http.MethodPost,
			path:        "/api/v1/users/login",
			body:        `{"username":"alice","password":"wrong"}`,
			contentType: "application/json",
		})
		assert.Equal(t, apperrors.ErrCodeInvalidPassword, env.Code)
	})
}

func TestSearch(t *testing.T) {
	r := newTestServer(t)
	token := registerUser(t, r, "alice", "secret")

	t.Run("多字段OR匹配", func(t *testing.T) {
		_, env := do(t, r, request{method: http.MethodGet, path: "/api/v1/search?titleQuery=DARK&authorQuery=jennings", token: token})
		require.Equal(t, 0, env.Code, env.Message)

		var data struct {
			List  []appbook.BookDTO `json:"list"`
			Total int               `json:"total"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, 2, data.Total)
		assert.Equal(t, "1416949658", data.List[0].ISBN)
		assert.Equal(t, "0812521390", data.List[1].ISBN)
	})

	t.Run("表单POST", func(t *testing.T) {
		_, env := do(t, r, request{
			method:      http.MethodPost,
			path:        "/api/v1/search",
			body:        "isbnQuery=0380",
			contentType: "application/x-www-form-urlencoded",
			token:       token,
		})
		require.Equal(t, 0, env.Code, env.Message)
	})

	t.Run("空条件", func(t *testing.T) {
		_, env := do(t, r, request{method: http.MethodGet, path: "/api/v1/search?titleQuery=%20%20", token: token})
		assert.Equal(t, apperrors.ErrCodeEmptyQuery, env.Code)
		assert.Equal(t, "请输入ISBN、书名或作者", env.Message)
	})

	t.Run("无匹配", func(t *testing.T) {
		_, env := do(t, r, request{method: http.MethodGet, path: "/api/v1/search?titleQuery=zzzz", token: token})
		assert.Equal(t, apperrors.ErrCodeNoMatch, env.Code)
		assert.Equal(t, "没有找到匹配的图书", env.Message)
	})
}

func TestReviewFlow(t *testing.T) {
	r := newTestServer(t)
	token := registerUser(t, r, "alice", "secret")
	const path = "/api/v1/books/0380795272/reviews"

	_, env := do(t, r, request{
		method:      http.MethodPost,
		path:        path,
		body:        "rating=5&text_review=%E5%A5%BD%E7%9C%8B",
		contentType: "application/x-www-form-urlencoded",
		token:       token,
	})
	require.Equal(t, 0, env.Code, env.Message)

	t.Run("重复评论", func(t *testing.T) {
		_, env := do(t, r, request{
			method:      http.MethodPost,
			path:        path,
			body:        `{"rating":"3","text_review":"again"}`,
			contentType: "application/json",
			token:       token,
		})
		assert.Equal(t, apperrors.ErrCodeAlreadyReviewed, env.Code)
	})

	t.Run("评分非法", func(t *testing.T) {
		other := registerUser(t, r, "bob", "secret")
		_, env := do(t, r, request{
			method:      http.MethodPost,
			path:        path,
			body:        `{"rating":"9","text_review":"x"}`,
			contentType: "application/json",
			token:       other,
		})
		assert.Equal(t, apperrors.ErrCodeInvalidRating, env.Code)
	})

	t.Run("图书不存在", func(t *testing.T) {
		_, env := do(t, r, request{
			method:      http.MethodPost,
			path:        "/api/v1/books/nope/reviews",
			body:        `{"rating":"3","text_review":"x"}`,
			contentType: "application/json",
			token:       token,
		})
		assert.Equal(t, apperrors.ErrCodeBookNotFound, env.Code)
	})

	t.Run("详情页聚合", func(t *testing.T) {
		_, env := do(t, r, request{method: http.MethodGet, path: "/api/v1/books/0380795272", token: token})
		require.Equal(t, 0, env.Code, env.Message)

		var data appbook.BookDetailResponse
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "Krondor: The Betrayal", data.Book.Title)
		require.Len(t, data.Reviews, 1)
		assert.Equal(t, "alice", data.Reviews[0].Username)
		assert.Equal(t, 5.0, data.AverageRating)
		assert.True(t, data.HasReviewed)
		require.NotNil(t, data.ExternalRating)
		assert.Equal(t, 28455, data.ExternalRating.RatingsCount)
	})

	t.Run("外部评分不可用时详情仍可访问", func(t *testing.T) {
		_, env := do(t, r, request{method: http.MethodGet, path: "/api/v1/books/1416949658", token: token})
		require.Equal(t, 0, env.Code, env.Message)

		var data appbook.BookDetailResponse
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Nil(t, data.ExternalRating)
		assert.False(t, data.HasReviewed)
	})
}

func TestEmptyBearerFallsBackToCookie(t *testing.T) {
	r := newTestServer(t)
	token := registerUser(t, r, "alice", "secret")

	_, env := do(t, r, request{
		method: http.MethodGet,
		path:   "/api/v1/search?isbnQuery=0380",
		headers: map[string]string{
			"Authorization": "Bearer   ",
			"Cookie":        cookieName + "=" + token,
		},
	})
	assert.Equal(t, 0, env.Code, env.Message)
}

func TestLogout(t *testing.T) {
	r := newTestServer(t)
	token := registerUser(t, r, "alice", "secret")

	_, env := do(t, r, request{method: http.MethodGet, path: "/api/v1/search?isbnQuery=0380", token: token})
	require.Equal(t, 0, env.Code)

	_, env = do(t, r, request{method: http.MethodPost, path: "/api/v1/users/logout", token: token})
	require.Equal(t, 0, env.Code, env.Message)

	_, env = do(t, r, request{method: http.MethodGet, path: "/api/v1/search?isbnQuery=0380", token: token})
	assert.Equal(t, apperrors.ErrCodeUnauthorized, env.Code)
}
