package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookreview/internal/domain/book"
	"github.com/xiebiao/bookreview/internal/domain/rating"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("创建并读取会话", func(t *testing.T) {
		mr, client := newTestClient(t)
		store := NewSessionStore(client)

		sess, err := store.Create(ctx, 2, "bob", "10.0.0.8", time.Hour)
		require.NoError(t, err)
		assert.NotEmpty(t, sess.ID)
		assert.True(t, mr.Exists("session:"+sess.ID))
		assert.Equal(t, time.Hour, mr.TTL("session:"+sess.ID))

		got, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, uint(2), got.UserID)
		assert.Equal(t, "bob", got.Username)
		assert.Equal(t, "10.0.0.8", got.IP)
	})

	t.Run("每次登录生成新的会话ID", func(t *testing.T) {
		_, client := newTestClient(t)
		store := NewSessionStore(client)

		a, err := store.Create(ctx, 1, "alice", "", time.Hour)
		require.NoError(t, err)
		b, err := store.Create(ctx, 1, "alice", "", time.Hour)
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("过期后不存在", func(t *testing.T) {
		mr, client := newTestClient(t)
		store := NewSessionStore(client)

		sess, err := store.Create(ctx, 1, "alice", "", time.Minute)
		require.NoError(t, err)
		mr.FastForward(2 * time.Minute)

		_, err = store.Get(ctx, sess.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("删除会话", func(t *testing.T) {
		_, client := newTestClient(t)
		store := NewSessionStore(client)

		sess, err := store.Create(ctx, 1, "alice", "", time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Delete(ctx, sess.ID))
		require.NoError(t, store.Delete(ctx, ""))

		_, err = store.Get(ctx, sess.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("黑名单", func(t *testing.T) {
		mr, client := newTestClient(t)
		store := NewSessionStore(client)

		blocked, err := store.IsInBlacklist(ctx, "tok")
		require.NoError(t, err)
		assert.False(t, blocked)

		require.NoError(t, store.AddToBlacklist(ctx, "tok", time.Minute))
		blocked, err = store.IsInBlacklist(ctx, "tok")
		require.NoError(t, err)
		assert.True(t, blocked)

		mr.FastForward(2 * time.Minute)
		blocked, err = store.IsInBlacklist(ctx, "tok")
		require.NoError(t, err)
		assert.False(t, blocked)
	})

	t.Run("Redis不可用", func(t *testing.T) {
		mr, client := newTestClient(t)
		store := NewSessionStore(client)
		mr.Close()

		_, err := store.Get(ctx, "sid")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrSessionNotFound)
	})
}

type countingBookRepo struct {
	calls int
	book  *book.Book
	err   error
}

func (r *countingBookRepo) FindByISBN(context.Context, string) (*book.Book, error) {
	r.calls++
	return r.book, r.err
}

func (r *countingBookRepo) Search(context.Context, book.SearchParams, int) ([]*book.Book, error) {
	r.calls++
	return []*book.Book{r.book}, nil
}

func TestCachedBookRepository(t *testing.T) {
	ctx := context.Background()
	log, _ := test.NewNullLogger()

	t.Run("第二次命中缓存", func(t *testing.T) {
		mr, client := newTestClient(t)
		inner := &countingBookRepo{book: &book.Book{ISBN: "0380795272", Title: "Krondor", Author: "Feist", Year: 1998}}
		repo := NewCachedBookRepository(inner, NewCacheStore(client), time.Hour, log)

		first, err := repo.FindByISBN(ctx, "0380795272")
		require.NoError(t, err)
		second, err := repo.FindByISBN(ctx, "0380795272")
		require.NoError(t, err)

		assert.Equal(t, 1, inner.calls)
		assert.Equal(t, first, second)
		assert.True(t, mr.Exists("book:0380795272"))
	})

	t.Run("不存在的图书不缓存", func(t *testing.T) {
		mr, client := newTestClient(t)
		inner := &countingBookRepo{err: book.ErrBookNotFound}
		repo := NewCachedBookRepository(inner, NewCacheStore(client), time.Hour, log)

		_, err := repo.FindByISBN(ctx, "x")
		assert.ErrorIs(t, err, book.ErrBookNotFound)
		assert.False(t, mr.Exists("book:x"))
	})

	t.Run("缓存不可用时回源", func(t *testing.T) {
		mr, client := newTestClient(t)
		inner := &countingBookRepo{book: &book.Book{ISBN: "1"}}
		repo := NewCachedBookRepository(inner, NewCacheStore(client), time.Hour, log)
		mr.Close()

		b, err := repo.FindByISBN(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "1", b.ISBN)
	})

	t.Run("搜索直接透传", func(t *testing.T) {
		_, client := newTestClient(t)
		inner := &countingBookRepo{book: &book.Book{ISBN: "1"}}
		repo := NewCachedBookRepository(inner, NewCacheStore(client), time.Hour, log)

		_, err := repo.Search(ctx, book.SearchParams{Title: "a"}, 10)
		require.NoError(t, err)
		_, err = repo.Search(ctx, book.SearchParams{Title: "a"}, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, inner.calls)
	})
}

type stubProvider struct {
	calls int
	info  *rating.Info
	err   error
}

func (p *stubProvider) LookupRatingCount(context.Context, string) (*rating.Info, error) {
	p.calls++
	return p.info, p.err
}

func TestCachedRatingProvider(t *testing.T) {
	ctx := context.Background()
	log, _ := test.NewNullLogger()

	t.Run("成功结果被缓存", func(t *testing.T) {
		mr, client := newTestClient(t)
		inner := &stubProvider{info: &rating.Info{ISBN: "1", RatingsCount: 1200, AverageRating: 4.1}}
		p := NewCachedRatingProvider(inner, NewCacheStore(client), time.Hour, log)

		for i := 0; i < 3; i++ {
			info, err := p.LookupRatingCount(ctx, "1")
			require.NoError(t, err)
			assert.Equal(t, 1200, info.RatingsCount)
		}
		assert.Equal(t, 1, inner.calls)
		assert.Equal(t, time.Hour, mr.TTL("rating:1"))
	})

	t.Run("失败结果不缓存", func(t *testing.T) {
		mr, client := newTestClient(t)
		inner := &stubProvider{err: rating.ErrExternalUnavailable}
		p := NewCachedRatingProvider(inner, NewCacheStore(client), time.Hour, log)

		_, err := p.LookupRatingCount(ctx, "1")
		assert.True(t, errors.Is(err, rating.ErrExternalUnavailable))
		assert.False(t, mr.Exists("rating:1"))
	})
}
