package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dorm-repair/pkg/redis"
)

func TestMemoryStore_SaveGetDelete(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	sess := New(7, true)
	if sess.ID == "" {
		t.Fatal("会话 ID 不应为空")
	}
	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("Save 应成功: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if got.UserID != 7 || !got.IsStaff {
		t.Errorf("会话内容不一致: %+v", got)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("删除后期望 ErrNotFound，实际: %v", err)
	}
}

func TestMemoryStore_Expire(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	sess := New(1, false)
	_ = store.Save(ctx, sess, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("过期后期望 ErrNotFound，实际: %v", err)
	}
}

func TestNew_UniqueIDs(t *testing.T) {
	a, b := New(1, false), New(1, false)
	if a.ID == b.ID {
		t.Error("两次生成的会话 ID 不应相同")
	}
}

func newTestRedisStore(t *testing.T) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(redis.NewFromUniversal(rdb, zap.NewNop())), mr
}

func TestRedisStore_SaveGetDelete(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	sess := New(42, true)
	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("Save 应成功: %v", err)
	}
	if !mr.Exists("session:" + sess.ID) {
		t.Fatal("Redis 中应存在会话键")
	}
	if ttl := mr.TTL("session:" + sess.ID); ttl != time.Hour {
		t.Errorf("期望 TTL=1h，实际=%s", ttl)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if got.ID != sess.ID || got.UserID != 42 || !got.IsStaff {
		t.Errorf("会话内容不一致: %+v", got)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("删除后期望 ErrNotFound，实际: %v", err)
	}
}

func TestRedisStore_Expire(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	sess := New(1, false)
	if err := store.Save(ctx, sess, time.Minute); err != nil {
		t.Fatalf("Save 应成功: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("过期后期望 ErrNotFound，实际: %v", err)
	}
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	store, mr := newTestRedisStore(t)

	if err := mr.Set("session:broken", "not-json"); err != nil {
		t.Fatalf("写入测试数据失败: %v", err)
	}
	_, err := store.Get(context.Background(), "broken")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("损坏的会话数据应返回解析错误，实际: %v", err)
	}
}
