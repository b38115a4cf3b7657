package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"dorm-repair/pkg/redis"
)

// ErrNotFound 会话不存在或已过期
var ErrNotFound = errors.New("会话不存在或已过期")

// Session 服务端会话数据
type Session struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

// New 生成一个新的会话（ID 为随机 UUID）
func New(userID uint, isStaff bool) *Session {
	return &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		IsStaff:   isStaff,
		CreatedAt: time.Now(),
	}
}

// Store 会话存储接口
type Store interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// ── Redis 实现 ──

type redisStore struct {
	client *redis.Client
}

// NewRedisStore 基于 Redis 的会话存储，适合多实例部署
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("序列化会话失败: %w", err)
	}
	return s.client.SetSession(ctx, sess.ID, b, ttl)
}

func (s *redisStore) Get(ctx context.Context, id string) (*Session, error) {
	b, err := s.client.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("解析会话失败: %w", err)
	}
	return &sess, nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	return s.client.DeleteSession(ctx, id)
}

// ── 内存实现 ──

type memoryStore struct {
	c *cache.Cache
}

// NewMemoryStore 进程内会话存储（Redis 不可用时降级使用，重启后会话失效）
func NewMemoryStore(cleanupInterval time.Duration) Store {
	return &memoryStore{c: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (s *memoryStore) Save(_ context.Context, sess *Session, ttl time.Duration) error {
	cp := *sess
	s.c.Set(sess.ID, &cp, ttl)
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (*Session, error) {
	v, ok := s.c.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v.(*Session)
	return &cp, nil
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.c.Delete(id)
	return nil
}
