package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// RemoteCache 二级缓存（Redis）。未配置时为 nil
type RemoteCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

const cacheKeyPrefix = "catalog:"

// CachedClient 为任意 Client 加两级缓存：进程内 go-cache + 可选 Redis。
// 目录数据在学期内基本不变，失败结果不缓存。
type CachedClient struct {
	next   Client
	local  *gocache.Cache
	remote RemoteCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedClient 创建带缓存的目录客户端；remote 可为 nil
func NewCachedClient(next Client, remote RemoteCache, ttl time.Duration, logger *zap.Logger) *CachedClient {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &CachedClient{
		next:   next,
		local:  gocache.New(ttl, 2*ttl),
		remote: remote,
		ttl:    ttl,
		logger: logger,
	}
}

// ListDepartments 带缓存
func (c *CachedClient) ListDepartments(ctx context.Context, term Term) ([]Department, error) {
	var out []Department
	err := c.cached(ctx, cacheKey(term, "depts"), &out, func() (interface{}, error) {
		return c.next.ListDepartments(ctx, term)
	})
	return out, err
}

// ListCourses 带缓存
func (c *CachedClient) ListCourses(ctx context.Context, term Term, dept string) ([]Course, error) {
	var out []Course
	err := c.cached(ctx, cacheKey(term, "courses", dept), &out, func() (interface{}, error) {
		return c.next.ListCourses(ctx, term, dept)
	})
	return out, err
}

// ListSections 带缓存
func (c *CachedClient) ListSections(ctx context.Context, term Term, dept, number string) ([]SectionSummary, error) {
	var out []SectionSummary
	err := c.cached(ctx, cacheKey(term, "sections", dept, number), &out, func() (interface{}, error) {
		return c.next.ListSections(ctx, term, dept, number)
	})
	return out, err
}

// GetSectionDetails 带缓存
func (c *CachedClient) GetSectionDetails(ctx context.Context, term Term, dept, number, label string) (*SectionDetails, error) {
	var out SectionDetails
	err := c.cached(ctx, cacheKey(term, "details", dept, number, label), &out, func() (interface{}, error) {
		return c.next.GetSectionDetails(ctx, term, dept, number, label)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Flush 清空进程内缓存
func (c *CachedClient) Flush() {
	c.local.Flush()
}

// cached 依次查本地、远端，均未命中时回源并回填两级缓存。
// 值以 JSON 存放，保证两级缓存取出的是独立副本。
func (c *CachedClient) cached(ctx context.Context, key string, out interface{}, fetch func() (interface{}, error)) error {
	if v, ok := c.local.Get(key); ok {
		return json.Unmarshal(v.([]byte), out)
	}

	if c.remote != nil {
		data, ok, err := c.remote.GetBytes(ctx, key)
		if err != nil {
			c.logger.Warn("读取 Redis 目录缓存失败，降级回源", zap.String("key", key), zap.Error(err))
		} else if ok {
			if err := json.Unmarshal(data, out); err == nil {
				c.local.SetDefault(key, data)
				return nil
			}
		}
	}

	v, err := fetch()
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("编码目录缓存失败: %w", err)
	}
	c.local.SetDefault(key, data)
	if c.remote != nil {
		if err := c.remote.SetBytes(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("写入 Redis 目录缓存失败", zap.String("key", key), zap.Error(err))
		}
	}
	return json.Unmarshal(data, out)
}

func cacheKey(term Term, kind string, parts ...string) string {
	segs := []string{term.Key(), kind}
	for _, p := range parts {
		segs = append(segs, strings.ToLower(strings.TrimSpace(p)))
	}
	return cacheKeyPrefix + strings.Join(segs, ":")
}
