package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/bookshelf/internal/application/cache"
	"github.com/xiebiao/bookshelf/pkg/circuitbreaker"
	"github.com/xiebiao/bookshelf/pkg/metrics"
)

// invalidateScript 模式批量删除脚本
// 每个模式先INCR其纪元键再匹配删除,整个脚本原子执行:
// 脚本执行期间不会有新写入混进来;携带旧纪元的条件写入随后都会被丢弃
var invalidateScript = redis.NewScript(`
local deleted = 0
for i = 1, #KEYS do
  redis.call('INCR', 'epoch:' .. KEYS[i])
  local matched = redis.call('KEYS', KEYS[i])
  if #matched > 0 then
    deleted = deleted + redis.call('UNLINK', unpack(matched))
  end
end
return deleted
`)

// guardedSetScript 纪元条件写入脚本
// KEYS[1]=纪元键 KEYS[2]=缓存键 ARGV[1]=快照纪元 ARGV[2]=负载 ARGV[3]=TTL毫秒
// 纪元在快照之后前移过(作用域被失效过)时放弃写入,防止陈旧负载复活
var guardedSetScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// CacheStore 查询缓存存储(Redis实现)
// 设计说明：
// 1. 实现application/cache.Store端口
// 2. 所有后端调用经过熔断器:Redis不可用时降级为"全部未命中",
//    读路径直接回源数据库,不让每个请求都等待连接超时
// 3. 失效用Lua脚本原子执行,命中/未命中/降级都打点
type CacheStore struct {
	client  *redis.Client
	breaker *circuitbreaker.CircuitBreaker
}

// NewCacheStore 创建查询缓存存储
func NewCacheStore(client *redis.Client) *CacheStore {
	cb := circuitbreaker.New("query-cache", circuitbreaker.Config{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     10 * time.Second,
	})
	return &CacheStore{
		client:  client,
		breaker: cb,
	}
}

var _ cache.Store = (*CacheStore)(nil)

// Get 查询缓存
// 后端故障或熔断打开时返回未命中(不返回错误),调用方正常回源
func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var found bool

	err := s.breaker.Execute(func() error {
		result, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// 未命中是正常结果,不算后端失败
				return nil
			}
			return err
		}
		value = result
		found = true
		return nil
	})

	if err != nil {
		metrics.CacheDegraded(resourceOf(key))
		return nil, false, nil
	}

	if found {
		metrics.CacheHit(resourceOf(key))
	} else {
		metrics.CacheMiss(resourceOf(key))
	}
	return value, found, nil
}

// EpochOf 返回作用域当前的失效纪元
// 后端故障或熔断打开时返回负纪元:带着它的条件写入会被直接丢弃,
// 与Get的降级路径对齐(降级期间缓存只读不写)
func (s *CacheStore) EpochOf(ctx context.Context, scope string) (cache.Epoch, error) {
	var value int64

	err := s.breaker.Execute(func() error {
		v, err := s.client.Get(ctx, epochKey(scope)).Int64()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// 从未失效过的作用域纪元为0
				return nil
			}
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		metrics.CacheDegraded(resourceOf(scope))
		return cache.Epoch{Scope: scope, Value: -1}, nil
	}

	return cache.Epoch{Scope: scope, Value: value}, nil
}

// Set 纪元条件写入并刷新TTL
// 作用域在快照之后被失效过时放弃写入;降级期间静默丢弃:
// 缓存是派生视图,丢写只意味着下次读回源
func (s *CacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration, guard cache.Epoch) error {
	if guard.Value < 0 {
		return nil
	}

	err := s.breaker.Execute(func() error {
		return guardedSetScript.Run(ctx, s.client,
			[]string{epochKey(guard.Scope), key},
			guard.Value, value, ttl.Milliseconds()).Err()
	})
	if err != nil {
		metrics.CacheDegraded(resourceOf(key))
	}
	return nil
}

// Invalidate 按glob模式批量删除并前移各模式的纪元,返回删除的key数量
// 失效失败会留下最长一个TTL周期的陈旧数据,错误上抛由调用方记录
func (s *CacheStore) Invalidate(ctx context.Context, patterns ...string) (int64, error) {
	if len(patterns) == 0 {
		return 0, nil
	}

	var deleted int64
	err := s.breaker.Execute(func() error {
		n, err := invalidateScript.Run(ctx, s.client, patterns).Int64()
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, p := range patterns {
		metrics.CacheInvalidation(p)
	}
	return deleted, nil
}

// resourceOf 从key提取资源段(第一个冒号前)用于指标维度
func resourceOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// epochKey 作用域的纪元键
// 前缀保证纪元键不会被自己作用域的glob模式匹配删除
func epochKey(scope string) string {
	return "epoch:" + scope
}
