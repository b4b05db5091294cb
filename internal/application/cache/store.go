package cache

import (
	"context"
	"time"
)

// Epoch 作用域的失效纪元快照
// 读路径在回源前快照所属作用域的纪元,写缓存时带着快照做条件写入,
// 防止"回源读到旧数据 → 写方失效 → 旧负载写回缓存"的复活竞态:
// 失效会前移纪元,携带旧纪元的写入被丢弃
type Epoch struct {
	Scope string
	Value int64
}

// Store 缓存存储端口（应用层定义，基础设施层实现）
// 设计说明：
// 1. Get以bool区分未命中与错误：缓存故障时实现方应降级为未命中
// 2. Set是纪元条件写入：作用域在快照之后被失效过的写入必须被丢弃
// 3. Invalidate按模式批量删除并前移纪元，要求服务端原子执行
// 4. 缓存永远是派生视图，整体清空只会带来一波miss，不影响正确性
type Store interface {
	// Get 查询缓存（value, 是否命中, 错误）
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// EpochOf 返回作用域当前的失效纪元(从未失效过的作用域为0)
	EpochOf(ctx context.Context, scope string) (Epoch, error)

	// Set 条件写入并刷新TTL:仅当guard作用域的纪元仍等于快照值时生效
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, guard Epoch) error

	// Invalidate 按glob模式批量删除并前移各模式的纪元，返回删除的key数量
	Invalidate(ctx context.Context, patterns ...string) (int64, error)
}
