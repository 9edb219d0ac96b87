package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound 键不存在或已过期
var ErrNotFound = errors.New("store: key not found")

// Store 带过期时间的键值存储契约。
// 编排器只依赖按键的 set/get 语义，后端（内存或 badger）可替换。
// 同进程内写后读必须立即可见。
type Store interface {
	// Set 以 JSON 序列化写入 value，ttl 为 0 表示不过期
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Get 读取并反序列化到 out，不存在时返回 ErrNotFound
	Get(ctx context.Context, key string, out any) error
	Close() error
}
