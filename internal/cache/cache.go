// 包 cache：查询结果缓存（进程内 otter + 可选 Redis）
// 约束：键由归一化后的精确坐标构成，不做量化，缓存命中与直接计算的结果完全一致。
package cache

import (
	"strconv"
	"time"

	"geotz/internal/geo"
	"geotz/internal/resolver"

	"github.com/maypok86/otter/v2"
)

// Key 以归一化坐标的最短精确文本作为键
func Key(pt geo.Point) string {
	return strconv.FormatFloat(pt.Lon, 'g', -1, 64) + "," + strconv.FormatFloat(pt.Lat, 'g', -1, 64)
}

// SharedKey 为跨进程缓存的键，带资产指纹，资产变更后旧条目不再命中
func SharedKey(version string, pt geo.Point) string {
	return version + ":" + Key(pt)
}

// Local：进程内 LRU/TinyLFU 缓存
type Local struct {
	c *otter.Cache[string, resolver.Result]
}

// NewLocal size<=0 时返回 nil（禁用）；ttl<=0 表示不过期
func NewLocal(size int, ttl time.Duration) *Local {
	if size <= 0 {
		return nil
	}
	opts := &otter.Options[string, resolver.Result]{MaximumSize: size}
	if ttl > 0 {
		opts.ExpiryCalculator = otter.ExpiryWriting[string, resolver.Result](ttl)
	}
	return &Local{c: otter.Must(opts)}
}

func (l *Local) Get(key string) (resolver.Result, bool) {
	if l == nil {
		return resolver.Result{}, false
	}
	return l.c.GetIfPresent(key)
}

func (l *Local) Set(key string, v resolver.Result) {
	if l == nil {
		return
	}
	l.c.Set(key, v)
}

func (l *Local) Len() int {
	if l == nil {
		return 0
	}
	return l.c.EstimatedSize()
}
