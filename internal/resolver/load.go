package resolver

import (
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"geotz/internal/bands"
	"geotz/internal/boundary"
	"geotz/internal/logger"
	"geotz/internal/metrics"
	"geotz/internal/offsets"
	"geotz/internal/tier"
	"geotz/internal/tzerr"

	"github.com/cespare/xxhash/v2"
)

// Paths：初始化所需的只读资产
type Paths struct {
	National string
	Global   string
	Offsets  string
}

// 文档注释：一次性加载边界库与偏移表并构建编排器
// 约束：任一资产缺失或损坏返回 Initialization 错误，调用方不得继续对外提供查询。
func Load(p Paths) (*Resolver, error) {
	t0 := time.Now()
	nb, nst, err := boundary.LoadFile(p.National)
	if err != nil {
		return nil, err
	}
	gb, gst, err := boundary.LoadFile(p.Global)
	if err != nil {
		return nil, err
	}
	tbl, err := offsets.Load(p.Offsets)
	if err != nil {
		return nil, err
	}
	r, err := New(tier.New("national", tier.National, nb), tier.New("global", tier.Global, gb), tbl, bands.Default())
	if err != nil {
		return nil, err
	}
	if r.version, err = Fingerprint(p); err != nil {
		return nil, err
	}
	metrics.BoundariesLoaded.WithLabelValues(tier.National.String()).Set(float64(nst.Loaded))
	metrics.BoundariesLoaded.WithLabelValues(tier.Global.String()).Set(float64(gst.Loaded))
	logger.L().Info("resolver_ready",
		"national", nst.Loaded, "national_skipped", nst.Skipped,
		"global", gst.Loaded, "global_skipped", gst.Skipped,
		"offsets", tbl.Len(),
		"version", r.version,
		"ms", time.Since(t0).Milliseconds(),
	)
	return r, nil
}

// 文档注释：资产指纹
// 背景：共享缓存跨进程、跨版本存活，键中带上指纹后资产更新即自然失效。
// 约束：按 national、global、offsets 顺序对文件内容做 xxhash，各文件之间写入长度分隔。
func Fingerprint(p Paths) (string, error) {
	d := xxhash.New()
	for _, path := range []string{p.National, p.Global, p.Offsets} {
		f, err := os.Open(path)
		if err != nil {
			return "", tzerr.Initialization.Wrap(err, "fingerprint %s", path)
		}
		n, err := io.Copy(d, f)
		_ = f.Close()
		if err != nil {
			return "", tzerr.Initialization.Wrap(err, "fingerprint %s", path)
		}
		_, _ = d.WriteString(strconv.FormatInt(n, 10) + "\n")
	}
	return strconv.FormatUint(d.Sum64(), 16), nil
}

// 文档注释：延迟初始化包装
// 约束：并发首次调用只构建一次；构建失败的错误被保存并返回给之后的所有调用方，不会观察到半成品索引。
type Lazy struct {
	once sync.Once
	load func() (*Resolver, error)
	r    *Resolver
	err  error
}

func NewLazy(load func() (*Resolver, error)) *Lazy { return &Lazy{load: load} }

// Ready 包装已构建好的编排器，Get 直接返回 r
func Ready(r *Resolver) *Lazy {
	l := &Lazy{r: r}
	l.once.Do(func() {})
	return l
}

// LazyFromPaths 以 Load(p) 作为构建函数
func LazyFromPaths(p Paths) *Lazy {
	return NewLazy(func() (*Resolver, error) { return Load(p) })
}

func (l *Lazy) Get() (*Resolver, error) {
	l.once.Do(func() {
		l.r, l.err = l.load()
		if l.err != nil {
			logger.L().Error("resolver_init_error", "err", l.err)
		}
	})
	return l.r, l.err
}

func (l *Lazy) Resolve(lon, lat float64) (Result, error) {
	r, err := l.Get()
	if err != nil {
		return Result{}, err
	}
	return r.Resolve(lon, lat)
}
