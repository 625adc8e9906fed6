// 包 batch：批量坐标解析，任务分发到固定大小的 goroutine 池
package batch

import (
	"context"
	"sync"

	"geotz/internal/logger"
	"geotz/internal/resolver"

	"github.com/joomcode/errorx"
	"github.com/panjf2000/ants/v2"
)

// Item：单个待解析坐标
type Item struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Outcome：与输入同序；Err 非空时 Result 为零值
type Outcome struct {
	Result resolver.Result
	Err    error
}

// ResolveFunc 由调用方注入，可带缓存
type ResolveFunc func(ctx context.Context, lon, lat float64) (resolver.Result, error)

type Runner struct {
	pool *ants.Pool
}

func New(workers int) (*Runner, error) {
	pool, err := ants.NewPool(workers, ants.WithPreAlloc(true))
	if err != nil {
		return nil, errorx.Decorate(err, "create batch pool")
	}
	return &Runner{pool: pool}, nil
}

func (r *Runner) Close() {
	if r == nil {
		return
	}
	r.pool.Release()
}

// Run：并发解析 items，结果按输入顺序返回
// 约束：ctx 取消后未开始的条目直接记为 ctx.Err()；单条失败不影响其他条目
func (r *Runner) Run(ctx context.Context, items []Item, fn ResolveFunc) []Outcome {
	out := make([]Outcome, len(items))
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				out[i].Err = err
				return
			}
			out[i].Result, out[i].Err = fn(ctx, items[i].Lon, items[i].Lat)
		}
		if err := r.pool.Submit(task); err != nil {
			wg.Done()
			out[i].Err = errorx.Decorate(err, "submit batch item %d", i)
		}
	}
	wg.Wait()
	logger.L().Debug("batch_done", "items", len(items), "running", r.pool.Running())
	return out
}
