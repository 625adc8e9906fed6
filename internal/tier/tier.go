// 包 tier：单一精度层的边界集合与点查询（国家层、全球层）
package tier

import (
	"fmt"
	"math"

	"geotz/internal/boundary"
	"geotz/internal/geo"
)

// Rank：层级优先级，数值越小越先查询
type Rank int

const (
	National Rank = iota
	Global
	Band
)

func (r Rank) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Rank) UnmarshalText(b []byte) error {
	switch string(b) {
	case "national":
		*r = National
	case "global":
		*r = Global
	case "band":
		*r = Band
	default:
		return fmt.Errorf("unknown tier %q", b)
	}
	return nil
}

func (r Rank) String() string {
	switch r {
	case National:
		return "national"
	case Global:
		return "global"
	case Band:
		return "band"
	default:
		return "unknown"
	}
}

// 经度方向 1° 分桶
const columns = 360

// 文档注释：分层边界集合
// 背景：按原始顺序保存边界，重叠时先出现者胜出；另建经度分桶索引缩小候选范围。
// 约束：每个桶内的下标严格递增，按桶顺序扫描得到的首个命中即为全量顺序扫描的首个命中；构建后只读，可并发查询。
type Tier struct {
	name       string
	rank       Rank
	boundaries []boundary.Boundary
	buckets    [columns][]int32
}

// New 构建分层；boundaries 的顺序即优先级
func New(name string, rank Rank, boundaries []boundary.Boundary) *Tier {
	t := &Tier{name: name, rank: rank, boundaries: boundaries}
	for i := range boundaries {
		b := &boundaries[i]
		if len(b.Polys) == 0 || !b.BBox.Valid() {
			continue
		}
		lo, hi := column(b.BBox[0]), column(b.BBox[2])
		for c := lo; c <= hi; c++ {
			t.buckets[c] = append(t.buckets[c], int32(i))
		}
	}
	return t
}

func (t *Tier) Name() string { return t.name }
func (t *Tier) Rank() Rank   { return t.rank }

func (t *Tier) Len() int {
	if t == nil {
		return 0
	}
	return len(t.boundaries)
}

// Boundaries 返回底层切片，调用方不得修改
func (t *Tier) Boundaries() []boundary.Boundary {
	if t == nil {
		return nil
	}
	return t.boundaries
}

// At 返回原始顺序下第 i 条边界
func (t *Tier) At(i int) *boundary.Boundary { return &t.boundaries[i] }

// Query 返回首个包含该点的边界的原始下标；点需已归一化
func (t *Tier) Query(pt geo.Point) (int, bool) {
	if t == nil {
		return -1, false
	}
	for _, idx := range t.buckets[column(pt.Lon)] {
		if t.boundaries[idx].Contains(pt) {
			return int(idx), true
		}
	}
	return -1, false
}

// 经度到桶下标；越界经度钳制到首尾桶，保证包围盒覆盖的桶与点所在的桶一致
func column(lon float64) int {
	c := int(math.Floor(lon + 180))
	if c < 0 {
		return 0
	}
	if c >= columns {
		return columns - 1
	}
	return c
}
