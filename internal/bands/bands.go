// 包 bands：按经度划分的兜底时区带，保证任意点都有结果
package bands

import (
	"fmt"
	"sort"

	"geotz/internal/tzerr"
)

// Band：(Min, Max] 区间与单一偏移（不区分冬令/夏令）
type Band struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Offset float64 `json:"offset"`
}

func (b Band) Contains(lon float64) bool { return lon > b.Min && lon <= b.Max }

// Reachable 表示该带与归一化区间 (-180, 180] 相交
func (b Band) Reachable() bool { return b.Max > -180 && b.Min < 180 }

// Label 形如 lonbound(-142.5,-127.5)
func (b Band) Label() string { return fmt.Sprintf("lonbound(%.1f,%.1f)", b.Min, b.Max) }

// Table：有序经度带；查询按表内顺序取首个命中
type Table struct {
	bands []Band
}

// 默认 15° 分带；(180,187.5] 为归一化前的回绕带，与 (-180,-172.5] 偏移一致
var defaultBands = []Band{
	{-172.5, -157.5, -11},
	{-157.5, -142.5, -10},
	{-142.5, -127.5, -9},
	{-127.5, -112.5, -8},
	{-112.5, -97.5, -7},
	{-97.5, -82.5, -6},
	{-82.5, -67.5, -5},
	{-67.5, -52.5, -4},
	{-52.5, -37.5, -3},
	{-37.5, -22.5, -2},
	{-22.5, -7.5, -1},
	{-7.5, 7.5, 0},
	{7.5, 22.5, 1},
	{22.5, 37.5, 2},
	{37.5, 52.5, 3},
	{52.5, 67.5, 4},
	{67.5, 82.5, 5},
	{82.5, 97.5, 6},
	{97.5, 112.5, 7},
	{112.5, 127.5, 8},
	{127.5, 142.5, 9},
	{142.5, 157.5, 10},
	{157.5, 172.5, 11},
	{172.5, 180, 12},
	{180, 187.5, -12},
	{-180, -172.5, -12},
}

func Default() *Table { return New(defaultBands) }

func New(bs []Band) *Table {
	return &Table{bands: append([]Band(nil), bs...)}
}

// Lookup 按表内顺序返回首个满足 Min < lon <= Max 的经度带
func (t *Table) Lookup(lon float64) (Band, bool) {
	for _, b := range t.bands {
		if b.Contains(lon) {
			return b, true
		}
	}
	return Band{}, false
}

// Bands 返回副本
func (t *Table) Bands() []Band { return append([]Band(nil), t.bands...) }

// Reachable 返回与归一化区间 (-180, 180] 相交的经度带数量
func (t *Table) Reachable() int {
	n := 0
	for _, b := range t.bands {
		if b.Reachable() {
			n++
		}
	}
	return n
}

// 文档注释：校验经度带在 (-180, 180] 上无缝且不重叠
// 约束：仅考察与归一化区间相交的部分；失败返回 Inconsistency 错误。
func (t *Table) Validate() error {
	var in []Band
	for _, b := range t.bands {
		if b.Min >= b.Max {
			return tzerr.Inconsistency.New("band %s is empty", b.Label())
		}
		if b.Reachable() {
			in = append(in, b)
		}
	}
	if len(in) == 0 {
		return tzerr.Inconsistency.New("no band covers (-180, 180]")
	}
	sort.Slice(in, func(i, j int) bool { return in[i].Min < in[j].Min })
	if in[0].Min > -180 {
		return tzerr.Inconsistency.New("gap in (-180, %.1f]", in[0].Min)
	}
	for i := 1; i < len(in); i++ {
		prev, cur := in[i-1], in[i]
		if cur.Min > prev.Max {
			return tzerr.Inconsistency.New("gap in (%.1f, %.1f]", prev.Max, cur.Min)
		}
		if cur.Min < prev.Max {
			return tzerr.Inconsistency.New("bands %s and %s overlap", prev.Label(), cur.Label())
		}
	}
	if last := in[len(in)-1]; last.Max < 180 {
		return tzerr.Inconsistency.New("gap in (%.1f, 180]", last.Max)
	}
	return nil
}
