// 包 resolver：坐标到时区偏移的查询编排（国家层 → 全球层 → 经度带兜底）
package resolver

import (
	"math"
	"strconv"
	"strings"

	"geotz/internal/bands"
	"geotz/internal/geo"
	"geotz/internal/offsets"
	"geotz/internal/tier"
	"geotz/internal/tzerr"
)

// Result：一次查询的结果；Lon/Lat 为归一化后的坐标
type Result struct {
	Source  string          `json:"source"`
	Tier    tier.Rank       `json:"tier"`
	Offsets offsets.Offsets `json:"offsets"`
	Lon     float64         `json:"lon"`
	Lat     float64         `json:"lat"`
}

// 文档注释：查询编排器（初始化后的只读上下文）
// 背景：国家层命中取偏移表三元值；全球层命中时标识本身即偏移值，在构建时解析为 globalOffsets；均未命中由经度带兜底。
// 约束：构建后不可变，无锁并发查询；各层顺序固定，不重试、不跳过。
type Resolver struct {
	national      *tier.Tier
	global        *tier.Tier
	globalOffsets []float64
	offsets       *offsets.Table
	bands         *bands.Table
	version       string
}

// 文档注释：构建编排器并校验数据一致性
// 约束：国家层标识必须全部存在于偏移表；全球层标识必须可解析为数值；经度带必须覆盖 (-180, 180]；任一不满足返回 Initialization 错误。
func New(national, global *tier.Tier, tbl *offsets.Table, bt *bands.Table) (*Resolver, error) {
	if tbl == nil {
		tbl = offsets.New(nil)
	}
	if bt == nil {
		bt = bands.Default()
	}
	if err := bt.Validate(); err != nil {
		return nil, tzerr.Initialization.Wrap(err, "longitude band table")
	}
	r := &Resolver{national: national, global: global, offsets: tbl, bands: bt}

	if national != nil {
		ids := make([]string, 0, national.Len())
		for _, b := range national.Boundaries() {
			ids = append(ids, b.ID)
		}
		if missing := tbl.Missing(ids); len(missing) > 0 {
			return nil, tzerr.Initialization.New("national identifiers without offset record: %s", strings.Join(missing, ", "))
		}
	}
	if global != nil {
		r.globalOffsets = make([]float64, global.Len())
		for i, b := range global.Boundaries() {
			v, err := strconv.ParseFloat(strings.TrimSpace(b.ID), 64)
			if err != nil {
				return nil, tzerr.Initialization.Wrap(err, "global identifier %q is not a numeric offset", b.ID)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, tzerr.Initialization.New("global identifier %q is not a finite offset", b.ID)
			}
			r.globalOffsets[i] = v
		}
	}
	return r, nil
}

// 文档注释：坐标查询（get_tz）
// 返回：首个命中层的来源标识与三元偏移；非法输入返回 InvalidInput；数据缺陷返回 Inconsistency。
func (r *Resolver) Resolve(lon, lat float64) (Result, error) {
	pt, err := geo.NewPoint(lon, lat)
	if err != nil {
		return Result{}, err
	}
	return r.ResolvePoint(pt)
}

// ResolvePoint 查询已归一化的点
func (r *Resolver) ResolvePoint(pt geo.Point) (Result, error) {
	out := Result{Lon: pt.Lon, Lat: pt.Lat}
	if i, ok := r.national.Query(pt); ok {
		id := r.national.At(i).ID
		o, ok := r.offsets.Lookup(id)
		if !ok {
			return Result{}, tzerr.Inconsistency.New("national boundary %q has no offset record", id)
		}
		out.Source, out.Tier, out.Offsets = id, tier.National, o
		return out, nil
	}
	if i, ok := r.global.Query(pt); ok {
		out.Source, out.Tier, out.Offsets = r.global.At(i).ID, tier.Global, offsets.Uniform(r.globalOffsets[i])
		return out, nil
	}
	b, ok := r.bands.Lookup(pt.Lon)
	if !ok {
		return Result{}, tzerr.Inconsistency.New("no longitude band covers %v", pt.Lon)
	}
	out.Source, out.Tier, out.Offsets = b.Label(), tier.Band, offsets.Uniform(b.Offset)
	return out, nil
}

func (r *Resolver) National() *tier.Tier    { return r.national }
func (r *Resolver) Global() *tier.Tier      { return r.global }
func (r *Resolver) Offsets() *offsets.Table { return r.offsets }
func (r *Resolver) Bands() *bands.Table     { return r.bands }

// Version 为构建所用资产的指纹；由 New 直接构建时为空
func (r *Resolver) Version() string { return r.version }
