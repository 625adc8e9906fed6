// 包 boundary：从 GeoJSON 边界库加载时区边界（标识 + 多面几何），供分层匹配使用
package boundary

import (
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"geotz/internal/geo"
	"geotz/internal/logger"
	"geotz/internal/tzerr"
)

// Boundary：一条时区边界；Polys 为空的条目在加载时已被剔除
type Boundary struct {
	ID    string
	Polys []geo.Polygon
	BBox  geo.BBox
}

// Contains 任一多边形命中即视为命中
func (b *Boundary) Contains(pt geo.Point) bool {
	if !b.BBox.Contains(pt) {
		return false
	}
	for i := range b.Polys {
		if b.Polys[i].Contains(pt) {
			return true
		}
	}
	return false
}

// Stats：加载统计，Skipped 为几何为空/退化而被跳过的条目数
type Stats struct {
	Features int
	Loaded   int
	Skipped  int
}

// 标识字段查找顺序
var idKeys = []string{"tzid", "TZID", "name", "Name", "id"}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string         `json:"type"`
	ID         any            `json:"id"`
	Properties map[string]any `json:"properties"`
	Geometry   *geometry      `json:"geometry"`
}

type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// 文档注释：从文件加载边界库
// 约束：文件缺失或格式损坏返回 Initialization 错误；保持文件中的原始顺序（决定重叠时的优先级）。
func LoadFile(path string) ([]Boundary, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, tzerr.Initialization.Wrap(err, "open boundary store %s", path)
	}
	defer f.Close()
	bs, st, err := Parse(f)
	if err != nil {
		return nil, st, tzerr.Initialization.Wrap(err, "parse boundary store %s", path)
	}
	logger.L().Debug("boundary_load_done", "path", path, "features", st.Features, "loaded", st.Loaded, "skipped", st.Skipped)
	return bs, st, nil
}

// 文档注释：解析 GeoJSON FeatureCollection 或单个 Feature
// 约束：geometry 为 null、坐标为空或外环退化的条目跳过；缺少标识或几何类型不受支持视为损坏。
func Parse(r io.Reader) ([]Boundary, Stats, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, Stats{}, err
	}
	var fc featureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, Stats{}, tzerr.Initialization.Wrap(err, "decode geojson")
	}
	var feats []feature
	switch strings.ToLower(fc.Type) {
	case "featurecollection":
		feats = fc.Features
	case "feature":
		var f feature
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, Stats{}, tzerr.Initialization.Wrap(err, "decode geojson feature")
		}
		feats = []feature{f}
	default:
		return nil, Stats{}, tzerr.Initialization.New("unsupported geojson type %q", fc.Type)
	}

	st := Stats{Features: len(feats)}
	out := make([]Boundary, 0, len(feats))
	for i, f := range feats {
		id := featureID(f)
		polys, err := parseGeometry(f.Geometry)
		if err != nil {
			return nil, st, tzerr.Initialization.Wrap(err, "feature %d (%s)", i, id)
		}
		// 空几何先于标识检查跳过，不参与匹配也不要求标识
		if len(polys) == 0 {
			st.Skipped++
			continue
		}
		if id == "" {
			return nil, st, tzerr.Initialization.New("feature %d has no identifier", i)
		}
		b := Boundary{ID: id, Polys: polys, BBox: geo.EmptyBBox()}
		for _, p := range polys {
			b.BBox = b.BBox.Union(p.BBox)
		}
		out = append(out, b)
	}
	st.Loaded = len(out)
	return out, st, nil
}

func featureID(f feature) string {
	for _, k := range idKeys {
		if s := propString(f.Properties[k]); s != "" {
			return s
		}
	}
	return propString(f.ID)
}

// 数值型标识（全球层常见）按最短表示转为文本
func propString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

func parseGeometry(g *geometry) ([]geo.Polygon, error) {
	if g == nil || len(g.Coordinates) == 0 || string(g.Coordinates) == "null" {
		return nil, nil
	}
	switch strings.ToLower(g.Type) {
	case "polygon":
		var coords [][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, err
		}
		if p, ok := toPolygon(coords); ok {
			return []geo.Polygon{p}, nil
		}
		return nil, nil
	case "multipolygon":
		var coords [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, err
		}
		var out []geo.Polygon
		for _, part := range coords {
			if p, ok := toPolygon(part); ok {
				out = append(out, p)
			}
		}
		return out, nil
	default:
		return nil, tzerr.Initialization.New("unsupported geometry type %q", g.Type)
	}
}

func toPolygon(coords [][][]float64) (geo.Polygon, bool) {
	rings := make([][]geo.Point, 0, len(coords))
	for _, ring := range coords {
		rr := make([]geo.Point, 0, len(ring))
		for _, c := range ring {
			if len(c) < 2 {
				continue
			}
			rr = append(rr, geo.Point{Lon: c[0], Lat: c[1]})
		}
		rings = append(rings, rr)
	}
	return geo.NewPolygon(rings)
}
