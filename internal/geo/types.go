package geo

// 文档注释：几何最小数据结构
// 约束：几何仅支持 GeoJSON 的 Polygon/MultiPolygon；环列表中第一环为外环，其余为洞；坐标为 WGS84 经纬度。
type Polygon struct {
	Rings [][]Point
	BBox  BBox
}

// 点坐标（WGS84）
type Point struct {
	Lon float64
	Lat float64
}

// BBox：minLon, minLat, maxLon, maxLat
type BBox [4]float64

// EmptyBBox 为反向包围盒，Extend 任意点后即为有效
func EmptyBBox() BBox { return BBox{180, 90, -180, -90} }

func (b BBox) Valid() bool { return b[0] <= b[2] && b[1] <= b[3] }

func (b BBox) Contains(pt Point) bool {
	return pt.Lon >= b[0] && pt.Lon <= b[2] && pt.Lat >= b[1] && pt.Lat <= b[3]
}

func (b BBox) Extend(pt Point) BBox {
	if pt.Lon < b[0] {
		b[0] = pt.Lon
	}
	if pt.Lat < b[1] {
		b[1] = pt.Lat
	}
	if pt.Lon > b[2] {
		b[2] = pt.Lon
	}
	if pt.Lat > b[3] {
		b[3] = pt.Lat
	}
	return b
}

func (b BBox) Union(o BBox) BBox {
	if !o.Valid() {
		return b
	}
	b = b.Extend(Point{Lon: o[0], Lat: o[1]})
	return b.Extend(Point{Lon: o[2], Lat: o[3]})
}

// NewPolygon 由环列表构建多边形并计算包围盒；少于 3 个顶点的环被丢弃（外环被丢弃时返回 false）
func NewPolygon(rings [][]Point) (Polygon, bool) {
	var p Polygon
	for i, r := range rings {
		if len(r) < 3 {
			if i == 0 {
				return Polygon{}, false
			}
			continue
		}
		p.Rings = append(p.Rings, r)
	}
	if len(p.Rings) == 0 {
		return Polygon{}, false
	}
	p.BBox = EmptyBBox()
	for _, pt := range p.Rings[0] {
		p.BBox = p.BBox.Extend(pt)
	}
	return p, true
}
