package geo

// 文档注释：点入多边形判定（Even-Odd）
// 约束：外环命中且不在任一洞内视为命中；点恰好落在边上时归属不确定，调用方不得依赖边界精确性。
func (p Polygon) Contains(pt Point) bool {
	if len(p.Rings) == 0 || !p.BBox.Contains(pt) {
		return false
	}
	if !ringContains(p.Rings[0], pt) {
		return false
	}
	for i := 1; i < len(p.Rings); i++ {
		if ringContains(p.Rings[i], pt) {
			return false
		}
	}
	return true
}

// 射线法判定点是否在环内；环可闭合也可不闭合
func ringContains(ring []Point, pt Point) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	x, y := pt.Lon, pt.Lat
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Lon, ring[i].Lat
		xj, yj := ring[j].Lon, ring[j].Lat
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
