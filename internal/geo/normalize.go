package geo

import (
	"math"

	"geotz/internal/tzerr"
)

// NormalizeLon 将任意有限经度归一化到 (-180, 180]。
// 约束：幂等；lon 与 lon±360k 等价；区间内的值原样返回（-0 统一为 0）；NaN/±Inf 返回 InvalidInput。
func NormalizeLon(lon float64) (float64, error) {
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return 0, tzerr.InvalidInput.New("longitude must be finite, got %v", lon)
	}
	// math.Mod 结果与被除数同号，落在 (-360, 360)；两个分支的加减均满足 Sterbenz 条件，无舍入
	m := math.Mod(lon, 360)
	switch {
	case m > 180:
		m -= 360
	case m <= -180:
		m += 360
	}
	if m == 0 {
		m = 0
	}
	return m, nil
}

// ValidateLat 校验纬度为有限值且位于 [-90, 90]；越界不做截断
func ValidateLat(lat float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return tzerr.InvalidInput.New("latitude must be finite, got %v", lat)
	}
	if lat < -90 || lat > 90 {
		return tzerr.InvalidInput.New("latitude %v out of range [-90, 90]", lat)
	}
	return nil
}

// NewPoint 构建归一化后的查询点
func NewPoint(lon, lat float64) (Point, error) {
	nlon, err := NormalizeLon(lon)
	if err != nil {
		return Point{}, err
	}
	if err := ValidateLat(lat); err != nil {
		return Point{}, err
	}
	return Point{Lon: nlon, Lat: lat}, nil
}
