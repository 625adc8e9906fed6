// 包 geoip：基于 MaxMind mmdb 的 IP → 坐标定位，供按 IP 查询时区
package geoip

import (
	"net"
	"time"

	"geotz/internal/logger"
	"geotz/internal/metrics"

	"github.com/joomcode/errorx"
	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
)

var (
	Namespace = errorx.NewNamespace("geoip")
	// BadIP 表示参数不是合法 IP
	BadIP = Namespace.NewType("bad_ip")
	// NotFound 表示库中无该 IP 的坐标
	NotFound = Namespace.NewType("not_found")
	// Disabled 表示未配置 mmdb
	Disabled = Namespace.NewType("disabled")
)

// Locator：只读 mmdb 句柄；nil Locator 视为未启用
type Locator struct {
	r *geoip2.Reader
}

// Open：打开 City 库；path 为空时返回 nil 且无错误
func Open(path string) (*Locator, error) {
	if path == "" {
		return nil, nil
	}
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, errorx.Decorate(err, "open mmdb %s", path)
	}
	info := Describe(r.Metadata())
	logger.L().Info("geoip_open_ok", "path", path, "type", info.Type, "built", info.BuildTime.Format(time.RFC3339), "nodes", info.Nodes)
	return &Locator{r: r}, nil
}

func (l *Locator) Close() error {
	if l == nil {
		return nil
	}
	return l.r.Close()
}

func (l *Locator) Enabled() bool { return l != nil }

// Locate：返回 (lon, lat)
// 约束：库中坐标全零且无精度半径视为未收录
func (l *Locator) Locate(ip string) (float64, float64, error) {
	if l == nil {
		metrics.GeoIPLookupsTotal.WithLabelValues("disabled").Inc()
		return 0, 0, Disabled.New("geoip database not configured")
	}
	addr := net.ParseIP(ip)
	if addr == nil {
		metrics.GeoIPLookupsTotal.WithLabelValues("bad_ip").Inc()
		return 0, 0, BadIP.New("invalid ip %q", ip)
	}
	rec, err := l.r.City(addr)
	if err != nil {
		metrics.GeoIPLookupsTotal.WithLabelValues("error").Inc()
		return 0, 0, errorx.Decorate(err, "lookup %s", ip)
	}
	loc := rec.Location
	if loc.Latitude == 0 && loc.Longitude == 0 && loc.AccuracyRadius == 0 {
		metrics.GeoIPLookupsTotal.WithLabelValues("not_found").Inc()
		return 0, 0, NotFound.New("no location for %s", ip)
	}
	metrics.GeoIPLookupsTotal.WithLabelValues("ok").Inc()
	logger.L().Debug("geoip_locate", "ip", ip, "lon", loc.Longitude, "lat", loc.Latitude, "radius_km", loc.AccuracyRadius)
	return loc.Longitude, loc.Latitude, nil
}

// Info：mmdb 元数据摘要
type Info struct {
	Type      string    `json:"type"`
	BuildTime time.Time `json:"build_time"`
	IPVersion uint      `json:"ip_version"`
	Nodes     uint      `json:"nodes"`
	Languages []string  `json:"languages,omitempty"`
}

func Describe(md maxminddb.Metadata) Info {
	return Info{
		Type:      md.DatabaseType,
		BuildTime: time.Unix(int64(md.BuildEpoch), 0).UTC(),
		IPVersion: md.IPVersion,
		Nodes:     md.NodeCount,
		Languages: md.Languages,
	}
}

// Info 返回当前库元数据；未启用时 ok 为 false
func (l *Locator) Info() (Info, bool) {
	if l == nil {
		return Info{}, false
	}
	return Describe(l.r.Metadata()), true
}
