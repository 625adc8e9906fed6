package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"geotz/internal/bands"
	"geotz/internal/batch"
	"geotz/internal/metrics"
	"geotz/internal/resolver"
	"geotz/internal/tzerr"
)

// tzResponse：单点查询的对外结构；按 IP 查询时附带 ip
type tzResponse struct {
	resolver.Result
	IP string `json:"ip,omitempty"`
}

// batchPoint：批量请求条目；缺失字段与显式的 0 区分开
type batchPoint struct {
	Lon *float64 `json:"lon"`
	Lat *float64 `json:"lat"`
}

type batchEntry struct {
	Result *resolver.Result `json:"result,omitempty"`
	Error  *errorBody       `json:"error,omitempty"`
}

type bandView struct {
	bands.Band
	Label     string `json:"label"`
	Reachable bool   `json:"reachable"`
}

// instrument：按端点计数并记录耗时
func instrument(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		metrics.RequestsTotal.WithLabelValues(endpoint).Inc()
		h(w, r)
		metrics.RequestDurationMs.Observe(float64(time.Since(t0).Milliseconds()))
	}
}

func parseCoord(r *http.Request, name string) (float64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, tzerr.InvalidInput.New("missing parameter %s", name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, tzerr.InvalidInput.New("parameter %s is not a number: %q", name, s)
	}
	return v, nil
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 API_BASE 前缀
func BuildRoutes(svc *Service) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /tz", instrument("tz", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if ip := r.URL.Query().Get("ip"); ip != "" {
			res, err := svc.ResolveIP(ctx, ip)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, tzResponse{Result: res, IP: ip})
			return
		}
		lon, err := parseCoord(r, "lon")
		if err != nil {
			metrics.InvalidInputTotal.Inc()
			writeError(w, err)
			return
		}
		lat, err := parseCoord(r, "lat")
		if err != nil {
			metrics.InvalidInputTotal.Inc()
			writeError(w, err)
			return
		}
		res, err := svc.Resolve(ctx, lon, lat)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tzResponse{Result: res})
	}))

	mux.HandleFunc("POST /tz/batch", instrument("tz_batch", func(w http.ResponseWriter, r *http.Request) {
		var points []batchPoint
		if err := json.NewDecoder(r.Body).Decode(&points); err != nil {
			writeError(w, tzerr.InvalidInput.New("body must be a JSON array of {lon, lat}: %v", err))
			return
		}
		if svc.BatchMax > 0 && len(points) > svc.BatchMax {
			writeError(w, tzerr.InvalidInput.New("batch of %d exceeds limit %d", len(points), svc.BatchMax))
			return
		}
		resp := make([]batchEntry, len(points))
		items := make([]batch.Item, 0, len(points))
		pos := make([]int, 0, len(points))
		for i, p := range points {
			if p.Lon == nil || p.Lat == nil {
				metrics.InvalidInputTotal.Inc()
				err := tzerr.InvalidInput.New("item %d: lon and lat are required", i)
				resp[i].Error = &errorBody{Error: err.Error(), Kind: kindOf(err)}
				continue
			}
			items = append(items, batch.Item{Lon: *p.Lon, Lat: *p.Lat})
			pos = append(pos, i)
		}
		outs := svc.ResolveBatch(r.Context(), items)
		for j := range outs {
			i := pos[j]
			if outs[j].Err != nil {
				resp[i].Error = &errorBody{Error: outs[j].Err.Error(), Kind: kindOf(outs[j].Err)}
				continue
			}
			resp[i].Result = &outs[j].Result
		}
		writeJSON(w, http.StatusOK, resp)
	}))

	mux.HandleFunc("GET /bands", instrument("bands", func(w http.ResponseWriter, r *http.Request) {
		rv, err := svc.Resolver.Get()
		if err != nil {
			writeError(w, err)
			return
		}
		bs := rv.Bands().Bands()
		out := make([]bandView, len(bs))
		for i, b := range bs {
			out[i] = bandView{Band: b, Label: b.Label(), Reachable: b.Reachable()}
		}
		writeJSON(w, http.StatusOK, out)
	}))

	mux.HandleFunc("GET /stats", instrument("stats", func(w http.ResponseWriter, r *http.Request) {
		t, err := svc.Store.GetTotals(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"enabled": svc.Store != nil,
			"total":   t.Total,
			"today":   t.Today,
			"by_tier": t.ByTier,
			"cache":   map[string]any{"local_entries": svc.Local.Len()},
		})
	}))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		rv, err := svc.Resolver.Get()
		if err != nil {
			writeError(w, err)
			return
		}
		body := map[string]any{
			"status":   "ok",
			"national": rv.National().Len(),
			"global":   rv.Global().Len(),
			"offsets":  rv.Offsets().Len(),
			"bands":    len(rv.Bands().Bands()),
		}
		if info, ok := svc.GeoIP.Info(); ok {
			body["geoip"] = info
		}
		writeJSON(w, http.StatusOK, body)
	})

	return mux
}
