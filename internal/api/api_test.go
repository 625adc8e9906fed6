package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"geotz/internal/batch"
	"geotz/internal/cache"
	"geotz/internal/cache/cachetest"
	"geotz/internal/geo"
	"geotz/internal/resolver"
	"geotz/internal/tier"
	"geotz/internal/tzerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *Service {
	t.Helper()
	dir := filepath.Join("..", "resolver", "testdata")
	r, err := resolver.Load(resolver.Paths{
		National: filepath.Join(dir, "national.geojson"),
		Global:   filepath.Join(dir, "global.geojson"),
		Offsets:  filepath.Join(dir, "timeZones.txt"),
	})
	require.NoError(t, err)
	runner, err := batch.New(4)
	require.NoError(t, err)
	t.Cleanup(runner.Close)
	return &Service{
		Resolver: resolver.Ready(r),
		Local:    cache.NewLocal(1000, time.Minute),
		Batch:    runner,
		BatchMax: 5,
	}
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	h.ServeHTTP(rec, req)
	return rec
}

type tzBody struct {
	Source  string  `json:"source"`
	Tier    string  `json:"tier"`
	Lon     float64 `json:"lon"`
	Lat     float64 `json:"lat"`
	IP      string  `json:"ip"`
	Offsets struct {
		Winter float64 `json:"winter"`
		Summer float64 `json:"summer"`
		GMT    float64 `json:"gmt"`
	} `json:"offsets"`
}

func TestTZEndpointTiers(t *testing.T) {
	h := BuildRoutes(newService(t))

	cases := []struct {
		query  string
		source string
		tier   string
		winter float64
		summer float64
	}{
		{"lon=-74&lat=40.7", "America/New_York", "national", -5, -4},
		{"lon=-135&lat=10", "-9", "global", -9, -9},
		{"lon=80&lat=20", "5.5", "global", 5.5, 5.5},
		{"lon=-160&lat=10", "lonbound(-172.5,-157.5)", "band", -11, -11},
		{"lon=200&lat=10", "lonbound(-172.5,-157.5)", "band", -11, -11},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/tz?"+tc.query, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "no-store", rec.Header().Get("cache-control"))
			var b tzBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
			assert.Equal(t, tc.source, b.Source)
			assert.Equal(t, tc.tier, b.Tier)
			assert.Equal(t, tc.winter, b.Offsets.Winter)
			assert.Equal(t, tc.summer, b.Offsets.Summer)
			assert.Empty(t, b.IP)
		})
	}
}

func TestTZEndpointNormalizesLongitude(t *testing.T) {
	h := BuildRoutes(newService(t))
	rec := do(t, h, http.MethodGet, "/tz?lon=286&lat=40.7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var b tzBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	assert.Equal(t, "America/New_York", b.Source)
	assert.Equal(t, -74.0, b.Lon)
}

func TestTZEndpointRejectsBadInput(t *testing.T) {
	h := BuildRoutes(newService(t))
	for _, q := range []string{"", "lon=1", "lat=1", "lon=x&lat=1", "lon=1&lat=91", "lon=NaN&lat=1", "lon=1&lat=-Inf"} {
		rec := do(t, h, http.MethodGet, "/tz?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		var e errorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
		assert.Equal(t, "geotz.invalid_input", e.Kind, q)
	}
}

func TestTZEndpointIPWithoutDatabase(t *testing.T) {
	h := BuildRoutes(newService(t))
	rec := do(t, h, http.MethodGet, "/tz?ip=8.8.8.8", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestTZEndpointMethod(t *testing.T) {
	h := BuildRoutes(newService(t))
	rec := do(t, h, http.MethodPost, "/tz?lon=1&lat=1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type batchOut []struct {
	Result *tzBody    `json:"result"`
	Error  *errorBody `json:"error"`
}

func TestBatchEndpoint(t *testing.T) {
	h := BuildRoutes(newService(t))
	body := []byte(`[{"lon":-74,"lat":40.7},{"lon":0,"lat":95},{"lon":10},{},{"lon":-160,"lat":10}]`)
	rec := do(t, h, http.MethodPost, "/tz/batch", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out batchOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 5)
	require.NotNil(t, out[0].Result)
	assert.Equal(t, "America/New_York", out[0].Result.Source)
	for _, i := range []int{1, 2, 3} {
		assert.Nil(t, out[i].Result, i)
		require.NotNil(t, out[i].Error, i)
		assert.Equal(t, "geotz.invalid_input", out[i].Error.Kind, i)
	}
	assert.Contains(t, out[2].Error.Error, "lon and lat are required")
	assert.Contains(t, out[3].Error.Error, "lon and lat are required")
	require.NotNil(t, out[4].Result)
	assert.Equal(t, "band", out[4].Result.Tier)
	assert.Equal(t, -160.0, out[4].Result.Lon)
}

func TestBatchEndpointExplicitZero(t *testing.T) {
	h := BuildRoutes(newService(t))
	rec := do(t, h, http.MethodPost, "/tz/batch", []byte(`[{"lon":0,"lat":0}]`))
	require.Equal(t, http.StatusOK, rec.Code)

	var out batchOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Result)
	assert.Nil(t, out[0].Error)
	assert.Equal(t, "lonbound(-7.5,7.5)", out[0].Result.Source)
}

func TestBatchEndpointLimits(t *testing.T) {
	h := BuildRoutes(newService(t))
	rec := do(t, h, http.MethodPost, "/tz/batch", []byte(`{"lon":1}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/tz/batch", []byte(`[{},{},{},{},{},{}]`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBandsEndpoint(t *testing.T) {
	h := BuildRoutes(newService(t))
	rec := do(t, h, http.MethodGet, "/bands", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out []struct {
		Min       float64 `json:"min"`
		Max       float64 `json:"max"`
		Offset    float64 `json:"offset"`
		Label     string  `json:"label"`
		Reachable bool    `json:"reachable"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 26)
	reachable := 0
	for _, b := range out {
		if b.Reachable {
			reachable++
		}
	}
	assert.Equal(t, 25, reachable)
	assert.Equal(t, "lonbound(-172.5,-157.5)", out[0].Label)
}

func TestStatsEndpointWithoutStore(t *testing.T) {
	h := BuildRoutes(newService(t))
	rec := do(t, h, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, false, out["enabled"])
	assert.Equal(t, float64(0), out["total"])
}

func TestHealthz(t *testing.T) {
	h := BuildRoutes(newService(t))
	rec := do(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, float64(2), out["national"])
	assert.Equal(t, float64(4), out["global"])
	assert.Equal(t, float64(3), out["offsets"])
	assert.NotContains(t, out, "geoip")
}

func TestHealthzInitFailure(t *testing.T) {
	svc := &Service{Resolver: resolver.LazyFromPaths(resolver.Paths{National: "nope", Global: "nope", Offsets: "nope"})}
	h := BuildRoutes(svc)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/tz?lon=1&lat=1", nil).Code)
}

func TestServiceCachesExactResult(t *testing.T) {
	svc := newService(t)
	first, err := svc.Resolve(t.Context(), -74, 40.7)
	require.NoError(t, err)
	_, ok := svc.Local.Get("-74,40.7")
	assert.True(t, ok)

	second, err := svc.Resolve(t.Context(), -74+360, 40.7)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, tier.National, second.Tier)
}

func TestServiceRefusesCachedResultsWhenInitFailed(t *testing.T) {
	rc, srv := cachetest.StartRedis(t)
	pt := geo.Point{Lon: -74, Lat: 40.7}
	cached := resolver.Result{Source: "America/New_York", Tier: tier.National, Lon: -74, Lat: 40.7}

	local := cache.NewLocal(100, time.Minute)
	local.Set(cache.Key(pt), cached)
	for _, v := range []string{"", "any"} {
		srv.Put("geotz:"+cache.SharedKey(v, pt), `{"source":"America/New_York","tier":"national"}`)
	}
	svc := &Service{
		Resolver: resolver.NewLazy(func() (*resolver.Resolver, error) {
			return nil, tzerr.Initialization.New("assets missing")
		}),
		Local:  local,
		Shared: cache.NewRedis(rc, time.Minute),
	}

	_, err := svc.Resolve(t.Context(), -74, 40.7)
	require.Error(t, err)
	assert.True(t, tzerr.IsInitialization(err))

	rec := do(t, BuildRoutes(svc), http.MethodGet, "/tz?lon=-74&lat=40.7", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServiceSharedCacheIsVersioned(t *testing.T) {
	rc, srv := cachetest.StartRedis(t)
	svc := newService(t)
	svc.Local = nil
	svc.Shared = cache.NewRedis(rc, time.Minute)
	r, err := svc.Resolver.Get()
	require.NoError(t, err)
	require.NotEmpty(t, r.Version())

	pt := geo.Point{Lon: -74, Lat: 40.7}
	srv.Put("geotz:"+cache.SharedKey("stale", pt), `{"source":"Europe/Stale","tier":"national"}`)

	res, err := svc.Resolve(t.Context(), -74, 40.7)
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", res.Source)
	assert.Contains(t, srv.Keys(), "geotz:"+cache.SharedKey(r.Version(), pt))

	// 同版本的条目可命中
	srv.Put("geotz:"+cache.SharedKey(r.Version(), pt), `{"source":"America/Shared","tier":"national","lon":-74,"lat":40.7}`)
	again, err := svc.Resolve(t.Context(), -74, 40.7)
	require.NoError(t, err)
	assert.Equal(t, "America/Shared", again.Source)
	assert.Equal(t, tier.National, again.Tier)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusOf(tzerr.InvalidInput.New("x")))
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(tzerr.Initialization.New("x")))
	assert.Equal(t, http.StatusInternalServerError, statusOf(tzerr.Inconsistency.New("x")))
}
