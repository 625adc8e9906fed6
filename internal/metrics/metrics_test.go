package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierCounter(t *testing.T) {
	before := testutil.ToFloat64(ResolveTierTotal.WithLabelValues("band"))
	ResolveTierTotal.WithLabelValues("band").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ResolveTierTotal.WithLabelValues("band")))
}

func TestHandlerExposesGeotzMetrics(t *testing.T) {
	RequestsTotal.WithLabelValues("tz").Inc()
	BoundariesLoaded.WithLabelValues("national").Set(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `geotz_requests_total{endpoint="tz"}`)
	assert.Contains(t, string(body), `geotz_boundaries_loaded{tier="national"} 3`)
}
