package system

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// testMetrics is shared by every test in the package: the collectors register
// with the process-global prometheus registry, so the service can only be
// constructed once per test binary.
var testMetrics = NewMetricsService(testLogger())

func TestMetricsObserveHTTPRequest(t *testing.T) {
	require := require.New(t)

	before := testutil.ToFloat64(testMetrics.httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/health", http.StatusText(http.StatusOK)))
	testMetrics.ObserveHTTPRequest(http.MethodGet, "/api/health", http.StatusOK, 25*time.Millisecond)
	after := testutil.ToFloat64(testMetrics.httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/health", http.StatusText(http.StatusOK)))

	require.Equal(before+1, after)
}

func TestMetricsInProgressGauge(t *testing.T) {
	require := require.New(t)

	gauge := testMetrics.httpRequestsInProgress.WithLabelValues(http.MethodPost)
	base := testutil.ToFloat64(gauge)

	testMetrics.IncHTTPRequestsInProgress(http.MethodPost)
	require.Equal(base+1, testutil.ToFloat64(gauge))

	testMetrics.DecHTTPRequestsInProgress(http.MethodPost)
	require.Equal(base, testutil.ToFloat64(gauge))
}

func TestMetricsObserveIdentification(t *testing.T) {
	require := require.New(t)

	counter := testMetrics.identifyRequestsTotal.WithLabelValues("text", "openai", "live")
	before := testutil.ToFloat64(counter)
	testMetrics.ObserveIdentification("text", "openai", "live", 300*time.Millisecond, 3)
	require.Equal(before+1, testutil.ToFloat64(counter))

	// An empty provider is recorded under the "none" label.
	noneCounter := testMetrics.identifyRequestsTotal.WithLabelValues("text", "none", "fallback")
	before = testutil.ToFloat64(noneCounter)
	testMetrics.ObserveIdentification("text", "", "fallback", time.Millisecond, 0)
	require.Equal(before+1, testutil.ToFloat64(noneCounter))
}

func TestMetricsObserveUpload(t *testing.T) {
	require := require.New(t)

	counter := testMetrics.uploadsTotal.WithLabelValues("image")
	before := testutil.ToFloat64(counter)
	testMetrics.ObserveUpload("image", 2048)
	require.Equal(before+1, testutil.ToFloat64(counter))
}

func TestMetricsCountersAndGauges(t *testing.T) {
	require := require.New(t)

	before := testutil.ToFloat64(testMetrics.webSearchesTotal)
	testMetrics.IncWebSearches()
	require.Equal(before+1, testutil.ToFloat64(testMetrics.webSearchesTotal))

	before = testutil.ToFloat64(testMetrics.webSearchErrorsTotal)
	testMetrics.IncWebSearchErrors()
	require.Equal(before+1, testutil.ToFloat64(testMetrics.webSearchErrorsTotal))

	before = testutil.ToFloat64(testMetrics.userRegistrations)
	testMetrics.IncUserRegistrations()
	require.Equal(before+1, testutil.ToFloat64(testMetrics.userRegistrations))

	before = testutil.ToFloat64(testMetrics.userLogins)
	testMetrics.IncUserLogins()
	require.Equal(before+1, testutil.ToFloat64(testMetrics.userLogins))

	testMetrics.SetUsersTotal(42)
	require.Equal(float64(42), testutil.ToFloat64(testMetrics.usersTotal))

	testMetrics.SetSessionsActive(7)
	require.Equal(float64(7), testutil.ToFloat64(testMetrics.sessionsActive))

	testMetrics.SetSystemMemoryUsage(1 << 20)
	require.Equal(float64(1<<20), testutil.ToFloat64(testMetrics.systemMemoryUsage))

	testMetrics.SetSystemGoroutines(12)
	require.Equal(float64(12), testutil.ToFloat64(testMetrics.systemGoroutines))
}

func TestMetricsObserveMaintenanceTask(t *testing.T) {
	require := require.New(t)

	ok := testMetrics.maintenanceTasks.WithLabelValues("history_cleanup", "ok")
	failed := testMetrics.maintenanceTasks.WithLabelValues("history_cleanup", "error")

	okBefore := testutil.ToFloat64(ok)
	failedBefore := testutil.ToFloat64(failed)

	testMetrics.ObserveMaintenanceTask("history_cleanup", nil)
	testMetrics.ObserveMaintenanceTask("history_cleanup", errors.New("boom"))

	require.Equal(okBefore+1, testutil.ToFloat64(ok))
	require.Equal(failedBefore+1, testutil.ToFloat64(failed))
}

func TestMetricsHandlerServesRegistry(t *testing.T) {
	require := require.New(t)

	testMetrics.IncWebSearches()

	w := httptest.NewRecorder()
	testMetrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(http.StatusOK, w.Code)
	require.Contains(w.Body.String(), "reelid_web_searches_total")
}
