package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	IncConfirmation("Confirm", " webhook", "APPLIED")
	assert.Equal(t, 1.0, testutil.ToFloat64(confirmationsTotal.WithLabelValues("confirm", "webhook", "applied")))

	ObserveBackup("backup", time.Second, errors.New("pg_dump exited 1"))
	assert.Equal(t, 1.0, testutil.ToFloat64(backupRunsTotal.WithLabelValues("backup", "fail")))

	AddPaymentRevenue(decimal.RequireFromString("12.50"))
	assert.Equal(t, 12.5, testutil.ToFloat64(paymentsRevenueTotal))

	AddKeys("expired", 0)
	assert.Equal(t, 0, testutil.CollectAndCount(keysTotal))
}

func TestHandlerExposesRegisteredCollectors(t *testing.T) {
	MustRegister()
	MustRegister()
	IncCommand("help", "ok")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "bot_command_total"))
}

func TestPoolAndCacheGauges(t *testing.T) {
	SetDBPoolStats(4, 3, 1, 10)
	assert.Equal(t, 1.0, testutil.ToFloat64(dbConns.WithLabelValues("acquired")))
	assert.Equal(t, 10.0, testutil.ToFloat64(dbMaxConns))

	IncCacheRequest("keys.sold_count", "HIT")
	IncCacheRequest("keys.sold_count", "hit")
	assert.Equal(t, 2.0, testutil.ToFloat64(settingsCache.WithLabelValues("keys.sold_count", "hit")))
}
