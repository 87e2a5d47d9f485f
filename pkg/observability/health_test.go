package observability

import (
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLivenessAlwaysHealthy(t *testing.T) {
	checker := NewHealthChecker(nil, nil)

	w := httptest.NewRecorder()
	checker.Liveness(w, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), StatusHealthy)
}

func TestReadinessHealthy(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	checker := NewHealthChecker(db, client)

	w := httptest.NewRecorder()
	checker.Readiness(w, httptest.NewRequest("GET", "/readyz", nil))

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), StatusHealthy)
}

func TestReadinessDegradedWithoutRedis(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close() // redis down, database up

	client := redis.NewClient(&redis.Options{Addr: addr})
	checker := NewHealthChecker(db, client)

	w := httptest.NewRecorder()
	checker.Readiness(w, httptest.NewRequest("GET", "/readyz", nil))

	// Cache loss degrades but does not fail readiness
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), StatusDegraded)
}
