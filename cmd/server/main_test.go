package main

import (
	"database/sql"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"order-service/internal/config"
	"order-service/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCloser struct {
	name  string
	mu    *sync.Mutex
	order *[]string
}

func (c recordingCloser) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.order = append(*c.order, c.name)
	return nil
}

func TestApp_CloseWaitsForStartupWork(t *testing.T) {
	var (
		mu     sync.Mutex
		closed []string
	)
	a := &app{
		service: services.NewOrderService(nil, nil, nil, nil, nil),
		closers: []io.Closer{
			recordingCloser{name: "db", mu: &mu, order: &closed},
			recordingCloser{name: "redis", mu: &mu, order: &closed},
		},
	}

	var finished atomic.Bool
	a.goStartup(func() {
		time.Sleep(30 * time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		assert.Empty(t, closed, "closers ran while startup work was still using them")
		finished.Store(true)
	})

	a.Close()

	assert.True(t, finished.Load())
	assert.Equal(t, []string{"redis", "db"}, closed)
}

func TestBuildApp_ClosesDatabase(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(t.TempDir(), "orders.db"))
	t.Setenv("BROKER_KIND", "none")
	cfg, err := config.Load()
	require.NoError(t, err)

	a, err := buildApp(cfg)
	require.NoError(t, err)
	require.NotEmpty(t, a.closers)
	require.NotNil(t, a.registry)

	db, ok := a.closers[0].(*sql.DB)
	require.True(t, ok)
	require.NoError(t, db.Ping())

	a.Close()

	assert.ErrorContains(t, db.Ping(), "database is closed")
}
