package cli

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/pagekeep/internal/core/domain"
)

type fakeTask struct {
	mu      sync.Mutex
	started bool
	stopped bool
}

func (f *fakeTask) Start(ctx context.Context) error {
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeTask) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

type fakeWatcher struct {
	changes int
}

func (f *fakeWatcher) Watch(ctx context.Context, onChange func()) error {
	for i := 0; i < f.changes; i++ {
		onChange()
	}
	<-ctx.Done()
	return nil
}

func TestServeCmd_HasPortFlag(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "port flag should exist")
	assert.Equal(t, "p", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestServeCmd_RequiresPageIndexing(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	_, err := execute("serve")
	assert.ErrorContains(t, err, "page indexing service is required")
}

func TestStartBackground_RunsTasksUntilCancelled(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	task := &fakeTask{}
	var applied []*domain.AppSettings
	serveDeps.Maintenance = task
	serveDeps.ConfigWatcher = &fakeWatcher{changes: 2}
	serveDeps.OnSettingsChange = func(s *domain.AppSettings) {
		applied = append(applied, s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	startBackground(ctx, g)

	assert.Eventually(t, func() bool {
		task.mu.Lock()
		defer task.mu.Unlock()
		return task.started
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, g.Wait())

	assert.True(t, task.stopped)
	require.Len(t, applied, 2)
	assert.Equal(t, domain.DefaultWaitTimeout, applied[0].Identity.WaitTimeout)
}

func TestIgnoreCancel(t *testing.T) {
	assert.NoError(t, ignoreCancel(nil))
	assert.NoError(t, ignoreCancel(context.Canceled))

	boom := errors.New("boom")
	assert.ErrorIs(t, ignoreCancel(boom), boom)
}
