package browser

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newFakeSession returns a session whose launch function records calls
// instead of spawning Chrome.
func newFakeSession(launches *atomic.Int32) *Session {
	s := NewSession(DefaultConfig(), zap.NewNop())
	s.launch = func() (*launcher.Launcher, *rod.Browser, *rod.Page, error) {
		launches.Add(1)
		return nil, nil, &rod.Page{}, nil
	}
	return s
}

func TestStart_Idempotent(t *testing.T) {
	var launches atomic.Int32
	s := newFakeSession(&launches)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Start(ctx))

	assert.Equal(t, StateRunning, s.State())
	assert.Equal(t, int32(1), launches.Load(), "second Start must not launch another driver")
}

func TestStop_OnStoppedSessionIsNoop(t *testing.T) {
	var launches atomic.Int32
	s := newFakeSession(&launches)

	require.NoError(t, s.Stop())
	assert.Equal(t, StateStopped, s.State())

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
	assert.Equal(t, StateStopped, s.State())
}

func TestRestart(t *testing.T) {
	var launches atomic.Int32
	s := newFakeSession(&launches)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Restart(ctx))

	assert.Equal(t, StateRunning, s.State())
	assert.Equal(t, int32(2), launches.Load())
}

func TestStart_ConcurrentCallersLaunchOnce(t *testing.T) {
	var launches atomic.Int32
	s := newFakeSession(&launches)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Start(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), launches.Load(), "concurrent Start must produce exactly one driver process")
	assert.Equal(t, StateRunning, s.State())
}

func TestStart_LaunchFailureIsDriverUnavailable(t *testing.T) {
	s := NewSession(DefaultConfig(), zap.NewNop())
	s.launch = func() (*launcher.Launcher, *rod.Browser, *rod.Page, error) {
		return nil, nil, nil, assert.AnError
	}

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDriverUnavailable)
	assert.Equal(t, StateStopped, s.State(), "failed launch must leave the session stopped")
}

func TestStart_CancelledContext(t *testing.T) {
	var launches atomic.Int32
	s := newFakeSession(&launches)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Start(ctx)
	require.Error(t, err)
	assert.Equal(t, int32(0), launches.Load())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "starting", StateStarting.String())
	assert.Equal(t, "running", StateRunning.String())
}
