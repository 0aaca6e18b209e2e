/*
 * Copyright 2025 Chimera.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chimera137/opcua-connector/pkg/db"
	"github.com/chimera137/opcua-connector/pkg/logger"
	"github.com/chimera137/opcua-connector/pkg/models"
)

// fakeClock hands out tickers that fire only when the test says so.
type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (c *fakeClock) Now() time.Time { return time.Now() }

func (c *fakeClock) Ticker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)

	return t
}

func (c *fakeClock) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range c.tickers {
		select {
		case t.ch <- time.Now():
		default:
		}
	}
}

type fakeTicker struct {
	ch chan time.Time
}

func (t *fakeTicker) Chan() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()                  {}

func pollingDevice(polling bool) *models.Device {
	return &models.Device{
		ID:                "dev-1",
		Name:              "Press Line 3",
		Endpoint:          "opc.tcp://10.0.0.5:4840",
		IsPolling:         polling,
		PollingIntervalMs: 1000,
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond, msg)
}

func TestStartPolling_LaunchesLoop(t *testing.T) {
	store := &db.MockService{}
	clock := &fakeClock{}

	var (
		mu     sync.Mutex
		cycles int
	)

	cycle := func(context.Context, *models.Device) error {
		mu.Lock()
		cycles++
		mu.Unlock()

		return nil
	}

	s := NewSupervisor(store, cycle, clock, logger.NewTestLogger())
	defer s.Shutdown()

	ctx := context.Background()

	store.On("GetDevice", mock.Anything, "dev-1").Return(pollingDevice(true), nil)
	store.On("SetDevicePolling", mock.Anything, "dev-1", true, models.StatusPolling).Return(nil)

	started, err := s.StartPolling(ctx, "dev-1")
	require.NoError(t, err)
	assert.True(t, started)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return cycles >= 1
	}, "first cycle should run immediately")

	clock.tick()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return cycles >= 2
	}, "second cycle should follow the tick")
}

func TestStartPolling_SecondStartIsNoop(t *testing.T) {
	store := &db.MockService{}
	clock := &fakeClock{}

	block := make(chan struct{})
	cycle := func(ctx context.Context, _ *models.Device) error {
		select {
		case <-block:
		case <-ctx.Done():
		}

		return nil
	}

	s := NewSupervisor(store, cycle, clock, logger.NewTestLogger())
	defer s.Shutdown()
	defer close(block)

	ctx := context.Background()

	store.On("GetDevice", mock.Anything, "dev-1").Return(pollingDevice(true), nil)
	store.On("SetDevicePolling", mock.Anything, "dev-1", true, models.StatusPolling).Return(nil)

	started, err := s.StartPolling(ctx, "dev-1")
	require.NoError(t, err)
	require.True(t, started)

	started, err = s.StartPolling(ctx, "dev-1")
	require.NoError(t, err)
	assert.False(t, started, "second start must not launch another loop")

	// The flag was persisted exactly once.
	store.AssertNumberOfCalls(t, "SetDevicePolling", 1)
}

func TestStopPolling_Idle(t *testing.T) {
	store := &db.MockService{}
	s := NewSupervisor(store, nil, &fakeClock{}, logger.NewTestLogger())

	defer s.Shutdown()

	store.On("GetDevice", mock.Anything, "dev-1").Return(pollingDevice(false), nil)

	stopped, err := s.StopPolling(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.False(t, stopped)

	// Stopping an idle device must not touch its status.
	store.AssertNotCalled(t, "SetDevicePolling", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStopPolling_LoopObservesClearedFlag(t *testing.T) {
	store := &db.MockService{}
	clock := &fakeClock{}

	cycle := func(context.Context, *models.Device) error { return nil }

	s := NewSupervisor(store, cycle, clock, logger.NewTestLogger())
	defer s.Shutdown()

	ctx := context.Background()

	// First reads see a polling device, later reads see the cleared flag.
	store.On("GetDevice", mock.Anything, "dev-1").Return(pollingDevice(true), nil).Times(2)
	store.On("GetDevice", mock.Anything, "dev-1").Return(pollingDevice(false), nil)
	store.On("SetDevicePolling", mock.Anything, "dev-1", true, models.StatusPolling).Return(nil)
	store.On("SetDevicePolling", mock.Anything, "dev-1", false, models.StatusConnected).Return(nil)

	started, err := s.StartPolling(ctx, "dev-1")
	require.NoError(t, err)
	require.True(t, started)

	waitFor(t, func() bool { return s.IsRunning("dev-1") }, "loop should register")

	stopped, err := s.StopPolling(ctx, "dev-1")
	require.NoError(t, err)
	assert.True(t, stopped)

	clock.tick()

	waitFor(t, func() bool { return !s.IsRunning("dev-1") }, "loop should exit after observing the cleared flag")
}

func TestStartPolling_SupersedesStoppingLoop(t *testing.T) {
	store := &db.MockService{}
	clock := &fakeClock{}

	cycles := make(chan struct{}, 8)
	cycle := func(context.Context, *models.Device) error {
		cycles <- struct{}{}
		return nil
	}

	s := NewSupervisor(store, cycle, clock, logger.NewTestLogger())
	defer s.Shutdown()

	ctx := context.Background()

	// Start, the first loop iteration and Stop all see the flag set; the
	// restart arrives before the old loop observes the cleared flag.
	store.On("GetDevice", mock.Anything, "dev-1").Return(pollingDevice(true), nil).Times(3)
	store.On("GetDevice", mock.Anything, "dev-1").Return(pollingDevice(false), nil).Once()
	store.On("GetDevice", mock.Anything, "dev-1").Return(pollingDevice(true), nil)
	store.On("SetDevicePolling", mock.Anything, "dev-1", true, models.StatusPolling).Return(nil)
	store.On("SetDevicePolling", mock.Anything, "dev-1", false, models.StatusConnected).Return(nil)

	started, err := s.StartPolling(ctx, "dev-1")
	require.NoError(t, err)
	require.True(t, started)

	select {
	case <-cycles:
	case <-time.After(time.Second):
		t.Fatal("first loop never cycled")
	}

	stopped, err := s.StopPolling(ctx, "dev-1")
	require.NoError(t, err)
	require.True(t, stopped)

	started, err = s.StartPolling(ctx, "dev-1")
	require.NoError(t, err)
	assert.True(t, started, "restart must supersede the stopping loop")

	select {
	case <-cycles:
	case <-time.After(time.Second):
		t.Fatal("restarted loop never cycled")
	}

	// The restarted loop keeps running across ticks; the superseded one
	// exited without deregistering it or marking the device errored.
	clock.tick()

	select {
	case <-cycles:
	case <-time.After(time.Second):
		t.Fatal("restarted loop did not survive to the next tick")
	}

	assert.True(t, s.IsRunning("dev-1"))

	s.Shutdown()

	store.AssertNotCalled(t, "SetDevicePolling", mock.Anything, "dev-1", false, models.StatusError)

	// The flag was re-asserted for the restart: set, cleared, set again.
	store.AssertNumberOfCalls(t, "SetDevicePolling", 3)
}

func TestShutdown_CanceledCycleLeavesFlagSet(t *testing.T) {
	store := &db.MockService{}
	clock := &fakeClock{}

	entered := make(chan struct{})
	cycle := func(ctx context.Context, _ *models.Device) error {
		close(entered)
		<-ctx.Done()

		return ctx.Err()
	}

	s := NewSupervisor(store, cycle, clock, logger.NewTestLogger())

	ctx := context.Background()

	store.On("GetDevice", mock.Anything, "dev-1").Return(pollingDevice(true), nil)
	store.On("SetDevicePolling", mock.Anything, "dev-1", true, models.StatusPolling).Return(nil)

	started, err := s.StartPolling(ctx, "dev-1")
	require.NoError(t, err)
	require.True(t, started)

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("cycle never started")
	}

	s.Shutdown()

	// The interrupted cycle surfaced the cancellation as its error. That is
	// not a loop failure: the flag stays set so Resume relaunches the loop.
	store.AssertNotCalled(t, "SetDevicePolling", mock.Anything, "dev-1", false, models.StatusError)
	store.AssertNumberOfCalls(t, "SetDevicePolling", 1)
}

func TestPollLoop_CrashContained(t *testing.T) {
	store := &db.MockService{}
	clock := &fakeClock{}

	cycle := func(context.Context, *models.Device) error {
		panic("cycle exploded")
	}

	s := NewSupervisor(store, cycle, clock, logger.NewTestLogger())
	defer s.Shutdown()

	ctx := context.Background()

	store.On("GetDevice", mock.Anything, "dev-1").Return(pollingDevice(true), nil)
	store.On("SetDevicePolling", mock.Anything, "dev-1", true, models.StatusPolling).Return(nil)
	store.On("SetDevicePolling", mock.Anything, "dev-1", false, models.StatusError).Return(nil)

	started, err := s.StartPolling(ctx, "dev-1")
	require.NoError(t, err)
	require.True(t, started)

	waitFor(t, func() bool { return !s.IsRunning("dev-1") }, "panicked loop should unregister")

	// The flag was cleared and the device marked errored before the loop
	// unregistered itself.
	store.AssertCalled(t, "SetDevicePolling", mock.Anything, "dev-1", false, models.StatusError)
}

func TestPollLoop_CycleErrorStopsLoop(t *testing.T) {
	store := &db.MockService{}
	clock := &fakeClock{}

	cycle := func(context.Context, *models.Device) error {
		return assert.AnError
	}

	s := NewSupervisor(store, cycle, clock, logger.NewTestLogger())
	defer s.Shutdown()

	ctx := context.Background()

	store.On("GetDevice", mock.Anything, "dev-1").Return(pollingDevice(true), nil)
	store.On("SetDevicePolling", mock.Anything, "dev-1", true, models.StatusPolling).Return(nil)
	store.On("SetDevicePolling", mock.Anything, "dev-1", false, models.StatusError).Return(nil)

	started, err := s.StartPolling(ctx, "dev-1")
	require.NoError(t, err)
	require.True(t, started)

	waitFor(t, func() bool { return !s.IsRunning("dev-1") }, "failing loop should exit")
}

func TestResume_RelaunchesPersistedLoops(t *testing.T) {
	store := &db.MockService{}
	clock := &fakeClock{}

	var (
		mu      sync.Mutex
		devices []string
	)

	cycle := func(_ context.Context, d *models.Device) error {
		mu.Lock()
		devices = append(devices, d.ID)
		mu.Unlock()

		return nil
	}

	s := NewSupervisor(store, cycle, clock, logger.NewTestLogger())
	defer s.Shutdown()

	polling := pollingDevice(true)
	idle := &models.Device{ID: "dev-2", Name: "Idle", IsPolling: false, PollingIntervalMs: 1000}

	store.On("ListDevices", mock.Anything).Return([]*models.Device{polling, idle}, nil)
	store.On("GetDevice", mock.Anything, "dev-1").Return(polling, nil)

	require.NoError(t, s.Resume(context.Background()))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(devices) >= 1
	}, "resumed loop should run a cycle")

	assert.True(t, s.IsRunning("dev-1"))
	assert.False(t, s.IsRunning("dev-2"), "idle device must not be resumed")
}

func TestShutdown_StopsLoopsWithoutClearingFlags(t *testing.T) {
	store := &db.MockService{}
	clock := &fakeClock{}

	cycle := func(context.Context, *models.Device) error { return nil }

	s := NewSupervisor(store, cycle, clock, logger.NewTestLogger())

	ctx := context.Background()

	store.On("GetDevice", mock.Anything, "dev-1").Return(pollingDevice(true), nil)
	store.On("SetDevicePolling", mock.Anything, "dev-1", true, models.StatusPolling).Return(nil)

	started, err := s.StartPolling(ctx, "dev-1")
	require.NoError(t, err)
	require.True(t, started)

	waitFor(t, func() bool { return s.IsRunning("dev-1") }, "loop should register")

	s.Shutdown()

	assert.False(t, s.IsRunning("dev-1"))

	// Shutdown never clears the persisted flag; polling resumes on restart.
	for _, call := range store.Calls {
		if call.Method == "SetDevicePolling" {
			assert.True(t, call.Arguments.Bool(2), "shutdown must not clear the polling flag")
		}
	}

	_, err = s.StartPolling(ctx, "dev-1")
	assert.ErrorIs(t, err, ErrSupervisorClosed)
}
