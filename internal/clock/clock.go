// Package clock lets the copy engine's timers be replaced in tests.
package clock

import (
	"sync"
	"time"
)

// Ticker is an interface for time.Ticker to allow mocking.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TimeProvider provides time-related functionality for dependency injection.
type TimeProvider interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
	After(d time.Duration) <-chan time.Time
}

// Real returns the wall-clock provider.
func Real() TimeProvider {
	return &RealTimeProvider{}
}

// RealTimeProvider implements TimeProvider using real time functions.
type RealTimeProvider struct{}

// After waits for d on a real timer.
func (r *RealTimeProvider) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// NewTicker creates a new ticker.
func (r *RealTimeProvider) NewTicker(d time.Duration) Ticker {
	return &RealTicker{ticker: time.NewTicker(d)}
}

// Now returns the current time.
func (r *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// RealTicker wraps time.Ticker to implement the Ticker interface.
type RealTicker struct {
	ticker *time.Ticker
}

// C returns the ticker's channel.
func (r *RealTicker) C() <-chan time.Time {
	return r.ticker.C
}

// Stop stops the ticker.
func (r *RealTicker) Stop() {
	r.ticker.Stop()
}

// MockTicker is a manually driven Ticker.
type MockTicker struct {
	TickChan chan time.Time
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewMockTicker creates a ticker that only fires when Tick is called.
func NewMockTicker() *MockTicker {
	return &MockTicker{TickChan: make(chan time.Time), stopped: make(chan struct{})}
}

// C returns the ticker's channel.
func (m *MockTicker) C() <-chan time.Time {
	return m.TickChan
}

// Stop stops the ticker. Ticks sent after Stop are dropped.
func (m *MockTicker) Stop() {
	m.stopOnce.Do(func() { close(m.stopped) })
}

// Tick delivers one tick and reports whether a receiver took it before Stop.
func (m *MockTicker) Tick() bool {
	select {
	case m.TickChan <- time.Now():
		return true
	case <-m.stopped:
		return false
	}
}

// MockTimeProvider hands out a single MockTicker and a settable Now.
type MockTimeProvider struct {
	mu     sync.Mutex
	now    time.Time
	Ticker *MockTicker
}

// NewMockTimeProvider creates a provider frozen at now.
func NewMockTimeProvider(now time.Time) *MockTimeProvider {
	return &MockTimeProvider{now: now, Ticker: NewMockTicker()}
}

// Advance moves Now forward by d.
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now = m.now.Add(d)
}

// After fires immediately; tests that use the mock do not wait on real time.
func (m *MockTimeProvider) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- m.Now()

	return ch
}

// NewTicker returns the shared mock ticker.
func (m *MockTimeProvider) NewTicker(time.Duration) Ticker {
	return m.Ticker
}

// Now returns the frozen time.
func (m *MockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.now
}
