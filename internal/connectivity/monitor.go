// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package connectivity

import (
	"context"
	"sync"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

// FailureThreshold is the number of consecutive request failures after which
// a connected monitor flips to disconnected.
const FailureThreshold = 2

// subscriberBuffer bounds each subscriber channel. When a slow subscriber
// falls behind, the oldest undelivered value is replaced by the newest.
const subscriberBuffer = 8

// PlatformChecker reports whether the operating system currently has a
// usable network interface.
type PlatformChecker interface {
	Connected(ctx context.Context) bool
}

// PlatformCheckerFunc adapts a function to [PlatformChecker].
type PlatformCheckerFunc func(ctx context.Context) bool

func (f PlatformCheckerFunc) Connected(ctx context.Context) bool {
	return f(ctx)
}

// Monitor tracks connectivity with hysteresis. All methods are safe for
// concurrent use and none of them returns an error.
type Monitor struct {
	checker PlatformChecker
	log     *logger.Logger

	mu                  sync.Mutex
	platformConnected   bool
	connected           bool
	consecutiveFailures int

	subscribers map[int]chan bool
	nextSubID   int
}

// NewMonitor returns a monitor in the connected state.
func NewMonitor(checker PlatformChecker, log *logger.Logger) *Monitor {
	if log == nil {
		log = logger.Nop()
	}
	return &Monitor{
		checker:           checker,
		log:               log,
		platformConnected: true,
		connected:         true,
		subscribers:       make(map[int]chan bool),
	}
}

// CheckConnectivity queries the platform and trusts its answer for both the
// platform flag and the connected flag. The failure counter is reset.
func (m *Monitor) CheckConnectivity(ctx context.Context) bool {
	platform := true
	if m.checker != nil {
		platform = m.checker.Connected(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.platformConnected = platform
	m.consecutiveFailures = 0
	m.setConnectedLocked(platform, "platform check")

	return m.connected
}

// PollPlatform asks the platform checker and feeds the answer to
// [Monitor.HandlePlatformChange]. It never reconnects a monitor that
// request failures took offline. The platform answer is returned.
func (m *Monitor) PollPlatform(ctx context.Context) bool {
	platform := true
	if m.checker != nil {
		platform = m.checker.Connected(ctx)
	}
	m.HandlePlatformChange(platform)
	return platform
}

// HandlePlatformChange applies an OS connectivity notification. Losing all
// interfaces disconnects immediately; regaining one only records that the
// platform reports an interface.
func (m *Monitor) HandlePlatformChange(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.platformConnected = connected
	if !connected {
		m.setConnectedLocked(false, "platform reports no interface")
	}
}

// ReportNetworkFailure records a failed request. The monitor flips to
// disconnected once [FailureThreshold] consecutive failures accumulate.
func (m *Monitor) ReportNetworkFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.consecutiveFailures++
	if m.connected && m.consecutiveFailures >= FailureThreshold {
		m.setConnectedLocked(false, "consecutive request failures")
	}
}

// ReportNetworkSuccess records a request that reached the server. A
// disconnected monitor reconnects if the platform reports an interface.
func (m *Monitor) ReportNetworkSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.consecutiveFailures = 0
	if !m.connected && m.platformConnected {
		m.setConnectedLocked(true, "request succeeded")
	}
}

// IsConnected returns the effective connectivity flag.
func (m *Monitor) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// ShouldAttemptNetwork reports whether a request is worth trying at all.
// It follows the platform flag so that a request can still run (and succeed)
// while the monitor is disconnected after failures.
func (m *Monitor) ShouldAttemptNetwork() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.platformConnected
}

// State returns a snapshot of the monitor.
func (m *Monitor) State() models.ConnectivityState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.ConnectivityState{
		PlatformReportsConnected: m.platformConnected,
		IsConnected:              m.connected,
		ConsecutiveFailures:      m.consecutiveFailures,
	}
}

// Subscribe registers a listener. The current value is delivered first,
// followed by every transition. The returned func unsubscribes and closes
// the channel; it may be called more than once.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	ch := make(chan bool, subscriberBuffer)

	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = ch
	ch <- m.connected
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if sub, ok := m.subscribers[id]; ok {
				delete(m.subscribers, id)
				close(sub)
			}
		})
	}

	return ch, cancel
}

// setConnectedLocked updates the flag and notifies subscribers on change.
// m.mu must be held.
func (m *Monitor) setConnectedLocked(connected bool, reason string) {
	if m.connected == connected {
		return
	}
	m.connected = connected

	m.log.Info().
		Str("func", "Monitor.setConnected").
		Bool("connected", connected).
		Str("reason", reason).
		Int("consecutive_failures", m.consecutiveFailures).
		Msg("connectivity changed")

	for _, ch := range m.subscribers {
		publish(ch, connected)
	}
}

func publish(ch chan bool, v bool) {
	select {
	case ch <- v:
		return
	default:
	}
	// full: drop the oldest value so the newest is never lost
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
