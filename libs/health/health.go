package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultInterval is the fixed delay between two poll cycles
	DefaultInterval = 3 * time.Second

	// maxBodyBytes caps how much of a health response is kept
	maxBodyBytes = 1 << 20
)

var (
	// ErrAlreadyPolling is returned by Start while a subscription is active
	ErrAlreadyPolling = errors.New("health poller is already polling")

	// ErrNoTargets is returned by Start when the poller has nothing to poll
	ErrNoTargets = errors.New("health poller has no targets")

	// errInvalidPayload marks a health body that is not JSON
	errInvalidPayload = errors.New("health payload is not valid JSON")
)

// State is the lifecycle state of a poller
type State string

const (
	// StateStopped means no poll cycle is scheduled
	StateStopped State = "stopped"
	// StatePolling means poll cycles run on the interval
	StatePolling State = "polling"
)

// Target is a monitored service. The poller issues GET {URL}/health.
type Target struct {
	ID   string
	Name string
	URL  string
}

// HealthURL returns the health endpoint of the target
func (t Target) HealthURL() string {
	return strings.TrimRight(t.URL, "/") + "/health"
}

// SnapshotFunc receives each snapshot as soon as its poll resolves
type SnapshotFunc func(targetID string, snapshot Snapshot)

// Config holds poller settings
type Config struct {
	Interval       time.Duration
	RequestTimeout time.Duration
	Client         *http.Client
}

// Poller polls the health endpoint of a fixed set of targets
type Poller struct {
	targets  []Target
	client   *http.Client
	interval time.Duration
	timeout  time.Duration
	logger   logrus.FieldLogger

	mu  sync.Mutex
	sub *Subscription
}

// NewPoller creates a new health poller
func NewPoller(cfg Config, logger logrus.FieldLogger, targets ...Target) *Poller {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Poller{
		targets:  append([]Target(nil), targets...),
		client:   client,
		interval: interval,
		timeout:  cfg.RequestTimeout,
		logger:   logger.WithField("component", "health-poller"),
	}
}

// Targets returns the monitored targets
func (p *Poller) Targets() []Target {
	return append([]Target(nil), p.targets...)
}

// PollOnce issues a single health request. It never fails: any transport or
// decoding error is reported as an unreachable snapshot.
func (p *Poller) PollOnce(ctx context.Context, target Target) Snapshot {
	start := time.Now()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	snapshot := p.fetch(ctx, target)
	snapshot.Latency = time.Since(start)

	p.logger.WithFields(logrus.Fields{
		"target":      target.ID,
		"kind":        snapshot.Kind,
		"http_status": snapshot.HTTPStatus,
		"duration":    snapshot.Latency,
	}).Debug("Health poll finished")

	return snapshot
}

func (p *Poller) fetch(ctx context.Context, target Target) Snapshot {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.HealthURL(), nil)
	if err != nil {
		return NewUnreachable(target.ID, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return NewUnreachable(target.ID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return NewUnreachable(target.ID, fmt.Errorf("failed to read health response: %w", err))
	}

	if !json.Valid(body) {
		return NewUnreachable(target.ID, errInvalidPayload)
	}

	return newReachable(target.ID, resp.StatusCode, body)
}

// Start polls every target immediately and then on every interval until the
// returned subscription is stopped. Targets are polled concurrently and
// onSnapshot is called as each poll resolves. onSnapshot must not call Stop.
func (p *Poller) Start(onSnapshot SnapshotFunc) (*Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sub != nil && p.sub.Active() {
		return nil, ErrAlreadyPolling
	}
	if len(p.targets) == 0 {
		return nil, ErrNoTargets
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := newSubscription(cancel, onSnapshot, p.targets)
	p.sub = sub

	go p.run(ctx, sub)

	p.logger.WithField("interval", p.interval).Info("Health polling started")
	return sub, nil
}

// Stop stops the active subscription, if any
func (p *Poller) Stop() {
	p.mu.Lock()
	sub := p.sub
	p.sub = nil
	p.mu.Unlock()

	if sub == nil {
		return
	}
	sub.Stop()
	p.logger.Info("Health polling stopped")
}

// State returns the lifecycle state of the poller
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sub != nil && p.sub.Active() {
		return StatePolling
	}
	return StateStopped
}

// run drives poll cycles until ctx is cancelled
func (p *Poller) run(ctx context.Context, sub *Subscription) {
	defer close(sub.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var inflight sync.WaitGroup
	defer inflight.Wait()

	var cycle uint64
	launch := func() {
		cycle++
		for _, target := range p.targets {
			inflight.Add(1)
			go func(target Target, n uint64) {
				defer inflight.Done()

				snapshot := p.PollOnce(ctx, target)
				snapshot.Cycle = n

				if ctx.Err() != nil {
					return
				}
				sub.emit(target.ID, snapshot)
			}(target, cycle)
		}
	}

	// Initial cycle
	launch()

	for {
		select {
		case <-ticker.C:
			launch()
		case <-ctx.Done():
			return
		}
	}
}

// Subscription is the handle of a running poll loop
type Subscription struct {
	cancel     context.CancelFunc
	done       chan struct{}
	onSnapshot SnapshotFunc
	once       sync.Once

	// deliver is held for reading while a callback runs and for writing by Stop
	deliver sync.RWMutex
	stopped bool

	// per-target ordering of callbacks, read-only after construction
	slots map[string]*targetSlot
}

type targetSlot struct {
	mu        sync.Mutex
	lastCycle uint64
}

func newSubscription(cancel context.CancelFunc, onSnapshot SnapshotFunc, targets []Target) *Subscription {
	s := &Subscription{
		cancel:     cancel,
		done:       make(chan struct{}),
		onSnapshot: onSnapshot,
		slots:      make(map[string]*targetSlot, len(targets)),
	}
	for _, t := range targets {
		s.slots[t.ID] = &targetSlot{}
	}
	return s
}

// emit delivers a snapshot unless the subscription was stopped or a newer
// cycle of the same target was already delivered
func (s *Subscription) emit(targetID string, snapshot Snapshot) {
	s.deliver.RLock()
	defer s.deliver.RUnlock()

	if s.stopped {
		return
	}

	slot, ok := s.slots[targetID]
	if !ok {
		return
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if snapshot.Cycle <= slot.lastCycle {
		return
	}
	slot.lastCycle = snapshot.Cycle

	if s.onSnapshot != nil {
		s.onSnapshot(targetID, snapshot)
	}
}

// Stop cancels the timer and in-flight requests and waits for the loop to
// exit. No snapshot is delivered after Stop returns. Calling Stop again is a no-op.
func (s *Subscription) Stop() {
	s.once.Do(func() {
		s.cancel()

		s.deliver.Lock()
		s.stopped = true
		s.deliver.Unlock()
	})
	<-s.done
}

// Active reports whether the subscription still delivers snapshots
func (s *Subscription) Active() bool {
	s.deliver.RLock()
	defer s.deliver.RUnlock()
	return !s.stopped
}

// Done is closed once the poll loop and its in-flight polls have exited
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
