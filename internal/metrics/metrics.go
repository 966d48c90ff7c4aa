// Package metrics collects pipeline counters and reports them to Redis so
// the dashboard and the metrics endpoint share one view of the system.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix is the Redis key prefix for pipeline metrics.
	keyPrefix = "uiwatch:metrics:"
	// snapshotTTL is how long a snapshot stays in Redis if not refreshed.
	snapshotTTL = 2 * time.Minute
	// DefaultReportInterval is the default interval between Redis writes.
	DefaultReportInterval = 30 * time.Second
)

// Snapshot is the reported state of one pipeline component.
type Snapshot struct {
	Component   string    `json:"component"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`
	Status      string    `json:"status"` // "healthy" or "stale"

	// Counters, monotonic since start.
	EventsReceived    uint64 `json:"events_received"`
	EventsRecorded    uint64 `json:"events_recorded"`
	EventsRateLimited uint64 `json:"events_rate_limited"`
	AlertsEvaluated   uint64 `json:"alerts_evaluated"`
	AlertsSuppressed  uint64 `json:"alerts_suppressed"`
	AlertsDispatched  uint64 `json:"alerts_dispatched"`

	// EventsPerSecond is the recorded-event rate over the last report interval.
	EventsPerSecond float64 `json:"events_per_second"`

	// AvgIngestLatencyNs is the all-time average ingest latency.
	AvgIngestLatencyNs float64 `json:"avg_ingest_latency_ns"`

	// Counters is the open-ended counter map (channel failures, queue drops,
	// per-rule firings).
	Counters map[string]uint64 `json:"counters,omitempty"`
}

// Collector accumulates pipeline counters and periodically reports them.
type Collector struct {
	component      string
	redis          *redis.Client
	startedAt      time.Time
	reportInterval time.Duration

	eventsReceived    atomic.Uint64
	eventsRecorded    atomic.Uint64
	eventsRateLimited atomic.Uint64
	alertsEvaluated   atomic.Uint64
	alertsSuppressed  atomic.Uint64
	alertsDispatched  atomic.Uint64

	rateMu            sync.Mutex
	lastReportTime    time.Time
	lastRecordedCount uint64

	totalLatencyNs atomic.Uint64
	latencyCount   atomic.Uint64

	customMu       sync.RWMutex
	customCounters map[string]*atomic.Uint64

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewCollector creates a collector for a pipeline component. A nil Redis
// client keeps the collector in-memory only; snapshots still work.
func NewCollector(component string, redisClient *redis.Client) *Collector {
	return &Collector{
		component:      component,
		redis:          redisClient,
		startedAt:      time.Now().UTC(),
		reportInterval: DefaultReportInterval,
		lastReportTime: time.Now().UTC(),
		customCounters: make(map[string]*atomic.Uint64),
		stopCh:         make(chan struct{}),
	}
}

// SetReportInterval overrides the interval between Redis writes.
func (c *Collector) SetReportInterval(interval time.Duration) {
	c.reportInterval = interval
}

// Start begins periodic reporting to Redis.
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.write(context.Background())
				return
			case <-c.stopCh:
				c.write(context.Background())
				return
			case <-ticker.C:
				c.write(ctx)
			}
		}
	}()
}

// Stop halts reporting after a final write.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	c.wg.Wait()
}

// IncrementCustom increments a counter by name. Pipeline stages use the
// well-known names (events_received, alerts_dispatched, ...); anything else
// lands in the open-ended counter map.
func (c *Collector) IncrementCustom(name string) {
	switch name {
	case "events_received":
		c.eventsReceived.Add(1)
	case "events_recorded":
		c.eventsRecorded.Add(1)
	case "events_rate_limited":
		c.eventsRateLimited.Add(1)
	case "alerts_evaluated":
		c.alertsEvaluated.Add(1)
	case "alerts_suppressed":
		c.alertsSuppressed.Add(1)
	case "alerts_dispatched":
		c.alertsDispatched.Add(1)
	default:
		c.addCustom(name, 1)
	}
}

// RecordIngestLatency tracks the duration of one ingest call.
func (c *Collector) RecordIngestLatency(latency time.Duration) {
	c.totalLatencyNs.Add(uint64(latency.Nanoseconds()))
	c.latencyCount.Add(1)
}

func (c *Collector) addCustom(name string, value uint64) {
	c.customMu.RLock()
	counter, exists := c.customCounters[name]
	c.customMu.RUnlock()

	if !exists {
		c.customMu.Lock()
		if counter, exists = c.customCounters[name]; !exists {
			counter = &atomic.Uint64{}
			c.customCounters[name] = counter
		}
		c.customMu.Unlock()
	}
	counter.Add(value)
}

// GetSnapshot returns the current counters without touching Redis. Safe to
// call from any goroutine while the reporter is running.
func (c *Collector) GetSnapshot() *Snapshot {
	now := time.Now().UTC()
	recorded := c.eventsRecorded.Load()

	c.rateMu.Lock()
	lastReport := c.lastReportTime
	lastRecorded := c.lastRecordedCount
	c.rateMu.Unlock()

	elapsed := now.Sub(lastReport).Seconds()
	var rate float64
	if elapsed > 0 {
		rate = float64(recorded-lastRecorded) / elapsed
	}

	var avgLatencyNs float64
	if n := c.latencyCount.Load(); n > 0 {
		avgLatencyNs = float64(c.totalLatencyNs.Load()) / float64(n)
	}

	c.customMu.RLock()
	counters := make(map[string]uint64, len(c.customCounters))
	for name, counter := range c.customCounters {
		counters[name] = counter.Load()
	}
	c.customMu.RUnlock()

	return &Snapshot{
		Component:          c.component,
		StartedAt:          c.startedAt,
		LastUpdated:        now,
		Status:             "healthy",
		EventsReceived:     c.eventsReceived.Load(),
		EventsRecorded:     recorded,
		EventsRateLimited:  c.eventsRateLimited.Load(),
		AlertsEvaluated:    c.alertsEvaluated.Load(),
		AlertsSuppressed:   c.alertsSuppressed.Load(),
		AlertsDispatched:   c.alertsDispatched.Load(),
		EventsPerSecond:    rate,
		AvgIngestLatencyNs: avgLatencyNs,
		Counters:           counters,
	}
}

// write advances the rate window and persists the current snapshot to Redis.
func (c *Collector) write(ctx context.Context) {
	snapshot := c.GetSnapshot()

	c.rateMu.Lock()
	c.lastReportTime = snapshot.LastUpdated
	c.lastRecordedCount = snapshot.EventsRecorded
	c.rateMu.Unlock()

	if c.redis == nil {
		return
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("Failed to marshal metrics", "component", c.component, "error", err)
		return
	}

	key := keyPrefix + c.component
	if err := c.redis.Set(ctx, key, data, snapshotTTL).Err(); err != nil {
		slog.Error("Failed to write metrics to Redis", "component", c.component, "error", err)
		return
	}
	slog.Debug("Metrics written to Redis", "component", c.component, "key", key)
}

// Reader reads component snapshots back from Redis.
type Reader struct {
	redis *redis.Client
}

// NewReader creates a metrics reader.
func NewReader(redisClient *redis.Client) *Reader {
	return &Reader{redis: redisClient}
}

// Get retrieves the snapshot for one component. Snapshots older than the
// refresh TTL are marked stale.
func (r *Reader) Get(ctx context.Context, component string) (*Snapshot, error) {
	data, err := r.redis.Get(ctx, keyPrefix+component).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("no metrics found for component: %s", component)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}

	if time.Since(snapshot.LastUpdated) > snapshotTTL {
		snapshot.Status = "stale"
	}
	return &snapshot, nil
}

// GetAll retrieves snapshots for every reporting component.
func (r *Reader) GetAll(ctx context.Context) (map[string]*Snapshot, error) {
	keys, err := r.redis.Keys(ctx, keyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics keys: %w", err)
	}

	result := make(map[string]*Snapshot)
	for _, key := range keys {
		component := key[len(keyPrefix):]
		snapshot, err := r.Get(ctx, component)
		if err != nil {
			slog.Warn("Failed to read metrics for component", "component", component, "error", err)
			continue
		}
		result[component] = snapshot
	}
	return result, nil
}
