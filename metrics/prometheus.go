package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "xstake"

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all vault, pool and service metrics
type Collector struct {
	// Vault metrics
	VaultOpsTotal        *prometheus.CounterVec
	VaultTotalUnderlying *prometheus.GaugeVec
	VaultTotalShares     *prometheus.GaugeVec
	VaultExchangeRate    *prometheus.GaugeVec

	// Pool metrics
	PoolOpsTotal       *prometheus.CounterVec
	PoolTotalStaked    *prometheus.GaugeVec
	PoolRewardRate     *prometheus.GaugeVec
	PoolUsers          *prometheus.GaugeVec
	PoolRewardsFunded  *prometheus.CounterVec
	PoolRewardsClaimed *prometheus.CounterVec

	// Operation failures by error
	OpErrorsTotal *prometheus.CounterVec

	// WebSocket metrics
	WSConnectionsActive *prometheus.GaugeVec
	WSMessagesTotal     *prometheus.CounterVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	RateLimitHits     *prometheus.CounterVec

	// System metrics
	BlockHeight prometheus.Gauge
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector(prometheus.DefaultRegisterer)
	})
	return collector
}

// NewCollector creates a collector registered on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	return newCollector(reg)
}

func newCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{}

	c.VaultOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "operations_total",
			Help:      "Vault operations committed",
		},
		[]string{"denom", "op"},
	)

	c.VaultTotalUnderlying = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "total_underlying",
			Help:      "Underlying tokens held by the vault",
		},
		[]string{"denom"},
	)

	c.VaultTotalShares = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "total_shares",
			Help:      "Outstanding share tokens",
		},
		[]string{"denom"},
	)

	c.VaultExchangeRate = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "exchange_rate",
			Help:      "Underlying per share",
		},
		[]string{"denom"},
	)

	c.PoolOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "operations_total",
			Help:      "Reward pool operations committed",
		},
		[]string{"pool_id", "op"},
	)

	c.PoolTotalStaked = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "total_staked",
			Help:      "Tokens staked in the pool",
		},
		[]string{"pool_id"},
	)

	c.PoolRewardRate = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "reward_rate",
			Help:      "Reward emitted per second",
		},
		[]string{"pool_id"},
	)

	c.PoolUsers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "users",
			Help:      "Users with a nonzero stake",
		},
		[]string{"pool_id"},
	)

	c.PoolRewardsFunded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "rewards_funded_total",
			Help:      "Reward tokens deposited",
		},
		[]string{"pool_id"},
	)

	c.PoolRewardsClaimed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "rewards_claimed_total",
			Help:      "Reward tokens paid out",
		},
		[]string{"pool_id"},
	)

	c.OpErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ops",
			Name:      "errors_total",
			Help:      "Rejected operations by codespace and code",
		},
		[]string{"codespace", "code"},
	)

	c.WSConnectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
		[]string{},
	)

	c.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total WebSocket messages broadcast",
		},
		[]string{"channel"},
	)

	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	c.RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"limit"},
	)

	c.BlockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "system",
			Name:      "block_height",
			Help:      "Current block height",
		},
	)

	reg.MustRegister(
		c.VaultOpsTotal,
		c.VaultTotalUnderlying,
		c.VaultTotalShares,
		c.VaultExchangeRate,
		c.PoolOpsTotal,
		c.PoolTotalStaked,
		c.PoolRewardRate,
		c.PoolUsers,
		c.PoolRewardsFunded,
		c.PoolRewardsClaimed,
		c.OpErrorsTotal,
		c.WSConnectionsActive,
		c.WSMessagesTotal,
		c.APIRequestsTotal,
		c.APIRequestLatency,
		c.RateLimitHits,
		c.BlockHeight,
	)

	return c
}

// ============ Recording Helpers ============

// RecordVault records a committed vault operation and the resulting totals
func (c *Collector) RecordVault(denom, op string, totalUnderlying, totalShares uint64, exchangeRate float64) {
	c.VaultOpsTotal.WithLabelValues(denom, op).Inc()
	c.VaultTotalUnderlying.WithLabelValues(denom).Set(float64(totalUnderlying))
	c.VaultTotalShares.WithLabelValues(denom).Set(float64(totalShares))
	c.VaultExchangeRate.WithLabelValues(denom).Set(exchangeRate)
}

// RecordPool records a committed pool operation and the resulting state.
// rewardRate is per second, already unscaled.
func (c *Collector) RecordPool(poolID, op string, totalStaked uint64, rewardRate float64, users uint32) {
	c.PoolOpsTotal.WithLabelValues(poolID, op).Inc()
	c.PoolTotalStaked.WithLabelValues(poolID).Set(float64(totalStaked))
	c.PoolRewardRate.WithLabelValues(poolID).Set(rewardRate)
	c.PoolUsers.WithLabelValues(poolID).Set(float64(users))
}

// RecordRewardFunded adds funded reward
func (c *Collector) RecordRewardFunded(poolID string, amount uint64) {
	c.PoolRewardsFunded.WithLabelValues(poolID).Add(float64(amount))
}

// RecordRewardClaimed adds claimed reward
func (c *Collector) RecordRewardClaimed(poolID string, amount uint64) {
	c.PoolRewardsClaimed.WithLabelValues(poolID).Add(float64(amount))
}

// RecordOpError records a rejected operation
func (c *Collector) RecordOpError(codespace string, code uint32) {
	c.OpErrorsTotal.WithLabelValues(codespace, strconv.FormatUint(uint64(code), 10)).Inc()
}

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// RecordRateLimitHit records a throttled request by the limit that tripped
func (c *Collector) RecordRateLimitHit(limit string) {
	c.RateLimitHits.WithLabelValues(limit).Inc()
}

// RecordWSConnection records WebSocket connection changes
func (c *Collector) RecordWSConnection(delta int) {
	c.WSConnectionsActive.WithLabelValues().Add(float64(delta))
}

// RecordWSMessage records a broadcast WebSocket message
func (c *Collector) RecordWSMessage(channel string) {
	c.WSMessagesTotal.WithLabelValues(channel).Inc()
}

// UpdateBlockHeight sets the current block height
func (c *Collector) UpdateBlockHeight(height int64) {
	c.BlockHeight.Set(float64(height))
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
