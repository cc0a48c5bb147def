package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// StakepoolMetrics tracks the staking ledger from the host side. Values are
// recorded from operation results after the unit of work commits.
type StakepoolMetrics struct {
	operations    *prometheus.CounterVec
	volume        *prometheus.CounterVec
	fees          *prometheus.CounterVec
	distributions *prometheus.CounterVec
	roundingDust  *prometheus.CounterVec
	totalStaked   prometheus.Gauge
	poolBalance   *prometheus.GaugeVec
}

var (
	stakepoolOnce     sync.Once
	stakepoolRegistry *StakepoolMetrics
)

func Stakepool() *StakepoolMetrics {
	stakepoolOnce.Do(func() {
		stakepoolRegistry = &StakepoolMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stakepool_operations_total",
				Help: "Count of ledger operations by name and outcome kind.",
			}, []string{"operation", "outcome"}),
			volume: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stakepool_volume_total",
				Help: "Gross value contributed, withdrawn or claimed.",
			}, []string{"operation"}),
			fees: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stakepool_fees_total",
				Help: "Fees charged per schedule component.",
			}, []string{"component"}),
			distributions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stakepool_distributed_total",
				Help: "Value released by pool distributions per destination.",
			}, []string{"pool", "destination"}),
			roundingDust: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stakepool_rounding_dust_total",
				Help: "Reward injection remainder retained by the vault.",
			}, []string{"operation"}),
			totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "stakepool_total_staked",
				Help: "Net value currently staked.",
			}),
			poolBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "stakepool_pool_balance",
				Help: "Balance held by an auxiliary pool.",
			}, []string{"pool"}),
		}
		prometheus.MustRegister(
			stakepoolRegistry.operations,
			stakepoolRegistry.volume,
			stakepoolRegistry.fees,
			stakepoolRegistry.distributions,
			stakepoolRegistry.roundingDust,
			stakepoolRegistry.totalStaked,
			stakepoolRegistry.poolBalance,
		)
	})
	return stakepoolRegistry
}

func label(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}

// ObserveOperation counts one operation. Outcome is "ok" on success and the
// error kind otherwise.
func (m *StakepoolMetrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(label(operation, "unknown"), label(outcome, "ok")).Inc()
}

func (m *StakepoolMetrics) AddVolume(operation string, amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	m.volume.WithLabelValues(label(operation, "unknown")).Add(float64(amount))
}

func (m *StakepoolMetrics) AddFee(component string, amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	m.fees.WithLabelValues(label(component, "unknown")).Add(float64(amount))
}

func (m *StakepoolMetrics) AddDistribution(pool, destination string, amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	m.distributions.WithLabelValues(label(pool, "unknown"), label(destination, "unknown")).Add(float64(amount))
}

func (m *StakepoolMetrics) AddRoundingDust(operation string, amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	m.roundingDust.WithLabelValues(label(operation, "unknown")).Add(float64(amount))
}

func (m *StakepoolMetrics) SetTotalStaked(amount uint64) {
	if m == nil {
		return
	}
	m.totalStaked.Set(float64(amount))
}

func (m *StakepoolMetrics) SetPoolBalance(pool string, amount uint64) {
	if m == nil {
		return
	}
	m.poolBalance.WithLabelValues(label(pool, "unknown")).Set(float64(amount))
}
