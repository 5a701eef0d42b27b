package observability

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// StakingMetrics aggregates the Prometheus series recorded around the staking
// engine: operation counters, failure reasons and the custody gauges the
// vault's solvency is monitored by.
type StakingMetrics struct {
	stakes               prometheus.Counter
	unstakes             prometheus.Counter
	failures             *prometheus.CounterVec
	outstandingPrincipal prometheus.Gauge
	rewardsPaid          prometheus.Counter
}

var (
	stakingMetricsOnce sync.Once
	stakingRegistry    *StakingMetrics
)

// Metrics returns the lazily-initialised staking metrics registry.
func Metrics() *StakingMetrics {
	stakingMetricsOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			stakes: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stakevault",
				Subsystem: "staking",
				Name:      "stakes_total",
				Help:      "Total deposits opened.",
			}),
			unstakes: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stakevault",
				Subsystem: "staking",
				Name:      "unstakes_total",
				Help:      "Total deposits finalized.",
			}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stakevault",
				Subsystem: "staking",
				Name:      "failures_total",
				Help:      "Rejected staking operations segmented by operation and reason.",
			}, []string{"op", "reason"}),
			outstandingPrincipal: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "stakevault",
				Subsystem: "staking",
				Name:      "outstanding_principal",
				Help:      "Principal currently held in vault custody.",
			}),
			rewardsPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stakevault",
				Subsystem: "staking",
				Name:      "rewards_paid_total",
				Help:      "Cumulative reward-asset units paid out at finalization.",
			}),
		}
		prometheus.MustRegister(
			stakingRegistry.stakes,
			stakingRegistry.unstakes,
			stakingRegistry.failures,
			stakingRegistry.outstandingPrincipal,
			stakingRegistry.rewardsPaid,
		)
	})
	return stakingRegistry
}

func float64FromBig(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

// ObserveStake records a successfully opened deposit.
func (m *StakingMetrics) ObserveStake(amount *big.Int) {
	if m == nil {
		return
	}
	m.stakes.Inc()
	m.outstandingPrincipal.Add(float64FromBig(amount))
}

// ObserveUnstake records a finalized deposit and its payout split.
func (m *StakingMetrics) ObserveUnstake(principal, totalPaid *big.Int) {
	if m == nil {
		return
	}
	m.unstakes.Inc()
	m.outstandingPrincipal.Sub(float64FromBig(principal))
	if principal != nil && totalPaid != nil {
		reward := new(big.Int).Sub(totalPaid, principal)
		if reward.Sign() > 0 {
			m.rewardsPaid.Add(float64FromBig(reward))
		}
	}
}

// ObserveFailure records a rejected operation.
func (m *StakingMetrics) ObserveFailure(op, reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(op, reason).Inc()
}
