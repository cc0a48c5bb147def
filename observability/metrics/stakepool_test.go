package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStakepoolMetricsRecord(t *testing.T) {
	m := Stakepool()
	if m != Stakepool() {
		t.Fatalf("expected singleton registry")
	}

	m.ObserveOperation("Contribute", "")
	m.ObserveOperation("contribute", "validation")
	if got := testutil.ToFloat64(m.operations.WithLabelValues("contribute", "ok")); got != 1 {
		t.Fatalf("ok operations = %v", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("contribute", "validation")); got != 1 {
		t.Fatalf("validation operations = %v", got)
	}

	m.AddFee("stakers", 700)
	m.AddFee("stakers", 0)
	if got := testutil.ToFloat64(m.fees.WithLabelValues("stakers")); got != 700 {
		t.Fatalf("stakers fee = %v", got)
	}

	m.AddDistribution("bonus", "contributors", 400)
	if got := testutil.ToFloat64(m.distributions.WithLabelValues("bonus", "contributors")); got != 400 {
		t.Fatalf("bonus distribution = %v", got)
	}

	m.SetTotalStaked(9_000)
	m.SetPoolBalance("referral", 50)
	if got := testutil.ToFloat64(m.totalStaked); got != 9_000 {
		t.Fatalf("total staked = %v", got)
	}
	if got := testutil.ToFloat64(m.poolBalance.WithLabelValues("referral")); got != 50 {
		t.Fatalf("referral balance = %v", got)
	}
}

func TestStakepoolMetricsNilSafe(t *testing.T) {
	var m *StakepoolMetrics
	m.ObserveOperation("claim", "ok")
	m.AddVolume("claim", 1)
	m.AddFee("team", 1)
	m.AddDistribution("bonus", "stakers", 1)
	m.AddRoundingDust("withdraw", 1)
	m.SetTotalStaked(1)
	m.SetPoolBalance("bonus", 1)
}
