package rewards

import (
	"fmt"

	"github.com/holiman/uint256"

	stakeerr "stakepool/core/errors"
	"stakepool/core/fixedpoint"
)

// Injection describes the effect of crediting a fee to all stakers.
type Injection struct {
	Applied   bool
	Increment *uint256.Int
	// Dust is the part of the fee lost to flooring the per-share increment.
	Dust uint64
}

// InjectReward credits fee to every staked unit by advancing RewardPerShare by
// floor(fee*P/TotalStaked). With nothing staked the call is a no-op and
// Applied is false; the caller keeps the fee.
func InjectReward(pool *Pool, fee uint64) (Injection, error) {
	if pool == nil || pool.TotalStaked == 0 || fee == 0 {
		return Injection{Increment: new(uint256.Int)}, nil
	}
	scaled, err := fixedpoint.Scale(fee)
	if err != nil {
		return Injection{}, err
	}
	increment, err := fixedpoint.DivWide(scaled, fixedpoint.Widen(pool.TotalStaked))
	if err != nil {
		return Injection{}, err
	}
	next, err := fixedpoint.AddWide(pool.RewardPerShare, increment)
	if err != nil {
		return Injection{}, err
	}
	credited, err := fixedpoint.ScaledProduct(pool.TotalStaked, increment)
	if err != nil {
		return Injection{}, err
	}
	creditedNarrow, err := fixedpoint.Narrow(credited)
	if err != nil {
		return Injection{}, err
	}
	dust, err := fixedpoint.Sub(fee, creditedNarrow)
	if err != nil {
		return Injection{}, err
	}
	pool.RewardPerShare = next
	return Injection{Applied: true, Increment: increment, Dust: dust}, nil
}

// Accrued returns floor(StakedAmount*RewardPerShare/P) for participant.
func Accrued(pool *Pool, participant *Participant) (*uint256.Int, error) {
	if pool == nil || participant == nil {
		return new(uint256.Int), nil
	}
	return fixedpoint.ScaledProduct(participant.StakedAmount, pool.RewardPerShare)
}

// PendingRewards returns the rewards accrued since the participant's debt was
// last resynchronised. A debt above the accrued value can only come from a
// caller resyncing out of order; release builds clamp it to zero and builds
// tagged stakedebug fail with ErrDebtExceedsAccrual.
func PendingRewards(pool *Pool, participant *Participant) (uint64, error) {
	accrued, err := Accrued(pool, participant)
	if err != nil {
		return 0, err
	}
	debt := participant.debt()
	if debt.Gt(accrued) {
		if debugAsserts {
			return 0, fmt.Errorf("%w: debt %s accrued %s", stakeerr.ErrDebtExceedsAccrual, debt.Dec(), accrued.Dec())
		}
		return 0, nil
	}
	pending, err := fixedpoint.SubWide(accrued, debt)
	if err != nil {
		return 0, err
	}
	return fixedpoint.Narrow(pending)
}

// ResyncDebt snapshots the accumulator for participant using its current
// StakedAmount. It must run after every stake change and every claim.
func ResyncDebt(pool *Pool, participant *Participant) error {
	if participant == nil {
		return nil
	}
	accrued, err := Accrued(pool, participant)
	if err != nil {
		return err
	}
	participant.RewardDebt = accrued
	return nil
}

// AddStake credits amount to the participant and the pool total.
func AddStake(pool *Pool, participant *Participant, amount uint64) error {
	staked, err := fixedpoint.Add(participant.StakedAmount, amount)
	if err != nil {
		return err
	}
	total, err := fixedpoint.Add(pool.TotalStaked, amount)
	if err != nil {
		return err
	}
	participant.StakedAmount = staked
	pool.TotalStaked = total
	return nil
}

// RemoveStake debits amount from the participant and the pool total.
func RemoveStake(pool *Pool, participant *Participant, amount uint64) error {
	if participant.StakedAmount < amount {
		return stakeerr.ErrInsufficientStake
	}
	if pool.TotalStaked < amount {
		return fmt.Errorf("%w: total %d, removing %d", stakeerr.ErrTotalStakedMismatch, pool.TotalStaked, amount)
	}
	staked, err := fixedpoint.Sub(participant.StakedAmount, amount)
	if err != nil {
		return err
	}
	total, err := fixedpoint.Sub(pool.TotalStaked, amount)
	if err != nil {
		return err
	}
	participant.StakedAmount = staked
	pool.TotalStaked = total
	return nil
}

func (p *Participant) debt() *uint256.Int {
	if p == nil || p.RewardDebt == nil {
		return new(uint256.Int)
	}
	return p.RewardDebt
}
