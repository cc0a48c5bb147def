// Package referral holds fees from contributors without a bound referrer and
// periodically releases half of the balance to stakers.
package referral

import (
	"fmt"
	"time"

	stakeerr "stakepool/core/errors"
	"stakepool/core/fixedpoint"
)

// StakersBps is the share of the balance released per distribution.
const StakersBps uint64 = 5_000

// Params configures the distribution cadence.
type Params struct {
	Period time.Duration
}

// DefaultParams returns the shipped thirty day cadence.
func DefaultParams() Params {
	return Params{Period: 30 * 24 * time.Hour}
}

func (p Params) Validate() error {
	if p.Period < time.Second {
		return fmt.Errorf("referral: period must be at least one second")
	}
	return nil
}

func (p Params) seconds() int64 {
	return int64(p.Period / time.Second)
}

// Pool is the persisted referral pool.
type Pool struct {
	Balance                   uint64
	LastDistributionTimestamp int64
	NextDistributionTimestamp int64
	TotalDistributed          uint64
}

func New(now int64, params Params) (*Pool, error) {
	next, err := fixedpoint.AddSeconds(now, params.seconds())
	if err != nil {
		return nil, err
	}
	return &Pool{LastDistributionTimestamp: now, NextDistributionTimestamp: next}, nil
}

func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (p *Pool) Deposit(amount uint64) error {
	next, err := fixedpoint.Add(p.Balance, amount)
	if err != nil {
		return err
	}
	p.Balance = next
	return nil
}

// Due reports whether the scheduled distribution time has been reached.
func (p *Pool) Due(now int64) bool {
	return now >= p.NextDistributionTimestamp
}

// Distribution is a computed referral release.
type Distribution struct {
	Forced         bool
	Balance        uint64
	ToStakers      uint64
	CarriedForward uint64
}

// Plan computes the release at now. A forced release skips the schedule check;
// authorising the caller is left to the orchestrator.
func Plan(p *Pool, now int64, force, stakersPresent bool) (Distribution, error) {
	if p == nil {
		return Distribution{}, stakeerr.ErrNotInitialized
	}
	if p.Balance == 0 {
		return Distribution{}, stakeerr.ErrPoolEmpty
	}
	if !force && !p.Due(now) {
		return Distribution{}, stakeerr.ErrNotYetEligible
	}
	toStakers, err := fixedpoint.PercentOf(p.Balance, StakersBps)
	if err != nil {
		return Distribution{}, err
	}
	if !stakersPresent {
		toStakers = 0
	}
	carry, err := fixedpoint.Sub(p.Balance, toStakers)
	if err != nil {
		return Distribution{}, err
	}
	return Distribution{
		Forced:         force,
		Balance:        p.Balance,
		ToStakers:      toStakers,
		CarriedForward: carry,
	}, nil
}

// Commit applies d and schedules the next release one period after now.
func (p *Pool) Commit(d Distribution, params Params, now int64) error {
	if p.Balance != d.Balance {
		return fmt.Errorf("%w: referral balance changed since plan", stakeerr.ErrDistributionMismatch)
	}
	remaining, err := fixedpoint.Sub(p.Balance, d.ToStakers)
	if err != nil {
		return err
	}
	if remaining != d.CarriedForward {
		return fmt.Errorf("%w: remaining %d, carried %d", stakeerr.ErrDistributionMismatch, remaining, d.CarriedForward)
	}
	next, err := fixedpoint.AddSeconds(now, params.seconds())
	if err != nil {
		return err
	}
	total, err := fixedpoint.Add(p.TotalDistributed, d.ToStakers)
	if err != nil {
		return err
	}
	p.Balance = remaining
	p.LastDistributionTimestamp = now
	p.NextDistributionTimestamp = next
	p.TotalDistributed = total
	return nil
}
