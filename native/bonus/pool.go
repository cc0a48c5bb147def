// Package bonus implements the countdown-driven bonus pool. Fees accumulate
// in the pool until either the countdown expires or contributions go quiet
// for long enough, at which point the balance is split between recent
// qualifying contributors, all stakers, and the next round.
package bonus

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	stakeerr "stakepool/core/errors"
	"stakepool/core/fixedpoint"
)

// State describes whether the pool can be distributed at a given instant.
type State uint8

const (
	StateCounting State = iota
	StateEligible
)

func (s State) String() string {
	if s == StateEligible {
		return "eligible"
	}
	return "counting"
}

// Trigger names the condition that made a distribution eligible.
type Trigger uint8

const (
	TriggerNone Trigger = iota
	TriggerCountdown
	TriggerInactivity
)

func (t Trigger) String() string {
	switch t {
	case TriggerCountdown:
		return "countdown"
	case TriggerInactivity:
		return "inactivity"
	default:
		return "none"
	}
}

// Pool is the persisted bonus pool.
type Pool struct {
	Balance                   uint64
	ExpiryTimestamp           int64
	LastContributionTimestamp int64
	Recent                    Ring
	TotalDistributed          uint64
	Rounds                    uint64
}

// New opens a pool whose countdown starts at now.
func New(now int64, params Params) (*Pool, error) {
	expiry, err := fixedpoint.AddSeconds(now, seconds(params.InitialCountdown))
	if err != nil {
		return nil, err
	}
	return &Pool{ExpiryTimestamp: expiry, LastContributionTimestamp: now}, nil
}

// Clone returns an independent copy.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// Deposit credits the pool.
func (p *Pool) Deposit(amount uint64) error {
	next, err := fixedpoint.Add(p.Balance, amount)
	if err != nil {
		return err
	}
	p.Balance = next
	return nil
}

// Trigger reports which condition, if any, makes the pool eligible at now.
// The countdown takes precedence when both hold.
func (p *Pool) Trigger(now int64, params Params) Trigger {
	if now >= p.ExpiryTimestamp {
		return TriggerCountdown
	}
	if now-p.LastContributionTimestamp >= seconds(params.InactivityThreshold) {
		return TriggerInactivity
	}
	return TriggerNone
}

// State reports the pool state at now.
func (p *Pool) State(now int64, params Params) State {
	if p.Trigger(now, params) == TriggerNone {
		return StateCounting
	}
	return StateEligible
}

// Recorded describes the effect of a contribution on the pool.
type Recorded struct {
	Qualified bool
	Slot      uint8
	NewExpiry int64
}

// RecordContribution applies a contribution of gross amount. Every
// contribution refreshes the inactivity clock; only qualifying ones extend
// the countdown and enter the buffer.
func (p *Pool) RecordContribution(contributor common.Address, amount uint64, now int64, params Params) (Recorded, error) {
	rec := Recorded{NewExpiry: p.ExpiryTimestamp}
	if amount >= params.QualifyingAmount {
		expiry, err := fixedpoint.AddSeconds(p.ExpiryTimestamp, seconds(params.Extension))
		if err != nil {
			return Recorded{}, err
		}
		p.ExpiryTimestamp = expiry
		rec.Qualified = true
		rec.NewExpiry = expiry
		rec.Slot = p.Recent.Push(Entry{Contributor: contributor, Amount: amount})
	}
	p.LastContributionTimestamp = now
	return rec, nil
}

// Payout is one contributor's share of a distribution.
type Payout struct {
	Slot        uint8
	Contributor common.Address
	Amount      uint64
}

// Distribution is a computed but not yet applied split of the pool balance.
type Distribution struct {
	Trigger        Trigger
	Balance        uint64
	ToContributors uint64
	ToStakers      uint64
	CarriedForward uint64
	Payouts        []Payout
}

// Plan computes the distribution due at now without mutating the pool.
// stakersPresent reports whether anybody can receive the stakers' share;
// when false that share is carried forward.
func Plan(p *Pool, params Params, now int64, stakersPresent bool) (Distribution, error) {
	if p == nil {
		return Distribution{}, stakeerr.ErrNotInitialized
	}
	trigger := p.Trigger(now, params)
	if trigger == TriggerNone {
		return Distribution{}, stakeerr.ErrNotYetEligible
	}
	if p.Balance == 0 {
		return Distribution{}, stakeerr.ErrPoolEmpty
	}
	balance := p.Balance
	contributorsShare, err := fixedpoint.PercentOf(balance, ContributorsBps)
	if err != nil {
		return Distribution{}, err
	}
	stakersShare, err := fixedpoint.PercentOf(balance, StakersBps)
	if err != nil {
		return Distribution{}, err
	}
	allocated, err := fixedpoint.Add(contributorsShare, stakersShare)
	if err != nil {
		return Distribution{}, err
	}
	// The carry share absorbs the rounding residue of the two floored shares.
	carry, err := fixedpoint.Sub(balance, allocated)
	if err != nil {
		return Distribution{}, err
	}

	payouts, paid, err := proRata(&p.Recent, contributorsShare)
	if err != nil {
		return Distribution{}, err
	}
	unpaid, err := fixedpoint.Sub(contributorsShare, paid)
	if err != nil {
		return Distribution{}, err
	}
	if carry, err = fixedpoint.Add(carry, unpaid); err != nil {
		return Distribution{}, err
	}
	if !stakersPresent {
		if carry, err = fixedpoint.Add(carry, stakersShare); err != nil {
			return Distribution{}, err
		}
		stakersShare = 0
	}

	dist := Distribution{
		Trigger:        trigger,
		Balance:        balance,
		ToContributors: paid,
		ToStakers:      stakersShare,
		CarriedForward: carry,
		Payouts:        payouts,
	}
	if err := dist.Verify(); err != nil {
		return Distribution{}, err
	}
	return dist, nil
}

// proRata splits share across the filled buffer entries by amount. Entries
// for the same contributor are paid independently.
func proRata(ring *Ring, share uint64) ([]Payout, uint64, error) {
	if share == 0 {
		return nil, 0, nil
	}
	total, err := ring.Total()
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return nil, 0, nil
	}
	var (
		payouts []Payout
		paid    uint64
	)
	for _, slot := range ring.Active() {
		if slot.Amount == 0 {
			continue
		}
		amount, err := fixedpoint.MulDiv(slot.Amount, share, total)
		if err != nil {
			return nil, 0, err
		}
		if amount == 0 {
			continue
		}
		if paid, err = fixedpoint.Add(paid, amount); err != nil {
			return nil, 0, err
		}
		payouts = append(payouts, Payout{Slot: slot.Index, Contributor: slot.Contributor, Amount: amount})
	}
	return payouts, paid, nil
}

// Verify checks that the distribution accounts for the whole balance.
func (d Distribution) Verify() error {
	var paid uint64
	for _, payout := range d.Payouts {
		next, err := fixedpoint.Add(paid, payout.Amount)
		if err != nil {
			return err
		}
		paid = next
	}
	if paid != d.ToContributors {
		return fmt.Errorf("%w: payouts %d, contributors share %d", stakeerr.ErrDistributionMismatch, paid, d.ToContributors)
	}
	total, err := fixedpoint.Sum(d.ToContributors, d.ToStakers, d.CarriedForward)
	if err != nil {
		return err
	}
	if total != d.Balance {
		return fmt.Errorf("%w: distributed %d of %d", stakeerr.ErrDistributionMismatch, total, d.Balance)
	}
	return nil
}

// Commit applies d to the pool, leaving only the carried amount and
// restarting the countdown from now. The contributor buffer is retained.
func (p *Pool) Commit(d Distribution, params Params, now int64) error {
	if p.Balance != d.Balance {
		return fmt.Errorf("%w: pool balance changed since plan", stakeerr.ErrDistributionMismatch)
	}
	if err := d.Verify(); err != nil {
		return err
	}
	outflow, err := fixedpoint.Add(d.ToContributors, d.ToStakers)
	if err != nil {
		return err
	}
	remaining, err := fixedpoint.Sub(p.Balance, outflow)
	if err != nil {
		return err
	}
	if remaining != d.CarriedForward {
		return fmt.Errorf("%w: remaining %d, carried %d", stakeerr.ErrDistributionMismatch, remaining, d.CarriedForward)
	}
	expiry, err := fixedpoint.AddSeconds(now, seconds(params.InitialCountdown))
	if err != nil {
		return err
	}
	distributed, err := fixedpoint.Add(p.TotalDistributed, outflow)
	if err != nil {
		return err
	}
	p.Balance = remaining
	p.ExpiryTimestamp = expiry
	p.LastContributionTimestamp = now
	p.TotalDistributed = distributed
	p.Rounds++
	return nil
}
