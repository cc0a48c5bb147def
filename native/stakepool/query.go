package stakepool

import (
	"github.com/ethereum/go-ethereum/common"

	stakeerr "stakepool/core/errors"
	"stakepool/core/rewards"
)

// Pending returns the rewards staker could claim now.
func (e *Engine) Pending(staker common.Address) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	pool, ok, err := e.state.StakepoolPool()
	if err != nil || !ok {
		return 0, err
	}
	participant, ok, err := e.state.StakepoolParticipant(staker)
	if err != nil || !ok {
		return 0, err
	}
	return rewards.PendingRewards(pool, participant)
}

// Participant returns a copy of staker's record.
func (e *Engine) Participant(staker common.Address) (*rewards.Participant, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	participant, ok, err := e.state.StakepoolParticipant(staker)
	if err != nil || !ok {
		return nil, ok, err
	}
	return participant.Clone(), true, nil
}

// Snapshot returns the singletons and the pool states as observed now. Unlike
// the mutating operations it tolerates a clock behind the last update.
func (e *Engine) Snapshot() (*Snapshot, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	globals, ok, err := e.state.StakepoolGlobals()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, stakeerr.ErrNotInitialized
	}
	pool, _, err := e.state.StakepoolPool()
	if err != nil {
		return nil, err
	}
	bonusPool, _, err := e.state.StakepoolBonus()
	if err != nil {
		return nil, err
	}
	referralPool, _, err := e.state.StakepoolReferral()
	if err != nil {
		return nil, err
	}
	now := e.now()
	snap := &Snapshot{
		Now:      now,
		Globals:  *globals,
		Pool:     pool.Clone(),
		Bonus:    bonusPool.Clone(),
		Referral: referralPool.Clone(),
	}
	if bonusPool != nil {
		snap.BonusState = bonusPool.State(now, e.params.Bonus)
		snap.BonusTrigger = bonusPool.Trigger(now, e.params.Bonus)
	}
	if referralPool != nil {
		snap.ReferralDue = referralPool.Due(now)
	}
	return snap, nil
}
