package stakepool

import (
	"github.com/ethereum/go-ethereum/common"

	stakeerr "stakepool/core/errors"
	"stakepool/core/events"
	"stakepool/core/rewards"
	"stakepool/native/bank"
)

// Claim pays out staker's pending rewards and resynchronises its debt. A
// second claim with nothing accrued in between fails with ErrNoRewards.
func (e *Engine) Claim(staker common.Address) (*ClaimResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	w, err := e.load()
	if err != nil {
		return nil, err
	}
	stored, ok, err := e.state.StakepoolParticipant(staker)
	if err != nil {
		return nil, err
	}
	if !ok || stored == nil {
		return nil, stakeerr.ErrNoStakePosition
	}
	participant := stored.Clone()
	pending, err := rewards.PendingRewards(w.pool, participant)
	if err != nil {
		return nil, err
	}
	if pending == 0 {
		return nil, stakeerr.ErrNoRewards
	}
	if err := rewards.ResyncDebt(w.pool, participant); err != nil {
		return nil, err
	}
	participant.LastClaimTimestamp = w.now

	var moves transfers
	moves.add(bank.Vault, bank.Wallet(staker), pending, "claim")
	movements, err := e.settle(moves)
	if err != nil {
		return nil, err
	}
	if err := e.persist(w, participant); err != nil {
		return nil, err
	}
	debt := participant.RewardDebt.Clone()
	e.emit(events.StakepoolRewardsClaimed{Staker: staker, Amount: pending, RewardDebt: debt})
	return &ClaimResult{Staker: staker, AmountPaid: pending, NewRewardDebt: debt, Movements: movements}, nil
}
