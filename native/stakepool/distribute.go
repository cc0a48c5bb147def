package stakepool

import (
	"github.com/ethereum/go-ethereum/common"

	stakeerr "stakepool/core/errors"
	"stakepool/core/events"
	"stakepool/core/rewards"
	"stakepool/native/bank"
	"stakepool/native/bonus"
	"stakepool/native/referral"
)

// DistributeBonusPool releases the bonus pool once its countdown has expired
// or contributions have gone quiet. Anybody may call it; when several callers
// race, only the first succeeds and the rest see ErrNotYetEligible because
// the committed round restarts the countdown.
func (e *Engine) DistributeBonusPool() (*BonusResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	w, err := e.load()
	if err != nil {
		return nil, err
	}
	dist, err := bonus.Plan(w.bonus, e.params.Bonus, w.now, w.pool.TotalStaked > 0)
	if err != nil {
		return nil, err
	}

	var moves transfers
	for _, payout := range dist.Payouts {
		moves.add(bank.BonusPool, bank.Wallet(payout.Contributor), payout.Amount, "bonus:contributor")
	}
	moves.add(bank.BonusPool, bank.Vault, dist.ToStakers, "bonus:stakers")
	injection, err := rewards.InjectReward(w.pool, dist.ToStakers)
	if err != nil {
		return nil, err
	}
	if err := w.bonus.Commit(dist, e.params.Bonus, w.now); err != nil {
		return nil, err
	}

	movements, err := e.settle(moves)
	if err != nil {
		return nil, err
	}
	if err := e.persist(w, nil); err != nil {
		return nil, err
	}

	result := &BonusResult{
		Trigger:             dist.Trigger,
		ToContributors:      dist.ToContributors,
		ToStakers:           dist.ToStakers,
		CarriedForward:      dist.CarriedForward,
		Payouts:             dist.Payouts,
		NextExpiry:          w.bonus.ExpiryTimestamp,
		RewardPerShareAfter: w.pool.RewardPerShare.Clone(),
		InjectionDust:       injection.Dust,
		Movements:           movements,
	}
	e.emit(events.StakepoolBonusDistributed{
		Trigger:        dist.Trigger.String(),
		Balance:        dist.Balance,
		ToContributors: dist.ToContributors,
		ToStakers:      dist.ToStakers,
		CarriedForward: dist.CarriedForward,
		Recipients:     len(dist.Payouts),
		NextExpiry:     w.bonus.ExpiryTimestamp,
	})
	return result, nil
}

// DistributeReferralPool releases half of the referral pool to stakers once
// the period has elapsed. force skips the schedule and is reserved for the
// protocol authority.
func (e *Engine) DistributeReferralPool(caller common.Address, force bool) (*ReferralResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	w, err := e.load()
	if err != nil {
		return nil, err
	}
	if force && caller != w.globals.Authority {
		return nil, stakeerr.ErrUnauthorized
	}
	dist, err := referral.Plan(w.referral, w.now, force, w.pool.TotalStaked > 0)
	if err != nil {
		return nil, err
	}

	var moves transfers
	moves.add(bank.ReferralPool, bank.Vault, dist.ToStakers, "referral:stakers")
	injection, err := rewards.InjectReward(w.pool, dist.ToStakers)
	if err != nil {
		return nil, err
	}
	if err := w.referral.Commit(dist, e.params.Referral, w.now); err != nil {
		return nil, err
	}

	movements, err := e.settle(moves)
	if err != nil {
		return nil, err
	}
	if err := e.persist(w, nil); err != nil {
		return nil, err
	}

	e.emit(events.StakepoolReferralDistributed{
		Forced:           dist.Forced,
		ToStakers:        dist.ToStakers,
		CarriedForward:   dist.CarriedForward,
		NextDistribution: w.referral.NextDistributionTimestamp,
	})
	return &ReferralResult{
		Forced:              dist.Forced,
		ToStakers:           dist.ToStakers,
		CarriedForward:      dist.CarriedForward,
		NextDistribution:    w.referral.NextDistributionTimestamp,
		RewardPerShareAfter: w.pool.RewardPerShare.Clone(),
		InjectionDust:       injection.Dust,
		Movements:           movements,
	}, nil
}
