package stakepool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	stakeerr "stakepool/core/errors"
	"stakepool/core/events"
	"stakepool/core/rewards"
	"stakepool/native/bank"
	"stakepool/native/fees"
)

// Contribute stakes gross on behalf of staker. The fee is split and routed,
// the stakers share is credited to everyone already staked, any rewards the
// staker had pending are harvested, and the net amount joins the stake.
// referrer is only bound on the staker's first contribution.
func (e *Engine) Contribute(staker common.Address, gross uint64, referrer *common.Address) (*ContributeResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	if gross < e.params.MinContribution {
		return nil, fmt.Errorf("%w: contribution %d below %d", stakeerr.ErrBelowMinimum, gross, e.params.MinContribution)
	}
	w, err := e.load()
	if err != nil {
		return nil, err
	}
	participant, err := e.participantForContribution(staker, referrer, w.now)
	if err != nil {
		return nil, err
	}
	breakdown, err := fees.Split(gross, e.params.Fees)
	if err != nil {
		return nil, err
	}

	var moves transfers
	wallet := bank.Wallet(staker)
	moves.add(wallet, bank.Vault, gross, "contribute")
	paidReferrer, err := e.routeFees(w, participant, bank.Vault, breakdown, &moves)
	if err != nil {
		return nil, err
	}

	result := &ContributeResult{
		Staker:    staker,
		Gross:     gross,
		NetStaked: breakdown.Net,
		Fees:      breakdown,
	}
	if w.pool.TotalStaked == 0 {
		if err := e.retainStakersFee(w, breakdown.Stakers(), &moves); err != nil {
			return nil, err
		}
		result.StakersFeeRetained = breakdown.Stakers() > 0
	} else {
		injection, err := rewards.InjectReward(w.pool, breakdown.Stakers())
		if err != nil {
			return nil, err
		}
		result.InjectionDust = injection.Dust
	}

	harvested, err := rewards.PendingRewards(w.pool, participant)
	if err != nil {
		return nil, err
	}
	moves.add(bank.Vault, wallet, harvested, "harvest")
	if harvested > 0 {
		participant.LastClaimTimestamp = w.now
	}
	if err := rewards.AddStake(w.pool, participant, breakdown.Net); err != nil {
		return nil, err
	}
	if err := rewards.ResyncDebt(w.pool, participant); err != nil {
		return nil, err
	}
	participant.StakeTimestamp = w.now

	recorded, err := w.bonus.RecordContribution(staker, gross, w.now, e.params.Bonus)
	if err != nil {
		return nil, err
	}

	movements, err := e.settle(moves)
	if err != nil {
		return nil, err
	}
	if err := e.persist(w, participant); err != nil {
		return nil, err
	}

	result.RewardsHarvested = harvested
	result.StakedAmount = participant.StakedAmount
	result.TotalStakedAfter = w.pool.TotalStaked
	result.RewardPerShareAfter = w.pool.RewardPerShare.Clone()
	result.Bonus = recorded
	result.Movements = movements
	if participant.Referrer != nil {
		ref := *participant.Referrer
		result.Referrer = &ref
	}

	if paidReferrer != nil {
		e.emit(events.StakepoolReferralPaid{Staker: staker, Referrer: *paidReferrer, Amount: breakdown.Referral()})
	}
	if recorded.Qualified {
		e.emit(events.StakepoolContributorRecorded{Contributor: staker, Amount: gross, Slot: recorded.Slot})
		e.emit(events.StakepoolBonusExtended{Contributor: staker, Amount: gross, Expiry: recorded.NewExpiry})
	}
	e.emit(events.StakepoolStaked{
		Staker:         staker,
		Referrer:       result.Referrer,
		Gross:          gross,
		Net:            breakdown.Net,
		TotalFee:       breakdown.TotalFee,
		Harvested:      harvested,
		StakedAmount:   participant.StakedAmount,
		TotalStaked:    w.pool.TotalStaked,
		RewardPerShare: result.RewardPerShareAfter,
	})
	return result, nil
}

func (e *Engine) participantForContribution(staker common.Address, referrer *common.Address, now int64) (*rewards.Participant, error) {
	existing, ok, err := e.state.StakepoolParticipant(staker)
	if err != nil {
		return nil, err
	}
	if ok && existing != nil {
		return existing.Clone(), nil
	}
	var bound *common.Address
	if referrer != nil && *referrer != (common.Address{}) {
		if *referrer == staker {
			return nil, stakeerr.ErrSelfReferral
		}
		bound = referrer
	}
	return rewards.NewParticipant(staker, now, bound), nil
}

// routeFees queues every non-stakers component from source to its
// destination and credits the auxiliary pool balances. It returns the
// referrer paid directly, if any.
func (e *Engine) routeFees(w *working, participant *rewards.Participant, source string, breakdown fees.Breakdown, moves *transfers) (*common.Address, error) {
	moves.add(source, bank.Wallet(w.globals.Platform), breakdown.Platform(), "fee:platform")
	moves.add(source, bank.Wallet(w.globals.Team), breakdown.Team(), "fee:team")

	moves.add(source, bank.BonusPool, breakdown.Bonus(), "fee:bonus")
	if err := w.bonus.Deposit(breakdown.Bonus()); err != nil {
		return nil, err
	}

	referralFee := breakdown.Referral()
	if participant.HasReferrer() {
		ref := *participant.Referrer
		moves.add(source, bank.Wallet(ref), referralFee, "fee:referral")
		if referralFee == 0 {
			return nil, nil
		}
		return &ref, nil
	}
	moves.add(source, bank.ReferralPool, referralFee, "fee:referral")
	return nil, w.referral.Deposit(referralFee)
}

// retainStakersFee parks a stakers fee that has no recipients in the bonus
// pool, where it re-enters circulation with the next bonus round.
func (e *Engine) retainStakersFee(w *working, amount uint64, moves *transfers) error {
	moves.add(bank.Vault, bank.BonusPool, amount, "fee:stakers-retained")
	return w.bonus.Deposit(amount)
}
