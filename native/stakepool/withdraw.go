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

// Withdraw unstakes gross from staker's position. Pending rewards are paid
// without a fee, the fee on gross is split and routed, and the stakers share
// is credited to whoever remains staked, including the withdrawer's
// remaining position.
func (e *Engine) Withdraw(staker common.Address, gross uint64) (*WithdrawResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	if gross < e.params.MinWithdrawal {
		return nil, fmt.Errorf("%w: withdrawal %d below %d", stakeerr.ErrBelowMinimum, gross, e.params.MinWithdrawal)
	}
	w, err := e.load()
	if err != nil {
		return nil, err
	}
	stored, ok, err := e.state.StakepoolParticipant(staker)
	if err != nil {
		return nil, err
	}
	if !ok || stored == nil || stored.StakedAmount == 0 {
		return nil, stakeerr.ErrNoStakePosition
	}
	participant := stored.Clone()
	if gross > participant.StakedAmount {
		return nil, fmt.Errorf("%w: staked %d, requested %d", stakeerr.ErrInsufficientStake, participant.StakedAmount, gross)
	}
	breakdown, err := fees.Split(gross, e.params.Fees)
	if err != nil {
		return nil, err
	}

	claimed, err := rewards.PendingRewards(w.pool, participant)
	if err != nil {
		return nil, err
	}
	if err := rewards.RemoveStake(w.pool, participant, gross); err != nil {
		return nil, err
	}
	if err := rewards.ResyncDebt(w.pool, participant); err != nil {
		return nil, err
	}

	var moves transfers
	wallet := bank.Wallet(staker)
	moves.add(bank.Vault, wallet, breakdown.Net, "withdraw")
	moves.add(bank.Vault, wallet, claimed, "rewards")
	paidReferrer, err := e.routeFees(w, participant, bank.Vault, breakdown, &moves)
	if err != nil {
		return nil, err
	}

	result := &WithdrawResult{
		Staker:         staker,
		Gross:          gross,
		NetReturned:    breakdown.Net,
		RewardsClaimed: claimed,
		Fees:           breakdown,
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
	if claimed > 0 {
		participant.LastClaimTimestamp = w.now
	}

	movements, err := e.settle(moves)
	if err != nil {
		return nil, err
	}
	if err := e.persist(w, participant); err != nil {
		return nil, err
	}

	result.StakedAmount = participant.StakedAmount
	result.TotalStakedAfter = w.pool.TotalStaked
	result.RewardPerShareAfter = w.pool.RewardPerShare.Clone()
	result.Movements = movements

	if paidReferrer != nil {
		e.emit(events.StakepoolReferralPaid{Staker: staker, Referrer: *paidReferrer, Amount: breakdown.Referral()})
	}
	e.emit(events.StakepoolUnstaked{
		Staker:         staker,
		Gross:          gross,
		Net:            breakdown.Net,
		TotalFee:       breakdown.TotalFee,
		RewardsClaimed: claimed,
		StakedAmount:   participant.StakedAmount,
		TotalStaked:    w.pool.TotalStaked,
	})
	return result, nil
}
