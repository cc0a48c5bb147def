package routes

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"stakepool/core/rewards"
	"stakepool/native/bonus"
	"stakepool/native/stakepool"
)

// Wide values are rendered as decimal strings; JSON numbers cannot carry
// them exactly.

type PoolView struct {
	TotalStaked    uint64 `json:"totalStaked"`
	RewardPerShare string `json:"rewardPerShare"`
	LastUpdateTime int64  `json:"lastUpdateTime"`
}

type ContributorView struct {
	Slot        uint8          `json:"slot"`
	Contributor common.Address `json:"contributor"`
	Amount      uint64         `json:"amount"`
}

type BonusView struct {
	Balance                   uint64            `json:"balance"`
	ExpiryTimestamp           int64             `json:"expiryTimestamp"`
	LastContributionTimestamp int64             `json:"lastContributionTimestamp"`
	State                     string            `json:"state"`
	Trigger                   string            `json:"trigger"`
	Contributors              []ContributorView `json:"contributors"`
	TotalDistributed          uint64            `json:"totalDistributed"`
	Rounds                    uint64            `json:"rounds"`
}

type ReferralView struct {
	Balance                   uint64 `json:"balance"`
	LastDistributionTimestamp int64  `json:"lastDistributionTimestamp"`
	NextDistributionTimestamp int64  `json:"nextDistributionTimestamp"`
	Due                       bool   `json:"due"`
	TotalDistributed          uint64 `json:"totalDistributed"`
}

type SnapshotView struct {
	Now           int64          `json:"now"`
	Authority     common.Address `json:"authority"`
	Platform      common.Address `json:"platform"`
	Team          common.Address `json:"team"`
	InitializedAt int64          `json:"initializedAt"`
	Pool          PoolView       `json:"pool"`
	Bonus         BonusView      `json:"bonus"`
	Referral      ReferralView   `json:"referral"`
}

type ParticipantView struct {
	Staker             common.Address  `json:"staker"`
	StakedAmount       uint64          `json:"stakedAmount"`
	RewardDebt         string          `json:"rewardDebt"`
	Pending            uint64          `json:"pending"`
	StakeTimestamp     int64           `json:"stakeTimestamp"`
	LastClaimTimestamp int64           `json:"lastClaimTimestamp"`
	Referrer           *common.Address `json:"referrer,omitempty"`
}

func decimal(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func NewSnapshotView(snap *stakepool.Snapshot) SnapshotView {
	view := SnapshotView{
		Now:           snap.Now,
		Authority:     snap.Globals.Authority,
		Platform:      snap.Globals.Platform,
		Team:          snap.Globals.Team,
		InitializedAt: snap.Globals.InitializedAt,
	}
	if snap.Pool != nil {
		view.Pool = PoolView{
			TotalStaked:    snap.Pool.TotalStaked,
			RewardPerShare: decimal(snap.Pool.RewardPerShare),
			LastUpdateTime: snap.Pool.LastUpdateTime,
		}
	}
	if snap.Bonus != nil {
		view.Bonus = newBonusView(snap.Bonus, snap.BonusState, snap.BonusTrigger)
	}
	if snap.Referral != nil {
		view.Referral = ReferralView{
			Balance:                   snap.Referral.Balance,
			LastDistributionTimestamp: snap.Referral.LastDistributionTimestamp,
			NextDistributionTimestamp: snap.Referral.NextDistributionTimestamp,
			Due:                       snap.ReferralDue,
			TotalDistributed:          snap.Referral.TotalDistributed,
		}
	}
	return view
}

func newBonusView(p *bonus.Pool, state bonus.State, trigger bonus.Trigger) BonusView {
	active := p.Recent.Active()
	contributors := make([]ContributorView, 0, len(active))
	for _, slot := range active {
		contributors = append(contributors, ContributorView{
			Slot:        slot.Index,
			Contributor: slot.Contributor,
			Amount:      slot.Amount,
		})
	}
	return BonusView{
		Balance:                   p.Balance,
		ExpiryTimestamp:           p.ExpiryTimestamp,
		LastContributionTimestamp: p.LastContributionTimestamp,
		State:                     state.String(),
		Trigger:                   trigger.String(),
		Contributors:              contributors,
		TotalDistributed:          p.TotalDistributed,
		Rounds:                    p.Rounds,
	}
}

func NewParticipantView(p *rewards.Participant, pending uint64) ParticipantView {
	view := ParticipantView{
		Staker:             p.Staker,
		StakedAmount:       p.StakedAmount,
		RewardDebt:         decimal(p.RewardDebt),
		Pending:            pending,
		StakeTimestamp:     p.StakeTimestamp,
		LastClaimTimestamp: p.LastClaimTimestamp,
	}
	if p.Referrer != nil {
		ref := *p.Referrer
		view.Referrer = &ref
	}
	return view
}
