package stakepool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"stakepool/core/rewards"
	"stakepool/native/bank"
	"stakepool/native/bonus"
	"stakepool/native/fees"
	"stakepool/native/referral"
)

// Globals are the protocol-wide identities fixed at initialisation.
type Globals struct {
	Authority     common.Address
	Platform      common.Address
	Team          common.Address
	InitializedAt int64
}

// Clone returns a copy of the globals.
func (g *Globals) Clone() *Globals {
	if g == nil {
		return nil
	}
	clone := *g
	return &clone
}

// InitializeResult reports the freshly created singletons.
type InitializeResult struct {
	Globals  Globals
	Pool     *rewards.Pool
	Bonus    *bonus.Pool
	Referral *referral.Pool
}

// ContributeResult carries the exact deltas of a contribution.
type ContributeResult struct {
	Staker              common.Address
	Gross               uint64
	NetStaked           uint64
	Fees                fees.Breakdown
	RewardsHarvested    uint64
	StakedAmount        uint64
	TotalStakedAfter    uint64
	RewardPerShareAfter *uint256.Int
	// Referrer is the referrer bound to the participant, if any. The referral
	// fee went to it directly; otherwise it went to the referral pool.
	Referrer *common.Address
	// StakersFeeRetained is set when nobody was staked yet and the stakers fee
	// went to the bonus pool instead.
	StakersFeeRetained bool
	InjectionDust      uint64
	Bonus              bonus.Recorded
	Movements          []bank.Movement
}

// WithdrawResult carries the exact deltas of a withdrawal.
type WithdrawResult struct {
	Staker              common.Address
	Gross               uint64
	NetReturned         uint64
	RewardsClaimed      uint64
	Fees                fees.Breakdown
	StakedAmount        uint64
	TotalStakedAfter    uint64
	RewardPerShareAfter *uint256.Int
	StakersFeeRetained  bool
	InjectionDust       uint64
	Movements           []bank.Movement
}

// ClaimResult carries the payout of a claim.
type ClaimResult struct {
	Staker        common.Address
	AmountPaid    uint64
	NewRewardDebt *uint256.Int
	Movements     []bank.Movement
}

// BonusResult carries the outcome of a bonus pool distribution.
type BonusResult struct {
	Trigger             bonus.Trigger
	ToContributors      uint64
	ToStakers           uint64
	CarriedForward      uint64
	Payouts             []bonus.Payout
	NextExpiry          int64
	RewardPerShareAfter *uint256.Int
	InjectionDust       uint64
	Movements           []bank.Movement
}

// ReferralResult carries the outcome of a referral pool distribution.
type ReferralResult struct {
	Forced              bool
	ToStakers           uint64
	CarriedForward      uint64
	NextDistribution    int64
	RewardPerShareAfter *uint256.Int
	InjectionDust       uint64
	Movements           []bank.Movement
}

// Snapshot is a read-only view of the singletons at a point in time.
type Snapshot struct {
	Now          int64
	Globals      Globals
	Pool         *rewards.Pool
	Bonus        *bonus.Pool
	BonusState   bonus.State
	BonusTrigger bonus.Trigger
	Referral     *referral.Pool
	ReferralDue  bool
}
