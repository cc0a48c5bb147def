package rewards

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Pool is the protocol-wide staking accumulator. TotalStaked equals the sum of
// every participant's StakedAmount; RewardPerShare is scaled by
// fixedpoint.Precision and never decreases.
type Pool struct {
	TotalStaked    uint64
	RewardPerShare *uint256.Int
	LastUpdateTime int64
}

// NewPool constructs an empty pool stamped with the creation time.
func NewPool(now int64) *Pool {
	return &Pool{RewardPerShare: new(uint256.Int), LastUpdateTime: now}
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return NewPool(0)
	}
	return &Pool{
		TotalStaked:    p.TotalStaked,
		RewardPerShare: copyWide(p.RewardPerShare),
		LastUpdateTime: p.LastUpdateTime,
	}
}

// Participant is the per-staker record. Records are created lazily on the
// first contribution and never deleted; the referrer binding is immutable.
type Participant struct {
	Staker             common.Address
	StakedAmount       uint64
	RewardDebt         *uint256.Int
	StakeTimestamp     int64
	LastClaimTimestamp int64
	Referrer           *common.Address
}

// NewParticipant constructs a zero-stake record for staker.
func NewParticipant(staker common.Address, now int64, referrer *common.Address) *Participant {
	p := &Participant{
		Staker:             staker,
		RewardDebt:         new(uint256.Int),
		StakeTimestamp:     now,
		LastClaimTimestamp: now,
	}
	if referrer != nil {
		ref := *referrer
		p.Referrer = &ref
	}
	return p
}

// Clone returns a deep copy of the participant.
func (p *Participant) Clone() *Participant {
	if p == nil {
		return nil
	}
	clone := *p
	clone.RewardDebt = copyWide(p.RewardDebt)
	if p.Referrer != nil {
		ref := *p.Referrer
		clone.Referrer = &ref
	}
	return &clone
}

// HasReferrer reports whether a referrer is bound to the participant.
func (p *Participant) HasReferrer() bool {
	return p != nil && p.Referrer != nil
}

func copyWide(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v.Clone()
}
