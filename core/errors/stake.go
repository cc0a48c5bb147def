package errors

import stderrors "errors"

// Arithmetic failures. Always fatal to the current unit of work.
var (
	ErrOverflow     = stderrors.New("stakepool: arithmetic overflow")
	ErrUnderflow    = stderrors.New("stakepool: arithmetic underflow")
	ErrDivideByZero = stderrors.New("stakepool: division by zero")
)

// Validation failures. Rejected before any state mutation.
var (
	ErrBelowMinimum      = stderrors.New("stakepool: amount below minimum")
	ErrInsufficientStake = stderrors.New("stakepool: insufficient staked balance")
	ErrNoRewards         = stderrors.New("stakepool: no rewards available to claim")
	ErrNoStakePosition   = stderrors.New("stakepool: no stake position")
	ErrSelfReferral      = stderrors.New("stakepool: staker cannot refer itself")
	ErrInvalidSchedule   = stderrors.New("stakepool: invalid fee schedule")
	ErrInvalidTimestamp  = stderrors.New("stakepool: clock moved backwards")
)

// Eligibility failures. Recoverable by waiting.
var (
	ErrNotYetEligible = stderrors.New("stakepool: distribution not yet eligible")
	ErrPoolEmpty      = stderrors.New("stakepool: pool is empty")
)

// Invariant failures indicate a programming defect and abort the unit of work.
var (
	ErrInvalidFeeBreakdown  = stderrors.New("stakepool: fee components do not sum to total fee")
	ErrDistributionMismatch = stderrors.New("stakepool: distribution does not balance")
	ErrDebtExceedsAccrual   = stderrors.New("stakepool: reward debt exceeds accrued rewards")
	ErrTotalStakedMismatch  = stderrors.New("stakepool: total staked below participant stake")
)

var (
	ErrUnauthorized       = stderrors.New("stakepool: caller is not the authority")
	ErrPaused             = stderrors.New("stakepool: protocol paused")
	ErrNotInitialized     = stderrors.New("stakepool: protocol not initialised")
	ErrAlreadyInitialized = stderrors.New("stakepool: protocol already initialised")
)

// Kind groups errors by how a caller is expected to react to them.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindArithmetic
	KindValidation
	KindEligibility
	KindInvariant
	KindAuthorization
	KindState
)

var kindNames = map[Kind]string{
	KindUnknown:       "unknown",
	KindArithmetic:    "arithmetic",
	KindValidation:    "validation",
	KindEligibility:   "eligibility",
	KindInvariant:     "invariant",
	KindAuthorization: "authorization",
	KindState:         "state",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

var classified = []struct {
	err  error
	kind Kind
}{
	{ErrOverflow, KindArithmetic},
	{ErrUnderflow, KindArithmetic},
	{ErrDivideByZero, KindArithmetic},
	{ErrBelowMinimum, KindValidation},
	{ErrInsufficientStake, KindValidation},
	{ErrNoRewards, KindValidation},
	{ErrNoStakePosition, KindValidation},
	{ErrSelfReferral, KindValidation},
	{ErrInvalidSchedule, KindValidation},
	{ErrInvalidTimestamp, KindValidation},
	{ErrNotYetEligible, KindEligibility},
	{ErrPoolEmpty, KindEligibility},
	{ErrInvalidFeeBreakdown, KindInvariant},
	{ErrDistributionMismatch, KindInvariant},
	{ErrDebtExceedsAccrual, KindInvariant},
	{ErrTotalStakedMismatch, KindInvariant},
	{ErrUnauthorized, KindAuthorization},
	{ErrPaused, KindState},
	{ErrNotInitialized, KindState},
	{ErrAlreadyInitialized, KindState},
}

// KindOf classifies err against the stakepool taxonomy. Wrapped errors are
// unwrapped with errors.Is.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, entry := range classified {
		if stderrors.Is(err, entry.err) {
			return entry.kind
		}
	}
	return KindUnknown
}

// Retryable reports whether the caller may retry after correcting input or
// waiting. Arithmetic and invariant failures are never retryable.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindEligibility, KindState:
		return true
	default:
		return false
	}
}
