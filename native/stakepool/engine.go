// Package stakepool sequences the fee split, reward ledger and auxiliary pools
// into the public staking operations. Each operation reads the singletons,
// mutates private copies and writes them back only once every step has
// succeeded.
package stakepool

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	stakeerr "stakepool/core/errors"
	"stakepool/core/events"
	"stakepool/core/rewards"
	"stakepool/native/bank"
	"stakepool/native/bonus"
	nativecommon "stakepool/native/common"
	"stakepool/native/referral"
)

const moduleName = "stakepool"

var (
	errNilState = errors.New("stakepool engine: state not configured")
	errNilMover = errors.New("stakepool engine: mover not configured")
)

type engineState interface {
	StakepoolGlobals() (*Globals, bool, error)
	StakepoolGlobalsPut(globals *Globals) error
	StakepoolPool() (*rewards.Pool, bool, error)
	StakepoolPoolPut(pool *rewards.Pool) error
	StakepoolParticipant(staker common.Address) (*rewards.Participant, bool, error)
	StakepoolParticipantPut(participant *rewards.Participant) error
	StakepoolBonus() (*bonus.Pool, bool, error)
	StakepoolBonusPut(pool *bonus.Pool) error
	StakepoolReferral() (*referral.Pool, bool, error)
	StakepoolReferralPut(pool *referral.Pool) error
}

// Engine wires the staking pipeline with persistence, value movement and
// event emission.
type Engine struct {
	state   engineState
	mover   bank.Mover
	emitter events.Emitter
	nowFn   func() int64
	pauses  nativecommon.PauseView
	params  Params
}

// NewEngine constructs an engine with the shipped parameters.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
		params: DefaultParams(),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetMover configures the primitive used to move value between ledgers.
func (e *Engine) SetMover(mover bank.Mover) { e.mover = mover }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetPauses wires the pause view consulted by contribute, withdraw and claim.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetParams replaces the engine parameters after validating them.
func (e *Engine) SetParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	e.params = params
	return nil
}

// Params returns the active parameters.
func (e *Engine) Params() Params { return e.params }

func (e *Engine) emit(evt events.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) guard() error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return fmt.Errorf("%w: %w", stakeerr.ErrPaused, err)
	}
	return nil
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.mover == nil {
		return errNilMover
	}
	return nil
}

// working holds private copies of the singletons for one unit of work.
type working struct {
	globals  *Globals
	pool     *rewards.Pool
	bonus    *bonus.Pool
	referral *referral.Pool
	now      int64
}

func (e *Engine) load() (*working, error) {
	globals, ok, err := e.state.StakepoolGlobals()
	if err != nil {
		return nil, err
	}
	if !ok || globals == nil {
		return nil, stakeerr.ErrNotInitialized
	}
	pool, ok, err := e.state.StakepoolPool()
	if err != nil {
		return nil, err
	}
	if !ok || pool == nil {
		return nil, fmt.Errorf("%w: reward pool missing", stakeerr.ErrNotInitialized)
	}
	bonusPool, ok, err := e.state.StakepoolBonus()
	if err != nil {
		return nil, err
	}
	if !ok || bonusPool == nil {
		return nil, fmt.Errorf("%w: bonus pool missing", stakeerr.ErrNotInitialized)
	}
	referralPool, ok, err := e.state.StakepoolReferral()
	if err != nil {
		return nil, err
	}
	if !ok || referralPool == nil {
		return nil, fmt.Errorf("%w: referral pool missing", stakeerr.ErrNotInitialized)
	}
	w := &working{
		globals:  globals.Clone(),
		pool:     pool.Clone(),
		bonus:    bonusPool.Clone(),
		referral: referralPool.Clone(),
	}
	now := e.now()
	if now < w.pool.LastUpdateTime {
		return nil, fmt.Errorf("%w: now %d before last update %d", stakeerr.ErrInvalidTimestamp, now, w.pool.LastUpdateTime)
	}
	w.now = now
	return w, nil
}

func (e *Engine) persist(w *working, participant *rewards.Participant) error {
	w.pool.LastUpdateTime = w.now
	if err := e.state.StakepoolPoolPut(w.pool); err != nil {
		return err
	}
	if err := e.state.StakepoolBonusPut(w.bonus); err != nil {
		return err
	}
	if err := e.state.StakepoolReferralPut(w.referral); err != nil {
		return err
	}
	if participant != nil {
		if err := e.state.StakepoolParticipantPut(participant); err != nil {
			return err
		}
	}
	return nil
}

// transfer is a pending value movement, executed only after every
// computation in the unit of work has succeeded.
type transfer struct {
	from   string
	to     string
	amount uint64
	memo   string
}

type transfers []transfer

func (t *transfers) add(from, to string, amount uint64, memo string) {
	if amount == 0 {
		return
	}
	*t = append(*t, transfer{from: from, to: to, amount: amount, memo: memo})
}

func (e *Engine) settle(pending transfers) ([]bank.Movement, error) {
	movements := make([]bank.Movement, 0, len(pending))
	for _, t := range pending {
		mv, err := e.mover.Move(t.from, t.to, t.amount, t.memo)
		if err != nil {
			return nil, fmt.Errorf("stakepool: move %d %s -> %s: %w", t.amount, t.from, t.to, err)
		}
		movements = append(movements, mv)
	}
	return movements, nil
}

// Initialize creates the reward pool and both auxiliary pools, seeding their
// timers from now.
func (e *Engine) Initialize(globals Globals) (*InitializeResult, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := e.params.Validate(); err != nil {
		return nil, err
	}
	var zero common.Address
	if globals.Authority == zero || globals.Platform == zero || globals.Team == zero {
		return nil, fmt.Errorf("stakepool: authority, platform and team addresses are required")
	}
	if _, ok, err := e.state.StakepoolGlobals(); err != nil {
		return nil, err
	} else if ok {
		return nil, stakeerr.ErrAlreadyInitialized
	}
	now := e.now()
	pool := rewards.NewPool(now)
	bonusPool, err := bonus.New(now, e.params.Bonus)
	if err != nil {
		return nil, err
	}
	referralPool, err := referral.New(now, e.params.Referral)
	if err != nil {
		return nil, err
	}
	globals.InitializedAt = now
	if err := e.state.StakepoolGlobalsPut(&globals); err != nil {
		return nil, err
	}
	if err := e.state.StakepoolPoolPut(pool); err != nil {
		return nil, err
	}
	if err := e.state.StakepoolBonusPut(bonusPool); err != nil {
		return nil, err
	}
	if err := e.state.StakepoolReferralPut(referralPool); err != nil {
		return nil, err
	}
	e.emit(events.StakepoolInitialized{
		Authority:    globals.Authority,
		Platform:     globals.Platform,
		Team:         globals.Team,
		BonusExpiry:  bonusPool.ExpiryTimestamp,
		ReferralNext: referralPool.NextDistributionTimestamp,
	})
	return &InitializeResult{Globals: globals, Pool: pool.Clone(), Bonus: bonusPool.Clone(), Referral: referralPool.Clone()}, nil
}
