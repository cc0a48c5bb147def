package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"

	stakeerr "stakepool/core/errors"
	"stakepool/core/events"
	"stakepool/core/rewards"
	"stakepool/core/state"
	"stakepool/core/types"
	"stakepool/native/bank"
	nativecommon "stakepool/native/common"
	"stakepool/native/fees"
	"stakepool/native/stakepool"
	"stakepool/observability"
	"stakepool/observability/metrics"
	telemetry "stakepool/observability/otel"
	"stakepool/storage"
)

// host runs engine operations as units of work over the store. Units are
// serialised; each one commits all of its writes or none.
type host struct {
	store   *state.Store
	params  stakepool.Params
	pauses  *nativecommon.Pauses
	logger  *slog.Logger
	metrics *metrics.StakepoolMetrics
	nowFn   func() int64
	mu      sync.Mutex
}

func newHost(db storage.Database, params stakepool.Params, paused bool, logger *slog.Logger) *host {
	if logger == nil {
		logger = slog.Default()
	}
	pauses := nativecommon.NewPauses()
	pauses.Set("stakepool", paused)
	return &host{
		store:   state.NewStore(db),
		params:  params,
		pauses:  pauses,
		logger:  logger,
		metrics: metrics.Stakepool(),
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

func (h *host) engine(session *state.Session, emitter events.Emitter) (*stakepool.Engine, *bank.Book, error) {
	book := bank.NewBook(session)
	engine := stakepool.NewEngine()
	if err := engine.SetParams(h.params); err != nil {
		return nil, nil, err
	}
	engine.SetState(session)
	engine.SetMover(book)
	engine.SetEmitter(emitter)
	engine.SetPauses(h.pauses)
	engine.SetNowFunc(h.nowFn)
	return engine, book, nil
}

// unit executes fn against a fresh session. Events are published only after
// the session commits.
func (h *host) unit(ctx context.Context, operation string, fn func(*stakepool.Engine, *bank.Book) error, attrs ...attribute.KeyValue) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, finish := telemetry.StartUnit(ctx, operation, attrs...)
	err := h.runUnit(fn)
	finish(err)

	if err != nil {
		kind := stakeerr.KindOf(err)
		h.metrics.ObserveOperation(operation, kind.String())
		h.logger.Error("unit of work rejected",
			"operation", operation,
			"kind", kind.String(),
			"retryable", stakeerr.Retryable(err),
			"error", err.Error(),
		)
		return err
	}
	h.metrics.ObserveOperation(operation, "ok")
	h.refreshGauges()
	return nil
}

func (h *host) runUnit(fn func(*stakepool.Engine, *bank.Book) error) error {
	session := h.store.Begin()
	recorder := &events.Recorder{}
	engine, book, err := h.engine(session, recorder)
	if err != nil {
		session.Discard()
		return err
	}
	if err := fn(engine, book); err != nil {
		session.Discard()
		return err
	}
	if err := session.Commit(); err != nil {
		return err
	}
	for _, mv := range book.Journal() {
		h.logger.Info("value moved",
			"id", mv.ID.String(),
			"from", mv.From,
			"to", mv.To,
			"amount", mv.Amount,
			"memo", mv.Memo,
		)
	}
	recorder.Flush(logEmitter{logger: h.logger})
	return nil
}

// read runs fn against a session that is always discarded.
func (h *host) read(fn func(*stakepool.Engine, *state.Session) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	session := h.store.Begin()
	defer session.Discard()
	engine, _, err := h.engine(session, nil)
	if err != nil {
		return err
	}
	return fn(engine, session)
}

func (h *host) Snapshot() (*stakepool.Snapshot, error) {
	var snap *stakepool.Snapshot
	err := h.read(func(e *stakepool.Engine, _ *state.Session) error {
		var err error
		snap, err = e.Snapshot()
		return err
	})
	return snap, err
}

func (h *host) Participant(staker common.Address) (*rewards.Participant, bool, error) {
	var (
		participant *rewards.Participant
		ok          bool
	)
	err := h.read(func(e *stakepool.Engine, _ *state.Session) error {
		var err error
		participant, ok, err = e.Participant(staker)
		return err
	})
	return participant, ok, err
}

func (h *host) Pending(staker common.Address) (uint64, error) {
	var pending uint64
	err := h.read(func(e *stakepool.Engine, _ *state.Session) error {
		var err error
		pending, err = e.Pending(staker)
		return err
	})
	return pending, err
}

func (h *host) Balances() (map[string]uint64, error) {
	var balances map[string]uint64
	err := h.read(func(_ *stakepool.Engine, session *state.Session) error {
		var err error
		_, balances, err = session.LedgerBalances()
		return err
	})
	return balances, err
}

// refreshGauges mirrors the committed totals into the metrics registry.
func (h *host) refreshGauges() {
	session := h.store.Begin()
	defer session.Discard()
	engine, _, err := h.engine(session, nil)
	if err != nil {
		return
	}
	snap, err := engine.Snapshot()
	if err != nil {
		return
	}
	if snap.Pool != nil {
		h.metrics.SetTotalStaked(snap.Pool.TotalStaked)
	}
	if snap.Bonus != nil {
		h.metrics.SetPoolBalance("bonus", snap.Bonus.Balance)
	}
	if snap.Referral != nil {
		h.metrics.SetPoolBalance("referral", snap.Referral.Balance)
	}
}

func (h *host) recordFees(breakdown fees.Breakdown) {
	for _, component := range breakdown.Components {
		h.metrics.AddFee(component.Name, component.Amount)
	}
}

func (h *host) recordContribute(res *stakepool.ContributeResult) {
	h.metrics.AddVolume("contribute", res.Gross)
	h.metrics.AddVolume("harvest", res.RewardsHarvested)
	h.metrics.AddRoundingDust("contribute", res.InjectionDust)
	h.recordFees(res.Fees)
}

func (h *host) recordWithdraw(res *stakepool.WithdrawResult) {
	h.metrics.AddVolume("withdraw", res.Gross)
	h.metrics.AddVolume("claim", res.RewardsClaimed)
	h.metrics.AddRoundingDust("withdraw", res.InjectionDust)
	h.recordFees(res.Fees)
}

func (h *host) recordBonus(res *stakepool.BonusResult) {
	h.metrics.AddDistribution("bonus", "contributors", res.ToContributors)
	h.metrics.AddDistribution("bonus", "stakers", res.ToStakers)
	h.metrics.AddDistribution("bonus", "carry", res.CarriedForward)
	h.metrics.AddRoundingDust("bonus", res.InjectionDust)
}

func (h *host) recordReferral(res *stakepool.ReferralResult) {
	h.metrics.AddDistribution("referral", "stakers", res.ToStakers)
	h.metrics.AddDistribution("referral", "carry", res.CarriedForward)
	h.metrics.AddRoundingDust("referral", res.InjectionDust)
}

// logEmitter publishes committed events as structured log lines.
type logEmitter struct {
	logger *slog.Logger
}

func (l logEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	observability.Events().RecordEvent(evt.EventType())
	args := []any{"event", evt.EventType()}
	if typed, ok := evt.(interface{ Event() *types.Event }); ok {
		args = append(args, typed.Event().Pairs()...)
	}
	l.logger.Info("ledger event", args...)
}
