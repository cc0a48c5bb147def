package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	stakeerr "stakepool/core/errors"
	"stakepool/core/rewards"
	"stakepool/gateway/middleware"
	"stakepool/native/stakepool"
)

// Ledger is the read side of the staking ledger. Every call observes one
// committed state.
type Ledger interface {
	Snapshot() (*stakepool.Snapshot, error)
	Participant(staker common.Address) (*rewards.Participant, bool, error)
	Pending(staker common.Address) (uint64, error)
	Balances() (map[string]uint64, error)
}

var errLedgerUnavailable = errors.New("ledger unavailable")

type queryRoutes struct {
	ledger Ledger
}

func (q *queryRoutes) mount(r chi.Router, obs *middleware.Observability) {
	handle := func(route string, h http.HandlerFunc) {
		if obs != nil {
			r.With(obs.Middleware(route)).Get(route, h)
			return
		}
		r.Get(route, h)
	}
	handle("/snapshot", q.snapshot)
	handle("/balances", q.balances)
	handle("/participants/{address}", q.participant)
	handle("/participants/{address}/pending", q.pending)
}

func (q *queryRoutes) snapshot(w http.ResponseWriter, r *http.Request) {
	if q.ledger == nil {
		writeJSONError(w, http.StatusServiceUnavailable, errLedgerUnavailable)
		return
	}
	snap, err := q.ledger.Snapshot()
	if err != nil {
		writeJSONError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, NewSnapshotView(snap))
}

func (q *queryRoutes) balances(w http.ResponseWriter, r *http.Request) {
	if q.ledger == nil {
		writeJSONError(w, http.StatusServiceUnavailable, errLedgerUnavailable)
		return
	}
	balances, err := q.ledger.Balances()
	if err != nil {
		writeJSONError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (q *queryRoutes) participant(w http.ResponseWriter, r *http.Request) {
	if q.ledger == nil {
		writeJSONError(w, http.StatusServiceUnavailable, errLedgerUnavailable)
		return
	}
	staker, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	participant, ok, err := q.ledger.Participant(staker)
	if err != nil {
		writeJSONError(w, statusFor(err), err)
		return
	}
	if !ok {
		writeJSONError(w, http.StatusNotFound, stakeerr.ErrNoStakePosition)
		return
	}
	pending, err := q.ledger.Pending(staker)
	if err != nil {
		writeJSONError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, NewParticipantView(participant, pending))
}

func (q *queryRoutes) pending(w http.ResponseWriter, r *http.Request) {
	if q.ledger == nil {
		writeJSONError(w, http.StatusServiceUnavailable, errLedgerUnavailable)
		return
	}
	staker, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	pending, err := q.ledger.Pending(staker)
	if err != nil {
		writeJSONError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"staker": staker, "pending": pending})
}

func parseAddress(raw string) (common.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, errors.New("invalid address")
	}
	return common.HexToAddress(trimmed), nil
}

func statusFor(err error) int {
	switch stakeerr.KindOf(err) {
	case stakeerr.KindState:
		return http.StatusServiceUnavailable
	case stakeerr.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": message})
}
