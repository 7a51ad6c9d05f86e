package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/ledger"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handler exposes a Ledger over HTTP.
type Handler struct {
	ledger  *ledger.Ledger
	parse   IdentityParser
	logger  *zap.Logger
	replays *replayCache
}

func NewHandler(l *ledger.Ledger, parse IdentityParser, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		ledger:  l,
		parse:   parse,
		logger:  logger,
		replays: newReplayCache(replayCacheSize, replayCacheTTL),
	}
}

type amountRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

type withdrawalRequest struct {
	To     string           `json:"to"`
	Amount *decimal.Decimal `json:"amount"`
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type allowanceResponse struct {
	Identity  models.Identity `json:"identity"`
	Allowance decimal.Decimal `json:"allowance"`
}

type ownerResponse struct {
	Owner models.Identity `json:"owner"`
}

type depositResponse struct {
	From   models.Identity `json:"from"`
	Amount decimal.Decimal `json:"amount"`
}

type withdrawalResponse struct {
	Caller models.Identity `json:"caller"`
	To     models.Identity `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetOwner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ownerResponse{Owner: h.ledger.Owner()})
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, balanceResponse{Balance: h.ledger.GetBalance()})
}

func (h *Handler) GetAllowance(w http.ResponseWriter, r *http.Request) {
	target, err := h.parse(mux.Vars(r)["identity"])
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, allowanceResponse{
		Identity:  target,
		Allowance: h.ledger.GetAllowance(target),
	})
}

func (h *Handler) GetLedgerEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.GetLedgerEntries(r.Context())
	if err != nil {
		h.logger.Error("failed to read journal", zap.Error(err))
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthenticated, "caller unknown")
		return
	}

	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	amount, ok := requireAmount(w, req.Amount)
	if !ok {
		return
	}

	if err := h.ledger.Deposit(r.Context(), caller, amount); err != nil {
		h.logFailure("deposit", caller, err)
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, depositResponse{From: caller, Amount: amount})
}

func (h *Handler) SetAllowance(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthenticated, "caller unknown")
		return
	}

	target, err := h.parse(mux.Vars(r)["identity"])
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	amount, ok := requireAmount(w, req.Amount)
	if !ok {
		return
	}

	if err := h.ledger.SetAllowance(r.Context(), caller, target, amount); err != nil {
		h.logFailure("set_allowance", caller, err)
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, allowanceResponse{Identity: target, Allowance: amount})
}

// Withdraw honours an optional Idempotency-Key header: a repeated key from
// the same caller gets the first successful response back.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthenticated, "caller unknown")
		return
	}

	var req withdrawalRequest
	if !decode(w, r, &req) {
		return
	}
	to, err := h.parse(req.To)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	amount, ok := requireAmount(w, req.Amount)
	if !ok {
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	replayKey := caller.String() + "|" + idempotencyKey
	if idempotencyKey != "" {
		unlock := h.replays.lock(replayKey)
		defer unlock()

		if cached, found := h.replays.get(replayKey); found {
			w.Header().Set("Idempotent-Replayed", "true")
			writeJSON(w, cached.status, cached.body)
			return
		}
	}

	if err := h.ledger.Withdraw(r.Context(), caller, to, amount); err != nil {
		h.logFailure("withdraw", caller, err)
		writeLedgerError(w, err)
		return
	}

	resp := cachedResponse{
		status: http.StatusCreated,
		body:   withdrawalResponse{Caller: caller, To: to, Amount: amount},
	}
	if idempotencyKey != "" {
		h.replays.put(replayKey, resp)
	}
	writeJSON(w, resp.status, resp.body)
}

func (h *Handler) logFailure(op string, caller models.Identity, err error) {
	h.logger.Info("request rejected",
		zap.String("op", op),
		zap.String("caller", caller.String()),
		zap.Error(err),
	)
}

// requireAmount rejects a missing amount. Any zero comes back as
// decimal.Zero, so echoing it never expands a zero's exponent.
func requireAmount(w http.ResponseWriter, amount *decimal.Decimal) (decimal.Decimal, bool) {
	if amount == nil {
		writeError(w, http.StatusBadRequest, CodeInvalidAmount, "amount is a mandatory field")
		return decimal.Zero, false
	}
	if amount.IsZero() {
		return decimal.Zero, true
	}
	return *amount, true
}

// maxBodyBytes caps request bodies; every mutation body is a single amount.
const maxBodyBytes = 1 << 16

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return false
	}
	return true
}
