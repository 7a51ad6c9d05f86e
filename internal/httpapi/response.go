package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sheikh-saqib/shared-wallet-ledger/internal/ledger"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	CodeUnauthenticated       = "UNAUTHENTICATED"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeInsufficientAllowance = "INSUFFICIENT_ALLOWANCE"
	CodeInsufficientBalance   = "INSUFFICIENT_BALANCE"
	CodeInvalidAmount         = "INVALID_AMOUNT"
	CodeInvalidIdentity       = "INVALID_IDENTITY"
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeTransferFailed        = "TRANSFER_FAILED"
	CodeInternal              = "INTERNAL"
)

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, ErrorResponse{Code: code, Message: message})
}

// writeLedgerError maps a ledger error to its status and code. Unknown
// errors are reported without their text.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		writeError(w, http.StatusForbidden, CodeUnauthorized, err.Error())
	case errors.Is(err, ledger.ErrInsufficientAllowance):
		writeError(w, http.StatusConflict, CodeInsufficientAllowance, err.Error())
	case errors.Is(err, ledger.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, CodeInsufficientBalance, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, CodeInvalidAmount, err.Error())
	case errors.Is(err, ledger.ErrInvalidIdentity):
		writeError(w, http.StatusBadRequest, CodeInvalidIdentity, err.Error())
	case errors.Is(err, ledger.ErrTransferFailed):
		writeError(w, http.StatusBadGateway, CodeTransferFailed, "transfer failed, nothing was debited")
	default:
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}
