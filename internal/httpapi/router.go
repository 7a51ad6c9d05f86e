package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires h. Reads are public; every mutation needs a bearer token.
func NewRouter(h *Handler, secret []byte) *mux.Router {
	auth := AuthMiddleware(secret, h.parse)

	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/owner", h.GetOwner).Methods(http.MethodGet)
	r.HandleFunc("/balance", h.GetBalance).Methods(http.MethodGet)
	r.HandleFunc("/allowances/{identity}", h.GetAllowance).Methods(http.MethodGet)
	r.HandleFunc("/entries", h.GetLedgerEntries).Methods(http.MethodGet)

	r.Handle("/deposits", auth(http.HandlerFunc(h.Deposit))).Methods(http.MethodPost)
	r.Handle("/allowances/{identity}", auth(http.HandlerFunc(h.SetAllowance))).Methods(http.MethodPut)
	r.Handle("/withdrawals", auth(http.HandlerFunc(h.Withdraw))).Methods(http.MethodPost)

	return r
}
