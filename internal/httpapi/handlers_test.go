package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/ledger"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/models"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/transfer"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerAddr = "0x00000000000000000000000000000000000000AA"
	user1Addr = "0x0000000000000000000000000000000000000001"
	user2Addr = "0x0000000000000000000000000000000000000002"
)

var secret = []byte("test-secret")

type testServer struct {
	router http.Handler
	ledger *ledger.Ledger
	book   *transfer.Book
}

func newTestServer(t *testing.T, opts ...ledger.Option) testServer {
	t.Helper()

	owner, err := EVMIdentity(ownerAddr)
	require.NoError(t, err)

	book := transfer.NewBook()
	opts = append([]ledger.Option{ledger.WithTransferer(book)}, opts...)
	l, err := ledger.NewLedger(context.Background(), owner, memory.NewMemoryLedgerStore(), opts...)
	require.NoError(t, err)

	return testServer{
		router: NewRouter(NewHandler(l, EVMIdentity, nil), secret),
		ledger: l,
		book:   book,
	}
}

func token(t *testing.T, subject string) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	return signed
}

func (s testServer) do(t *testing.T, method, path, caller, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if caller != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, caller))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[ErrorResponse](t, rec).Code
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetOwner(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/owner", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.NewIdentity(ownerAddr), decodeBody[ownerResponse](t, rec).Owner)
}

func TestMutationsRequireToken(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/deposits", "", `{"amount":"1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeUnauthenticated, errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/deposits", "", `{"amount":"1"}`, "Authorization", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// subject that isn't an address
	rec = s.do(t, http.MethodPost, "/deposits", "alice", `{"amount":"1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.True(t, s.ledger.GetBalance().IsZero())
}

func TestAuthRejectsOtherSigningMethods(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": ownerAddr}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	rec := s.do(t, http.MethodPost, "/deposits", "", `{"amount":"1"}`, "Authorization", "Bearer "+unsigned)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDepositExtremeExponentRejectedQuickly(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	start := time.Now()
	rec := s.do(t, http.MethodPost, "/deposits", user1Addr, `{"amount":"1e100000000"}`)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Less(t, rec.Body.Len(), 256)
	assert.Equal(t, CodeInvalidAmount, errorCode(t, rec))
	assert.True(t, s.ledger.GetBalance().IsZero())
}

func TestZeroWithExtremeExponentIsEchoedAsZero(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	start := time.Now()
	rec := s.do(t, http.MethodPost, "/deposits", user1Addr, `{"amount":"0e-100000000"}`)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `"0"`, string(decodeBody[map[string]json.RawMessage](t, rec)["amount"]))
}

func TestDepositAndBalance(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/deposits", user1Addr, `{"amount":"5.0"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/deposits", ownerAddr, `{"amount":0.5}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/balance", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decimal.RequireFromString("5.5").Equal(decodeBody[balanceResponse](t, rec).Balance))
}

func TestDepositValidation(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "missing amount", body: `{}`, status: http.StatusBadRequest, code: CodeInvalidAmount},
		{name: "negative", body: `{"amount":"-1"}`, status: http.StatusBadRequest, code: CodeInvalidAmount},
		{name: "malformed", body: `{"amount":`, status: http.StatusBadRequest, code: CodeInvalidRequest},
		{name: "unknown field", body: `{"amount":"1","memo":"x"}`, status: http.StatusBadRequest, code: CodeInvalidRequest},
		{name: "huge exponent", body: `{"amount":"1e100000000"}`, status: http.StatusBadRequest, code: CodeInvalidAmount},
		{name: "tiny exponent", body: `{"amount":"1e-100000000"}`, status: http.StatusBadRequest, code: CodeInvalidAmount},
		{name: "oversized body", body: `{"amount":"` + strings.Repeat("1", maxBodyBytes) + `"}`, status: http.StatusBadRequest, code: CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/deposits", user1Addr, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
	assert.True(t, s.ledger.GetBalance().IsZero())
}

func TestSetAndGetAllowance(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/allowances/"+user1Addr, ownerAddr, `{"amount":"1.25"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/allowances/"+strings.ToUpper(user1Addr[2:]), "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidIdentity, errorCode(t, rec))

	rec = s.do(t, http.MethodGet, "/allowances/"+user1Addr, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[allowanceResponse](t, rec)
	assert.Equal(t, models.NewIdentity(user1Addr), resp.Identity)
	assert.True(t, decimal.RequireFromString("1.25").Equal(resp.Allowance))

	rec = s.do(t, http.MethodGet, "/allowances/"+user2Addr, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[allowanceResponse](t, rec).Allowance.IsZero())
}

func TestSetAllowanceForbiddenForNonOwner(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/allowances/"+user2Addr, user1Addr, `{"amount":"1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeUnauthorized, errorCode(t, rec))
	assert.True(t, s.ledger.GetAllowance(models.NewIdentity(user2Addr)).IsZero())
}

func TestWithdraw(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/deposits", ownerAddr, `{"amount":"5"}`).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/allowances/"+user1Addr, ownerAddr, `{"amount":"1"}`).Code)

	rec := s.do(t, http.MethodPost, "/withdrawals", user1Addr, `{"to":"`+user2Addr+`","amount":"1.5"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeInsufficientAllowance, errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/withdrawals", user1Addr, `{"to":"`+user2Addr+`","amount":"1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, decimal.NewFromInt(4).Equal(s.ledger.GetBalance()))
	assert.True(t, decimal.NewFromInt(1).Equal(s.book.Paid(models.NewIdentity(user2Addr))))

	rec = s.do(t, http.MethodPost, "/withdrawals", ownerAddr, `{"to":"`+user2Addr+`","amount":"4.1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeInsufficientBalance, errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/withdrawals", ownerAddr, `{"to":"nowhere","amount":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidIdentity, errorCode(t, rec))
}

func TestWithdrawIdempotencyKey(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/deposits", ownerAddr, `{"amount":"5"}`).Code)

	body := `{"to":"` + user2Addr + `","amount":"2"}`

	first := s.do(t, http.MethodPost, "/withdrawals", ownerAddr, body, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, first.Code)

	replay := s.do(t, http.MethodPost, "/withdrawals", ownerAddr, body, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), replay.Body.String())

	assert.True(t, decimal.NewFromInt(3).Equal(s.ledger.GetBalance()))

	// a different key runs again
	rec := s.do(t, http.MethodPost, "/withdrawals", ownerAddr, body, "Idempotency-Key", "k-2")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, decimal.NewFromInt(1).Equal(s.ledger.GetBalance()))
}

type brokenTransferer struct{}

func (brokenTransferer) Release(ctx context.Context, to models.Identity, amount decimal.Decimal) error {
	return errors.New("rail down")
}

func TestWithdrawTransferFailure(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, ledger.WithTransferer(brokenTransferer{}))
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/deposits", ownerAddr, `{"amount":"5"}`).Code)

	rec := s.do(t, http.MethodPost, "/withdrawals", ownerAddr, `{"to":"`+user2Addr+`","amount":"1"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, CodeTransferFailed, errorCode(t, rec))
	assert.True(t, decimal.NewFromInt(5).Equal(s.ledger.GetBalance()))
}

func TestGetLedgerEntries(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/deposits", user1Addr, `{"amount":"2"}`).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/allowances/"+user1Addr, ownerAddr, `{"amount":"1"}`).Code)

	rec := s.do(t, http.MethodGet, "/entries", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	entries := decodeBody[[]models.LedgerEntry](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, models.EntryDeposit, entries[0].Kind)
	assert.Equal(t, models.EntryAllowanceSet, entries[1].Kind)
	assert.Equal(t, models.NewIdentity(user1Addr), entries[1].Counterparty)
}
