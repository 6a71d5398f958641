package interfaces

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"txflow/internal/pkg/memdb"
	"txflow/internal/service/ledger/application"
	"txflow/internal/service/ledger/infrastructure"
)

func newMux() *http.ServeMux {
	db := memdb.New(time.Second)
	svc := application.NewLedgerApplicationService(
		infrastructure.NewMemoryAccountRepository(db),
		infrastructure.NewMemoryTransactionRepository(db),
		db,
		noop.NewTracerProvider().Tracer("test"),
	)
	mux := http.NewServeMux()
	NewLedgerHandler(svc).RegisterRoutes(mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestLedgerHTTPFlow(t *testing.T) {
	mux := newMux()

	rec := do(mux, http.MethodPost, "/accounts", `{"account_number":"A","holder":"alice","initial_balance":"100","type":"CHECKING"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(mux, http.MethodPost, "/accounts", `{"account_number":"B","holder":"bob","initial_balance":"50","type":"SAVINGS"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(mux, http.MethodPost, "/transfers", `{"from":"A","to":"B","amount":"30"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(mux, http.MethodGet, "/accounts/B", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var acc accountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acc))
	assert.True(t, decimal.NewFromInt(80).Equal(acc.Balance))

	rec = do(mux, http.MethodGet, "/transfers", "")
	var txs []transactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txs))
	assert.Len(t, txs, 1)
}

func TestLedgerHTTPErrorMapping(t *testing.T) {
	mux := newMux()
	do(mux, http.MethodPost, "/accounts", `{"account_number":"A","holder":"alice","initial_balance":"10","type":"CHECKING"}`)
	do(mux, http.MethodPost, "/accounts", `{"account_number":"B","holder":"bob","initial_balance":"0","type":"CHECKING"}`)

	cases := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodPost, "/transfers", `{"from":"A","to":"B","amount":"0"}`, http.StatusBadRequest},
		{http.MethodPost, "/transfers", `{"from":"A","to":"B","amount":"11"}`, http.StatusUnprocessableEntity},
		{http.MethodPost, "/transfers", `{"from":"A","to":"X","amount":"1"}`, http.StatusNotFound},
		{http.MethodPost, "/transfers", `not json`, http.StatusBadRequest},
		{http.MethodPost, "/accounts", `{"account_number":"A","holder":"again","initial_balance":"0","type":"CHECKING"}`, http.StatusConflict},
		{http.MethodGet, "/accounts/missing", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := do(mux, tc.method, tc.path, tc.body)
		assert.Equal(t, tc.want, rec.Code, "%s %s %s -> %s", tc.method, tc.path, tc.body, rec.Body.String())
	}
}
