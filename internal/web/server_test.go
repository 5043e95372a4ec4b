package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/fundledger/internal/date"
	"github.com/vadiminshakov/fundledger/internal/domain"
	"github.com/vadiminshakov/fundledger/internal/events"
	"github.com/vadiminshakov/fundledger/internal/services/balance"
	"github.com/vadiminshakov/fundledger/internal/services/ledger"
	"github.com/vadiminshakov/fundledger/internal/storage/ledgerstore"
)

type fixture struct {
	server   *httptest.Server
	ledger   *ledger.Service
	notify   *events.Broadcaster
	checking domain.Account
	jan      domain.AccountingPeriod
	fund     domain.Fund
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := ledgerstore.New()
	balances := balance.NewService(store, zap.NewNop())
	notify := events.NewBroadcaster(16)
	svc := ledger.NewService(store, balances, zap.NewNop(), ledger.WithNotifier(notify))

	fund, err := svc.CreateFund(ctx, "Groceries")
	require.NoError(t, err)
	jan, err := svc.CreateAccountingPeriod(ctx, 2025, time.January)
	require.NoError(t, err)
	checking, err := svc.CreateAccount(ctx, ledger.CreateAccountRequest{
		Name:   "Checking",
		Type:   domain.AccountTypeStandard,
		Period: jan.ID,
		Date:   date.MustParse("2025-01-01"),
		Funds:  []domain.FundAmount{{Fund: fund.ID, Amount: decimal.NewFromInt(1500)}},
	})
	require.NoError(t, err)
	_, err = svc.AddChangeInValue(ctx, ledger.ChangeInValueRequest{
		Account: checking.ID,
		Period:  jan.ID,
		Date:    date.MustParse("2025-01-10"),
		Fund:    fund.ID,
		Amount:  decimal.NewFromInt(-1000),
	})
	require.NoError(t, err)

	s := NewServer(":0", balances, store, notify, zap.NewNop())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return &fixture{server: ts, ledger: svc, notify: notify, checking: checking, jan: jan, fund: fund}
}

type balanceBody struct {
	Account string          `json:"account"`
	Balance decimal.Decimal `json:"balance"`
	Total   decimal.Decimal `json:"total"`
}

func (f *fixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_Balance(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		date string
		want int64
	}{
		{"before withdrawal", "2025-01-09", 1500},
		{"after withdrawal", "2025-01-10", 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.get(t, "/accounts/"+string(f.checking.ID)+"/balance?date="+tt.date)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var body balanceBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, string(f.checking.ID), body.Account)
			assert.True(t, body.Balance.Equal(decimal.NewFromInt(tt.want)), "got %s", body.Balance)
		})
	}
}

func TestServer_Errors(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/accounts/missing/balance?date=2025-01-10")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.get(t, "/accounts/"+string(f.checking.ID)+"/balance?date=yesterday")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.get(t, "/accounts/"+string(f.checking.ID)+"/periods/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_EventsAndPeriods(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/accounts/"+string(f.checking.ID)+"/events?from=2025-01-01&to=2025-01-31")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var running []struct {
		Balance balanceBody `json:"balance"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&running))
	require.Len(t, running, 2)
	assert.True(t, running[0].Balance.Balance.Equal(decimal.NewFromInt(1500)))
	assert.True(t, running[1].Balance.Balance.Equal(decimal.NewFromInt(500)))

	resp = f.get(t, "/accounts/"+string(f.checking.ID)+"/periods/"+string(f.jan.ID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pb struct {
		Starting balanceBody `json:"starting"`
		Ending   balanceBody `json:"ending"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pb))
	assert.True(t, pb.Starting.Balance.IsZero())
	assert.True(t, pb.Ending.Balance.Equal(decimal.NewFromInt(500)))

	resp = f.get(t, "/accounts")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var accounts []json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accounts))
	assert.Len(t, accounts, 1)
}

func TestServer_Stream(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.server.URL+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return f.notify.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	_, err = f.ledger.AddChangeInValue(context.Background(), ledger.ChangeInValueRequest{
		Account: f.checking.ID,
		Period:  f.jan.ID,
		Date:    date.MustParse("2025-01-12"),
		Fund:    f.fund.ID,
		Amount:  decimal.NewFromInt(25),
	})
	require.NoError(t, err)

	reader := bufio.NewReader(resp.Body)
	var kind string
	for kind == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if v, ok := strings.CutPrefix(line, "event: "); ok {
			kind = strings.TrimSpace(v)
		}
	}
	assert.Equal(t, string(events.KindEventAdded), kind)
}
