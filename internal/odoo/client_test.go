package odoo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labops/internal/domain"
)

type rpcCapture struct {
	mu      sync.Mutex
	payload map[string]any
}

func (c *rpcCapture) last() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payload
}

func newRPCServer(t *testing.T, result string) (*httptest.Server, *rpcCapture) {
	t.Helper()
	capture := &rpcCapture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		capture.mu.Lock()
		capture.payload = p
		capture.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + result + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv, capture
}

func testClient(url string) *Client {
	return NewClient(Options{
		URL:      url,
		Database: "lab",
		UID:      2,
		APIKey:   "secret",
		Timeout:  5 * time.Second,
	})
}

func TestExecuteKwBuildsEnvelope(t *testing.T) {
	srv, capture := newRPCServer(t, `[{"id":1}]`)
	c := testClient(srv.URL)

	raw, err := c.ExecuteKw(context.Background(), "res.partner", "search_read",
		[]any{[]any{Cond("id", "in", []int64{1, 7, 8})}},
		map[string]any{"fields": []string{"name"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(raw))

	p := capture.last()
	assert.Equal(t, "2.0", p["jsonrpc"])
	assert.Equal(t, "call", p["method"])

	params := p["params"].(map[string]any)
	assert.Equal(t, "object", params["service"])
	assert.Equal(t, "execute_kw", params["method"])

	args := params["args"].([]any)
	require.Len(t, args, 7)
	assert.Equal(t, "lab", args[0])
	assert.Equal(t, float64(2), args[1])
	assert.Equal(t, "secret", args[2])
	assert.Equal(t, "res.partner", args[3])
	assert.Equal(t, "search_read", args[4])
}

func TestSearchReadSendsDutchContextAndLimit(t *testing.T) {
	srv, capture := newRPCServer(t, `[]`)
	c := testClient(srv.URL)

	_, err := c.SearchRead(context.Background(), Query{
		Model:           "account.move",
		Domain:          []any{Cond("state", "=", "posted")},
		Fields:          []string{"name", "amount_total"},
		Limit:           500,
		IncludeArchived: true,
	})
	require.NoError(t, err)

	args := capture.last()["params"].(map[string]any)["args"].([]any)
	require.Len(t, args, 7)

	// Positional args wrap the domain in one more list.
	positional := args[5].([]any)
	require.Len(t, positional, 1)
	domainArg := positional[0].([]any)
	require.Len(t, domainArg, 1)
	assert.Equal(t, []any{"state", "=", "posted"}, domainArg[0])

	kwargs := args[6].(map[string]any)
	assert.Equal(t, []any{"name", "amount_total"}, kwargs["fields"])
	assert.Equal(t, float64(500), kwargs["limit"])

	callCtx := kwargs["context"].(map[string]any)
	assert.Equal(t, "nl_NL", callCtx["lang"])
	assert.Equal(t, false, callCtx["active_test"])
}

func TestSearchReadOmitsArchivedAndLimitByDefault(t *testing.T) {
	srv, capture := newRPCServer(t, `[]`)
	c := testClient(srv.URL)

	_, err := c.SearchRead(context.Background(), Query{
		Model:  "account.journal",
		Domain: []any{Cond("type", "=", "bank")},
		Fields: []string{"name"},
	})
	require.NoError(t, err)

	args := capture.last()["params"].(map[string]any)["args"].([]any)
	kwargs := args[6].(map[string]any)
	_, hasLimit := kwargs["limit"]
	assert.False(t, hasLimit)

	callCtx := kwargs["context"].(map[string]any)
	assert.Equal(t, "nl_NL", callCtx["lang"])
	_, hasActiveTest := callCtx["active_test"]
	assert.False(t, hasActiveTest)
}

func TestReadGroupSendsNonLazyAggregation(t *testing.T) {
	srv, capture := newRPCServer(t, `[{"balance":-120.5,"date:month":"januari 2026"}]`)
	c := testClient(srv.URL)

	_, err := c.ReadGroup(context.Background(), GroupQuery{
		Model:   "account.move.line",
		Domain:  []any{Cond("parent_state", "=", "posted")},
		Fields:  []string{"balance:sum"},
		GroupBy: []string{"date:month"},
	})
	require.NoError(t, err)

	kwargs := capture.last()["params"].(map[string]any)["args"].([]any)[6].(map[string]any)
	assert.Equal(t, []any{"balance:sum"}, kwargs["fields"])
	assert.Equal(t, []any{"date:month"}, kwargs["groupby"])
	assert.Equal(t, false, kwargs["lazy"])

	callCtx := kwargs["context"].(map[string]any)
	assert.Equal(t, false, callCtx["active_test"])
	assert.Equal(t, "nl_NL", callCtx["lang"])
}

func TestReadGroupNilGroupByBecomesEmptyList(t *testing.T) {
	srv, capture := newRPCServer(t, `[{"balance":10}]`)
	c := testClient(srv.URL)

	_, err := c.ReadGroup(context.Background(), GroupQuery{
		Model:  "account.move.line",
		Domain: []any{},
		Fields: []string{"balance:sum"},
	})
	require.NoError(t, err)

	kwargs := capture.last()["params"].(map[string]any)["args"].([]any)[6].(map[string]any)
	groupBy, ok := kwargs["groupby"].([]any)
	require.True(t, ok, "groupby must encode as a list, not null")
	assert.Empty(t, groupBy)
}

func TestExecuteKwSurfacesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":200,"message":"Odoo Server Error","data":{"message":"Invalid field 'bogus'"}}}`))
	}))
	t.Cleanup(srv.Close)
	c := testClient(srv.URL)

	_, err := c.ExecuteKw(context.Background(), "res.partner", "search_read", []any{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid field 'bogus'")
	assert.False(t, domain.IsUnavailable(err), "an application-level error is not an outage")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Options{
		URL:                srv.URL,
		Database:           "lab",
		UID:                2,
		APIKey:             "secret",
		Timeout:            time.Second,
		BreakerMaxFailures: 3,
		BreakerCooldown:    time.Minute,
	})

	for i := 0; i < 3; i++ {
		_, err := c.ExecuteKw(context.Background(), "res.partner", "search_read", []any{}, nil)
		require.Error(t, err)
		assert.True(t, domain.IsUnavailable(err))
		assert.False(t, errors.Is(err, gobreaker.ErrOpenState))
	}

	_, err := c.ExecuteKw(context.Background(), "res.partner", "search_read", []any{}, nil)
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState), "breaker should reject without a roundtrip")
}

func TestExecuteKwContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)
	c := testClient(srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.ExecuteKw(ctx, "res.partner", "search_read", []any{}, nil)
	require.Error(t, err)
	assert.True(t, domain.IsTimeout(err), "deadline errors map to the timeout kind, got %v", err)
}
