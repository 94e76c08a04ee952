// Package odoo is a thin JSON-RPC 2.0 client for the Odoo external API.
// All object calls go through execute_kw on the object service; a circuit
// breaker guards the upstream so a dead Odoo cannot pile up requests.
package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"

	"labops/internal/config"
	"labops/internal/domain"
	"labops/internal/infra/logging"
)

// Options configures a Client. Zero breaker values fall back to defaults.
type Options struct {
	URL      string
	Database string
	UID      int
	APIKey   string
	Timeout  time.Duration

	BreakerMaxFailures int
	BreakerCooldown    time.Duration
}

// OptionsFromConfig maps the service configuration onto client options.
func OptionsFromConfig(c config.Odoo) Options {
	return Options{
		URL:      c.URL,
		Database: c.Database,
		UID:      c.UID,
		APIKey:   c.APIKey,
		Timeout:  time.Duration(c.TimeoutSecs) * time.Second,
	}
}

// Client talks to one Odoo instance. It is safe for concurrent use.
type Client struct {
	opts    Options
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[json.RawMessage]
	reqID   atomic.Int64
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.BreakerMaxFailures <= 0 {
		opts.BreakerMaxFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}

	c := &Client{
		opts: opts,
		http: &http.Client{Timeout: opts.Timeout},
	}
	c.breaker = gobreaker.NewCircuitBreaker[json.RawMessage](gobreaker.Settings{
		Name:        "odoo",
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= opts.BreakerMaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return c
}

// Query describes one search_read call.
type Query struct {
	Model  string
	Domain []any
	Fields []string
	Limit  int

	// IncludeArchived adds active_test:false so lines booked on archived
	// contacts still come back.
	IncludeArchived bool
}

// GroupQuery describes one read_group call. read_group aggregates server
// side, so it has no record limit.
type GroupQuery struct {
	Model   string
	Domain  []any
	Fields  []string
	GroupBy []string
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *rpcError) Error() string {
	if len(e.Data) > 0 {
		var d struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(e.Data, &d) == nil && d.Message != "" {
			return fmt.Sprintf("%s: %s", e.Message, d.Message)
		}
	}
	return e.Message
}

// ExecuteKw performs one execute_kw call against the object service. The
// returned raw message is the JSON-RPC result field.
func (c *Client) ExecuteKw(ctx context.Context, model, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	const op = "odoo.ExecuteKw"

	envelope := []any{c.opts.Database, c.opts.UID, c.opts.APIKey, model, method, args}
	if kwargs != nil {
		envelope = append(envelope, kwargs)
	}
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: "object", Method: "execute_kw", Args: envelope},
		ID:      c.reqID.Add(1),
	})
	if err != nil {
		return nil, domain.E(domain.KindInternal, op, "encode rpc payload", err)
	}

	raw, err := c.breaker.Execute(func() (json.RawMessage, error) {
		return c.post(ctx, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, domain.E(domain.KindUnavailable, op, "odoo circuit open", err)
		}
		return nil, domain.E(domain.KindUnavailable, op, fmt.Sprintf("call %s.%s", model, method), err)
	}

	var resp rpcResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, domain.E(domain.KindInternal, op, "decode rpc response", err)
	}
	if resp.Error != nil {
		return nil, domain.E(domain.KindInternal, op, fmt.Sprintf("odoo error on %s.%s", model, method), resp.Error)
	}
	return resp.Result, nil
}

// SearchRead runs search_read with the Dutch language context the
// dashboard expects everywhere.
func (c *Client) SearchRead(ctx context.Context, q Query) (json.RawMessage, error) {
	callCtx := map[string]any{"lang": "nl_NL"}
	if q.IncludeArchived {
		callCtx["active_test"] = false
	}
	kwargs := map[string]any{
		"fields":  q.Fields,
		"context": callCtx,
	}
	if q.Limit > 0 {
		kwargs["limit"] = q.Limit
	}
	return c.ExecuteKw(ctx, q.Model, "search_read", []any{q.Domain}, kwargs)
}

// ReadGroup runs a non-lazy read_group. Archived records are always
// included so aggregates do not silently drop lines of archived contacts.
func (c *Client) ReadGroup(ctx context.Context, q GroupQuery) (json.RawMessage, error) {
	groupBy := q.GroupBy
	if groupBy == nil {
		groupBy = []string{}
	}
	kwargs := map[string]any{
		"fields":  q.Fields,
		"groupby": groupBy,
		"lazy":    false,
		"context": map[string]any{"active_test": false, "lang": "nl_NL"},
	}
	return c.ExecuteKw(ctx, q.Model, "read_group", []any{q.Domain}, kwargs)
}

func (c *Client) post(ctx context.Context, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("odoo returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
