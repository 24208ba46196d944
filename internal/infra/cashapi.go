package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AbnerInnovation/coffee-shop-sub000/internal/apierror"
	"github.com/AbnerInnovation/coffee-shop-sub000/internal/dto"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// CashAPIBasePath prefixes every cash register endpoint.
const CashAPIBasePath = "/v1/cash-register"

// CashAPIConfig configures the client for the remote cash register API.
type CashAPIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// CashAPIClient talks to the remote transaction log over JSON/HTTP.
// It never retries: a failed call is returned to the caller as-is. The circuit
// breaker only fast-fails while the backend is down (transport errors and 5xx);
// 4xx rejections pass through without tripping it.
type CashAPIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
}

func NewCashAPIClient(cfg CashAPIConfig) *CashAPIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CashAPIClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		cb:         newCashAPIBreaker(),
	}
}

func newCashAPIBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cash-register-api",
		MaxRequests: 1,                // half-open: one trial request
		Interval:    30 * time.Second, // closed: reset counters every 30s
		Timeout:     15 * time.Second, // open -> half-open after 15s
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var remote *apierror.Remote
			if errors.As(err, &remote) {
				return !remote.ServerSide()
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
}

// BreakerState exposes the breaker state for status output.
func (c *CashAPIClient) BreakerState() string { return c.cb.State().String() }

// ── Endpoints ─────────────────────────────────────────────────────────────────

// CurrentSession returns the open session, or nil when there is none.
func (c *CashAPIClient) CurrentSession(ctx context.Context) (*dto.Session, error) {
	var sess *dto.Session
	err := c.do(ctx, http.MethodGet, "/current-session", nil, &sess)
	// Only the API's own "no session" answer carries a detail; a bare 404 means a
	// wrong base URL or path and is reported.
	var remote *apierror.Remote
	if errors.As(err, &remote) && remote.Status == http.StatusNotFound && remote.Detail != "" {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (c *CashAPIClient) OpenSession(ctx context.Context, req dto.OpenSessionRequest) (*dto.Session, error) {
	var sess dto.Session
	if err := c.do(ctx, http.MethodPost, "/open-session", req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// CloseSession uses the denominations variant of the endpoint when a count is supplied.
func (c *CashAPIClient) CloseSession(ctx context.Context, sessionID int64, req dto.CloseSessionRequest) error {
	path := "/close-session/" + strconv.FormatInt(sessionID, 10)
	if req.Denominations != nil {
		path += "/denominations"
	}
	return c.do(ctx, http.MethodPatch, path, req, nil)
}

func (c *CashAPIClient) PerformCut(ctx context.Context, sessionID int64, req dto.CutRequest) (*dto.CutResult, error) {
	var result dto.CutResult
	if err := c.do(ctx, http.MethodPost, "/cut/"+strconv.FormatInt(sessionID, 10), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *CashAPIClient) ListTransactions(ctx context.Context, sessionID int64) ([]dto.Transaction, error) {
	q := url.Values{}
	q.Set("session_id", strconv.FormatInt(sessionID, 10))
	txns := []dto.Transaction{}
	if err := c.do(ctx, http.MethodGet, "/transactions?"+q.Encode(), nil, &txns); err != nil {
		return nil, err
	}
	if txns == nil {
		txns = []dto.Transaction{}
	}
	return txns, nil
}

// SessionReport reads a session by id, closed ones included.
func (c *CashAPIClient) SessionReport(ctx context.Context, sessionID int64) (*dto.SessionReport, error) {
	var report dto.SessionReport
	if err := c.do(ctx, http.MethodGet, "/sessions/"+strconv.FormatInt(sessionID, 10)+"/report", nil, &report); err != nil {
		return nil, err
	}
	if report.Transactions == nil {
		report.Transactions = []dto.Transaction{}
	}
	return &report, nil
}

func (c *CashAPIClient) AddExpense(ctx context.Context, sessionID int64, req dto.ExpenseRequest) error {
	return c.do(ctx, http.MethodPost, "/expense/"+strconv.FormatInt(sessionID, 10), req, nil)
}

func (c *CashAPIClient) DeleteTransaction(ctx context.Context, transactionID int64) error {
	return c.do(ctx, http.MethodDelete, "/transaction/"+strconv.FormatInt(transactionID, 10), nil, nil)
}

// ── Transport ─────────────────────────────────────────────────────────────────

func (c *CashAPIClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, in, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("cashapi: %s %s: %w", method, path, err)
	}
	return err
}

func (c *CashAPIClient) roundTrip(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("cashapi: marshal payload: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+CashAPIBasePath+path, body)
	if err != nil {
		return fmt.Errorf("cashapi: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cashapi: %s %s unreachable: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("cashapi: read response: %w", err)
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("cash register api call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierror.ParseRemote(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("cashapi: decode response: %w", err)
	}
	return nil
}
