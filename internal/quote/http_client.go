package quote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ailover379/solana-flash-loan-bot/internal/solana"
)

// Default configuration values.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 2
	DefaultRetryDelay = 250 * time.Millisecond
)

// HTTPClient implements Client against an aggregator-style REST venue API
// exposing GET /quote and POST /swap.
type HTTPClient struct {
	name       string
	programID  string
	baseURL    string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	now        func() time.Time
}

// HTTPOption configures HTTPClient.
type HTTPOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) HTTPOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a venue client for the API at baseURL. programID is
// the on-chain program the venue's swap instructions target.
func NewHTTPClient(name, programID, baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		name:       name,
		programID:  programID,
		baseURL:    baseURL,
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// Name identifies the venue.
func (c *HTTPClient) Name() string { return c.name }

// ProgramID is the on-chain program this venue's swaps execute through.
func (c *HTTPClient) ProgramID() string { return c.programID }

type quoteResponse struct {
	InAmount  string          `json:"inAmount"`
	OutAmount string          `json:"outAmount"`
	Route     json.RawMessage `json:"route"`
}

// Quote fetches an executable price from GET /quote.
func (c *HTTPClient) Quote(ctx context.Context, inputMint, outputMint string, amount uint64) (*Quote, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", strconv.FormatUint(amount, 10))

	var resp quoteResponse
	if err := c.do(ctx, http.MethodGet, "/quote?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("venue %s quote: %w", c.name, err)
	}

	outAmount, err := strconv.ParseUint(resp.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("venue %s quote: parse outAmount %q: %w", c.name, resp.OutAmount, err)
	}
	if outAmount == 0 {
		return nil, fmt.Errorf("venue %s quote: zero output for %d %s", c.name, amount, inputMint)
	}

	return &Quote{
		Venue:      c.name,
		InputMint:  inputMint,
		OutputMint: outputMint,
		InAmount:   amount,
		OutAmount:  outAmount,
		Price:      float64(outAmount) / float64(amount),
		Route:      resp.Route,
		FetchedAt:  c.now().UnixMilli(),
	}, nil
}

type swapRequest struct {
	InputMint  string          `json:"inputMint"`
	OutputMint string          `json:"outputMint"`
	InAmount   string          `json:"inAmount"`
	Route      json.RawMessage `json:"route,omitempty"`
}

type swapResponse struct {
	ProgramID string `json:"programId"`
	Data      string `json:"data"` // base64
	Accounts  []struct {
		Pubkey     string `json:"pubkey"`
		IsSigner   bool   `json:"isSigner"`
		IsWritable bool   `json:"isWritable"`
	} `json:"accounts"`
}

// Swap converts a quote into the venue instruction via POST /swap.
func (c *HTTPClient) Swap(ctx context.Context, q *Quote) (*solana.Instruction, error) {
	req := swapRequest{
		InputMint:  q.InputMint,
		OutputMint: q.OutputMint,
		InAmount:   strconv.FormatUint(q.InAmount, 10),
		Route:      q.Route,
	}

	var resp swapResponse
	if err := c.do(ctx, http.MethodPost, "/swap", req, &resp); err != nil {
		return nil, fmt.Errorf("venue %s swap: %w", c.name, err)
	}

	if resp.ProgramID == "" {
		return nil, fmt.Errorf("venue %s swap: response missing programId", c.name)
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("venue %s swap: decode instruction data: %w", c.name, err)
	}

	ix := &solana.Instruction{
		ProgramID: resp.ProgramID,
		Data:      data,
	}
	for _, acc := range resp.Accounts {
		ix.Accounts = append(ix.Accounts, solana.AccountMeta{
			Pubkey:     acc.Pubkey,
			IsSigner:   acc.IsSigner,
			IsWritable: acc.IsWritable,
		})
	}
	return ix, nil
}

// do performs one HTTP request with bounded retries on transport errors and
// 429/5xx responses.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, result interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
