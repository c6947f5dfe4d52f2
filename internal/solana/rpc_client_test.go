package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func rpcResult(t *testing.T, w http.ResponseWriter, result string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + result + `}`)); err != nil {
		t.Errorf("write response: %v", err)
	}
}

func fastClient(url string) *HTTPClient {
	return NewHTTPClient(url,
		WithMaxRetries(3),
		WithRetryDelay(time.Millisecond),
		WithMaxDelay(5*time.Millisecond),
	)
}

func TestGetLatestBlockhash(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotMethod = req.Method
		rpcResult(t, w, `{"value":{"blockhash":"EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N","lastValidBlockHeight":100}}`)
	}))
	defer srv.Close()

	hash, err := fastClient(srv.URL).GetLatestBlockhash(context.Background())
	if err != nil {
		t.Fatalf("GetLatestBlockhash failed: %v", err)
	}
	if gotMethod != "getLatestBlockhash" {
		t.Errorf("Method: got %q", gotMethod)
	}
	if hash != "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N" {
		t.Errorf("Blockhash: got %q", hash)
	}
}

func TestCall_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		rpcResult(t, w, `"ok"`)
	}))
	defer srv.Close()

	if err := fastClient(srv.URL).GetHealth(context.Background()); err != nil {
		t.Fatalf("GetHealth failed: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("Requests: got %d, want 2", calls.Load())
	}
}

func TestCall_RPCErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"invalid params"}}`))
	}))
	defer srv.Close()

	err := fastClient(srv.URL).GetHealth(context.Background())
	if err == nil || !strings.Contains(err.Error(), "invalid params") {
		t.Fatalf("Expected the RPC error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("RPC errors must not be retried, got %d requests", calls.Load())
	}
}

func TestCall_MaxRetriesExceeded(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := fastClient(srv.URL).GetHealth(context.Background())
	if err == nil || !strings.Contains(err.Error(), "max retries exceeded") {
		t.Fatalf("Expected retry exhaustion, got %v", err)
	}
	if calls.Load() != 4 {
		t.Errorf("Requests: got %d, want 4 (initial plus three retries)", calls.Load())
	}
}

func TestSendTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Method != "sendTransaction" {
			t.Errorf("Method: got %q", req.Method)
		}
		opts, ok := req.Params[1].(map[string]interface{})
		if !ok || opts["skipPreflight"] != true {
			t.Errorf("skipPreflight must be set: %v", req.Params)
		}
		rpcResult(t, w, `"5SigNature111"`)
	}))
	defer srv.Close()

	sig, err := fastClient(srv.URL).SendTransaction(context.Background(), "dGVzdA==")
	if err != nil {
		t.Fatalf("SendTransaction failed: %v", err)
	}
	if sig != "5SigNature111" {
		t.Errorf("Signature: got %q", sig)
	}
}

func TestGetHealth_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rpcResult(t, w, `"behind"`)
	}))
	defer srv.Close()

	if err := fastClient(srv.URL).GetHealth(context.Background()); err == nil {
		t.Error("Expected error for an unhealthy node")
	}
}

func TestGetTokenAccountBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rpcResult(t, w, `{"value":{"amount":"123456","decimals":6}}`)
	}))
	defer srv.Close()

	amount, err := fastClient(srv.URL).GetTokenAccountBalance(context.Background(), "acct")
	if err != nil {
		t.Fatalf("GetTokenAccountBalance failed: %v", err)
	}
	if amount != 123456 {
		t.Errorf("Amount: got %d, want 123456", amount)
	}
}
