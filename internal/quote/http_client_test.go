package quote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

const (
	testMintIn    = "So11111111111111111111111111111111111111112"
	testMintOut   = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	testProgramID = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
)

func TestHTTPClient_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Errorf("Path: got %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("inputMint") != testMintIn || q.Get("outputMint") != testMintOut || q.Get("amount") != "1000000" {
			t.Errorf("Query: got %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"inAmount":"1000000","outAmount":"1010","route":{"hops":1}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient("alpha", testProgramID, srv.URL)
	got, err := c.Quote(context.Background(), testMintIn, testMintOut, 1_000_000)
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if got.Venue != "alpha" || got.InAmount != 1_000_000 || got.OutAmount != 1010 {
		t.Errorf("Quote fields: %+v", got)
	}
	if got.Price != 1010.0/1_000_000.0 {
		t.Errorf("Price: got %v", got.Price)
	}
	if got.FetchedAt == 0 {
		t.Error("FetchedAt must be set")
	}
}

func TestHTTPClient_QuoteZeroOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"inAmount":"1000000","outAmount":"0"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient("alpha", testProgramID, srv.URL)
	if _, err := c.Quote(context.Background(), testMintIn, testMintOut, 1_000_000); err == nil {
		t.Error("Expected error for a zero-output quote")
	}
}

func TestHTTPClient_Swap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/swap" {
			t.Errorf("Request: %s %s", r.Method, r.URL.Path)
		}
		var req map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if string(req["route"]) != `{"hops":1}` {
			t.Errorf("Route must be echoed back, got %s", req["route"])
		}
		w.Write([]byte(`{
			"programId": "` + testProgramID + `",
			"data": "AQID",
			"accounts": [
				{"pubkey": "` + testMintIn + `", "isSigner": false, "isWritable": true}
			]
		}`))
	}))
	defer srv.Close()

	c := NewHTTPClient("alpha", testProgramID, srv.URL)
	ix, err := c.Swap(context.Background(), &Quote{
		InputMint:  testMintIn,
		OutputMint: testMintOut,
		InAmount:   1_000_000,
		Route:      []byte(`{"hops":1}`),
	})
	if err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	if ix.ProgramID != testProgramID {
		t.Errorf("ProgramID: got %q", ix.ProgramID)
	}
	if len(ix.Data) != 3 || ix.Data[0] != 0x01 {
		t.Errorf("Data: got %x", ix.Data)
	}
	if len(ix.Accounts) != 1 || !ix.Accounts[0].IsWritable {
		t.Errorf("Accounts: got %+v", ix.Accounts)
	}
}

func TestHTTPClient_SwapMissingProgram(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":"AQID"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient("alpha", testProgramID, srv.URL)
	_, err := c.Swap(context.Background(), &Quote{InAmount: 1})
	if err == nil || !strings.Contains(err.Error(), "programId") {
		t.Errorf("Expected missing programId error, got %v", err)
	}
}

func TestHTTPClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"inAmount":"100","outAmount":"99"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient("alpha", testProgramID, srv.URL)
	if _, err := c.Quote(context.Background(), testMintIn, testMintOut, 100); err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("Requests: got %d, want 2", calls.Load())
	}
}

func TestHTTPClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"unknown mint"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient("alpha", testProgramID, srv.URL)
	_, err := c.Quote(context.Background(), testMintIn, testMintOut, 100)
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("Expected status 400 error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("4xx responses must not be retried, got %d requests", calls.Load())
	}
}
