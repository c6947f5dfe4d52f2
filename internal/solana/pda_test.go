package solana

import (
	"bytes"
	"testing"
)

const testProgramID = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"

func TestFindProgramAddress_Deterministic(t *testing.T) {
	seeds := [][]byte{[]byte("flash_pool"), bytes.Repeat([]byte{0xAB}, 32)}

	addr1, bump1, err := FindProgramAddress(seeds, testProgramID)
	if err != nil {
		t.Fatalf("FindProgramAddress failed: %v", err)
	}
	addr2, bump2, err := FindProgramAddress(seeds, testProgramID)
	if err != nil {
		t.Fatalf("FindProgramAddress failed: %v", err)
	}
	if addr1 != addr2 || bump1 != bump2 {
		t.Errorf("Derivation must be deterministic: %s/%d vs %s/%d", addr1, bump1, addr2, bump2)
	}

	raw, err := DecodePubkey(addr1)
	if err != nil {
		t.Fatalf("Derived address must decode to 32 bytes: %v", err)
	}
	if isOnCurve(raw) {
		t.Error("Program-derived address must be off the ed25519 curve")
	}
}

func TestFindProgramAddress_SeedsChangeAddress(t *testing.T) {
	a, _, err := FindProgramAddress([][]byte{[]byte("flash_pool")}, testProgramID)
	if err != nil {
		t.Fatalf("FindProgramAddress failed: %v", err)
	}
	b, _, err := FindProgramAddress([][]byte{[]byte("pool_vault")}, testProgramID)
	if err != nil {
		t.Fatalf("FindProgramAddress failed: %v", err)
	}
	if a == b {
		t.Error("Different seeds must derive different addresses")
	}
}

func TestCreateProgramAddress_SeedTooLong(t *testing.T) {
	long := bytes.Repeat([]byte{0x01}, 33)
	if _, err := CreateProgramAddress([][]byte{long}, testProgramID); err == nil {
		t.Error("Expected error for a seed over 32 bytes")
	}
}

func TestDecodePubkey(t *testing.T) {
	raw, err := DecodePubkey("So11111111111111111111111111111111111111112")
	if err != nil {
		t.Fatalf("DecodePubkey failed: %v", err)
	}
	if len(raw) != 32 {
		t.Errorf("Decoded length: got %d, want 32", len(raw))
	}

	if _, err := DecodePubkey("not-base58-0OIl"); err == nil {
		t.Error("Expected error for invalid base58")
	}
	if _, err := DecodePubkey("abc"); err == nil {
		t.Error("Expected error for a short key")
	}
}
