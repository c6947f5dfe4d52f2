package solana

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// pdaMarker is the domain separator appended when hashing PDA seeds.
const pdaMarker = "ProgramDerivedAddress"

const maxSeedLen = 32

// CreateProgramAddress derives the address for the given seeds and program.
// The result must not lie on the ed25519 curve; callers normally use
// FindProgramAddress, which searches for a valid bump seed.
func CreateProgramAddress(seeds [][]byte, programID string) (string, error) {
	program, err := base58.Decode(programID)
	if err != nil {
		return "", fmt.Errorf("decode program id: %w", err)
	}

	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > maxSeedLen {
			return "", fmt.Errorf("seed exceeds %d bytes", maxSeedLen)
		}
		h.Write(seed)
	}
	h.Write(program)
	h.Write([]byte(pdaMarker))
	digest := h.Sum(nil)

	if isOnCurve(digest) {
		return "", fmt.Errorf("derived address is on the ed25519 curve")
	}
	return base58.Encode(digest), nil
}

// FindProgramAddress searches bump seeds 255..0 for a valid program-derived
// address and returns the address with the bump that produced it.
func FindProgramAddress(seeds [][]byte, programID string) (string, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		addr, err := CreateProgramAddress(append(seeds, []byte{byte(bump)}), programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
	}
	return "", 0, fmt.Errorf("no valid program address for seeds")
}

// DecodePubkey decodes a base58 public key into its 32 raw bytes.
func DecodePubkey(s string) ([]byte, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode pubkey %q: %w", s, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("pubkey %q is %d bytes, want 32", s, len(raw))
	}
	return raw, nil
}

// isOnCurve reports whether b is a valid ed25519 curve point.
func isOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
