package flashloan

import (
	"errors"
	"math"
	"testing"
)

func TestCheckedAdd(t *testing.T) {
	sum, err := checkedAdd(2, 3)
	if err != nil {
		t.Fatalf("checkedAdd failed: %v", err)
	}
	if sum != 5 {
		t.Errorf("Sum mismatch: got %d, want 5", sum)
	}

	if _, err := checkedAdd(math.MaxUint64, 1); !errors.Is(err, ErrMathOverflow) {
		t.Errorf("Expected ErrMathOverflow, got %v", err)
	}
}

func TestMulDiv(t *testing.T) {
	// 100_000 * 50 / 10_000 = 500
	got, err := mulDiv(100_000, 50, 10_000)
	if err != nil {
		t.Fatalf("mulDiv failed: %v", err)
	}
	if got != 500 {
		t.Errorf("Result mismatch: got %d, want 500", got)
	}

	// Intermediate product exceeds 64 bits but the quotient fits:
	// (2^64-1) * 8000 / 10000 divides exactly.
	got, err = mulDiv(math.MaxUint64, 8000, 10_000)
	if err != nil {
		t.Fatalf("mulDiv with wide intermediate failed: %v", err)
	}
	if want := uint64(14757395258967641292); got != want {
		t.Errorf("Result mismatch: got %d, want %d", got, want)
	}
}

func TestMulDiv_Errors(t *testing.T) {
	if _, err := mulDiv(1, 1, 0); !errors.Is(err, ErrMathOverflow) {
		t.Errorf("Expected ErrMathOverflow for zero denominator, got %v", err)
	}

	// Quotient would not fit in 64 bits.
	if _, err := mulDiv(math.MaxUint64, 3, 2); !errors.Is(err, ErrMathOverflow) {
		t.Errorf("Expected ErrMathOverflow for overflowing quotient, got %v", err)
	}
}
