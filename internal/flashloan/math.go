package flashloan

import "math/bits"

// checkedAdd returns a+b, or ErrMathOverflow if the sum does not fit in 64 bits.
func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrMathOverflow
	}
	return sum, nil
}

// mulDiv returns a*b/den with 128-bit intermediate precision.
// Returns ErrMathOverflow when den is zero or the quotient exceeds 64 bits.
func mulDiv(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, ErrMathOverflow
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		return 0, ErrMathOverflow
	}
	q, _ := bits.Div64(hi, lo, den)
	return q, nil
}
