package domain

// Monetary amounts are int64 centavos. Percentages are basis points
// (int64, 10000 = 100%). All arithmetic is integer; rounding is half-up.

// ApplyBasisPoints returns amount scaled by the basis-point rate with
// half-up rounding. Both inputs must be non-negative; callers validate
// upstream.
func ApplyBasisPoints(amount, bps int64) int64 {
	return (amount*bps + 5000) / 10000
}

// AdjustedUnitPrice applies a signed per-unit regional delta to a base price,
// clamping at zero so an aggressive discount can never produce a negative
// line price.
func AdjustedUnitPrice(basePrice, delta int64) int64 {
	price := basePrice + delta
	if price < 0 {
		return 0
	}
	return price
}
