package errors

import "math"

// Thresholds shared by the numeric guards. 1e-10 is the magnitude below
// which a value is treated as zero, and 700 is close to the largest
// argument for which math.Exp still returns a finite float64.
const (
	zeroTol = 1e-10
	expClip = 700.0
)

// unstable reports whether v is NaN or infinite.
func unstable(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// CheckNumericalStability returns a NumericalInstabilityError if any of the
// values is NaN or infinite.
func CheckNumericalStability(operation string, values []float64) error {
	for _, v := range values {
		if unstable(v) {
			return NewNumericalInstabilityError(operation, values)
		}
	}
	return nil
}

// CheckScalar checks a single value for NaN or infinity.
func CheckScalar(operation string, value float64) error {
	if unstable(value) {
		return NewNumericalInstabilityError(operation, []float64{value})
	}
	return nil
}

// CheckMatrix scans a matrix for NaN or infinite entries. The returned
// error reports the offending values from the first affected row, capped at
// ten so messages stay readable on wide matrices.
func CheckMatrix(operation string, matrix interface{ At(int, int) float64 }, rows, cols int) error {
	const maxReported = 10
	for i := 0; i < rows; i++ {
		var bad []float64
		for j := 0; j < cols && len(bad) < maxReported; j++ {
			if v := matrix.At(i, j); unstable(v) {
				bad = append(bad, v)
			}
		}
		if len(bad) > 0 {
			return NewNumericalInstabilityError(operation, bad)
		}
	}
	return nil
}

// SafeDivide returns numerator/denominator, or 0 when the denominator is
// within zeroTol of zero.
func SafeDivide(numerator, denominator float64) float64 {
	if math.Abs(denominator) < zeroTol {
		return 0
	}
	return numerator / denominator
}

// StabilizeLog returns log(value) with the argument floored at zeroTol, so
// zeros and slightly negative round-off never produce -Inf or NaN.
func StabilizeLog(value float64) float64 {
	if value < zeroTol {
		return math.Log(zeroTol)
	}
	return math.Log(value)
}

// StabilizeExp returns exp(value) with the argument clipped to +-expClip,
// so the result never overflows to +Inf and deep underflow returns 0.
func StabilizeExp(value float64) float64 {
	switch {
	case value > expClip:
		return math.Exp(expClip)
	case value < -expClip:
		return 0
	}
	return math.Exp(value)
}

// LogSumExp computes log(sum(exp(values))) using the max-shift identity so
// the intermediate exponentials stay in range. An empty slice yields -Inf,
// as does a slice whose entries are all -Inf.
func LogSumExp(values []float64) float64 {
	if len(values) == 0 {
		return math.Inf(-1)
	}

	maxVal := values[0]
	for _, v := range values[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	if math.IsInf(maxVal, -1) {
		return math.Inf(-1)
	}

	sum := 0.0
	for _, v := range values {
		sum += math.Exp(v - maxVal)
	}
	return maxVal + math.Log(sum)
}
