package textutil

import (
	"math"
	"math/big"
	"strings"

	"github.com/opencode-ai/narrator/internal/models"
)

const maxPrecision = 100

// FormatCount renders a count, using "no" for zero.
func FormatCount(n float64) string {
	if n == 0 {
		return "no"
	}
	return models.FormatNumber(n)
}

// MeasureOptions tune FormatMeasurement. The zero value rounds to whole
// units and appends the unit.
type MeasureOptions struct {
	Precision int
	HideUnit  bool
}

// FormatMeasurement rounds value to the requested precision and appends unit.
func FormatMeasurement(value float64, unit string, opts MeasureOptions) string {
	formatted := ToFixed(value, opts.Precision)
	if opts.HideUnit {
		return formatted
	}
	return formatted + unit
}

// FormatRange renders "a to b<unit>", or a single measurement when equal.
func FormatRange(start, end float64, unit string) string {
	if start == end {
		return FormatMeasurement(start, unit, MeasureOptions{})
	}
	return FormatMeasurement(start, "", MeasureOptions{}) + " to " + FormatMeasurement(end, unit, MeasureOptions{})
}

// ToFixed formats value with a fixed number of decimals. Ties round away from
// zero on the exact binary value, so 2.5 becomes "3" and 1.005 stays "1.00".
func ToFixed(value float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	if precision > maxPrecision {
		precision = maxPrecision
	}

	switch {
	case math.IsNaN(value):
		return "NaN"
	case math.IsInf(value, 1):
		return "Infinity"
	case math.IsInf(value, -1):
		return "-Infinity"
	case math.Abs(value) >= 1e21:
		return models.FormatNumber(value)
	}

	negative := value < 0
	if negative {
		value = -value
	}

	scaled := new(big.Float).SetPrec(2048).SetFloat64(value)
	pow := new(big.Float).SetPrec(2048).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(precision)), nil))
	scaled.Mul(scaled, pow)
	scaled.Add(scaled, big.NewFloat(0.5))
	n, _ := scaled.Int(nil)

	digits := n.String()
	if precision > 0 {
		if len(digits) <= precision {
			digits = strings.Repeat("0", precision-len(digits)+1) + digits
		}
		digits = digits[:len(digits)-precision] + "." + digits[len(digits)-precision:]
	}
	if negative {
		digits = "-" + digits
	}
	return digits
}
