// Package numfmt formats and parses numbers in the Italian convention used by
// the offer forms: "." groups thousands and "," separates decimals.
package numfmt

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"laser-offers/internal/constants"
)

const (
	ThousandsSep = "."
	DecimalSep   = ","
)

// DefaultDecimals is the precision of every displayed decimal value.
const DefaultDecimals = constants.FractionDigits

// maxInputFraction is how many fractional digits the keystroke mask keeps.
const maxInputFraction = 5

// FormatDecimal renders v with exactly decimals fractional digits, rounding
// half away from zero. NaN and infinities render as zero.
func FormatDecimal(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}

	s := decimal.NewFromFloat(v).StringFixed(int32(decimals))

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")

	out := groupThousands(intPart)
	if decimals > 0 {
		out += DecimalSep + fracPart
	}
	if negative && strings.Trim(intPart+fracPart, "0") != "" {
		out = "-" + out
	}
	return out
}

// FormatInteger rounds v to the nearest integer and renders it without a
// decimal part.
func FormatInteger(v float64) string {
	return FormatDecimal(v, 0)
}

// ParseDecimal reads a number written by FormatDecimal or typed by the
// operator. Anything it cannot read is 0.
func ParseDecimal(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ThousandsSep, "")
	s = strings.Replace(s, DecimalSep, ".", 1)
	if s == "" {
		return 0
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}

	f, _ := d.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// SanitizeNumericInput masks raw keystrokes down to a number the forms can
// hold. Applying it twice gives the same result as applying it once.
func SanitizeNumericInput(s string, allowNegative, isInteger bool) string {
	var b strings.Builder
	negative := false

	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.':
			b.WriteRune(r)
		case r == '-' && allowNegative && i == 0:
			negative = true
		}
	}
	body := b.String()

	if isInteger {
		body = strings.NewReplacer(",", "", ".", "").Replace(body)
	} else if intPart, frac, ok := strings.Cut(body, DecimalSep); ok {
		frac = strings.NewReplacer(",", "", ".", "").Replace(frac)
		if len(frac) > maxInputFraction {
			frac = frac[:maxInputFraction]
		}
		body = intPart + DecimalSep + frac
	}

	if negative {
		return "-" + body
	}
	return body
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}

	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteString(ThousandsSep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
