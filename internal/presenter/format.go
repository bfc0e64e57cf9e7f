package presenter

import (
	"strings"

	"github.com/shopspring/decimal"
)

const missing = "---"

// fixed renders v with exactly places fraction digits.
func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// grouped renders v with thousands separators and at most three fraction
// digits, trailing zeros dropped (en-US locale grouping).
func grouped(v float64) string {
	s := decimal.NewFromFloat(v).Round(3).String()

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

func money(v float64) string { return "$" + grouped(v) }

// percent renders a ratio as a percentage with the given precision.
func percent(ratio float64, places int32) string {
	return decimal.NewFromFloat(ratio).Mul(decimal.NewFromInt(100)).StringFixed(places) + "%"
}

func signed(v float64, places int32) string {
	if v >= 0 {
		return "+" + fixed(v, places)
	}
	return fixed(v, places)
}

func decimalString(v float64) string {
	return decimal.NewFromFloat(v).String()
}
