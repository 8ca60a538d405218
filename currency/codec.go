// Package currency converts between user keystrokes, canonical decimal strings
// and display strings for USD amounts.
package currency

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const maxFractionDigits = 2

// printer groups thousands the en-US way.
var printer = message.NewPrinter(language.English)

var (
	leadingNumber = regexp.MustCompile(`^\s*[-+]?(\d+\.?\d*|\.\d+)`)
	nonNumeric    = regexp.MustCompile(`[^0-9.\-]`)
)

// Sanitize keeps only digits and the decimal point. The first point is the
// decimal point; digits after any later point join the fractional run, which
// is truncated to two digits.
func Sanitize(raw string) string {
	var whole, frac strings.Builder
	seenPoint := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			if seenPoint {
				frac.WriteRune(r)
			} else {
				whole.WriteRune(r)
			}
		case r == '.':
			seenPoint = true
		}
	}
	if !seenPoint {
		return whole.String()
	}

	f := frac.String()
	if len(f) > maxFractionDigits {
		f = f[:maxFractionDigits]
	}
	return whole.String() + "." + f
}

// DisplayFormat inserts thousands separators into the integer part and keeps
// the fractional part exactly as given, a bare trailing point included.
// Example: DisplayFormat("1234567.5") returns "1,234,567.5".
func DisplayFormat(canonical string) string {
	if canonical == "" {
		return canonical
	}
	whole, frac, hasPoint := strings.Cut(canonical, ".")
	grouped := groupThousands(whole)
	if !hasPoint {
		return grouped
	}
	return grouped + "." + frac
}

// CommitFormat parses canonical as a float and renders it with exactly two
// fractional digits, ungrouped. Unparsable or empty input counts as zero.
func CommitFormat(canonical string) string {
	v := parseFloatPrefix(canonical)
	out := strconv.FormatFloat(v, 'f', maxFractionDigits, 64)
	if out == "-0.00" {
		return "0.00"
	}
	return out
}

// ParseLenient strips everything but digits, points and minus signs and
// parses the leading number that remains. Garbage parses as zero.
func ParseLenient(s string) decimal.Decimal {
	m := leadingNumber.FindString(nonNumeric.ReplaceAllString(s, ""))
	if m == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(strings.TrimSpace(m), "."))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatUSD renders an amount as en-US currency, e.g. "$27,700.00" or
// "-$1,250.50".
func FormatUSD(amount decimal.Decimal) string {
	rounded := amount.Round(maxFractionDigits)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}

	fixed := rounded.Abs().StringFixed(maxFractionDigits)
	whole, frac, _ := strings.Cut(fixed, ".")

	grouped := groupThousands(whole)
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		grouped = printer.Sprintf("%d", n)
	}
	return sign + "$" + grouped + "." + frac
}

// parseFloatPrefix reads the leading decimal number of s, ignoring anything
// after it.
func parseFloatPrefix(s string) float64 {
	m := strings.TrimSpace(leadingNumber.FindString(s))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(m, "."), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}

// groupThousands works on the digit string itself so leading zeros survive.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
