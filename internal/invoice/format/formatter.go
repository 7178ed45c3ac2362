// Package format contains pure display formatting for invoices.
package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)
)

const DefaultNumberTemplate = "INV-{YYYY}{MM}{DD}-{SEQ6}"

// Number formats a human-readable invoice number based on a template,
// issue time, and monotonic per-user sequence.
//
// This function is PURE:
// - No side effects
// - No DB access
// - Fully deterministic
func Number(template string, issuedAt time.Time, seq int64) (string, error) {
	if template == "" {
		return "", fmt.Errorf("invoice number template is empty")
	}

	if seq <= 0 {
		return "", fmt.Errorf("invalid invoice sequence: %d", seq)
	}

	out := template

	// Date tokens
	out = strings.ReplaceAll(out, "{YYYY}", issuedAt.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", issuedAt.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", issuedAt.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", issuedAt.Format("02"))

	// Simple sequence
	out = strings.ReplaceAll(out, "{SEQ}", strconv.FormatInt(seq, 10))

	// Padded sequence
	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := seqPadRe.FindStringSubmatch(m)
		if len(match) != 2 {
			return m // should never happen
		}

		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}

		return fmt.Sprintf("%0*d", width, seq)
	})

	// Final safety check: unresolved tokens
	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in invoice format: %s", out)
	}

	return out, nil
}

var currencySymbols = map[string]string{
	"USD": "$",
	"CAD": "$",
	"AUD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// Money renders an amount with its 3-letter currency code, 2 fractional
// digits and thousands separators. Known currencies render with their
// symbol, everything else with the code as prefix.
func Money(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	value := groupThousands(amount.StringFixed(2))
	if symbol, ok := currencySymbols[code]; ok {
		if amount.IsNegative() {
			return "-" + symbol + strings.TrimPrefix(value, "-")
		}
		return symbol + value
	}
	if code == "" {
		return value
	}
	return code + " " + value
}

func groupThousands(value string) string {
	sign := ""
	if strings.HasPrefix(value, "-") {
		sign = "-"
		value = value[1:]
	}
	intPart, fracPart, _ := strings.Cut(value, ".")

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	out := sign + b.String()
	if fracPart != "" {
		out += "." + fracPart
	}
	return out
}

const displayDateLayout = "Jan 2, 2006"

// ParseDate accepts the date shapes persisted payloads carry: a plain
// date, or ISO-8601 with or without fractional seconds. Plain dates are
// anchored to UTC; timestamps keep their offset.
func ParseDate(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	layouts := []string{
		"2006-01-02",
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			if layout == "2006-01-02" {
				return t.UTC(), true
			}
			return t, true
		}
	}
	return time.Time{}, false
}

// DisplayDate renders a short month/day/year date. Plain dates stay
// UTC-anchored; timestamps are shown in local time.
func DisplayDate(t time.Time, plainDate bool) string {
	if t.IsZero() {
		return ""
	}
	if plainDate {
		return t.UTC().Format(displayDateLayout)
	}
	return t.Local().Format(displayDateLayout)
}

// DisplayDateString parses raw and renders it for display, returning
// the raw input when it cannot be parsed.
func DisplayDateString(raw string) string {
	t, ok := ParseDate(raw)
	if !ok {
		return strings.TrimSpace(raw)
	}
	plain := len(strings.TrimSpace(raw)) == len("2006-01-02")
	return DisplayDate(t, plain)
}
