package template

import (
	"encoding/json"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Date layouts used by formatDate.
const (
	layoutDefault  = "January 2, 2006"
	layoutShort    = "1/2/2006"
	layoutLong     = "Monday, January 2, 2006"
	layoutTime     = "3:04 PM"
	layoutDateTime = "1/2/2006, 3:04 PM"

	defaultCurrency = "USD"
	ellipsis        = "..."
)

// parseLayouts are tried in order when a date arrives as a string.
var parseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"January 2, 2006",
	"Jan 2, 2006",
}

// currencySymbols covers the codes seen in practice; other codes are
// rendered with the ISO code as prefix.
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "CN¥",
	"INR": "₹",
	"KRW": "₩",
	"BRL": "R$",
	"CAD": "CA$",
	"AUD": "A$",
	"NZD": "NZ$",
	"MXN": "MX$",
	"HKD": "HK$",
	"ILS": "₪",
	"VND": "₫",
	"PHP": "₱",
	"TWD": "NT$",
}

var printer = message.NewPrinter(language.AmericanEnglish)

// Iteration is the element produced by the times helper.
type Iteration struct {
	Index  int // zero-based
	Number int // one-based
}

// builtins returns the helper library every registry starts with.
func builtins(now func() time.Time) map[string]any {
	return map[string]any{
		"formatDate":     formatDate,
		"formatCurrency": formatCurrency,
		"formatNumber":   formatNumber,

		"eq": eq,
		"ne": ne,
		"gt": gt,
		"lt": lt,

		"length":     length,
		"isEmpty":    isEmpty,
		"isNotEmpty": func(v any) bool { return !isEmpty(v) },

		"add":      func(a, b any) float64 { return arith(a, b, func(x, y float64) float64 { return x + y }) },
		"subtract": func(a, b any) float64 { return arith(a, b, func(x, y float64) float64 { return x - y }) },
		"multiply": func(a, b any) float64 { return arith(a, b, func(x, y float64) float64 { return x * y }) },
		"divide":   divide,
		"modulo":   modulo,

		"uppercase":  uppercase,
		"lowercase":  lowercase,
		"capitalize": capitalize,
		"truncate":   truncate,

		"json":        toJSON,
		"currentYear": func() int { return now().Year() },
		"currentDate": func() string { return now().Format(layoutDefault) },
		"times":       times,
	}
}

// formatDate renders date in one of the supported modes.
// Input that does not parse as a date is returned unchanged.
func formatDate(date any, mode ...any) any {
	t, ok := parseDate(date)
	if !ok {
		return date
	}
	layout := layoutDefault
	if len(mode) > 0 {
		switch strings.ToLower(toString(mode[0])) {
		case "short":
			layout = layoutShort
		case "long":
			layout = layoutLong
		case "time":
			layout = layoutTime
		case "datetime":
			layout = layoutDateTime
		}
	}
	return t.Format(layout)
}

func parseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, !d.IsZero()
	case *time.Time:
		if d == nil || d.IsZero() {
			return time.Time{}, false
		}
		return *d, true
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range parseLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	// Numbers are Unix milliseconds, the way JSON producers serialize dates.
	if ms, ok := toNumber(v); ok && !math.IsInf(ms, 0) {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

// formatCurrency renders amount with the currency symbol and the currency's
// standard number of decimals. Invalid amounts and unknown codes are
// returned unchanged.
func formatCurrency(amount any, code ...any) any {
	v, ok := coerceNumber(amount)
	if !ok || math.IsInf(v, 0) {
		return amount
	}
	iso := defaultCurrency
	if len(code) > 0 {
		if c := strings.TrimSpace(toString(code[0])); c != "" {
			iso = strings.ToUpper(c)
		}
	}
	unit, err := currency.ParseISO(iso)
	if err != nil {
		return amount
	}
	scale, _ := currency.Standard.Rounding(unit)

	symbol, ok := currencySymbols[unit.String()]
	if !ok {
		symbol = unit.String() + " "
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + symbol + printer.Sprintf("%v", number.Decimal(v, number.Scale(scale)))
}

// formatNumber renders n with grouping separators. Without decimals the
// output keeps up to three fraction digits.
func formatNumber(n any, decimals ...any) any {
	v, ok := coerceNumber(n)
	if !ok || math.IsInf(v, 0) {
		return n
	}
	if len(decimals) > 0 {
		if d, ok := coerceInt(decimals[0]); ok && d >= 0 {
			return printer.Sprintf("%v", number.Decimal(v, number.Scale(d)))
		}
	}
	return printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(3)))
}

// eq reports whether a loosely equals any of the others.
// It replaces the text/template builtin, which fails on mismatched types.
func eq(a any, others ...any) bool {
	for _, b := range others {
		if looseEqual(a, b) {
			return true
		}
	}
	return false
}

func ne(a, b any) bool {
	return !looseEqual(a, b)
}

func gt(a, b any) bool {
	x, okA := toNumber(a)
	y, okB := toNumber(b)
	return okA && okB && x > y
}

func lt(a, b any) bool {
	x, okA := toNumber(a)
	y, okB := toNumber(b)
	return okA && okB && x < y
}

// length returns the number of elements of a slice, array or map, 0 otherwise.
func length(v any) int {
	n, _ := collectionLen(v)
	return n
}

func isEmpty(v any) bool {
	if n, ok := collectionLen(v); ok {
		return n == 0
	}
	return !truthy(v)
}

func arith(a, b any, op func(x, y float64) float64) float64 {
	x, _ := coerceNumber(a)
	y, _ := coerceNumber(b)
	r := op(x, y)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

func divide(a, b any) float64 {
	return arith(a, b, func(x, y float64) float64 {
		if y == 0 {
			return 0
		}
		return x / y
	})
}

func modulo(a, b any) float64 {
	return arith(a, b, func(x, y float64) float64 {
		if y == 0 {
			return 0
		}
		return math.Mod(x, y)
	})
}

func uppercase(s any) string {
	if !truthy(s) {
		return ""
	}
	return strings.ToUpper(toString(s))
}

func lowercase(s any) string {
	if !truthy(s) {
		return ""
	}
	return strings.ToLower(toString(s))
}

// capitalize upper-cases the first character and lower-cases the rest.
func capitalize(s any) string {
	if !truthy(s) {
		return ""
	}
	str := toString(s)
	first, size := utf8.DecodeRuneInString(str)
	return strings.ToUpper(string(first)) + strings.ToLower(str[size:])
}

// truncate shortens s to n characters and appends an ellipsis,
// only when something was actually cut.
func truncate(s, n any) string {
	str := toString(s)
	limit, ok := coerceInt(n)
	if !ok {
		return str
	}
	limit = max(limit, 0)
	runes := []rune(str)
	if len(runes) <= limit {
		return str
	}
	return string(runes[:limit]) + ellipsis
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// times returns n iterations for use with range.
func times(n any) []Iteration {
	count, ok := coerceInt(n)
	if !ok || count <= 0 {
		return nil
	}
	items := make([]Iteration, count)
	for i := range items {
		items[i] = Iteration{Index: i, Number: i + 1}
	}
	return items
}
