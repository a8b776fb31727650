package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// maxPhaseSpan bounds the expansion of an a-b phase range.
const maxPhaseSpan = 10000

// Text renders a cell value as text. Strings pass through, numbers use
// their shortest decimal form, and arrays or objects render as JSON.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Number coerces a cell value to a float64 with loose-number rules: blank
// text is 0, surrounding whitespace is ignored, booleans are 0 or 1, and
// anything else that is not a plain decimal number is NaN.
func Number(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case json.Number:
		return parseNumber(string(x))
	case string:
		return parseNumber(x)
	case []any:
		switch len(x) {
		case 0:
			return 0
		case 1:
			return parseNumber(Text(x[0]))
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	// ParseFloat also accepts inf, nan, hex floats and underscores.
	if strings.ContainsAny(s, "xXnN_iI") {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// IsNumeric reports whether v coerces to a number.
func IsNumeric(v any) bool {
	return !math.IsNaN(Number(v))
}

// SplitList splits a comma-separated cell into trimmed, non-empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsRange reports whether s has the a-b phase range form.
func IsRange(s string) bool {
	_, _, ok := splitRange(s)
	return ok
}

// IsBracketed reports whether s has the [...] phase list form.
func IsBracketed(s string) bool {
	return len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']' && !strings.ContainsAny(s, "\n\r")
}

// splitRange parses the digits-dash-digits form.
func splitRange(s string) (string, string, bool) {
	lo, hi, ok := strings.Cut(s, "-")
	if !ok || !allDigits(lo) || !allDigits(hi) {
		return "", "", false
	}
	return lo, hi, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// RedundantRange reports whether s is a single-point range such as 4-4 and
// returns the point.
func RedundantRange(s string) (string, bool) {
	lo, hi, ok := splitRange(s)
	if !ok || lo != hi {
		return "", false
	}
	return lo, true
}

// ParsePhases expands a PreferredPhases cell into phase numbers. It accepts
// the a-b range form and the JSON list form; elements that are not whole
// numbers are dropped and malformed input yields nil.
func ParsePhases(s string) []int {
	s = strings.TrimSpace(s)
	switch {
	case IsBracketed(s):
		var raw []any
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return nil
		}
		out := make([]int, 0, len(raw))
		for _, el := range raw {
			if p, ok := wholeNumber(el); ok {
				out = append(out, p)
			}
		}
		return out
	case IsRange(s):
		lo, hi, _ := splitRange(s)
		start, err1 := strconv.Atoi(lo)
		end, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil || start > end || end-start >= maxPhaseSpan {
			return nil
		}
		out := make([]int, 0, end-start+1)
		for p := start; p <= end; p++ {
			out = append(out, p)
		}
		return out
	}
	return nil
}

// ParseSlots decodes an AvailableSlots cell, which must hold a JSON array.
func ParseSlots(s string) ([]any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, ErrNotArray
	}
	return arr, nil
}

// SlotPhases returns the whole-number phases of a parsed slot array.
func SlotPhases(slots []any) []int {
	out := make([]int, 0, len(slots))
	for _, el := range slots {
		if p, ok := wholeNumber(el); ok {
			out = append(out, p)
		}
	}
	return out
}

func wholeNumber(v any) (int, bool) {
	f := Number(v)
	if v == nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return 0, false
	}
	return int(f), true
}

// ParseAttributes decodes an AttributesJSON cell into an object. Valid JSON
// that is not an object yields an empty map.
func ParseAttributes(s string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	m, _ := v.(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}
