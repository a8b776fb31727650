package patch

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dusk-indust/alchemist/internal/dataset"
)

// Comparison operators of a key expression.
const (
	OpEq  = "=="
	OpNe  = "!="
	OpGt  = ">"
	OpLt  = "<"
	OpGte = ">="
	OpLte = "<="
)

// keyExpr splits "path op" keys such as "PriorityLevel >" or "Skills.length>=".
var keyExpr = regexp.MustCompile(`^(.*?)\s*(==|!=|>=|<=|>|<)$`)

// undefinedValue marks a path that resolved to nothing. It differs from a
// JSON null, which resolves to nil.
type undefinedValue struct{}

var undefined any = undefinedValue{}

func isUndefined(v any) bool {
	_, ok := v.(undefinedValue)
	return ok
}

// ParseKey splits a where key into its field path and operator. A bare path
// returns an empty operator.
func ParseKey(key string) (path, op string) {
	key = strings.TrimSpace(key)
	if m := keyExpr.FindStringSubmatch(key); m != nil {
		return strings.TrimSpace(m[1]), m[2]
	}
	return key, ""
}

// matchKey evaluates one where entry against a row.
func matchKey(row dataset.Row, key string, expected any) bool {
	path, op := ParseKey(key)
	return compare(Resolve(row, path), op, expected)
}

// compare applies op to an actual and expected value. The empty operator
// compares the text forms of both sides.
func compare(actual any, op string, expected any) bool {
	switch op {
	case "":
		return jsString(actual) == jsString(expected)
	case OpEq:
		return looseEqual(actual, expected)
	case OpNe:
		return !looseEqual(actual, expected)
	}

	a, b := toNumber(actual), toNumber(expected)
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	switch op {
	case OpGt:
		return a > b
	case OpLt:
		return a < b
	case OpGte:
		return a >= b
	case OpLte:
		return a <= b
	}
	return false
}

// Resolve follows a dotted path into a row. Object segments index maps,
// numeric segments index arrays, and "length" counts arrays. A string that
// holds a JSON object or array is traversed as that value; any other string
// answers "length" with its number of comma-separated entries. A path that
// leads nowhere resolves to undefined.
func Resolve(row dataset.Row, path string) any {
	var cur any = map[string]any(row)
	for _, part := range strings.Split(path, ".") {
		cur = step(cur, part)
		if isUndefined(cur) {
			return undefined
		}
	}
	return cur
}

func step(cur any, part string) any {
	switch v := cur.(type) {
	case map[string]any:
		if val, ok := v[part]; ok {
			return val
		}
	case dataset.Row:
		if val, ok := v[part]; ok {
			return val
		}
	case []any:
		if part == "length" {
			return float64(len(v))
		}
		if i, err := strconv.Atoi(part); err == nil && i >= 0 && i < len(v) {
			return v[i]
		}
	case string:
		if decoded, ok := decodeContainer(v); ok {
			return step(decoded, part)
		}
		if part == "length" {
			return float64(len(dataset.SplitList(v)))
		}
	}
	return undefined
}

// decodeContainer parses a string holding a JSON object or array.
func decodeContainer(s string) (any, bool) {
	t := strings.TrimSpace(s)
	if t == "" || (t[0] != '{' && t[0] != '[') {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(t), &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, true
	}
	return nil, false
}

// toNumber coerces a value for ordering comparisons. Undefined and objects
// are NaN; arrays go through their text form.
func toNumber(v any) float64 {
	switch x := v.(type) {
	case undefinedValue:
		return math.NaN()
	case []any:
		return dataset.Number(jsString(x))
	case map[string]any, dataset.Row:
		return math.NaN()
	}
	return dataset.Number(v)
}

// jsString renders a value the way string coercion does for loosely typed
// records: undefined and null have names, arrays join their elements with
// commas, and objects render as a fixed placeholder.
func jsString(v any) string {
	switch x := v.(type) {
	case undefinedValue:
		return "undefined"
	case nil:
		return "null"
	case string:
		return x
	case []any:
		parts := make([]string, len(x))
		for i, el := range x {
			if el == nil || isUndefined(el) {
				continue
			}
			parts[i] = jsString(el)
		}
		return strings.Join(parts, ",")
	case map[string]any, dataset.Row:
		return "[object Object]"
	}
	return dataset.Text(v)
}

// looseEqual is equality with type coercion: null and undefined equal each
// other only, booleans and numeric text compare as numbers, and arrays or
// objects compare against scalars through their text form. Two containers
// are never equal.
func looseEqual(a, b any) bool {
	aNil, bNil := a == nil || isUndefined(a), b == nil || isUndefined(b)
	if aNil || bNil {
		return aNil && bNil
	}

	aObj, bObj := isContainer(a), isContainer(b)
	switch {
	case aObj && bObj:
		return false
	case aObj:
		return looseEqual(jsString(a), b)
	case bObj:
		return looseEqual(a, jsString(b))
	}

	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		return as == bs
	}
	ab, aBool := a.(bool)
	bb, bBool := b.(bool)
	if aBool && bBool {
		return ab == bb
	}
	x, y := dataset.Number(a), dataset.Number(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	return x == y
}

func isContainer(v any) bool {
	switch v.(type) {
	case []any, map[string]any, dataset.Row:
		return true
	}
	return false
}
