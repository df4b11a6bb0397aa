package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseFloat coerces a cell to float64. Anything that is not a finite number
// becomes 0; it never fails.
func ParseFloat(v any) float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		f, _ = val.Float64()
	case string:
		f = parseNumericString(val)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseInt coerces a cell to a non-negative int. Fractions are truncated.
func ParseInt(v any) int {
	f := math.Trunc(ParseFloat(v))
	if f <= 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

func parseNumericString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	// Spreadsheet exports often carry a currency sign and thousands
	// separators. Accounting formats wrap negatives: "($5.00)" is -5.
	neg := false
	if inner, ok := strings.CutPrefix(s, "("); ok {
		if inner, ok = strings.CutSuffix(inner, ")"); !ok {
			return 0
		}
		s, neg = strings.TrimSpace(inner), true
	}
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		s, neg = rest, !neg
	} else {
		s = strings.TrimPrefix(s, "+")
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	// The sign was consumed above; a second one is malformed.
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if neg {
		return -f
	}
	return f
}
