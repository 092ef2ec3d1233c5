package spreadsheet

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// CellString maps any cell-like value to its canonical text. The bool result
// is false for missing values (nil), which callers drop like empty cells.
func CellString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case []byte:
		return string(t), true
	case bool:
		if t {
			return "True", true
		}
		return "False", true
	case float64:
		if math.IsNaN(t) {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		if math.IsNaN(float64(t)) {
			return "", false
		}
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case json.Number:
		return t.String(), true
	case time.Time:
		if t.IsZero() {
			return "", false
		}
		return t.Format(time.DateTime), true
	case fmt.Stringer:
		return t.String(), true
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t), true
		}
		return string(b), true
	default:
		return fmt.Sprint(t), true
	}
}
