// pkg/converter/values.go
package converter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// isNull determines if a value should be treated as NULL
func (c *CellConverter) isNull(value interface{}) bool {
	if value == nil {
		return true
	}

	switch v := value.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return c.config.EmptyStringAsNull
		}
		for _, null := range []string{"null", "NULL", "nil", "NIL", "None"} {
			if s == null {
				return true
			}
		}
		for _, null := range c.config.NullTokens {
			if s == null {
				return true
			}
		}
	case float64:
		return math.IsNaN(v)
	}

	return false
}

// convertToText converts a value to trimmed text
func convertToText(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case []byte:
		return strings.TrimSpace(string(v)), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return fmt.Sprintf("%v", v), nil
	case time.Time:
		return v.Format("2006-01-02 15:04:05"), nil
	case nil:
		return "", nil
	default:
		// Try JSON marshaling for complex types
		jsonBytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v), nil
		}
		return string(jsonBytes), nil
	}
}

// convertToFloat converts a value to a finite float64
func convertToFloat(value interface{}) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case bool:
		if v {
			f = 1
		}
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, fmt.Errorf("cannot convert empty string to numeric")
		}
		// Decimal comma, as exported by pt-BR spreadsheets
		if strings.Contains(s, ",") && !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string '%s' to numeric", v)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("cannot convert %T to numeric", value)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite numeric value %v", f)
	}
	return f, nil
}

// ToInt truncates a numeric cell toward zero, matching int(float(x))
func ToInt(value interface{}) (int, bool) {
	f, err := convertToFloat(value)
	if err != nil {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
