package database

import (
	"fmt"
	"strconv"
)

// Int64 converts a scanned column value to int64.
func Int64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case []byte:
		return strconv.ParseInt(string(t), 10, 64)
	case string:
		return strconv.ParseInt(t, 10, 64)
	case nil:
		return 0, fmt.Errorf("unexpected NULL")
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", v)
	}
}

// Float64 converts a scanned column value to float64.
func Float64(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case []byte:
		return strconv.ParseFloat(string(t), 64)
	case string:
		return strconv.ParseFloat(t, 64)
	case nil:
		return 0, fmt.Errorf("unexpected NULL")
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", v)
	}
}

// String converts a scanned column value to string.
func String(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case nil:
		return "", fmt.Errorf("unexpected NULL")
	default:
		return fmt.Sprint(v), nil
	}
}
