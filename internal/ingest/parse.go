package ingest

import (
	"fmt"
	"strconv"
)

func parseInt64(s, field string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", field, err)
	}
	return v, nil
}

func parseInt8(s, field string) (int8, error) {
	v, err := strconv.ParseInt(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", field, err)
	}
	return int8(v), nil
}

func parseInt16(s, field string) (int16, error) {
	v, err := strconv.ParseInt(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", field, err)
	}
	return int16(v), nil
}

func parseFloat64(s, field string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", field, err)
	}
	return v, nil
}

// intBool validates an int-coded boolean column, returning a typed
// InvalidValue ParseError (not a plain Go error) when value is outside
// {falseVal, trueVal} — the taxonomy the rest of the pipeline expects to be
// able to recover the offending UUID/field/value from.
func intBool(kind ObjectKind, uuid, field string, value, falseVal, trueVal int8) (bool, error) {
	switch value {
	case falseVal:
		return false, nil
	case trueVal:
		return true, nil
	default:
		return false, newParseError(kind, InvalidValue{UUID: uuid, Field: field, Value: value})
	}
}
