package docstore

import (
	"fmt"
	"math"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// fieldTag is shared with the Firestore client so one set of struct tags
// describes the document layout for every backend.
const fieldTag = "firestore"

// Encode converts a record struct into a document field map.
func Encode(rec any) (map[string]any, error) {
	out := map[string]any{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: fieldTag,
		Result:  &out,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if err := dec.Decode(rec); err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrInvalidRecord, err)
	}
	delete(out, "-")
	return out, nil
}

// Decode fills out (a pointer to a record) from a document field map.
// Unknown fields are ignored; type mismatches and fractional numbers stored
// in integer fields fail.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    fieldTag,
		Result:     out,
		DecodeHook: integralFloatHook,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeserializationFailed, err)
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("%w: %w", ErrDeserializationFailed, err)
	}
	return nil
}

// integralFloatHook lets JSON numbers into integer fields only when they
// have no fractional part and fit the target.
func integralFloatHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Float32 && from.Kind() != reflect.Float64 {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}

	f := reflect.ValueOf(data).Float()
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("%v is not an integer", data)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, fmt.Errorf("%v overflows %s", data, to)
	}
	return int64(f), nil
}
