package neoclient

import (
	"reflect"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// MappingFunc converts one record into a T.
type MappingFunc[T any] func(record *neo4j.Record) (T, error)

// recordAsMap maps a record to its column name → value map.
func recordAsMap(record *neo4j.Record) (map[string]any, error) {
	return record.AsMap(), nil
}

// singleValue maps records with exactly one column by converting that
// column's value to T. A null value is reported as ErrNoValue.
func singleValue[T any](conv *Conversions) MappingFunc[T] {
	return func(record *neo4j.Record) (T, error) {
		var zero T
		switch {
		case len(record.Values) > 1:
			return zero, ErrTooManyColumns
		case len(record.Values) == 0:
			return zero, ErrNoValue
		}
		return Convert[T](conv, record.Values[0])
	}
}

// withNullCheck rejects nil results of fn with ErrNoValue.
func withNullCheck[T any](fn MappingFunc[T]) MappingFunc[T] {
	return func(record *neo4j.Record) (T, error) {
		v, err := fn(record)
		if err != nil {
			return v, err
		}
		if isNil(v) {
			var zero T
			return zero, ErrNoValue
		}
		return v, nil
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
