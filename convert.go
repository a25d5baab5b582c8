package neoclient

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Converter turns a record value into a value of a registered target type.
type Converter func(src any) (any, error)

type convKey struct {
	src reflect.Type
	dst reflect.Type
}

// Conversions converts record values into Go types. Registered converters
// take precedence over the built-in rules:
//
//   - values assignable to the target are used as is
//   - integers and floats convert between widths, rejecting overflow
//   - numbers and booleans format to, and parse from, strings
//   - temporal values (neo4j.Date, neo4j.LocalDateTime, ...) convert to time.Time
//   - neo4j.Duration converts to time.Duration when it has no months or days
//   - nodes, relationships and maps fill structs by `neo4j:"name"` tag or by
//     case-insensitive field name
//   - lists convert element-wise to slices, maps value-wise to map[string]T
//   - pointer targets receive a pointer to the converted element
type Conversions struct {
	converters sync.Map // convKey -> Converter
	fields     sync.Map // reflect.Type -> map[string][]int
}

// NewConversions returns Conversions with only the built-in rules.
func NewConversions() *Conversions {
	return &Conversions{}
}

// Register installs fn for values of type src converted to dst.
func (c *Conversions) Register(src, dst reflect.Type, fn Converter) {
	c.converters.Store(convKey{src: src, dst: dst}, fn)
}

// RegisterConverter is the typed form of Register.
func RegisterConverter[S, D any](c *Conversions, fn func(S) (D, error)) {
	src := reflect.TypeOf((*S)(nil)).Elem()
	dst := reflect.TypeOf((*D)(nil)).Elem()
	c.Register(src, dst, func(v any) (any, error) {
		return fn(v.(S))
	})
}

// Convert converts value to T.
func Convert[T any](c *Conversions, value any) (T, error) {
	var zero T
	rt := reflect.TypeOf((*T)(nil)).Elem()
	rv, err := c.convert(value, rt)
	if err != nil {
		return zero, err
	}
	return rv.Interface().(T), nil
}

// Convert converts value to target and returns the result boxed in an any.
func (c *Conversions) Convert(value any, target reflect.Type) (any, error) {
	rv, err := c.convert(value, target)
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

func (c *Conversions) convert(value any, target reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Value{}, ErrNoValue
	}
	src := reflect.TypeOf(value)
	if fn, ok := c.converters.Load(convKey{src: src, dst: target}); ok {
		out, err := fn.(Converter)(value)
		if err != nil {
			return reflect.Value{}, err
		}
		if out == nil {
			return reflect.Value{}, ErrNoValue
		}
		ov := reflect.ValueOf(out)
		if !ov.Type().AssignableTo(target) {
			return reflect.Value{}, fmt.Errorf("converter %s -> %s returned %s", src, target, ov.Type())
		}
		res := reflect.New(target).Elem()
		res.Set(ov)
		return res, nil
	}

	sv := reflect.ValueOf(value)
	if src.AssignableTo(target) {
		out := reflect.New(target).Elem()
		out.Set(sv)
		return out, nil
	}

	switch target.Kind() {
	case reflect.Pointer:
		elem, err := c.convert(value, target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(target.Elem())
		p.Elem().Set(elem)
		return p, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if target == reflect.TypeOf(time.Duration(0)) {
			if d, ok := value.(neo4j.Duration); ok {
				return durationValue(d, target)
			}
		}
		return toInt(sv, target)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return toUint(sv, target)
	case reflect.Float32, reflect.Float64:
		return toFloat(sv, target)
	case reflect.Bool:
		if sv.Kind() == reflect.String {
			b, err := strconv.ParseBool(sv.String())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %v", ErrNoConverter, err)
			}
			return reflect.ValueOf(b).Convert(target), nil
		}
	case reflect.String:
		return toString(sv, target)
	case reflect.Struct:
		if target == reflect.TypeOf(time.Time{}) {
			if t, ok := value.(interface{ Time() time.Time }); ok {
				return reflect.ValueOf(t.Time()), nil
			}
			break
		}
		return c.toStruct(value, target)
	case reflect.Slice:
		if sv.Kind() == reflect.Slice || sv.Kind() == reflect.Array {
			out := reflect.MakeSlice(target, sv.Len(), sv.Len())
			for i := 0; i < sv.Len(); i++ {
				elem, err := c.convert(sv.Index(i).Interface(), target.Elem())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
				}
				out.Index(i).Set(elem)
			}
			return out, nil
		}
	case reflect.Map:
		if target.Key().Kind() != reflect.String {
			break
		}
		props, ok := propertiesOf(value)
		if !ok {
			break
		}
		out := reflect.MakeMapWithSize(target, len(props))
		for k, v := range props {
			if v == nil {
				out.SetMapIndex(reflect.ValueOf(k).Convert(target.Key()), reflect.Zero(target.Elem()))
				continue
			}
			elem, err := c.convert(v, target.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(target.Key()), elem)
		}
		return out, nil
	}
	return reflect.Value{}, noConverter(src, target)
}

func noConverter(src, dst reflect.Type) error {
	return fmt.Errorf("%w: %s -> %s", ErrNoConverter, src, dst)
}

func toInt(sv reflect.Value, target reflect.Type) (reflect.Value, error) {
	var n int64
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = sv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := sv.Uint()
		if u > math.MaxInt64 {
			return reflect.Value{}, overflow(sv, target)
		}
		n = int64(u)
	case reflect.Float32, reflect.Float64:
		f := sv.Float()
		if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return reflect.Value{}, overflow(sv, target)
		}
		n = int64(f)
	case reflect.String:
		parsed, err := strconv.ParseInt(strings.TrimSpace(sv.String()), 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %v", ErrNoConverter, err)
		}
		n = parsed
	default:
		return reflect.Value{}, noConverter(sv.Type(), target)
	}
	out := reflect.New(target).Elem()
	if out.OverflowInt(n) {
		return reflect.Value{}, overflow(sv, target)
	}
	out.SetInt(n)
	return out, nil
}

func toUint(sv reflect.Value, target reflect.Type) (reflect.Value, error) {
	var n uint64
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if sv.Int() < 0 {
			return reflect.Value{}, overflow(sv, target)
		}
		n = uint64(sv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n = sv.Uint()
	case reflect.String:
		parsed, err := strconv.ParseUint(strings.TrimSpace(sv.String()), 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %v", ErrNoConverter, err)
		}
		n = parsed
	default:
		return reflect.Value{}, noConverter(sv.Type(), target)
	}
	out := reflect.New(target).Elem()
	if out.OverflowUint(n) {
		return reflect.Value{}, overflow(sv, target)
	}
	out.SetUint(n)
	return out, nil
}

func toFloat(sv reflect.Value, target reflect.Type) (reflect.Value, error) {
	var f float64
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(sv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f = float64(sv.Uint())
	case reflect.Float32, reflect.Float64:
		f = sv.Float()
	case reflect.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(sv.String()), 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %v", ErrNoConverter, err)
		}
		f = parsed
	default:
		return reflect.Value{}, noConverter(sv.Type(), target)
	}
	out := reflect.New(target).Elem()
	if out.OverflowFloat(f) {
		return reflect.Value{}, overflow(sv, target)
	}
	out.SetFloat(f)
	return out, nil
}

func toString(sv reflect.Value, target reflect.Type) (reflect.Value, error) {
	var s string
	switch sv.Kind() {
	case reflect.String:
		s = sv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s = strconv.FormatInt(sv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		s = strconv.FormatUint(sv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		s = strconv.FormatFloat(sv.Float(), 'g', -1, 64)
	case reflect.Bool:
		s = strconv.FormatBool(sv.Bool())
	default:
		return reflect.Value{}, noConverter(sv.Type(), target)
	}
	return reflect.ValueOf(s).Convert(target), nil
}

func overflow(sv reflect.Value, target reflect.Type) error {
	return fmt.Errorf("%w: %v does not fit %s", ErrNoConverter, sv.Interface(), target)
}

func durationValue(d neo4j.Duration, target reflect.Type) (reflect.Value, error) {
	if d.Months != 0 || d.Days != 0 {
		return reflect.Value{}, fmt.Errorf("%w: %v has calendar components", ErrNoConverter, d)
	}
	total := time.Duration(d.Seconds)*time.Second + time.Duration(d.Nanos)
	return reflect.ValueOf(total).Convert(target), nil
}

// propertiesOf returns the property map of graph entities and string keyed maps.
func propertiesOf(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case neo4j.Node:
		return v.Props, true
	case *neo4j.Node:
		return v.Props, true
	case neo4j.Relationship:
		return v.Props, true
	case *neo4j.Relationship:
		return v.Props, true
	case map[string]any:
		return v, true
	}
	return nil, false
}

func (c *Conversions) toStruct(value any, target reflect.Type) (reflect.Value, error) {
	props, ok := propertiesOf(value)
	if !ok {
		return reflect.Value{}, noConverter(reflect.TypeOf(value), target)
	}
	index := c.fieldIndex(target)
	out := reflect.New(target).Elem()
	for key, v := range props {
		path, ok := index[strings.ToLower(key)]
		if !ok || v == nil {
			continue
		}
		field := out.FieldByIndex(path)
		conv, err := c.convert(v, field.Type())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("field %s: %w", key, err)
		}
		field.Set(conv)
	}
	return out, nil
}

// fieldIndex maps lower-cased property names to exported field paths. A
// `neo4j:"name"` tag renames a field; `neo4j:"-"` skips it.
func (c *Conversions) fieldIndex(rt reflect.Type) map[string][]int {
	if v, ok := c.fields.Load(rt); ok {
		return v.(map[string][]int)
	}
	index := make(map[string][]int)
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("neo4j"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		index[strings.ToLower(name)] = f.Index
	}
	actual, _ := c.fields.LoadOrStore(rt, index)
	return actual.(map[string][]int)
}
