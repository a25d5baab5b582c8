package neoclient

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID       string `neo4j:"~id"`
	Name     string
	Age      int
	Score    *float64
	Tags     []string
	Password string `neo4j:"-"`
	secret   string
}

func TestConvert_Scalars(t *testing.T) {
	c := NewConversions()

	n, err := Convert[int](c, int64(42))
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	u, err := Convert[uint16](c, int64(65535))
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), u)

	f, err := Convert[float64](c, int64(3))
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)

	whole, err := Convert[int](c, 7.0)
	require.NoError(t, err)
	assert.Equal(t, 7, whole)

	parsed, err := Convert[int64](c, " 12 ")
	require.NoError(t, err)
	assert.Equal(t, int64(12), parsed)

	s, err := Convert[string](c, int64(-5))
	require.NoError(t, err)
	assert.Equal(t, "-5", s)

	b, err := Convert[bool](c, "true")
	require.NoError(t, err)
	assert.True(t, b)

	p, err := Convert[*string](c, "x")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "x", *p)
}

func TestConvert_Rejects(t *testing.T) {
	c := NewConversions()

	tests := []struct {
		name   string
		value  any
		target reflect.Type
		want   error
	}{
		{"null", nil, reflect.TypeOf(""), ErrNoValue},
		{"int8 overflow", int64(300), reflect.TypeOf(int8(0)), ErrNoConverter},
		{"negative to uint", int64(-1), reflect.TypeOf(uint(0)), ErrNoConverter},
		{"fraction to int", 1.5, reflect.TypeOf(0), ErrNoConverter},
		{"bad number", "abc", reflect.TypeOf(0), ErrNoConverter},
		{"bad bool", "maybe", reflect.TypeOf(false), ErrNoConverter},
		{"list to string", []any{"a"}, reflect.TypeOf(""), ErrNoConverter},
		{"string to struct", "a", reflect.TypeOf(user{}), ErrNoConverter},
		{"bad list element", []any{"a", int64(1), "x"}, reflect.TypeOf([]int{}), ErrNoConverter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Convert(tt.value, tt.target)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConvert_Temporal(t *testing.T) {
	c := NewConversions()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	got, err := Convert[time.Time](c, neo4j.DateOf(day))
	require.NoError(t, err)
	assert.True(t, day.Equal(got))

	d, err := Convert[time.Duration](c, neo4j.DurationOf(0, 0, 90, 500))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second+500*time.Nanosecond, d)

	_, err = Convert[time.Duration](c, neo4j.DurationOf(1, 0, 0, 0))
	assert.ErrorIs(t, err, ErrNoConverter)
}

func TestConvert_Structs(t *testing.T) {
	c := NewConversions()
	node := neo4j.Node{
		Labels: []string{"User"},
		Props: map[string]any{
			"~id":      "u-1",
			"name":     "Ada",
			"AGE":      int64(36),
			"score":    9.5,
			"tags":     []any{"admin", "ops"},
			"password": "hunter2",
			"secret":   "s",
			"unknown":  true,
		},
	}

	got, err := Convert[user](c, node)
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, 36, got.Age)
	require.NotNil(t, got.Score)
	assert.Equal(t, 9.5, *got.Score)
	assert.Equal(t, []string{"admin", "ops"}, got.Tags)
	assert.Empty(t, got.Password)
	assert.Empty(t, got.secret)

	rel, err := Convert[struct{ Since int }](c, neo4j.Relationship{Props: map[string]any{"since": int64(2020)}})
	require.NoError(t, err)
	assert.Equal(t, 2020, rel.Since)

	_, err = Convert[user](c, map[string]any{"age": "old"})
	assert.ErrorIs(t, err, ErrNoConverter)
}

func TestConvert_Maps(t *testing.T) {
	c := NewConversions()

	got, err := Convert[map[string]int](c, map[string]any{"a": int64(1), "b": nil})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1, "b": 0}, got)

	props, err := Convert[map[string]string](c, neo4j.Node{Props: map[string]any{"name": "Ada"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Ada"}, props)
}

func TestRegisterConverter(t *testing.T) {
	c := NewConversions()
	RegisterConverter(c, func(n int64) (string, error) {
		return "#" + strings.Repeat("x", int(n)), nil
	})

	got, err := Convert[string](c, int64(3))
	require.NoError(t, err)
	assert.Equal(t, "#xxx", got)

	ids, err := Convert[[]string](c, []any{int64(1), "plain"})
	require.NoError(t, err)
	assert.Equal(t, []string{"#x", "plain"}, ids)
}

func TestFetchAs_UsesClientConversions(t *testing.T) {
	conv := NewConversions()
	RegisterConverter(conv, func(s string) (time.Weekday, error) {
		for d := time.Sunday; d <= time.Saturday; d++ {
			if strings.EqualFold(d.String(), s) {
				return d, nil
			}
		}
		return 0, ErrNoValue
	})
	engine := newFakeEngine(records("day", "monday", "friday")...)
	c := New(engine, WithConversions(conv))

	days, err := FetchAs[time.Weekday](c.Query("MATCH (d:Day) RETURN d.name")).List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, days)
}

func TestSingleValue(t *testing.T) {
	m := singleValue[int](NewConversions())

	_, err := m(&neo4j.Record{Keys: []string{"a", "b"}, Values: []any{int64(1), int64(2)}})
	assert.ErrorIs(t, err, ErrTooManyColumns)

	_, err = m(&neo4j.Record{})
	assert.ErrorIs(t, err, ErrNoValue)

	_, err = m(record("a", nil))
	assert.ErrorIs(t, err, ErrNoValue)
}

func TestWithNullCheck(t *testing.T) {
	nilMap := withNullCheck(MappingFunc[map[string]any](func(*neo4j.Record) (map[string]any, error) {
		return nil, nil
	}))
	_, err := nilMap(record("a", int64(1)))
	assert.ErrorIs(t, err, ErrNoValue)

	zeroInt := withNullCheck(MappingFunc[int](func(*neo4j.Record) (int, error) {
		return 0, nil
	}))
	n, err := zeroInt(record("a", int64(1)))
	require.NoError(t, err)
	assert.Zero(t, n)
}
