package neoclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// QuerySpec accumulates a statement: its text, parameters and target
// database. A QuerySpec is not safe for concurrent mutation; once a terminal
// operation starts, the parameters it sends are a snapshot.
type QuerySpec struct {
	client   *Client
	cypher   func() string
	params   *ParameterSet
	database string
	registry TransactionRegistry
	err      error
}

func verifyDatabaseName(name string) error {
	if strings.TrimSpace(name) == "" {
		return newError(KindConfiguration, "in", ErrInvalidDatabaseName)
	}
	return nil
}

// In selects the database the statement runs against. A blank name is
// rejected right away; the error is kept and returned by Err and by every
// terminal operation, none of which then contacts the engine.
func (s *QuerySpec) In(database string) *QuerySpec {
	if err := verifyDatabaseName(database); err != nil {
		s.err = err
		return s
	}
	s.database = database
	return s
}

// Err returns the first error recorded while building the statement.
func (s *QuerySpec) Err() error {
	return s.err
}

// Database returns the selected database; empty means the default one.
func (s *QuerySpec) Database() string {
	return s.database
}

// Bind binds value to the parameter name.
func (s *QuerySpec) Bind(name string, value any) *QuerySpec {
	s.params.Add(name, value)
	return s
}

// BindAll binds every entry of params.
func (s *QuerySpec) BindAll(params map[string]any) *QuerySpec {
	s.params.AddAll(params)
	return s
}

// BindWith binds the parameters binder derives from value.
func BindWith[V any](s *QuerySpec, value V, binder func(V) map[string]any) *QuerySpec {
	if binder == nil {
		if s.err == nil {
			s.err = newError(KindConfiguration, "bind", fmt.Errorf("binder is required"))
		}
		return s
	}
	return s.BindAll(binder(value))
}

// WithTransactions overrides the client's registry for this statement.
func (s *QuerySpec) WithTransactions(reg TransactionRegistry) *QuerySpec {
	s.registry = reg
	return s
}

// Parameters returns a snapshot of the bound parameters.
func (s *QuerySpec) Parameters() map[string]any {
	return s.params.Get()
}

// Fetch maps every record to a column name → value map.
func (s *QuerySpec) Fetch() *FetchSpec[map[string]any] {
	return newFetchSpec(s, recordAsMap)
}

// FetchAs maps single column records to T through the client's conversions.
func FetchAs[T any](s *QuerySpec) *FetchSpec[T] {
	return newFetchSpec(s, singleValue[T](s.client.conversions))
}

// MappedBy maps records with fn. A nil result of fn is reported as ErrNoValue.
// A nil fn fails the returned FetchSpec only; s stays usable.
func MappedBy[T any](s *QuerySpec, fn func(record *neo4j.Record) (T, error)) *FetchSpec[T] {
	if fn == nil {
		f := newFetchSpec[T](s, nil)
		f.err = newError(KindConfiguration, "mapped by", fmt.Errorf("mapping function is required"))
		return f
	}
	return newFetchSpec(s, withNullCheck(MappingFunc[T](fn)))
}

// Run executes the statement for its side effects and returns the summary.
func (s *QuerySpec) Run(ctx context.Context) (Summary, error) {
	return newFetchSpec[struct{}](s, nil).run(ctx)
}

// request freezes the spec into what one execution needs.
func (s *QuerySpec) request() request {
	return request{
		cypher:   s.cypher,
		params:   s.params.Clone(),
		database: s.database,
		registry: s.registry,
	}
}

type request struct {
	cypher   func() string
	params   *ParameterSet
	database string
	registry TransactionRegistry
}
