package neoclient

import (
	"context"
	"errors"
	"iter"

	"github.com/google/uuid"
)

// errAbandoned marks an All sequence the caller stopped ranging over.
var errAbandoned = errors.New("neoclient: record sequence abandoned")

// FetchSpec is a statement with a mapping. Its terminal operations each run
// the statement once, in a transaction of their own or in the one the
// registry supplies. An own transaction commits after the last record was
// handed out and rolls back on any failure or when the caller stops early.
type FetchSpec[T any] struct {
	spec    *QuerySpec
	mapping MappingFunc[T]
	err     error
}

func newFetchSpec[T any](s *QuerySpec, mapping MappingFunc[T]) *FetchSpec[T] {
	return &FetchSpec[T]{spec: s, mapping: mapping}
}

// One returns the only record of the result. ok is false when there is
// none; more than one record is an error of KindCardinality.
func (f *FetchSpec[T]) One(ctx context.Context) (value T, ok bool, err error) {
	_, err = f.execute(ctx, "one", func(v T) (bool, error) {
		if ok {
			return false, newError(KindCardinality, "one", ErrIncorrectResultSize)
		}
		value, ok = v, true
		return true, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return value, ok, nil
}

// First returns the first record of the result and discards the rest. ok is
// false when there is none.
func (f *FetchSpec[T]) First(ctx context.Context) (value T, ok bool, err error) {
	_, err = f.execute(ctx, "first", func(v T) (bool, error) {
		value, ok = v, true
		return false, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return value, ok, nil
}

// All returns the records as a lazy sequence. Records are fetched and mapped
// as the caller ranges over it. A failure ends the sequence with a single
// (zero, err) pair. Breaking out of the loop rolls the transaction back.
func (f *FetchSpec[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		_, err := f.execute(ctx, "all", func(v T) (bool, error) {
			if !yield(v, nil) {
				return false, errAbandoned
			}
			return true, nil
		})
		if err != nil && !errors.Is(err, errAbandoned) {
			var zero T
			yield(zero, err)
		}
	}
}

// List collects All into a slice.
func (f *FetchSpec[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	for v, err := range f.All(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Run executes the statement and returns its summary; records are discarded.
func (f *FetchSpec[T]) Run(ctx context.Context) (Summary, error) {
	return f.run(ctx)
}

func (f *FetchSpec[T]) run(ctx context.Context) (Summary, error) {
	return f.execute(ctx, "run", nil)
}

// execute runs the statement once. Each mapped record is passed to visit in
// engine order; visit stops the stream by returning false or an error. When
// visit is nil the records are not read at all.
//
// The scope is released exactly once, after the last visit: commit only when
// execute reaches its normal return, rollback on errors, on a cancelled ctx
// and when visit panics. The error returned has gone through the client's
// translator.
func (f *FetchSpec[T]) execute(ctx context.Context, op string, visit func(T) (bool, error)) (summary Summary, err error) {
	s := f.spec
	if s.err != nil {
		return Summary{}, s.err
	}
	if f.err != nil {
		return Summary{}, f.err
	}
	c := s.client
	req := s.request()
	logger := c.logger.With("execution", uuid.NewString(), "database", req.database)

	holder, err := c.resolveHolder(ctx, req.database, req.registry)
	if err != nil {
		return Summary{}, c.translator.Translate(op, err)
	}
	completed := false
	defer func() {
		if ferr := holder.finish(ctx, !completed || err != nil); ferr != nil {
			if err == nil {
				err = ferr
			} else {
				logger.WarnContext(ctx, "release failed", "op", op, "error", ferr)
			}
		}
		if err != nil && !errors.Is(err, errAbandoned) {
			err = c.translator.Translate(op, err)
			logger.DebugContext(ctx, "execution failed", "op", op, "error", err)
		}
	}()

	cypher := req.cypher()
	logStatement(ctx, logger, cypher, req.params)

	result, err := holder.runner.Run(ctx, cypher, req.params.Get())
	if err != nil {
		return Summary{}, err
	}
	if visit != nil {
		for result.Next(ctx) {
			v, merr := f.mapping(result.Record())
			if merr != nil {
				return Summary{}, mappingError(op, merr)
			}
			more, verr := visit(v)
			if verr != nil {
				return Summary{}, verr
			}
			if !more {
				break
			}
		}
		if err := result.Err(); err != nil {
			return Summary{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	summary, err = result.Consume(ctx)
	if err != nil {
		return Summary{}, err
	}
	completed = true
	return processSummary(ctx, logger, summary), nil
}

func mappingError(op string, err error) error {
	var dae *DataAccessError
	if errors.As(err, &dae) {
		return err
	}
	return newError(KindMapping, op, err)
}
