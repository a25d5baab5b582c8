package neoclient

import (
	"errors"
	"fmt"
)

// Kind classifies a data access failure.
type Kind string

const (
	// Request errors, raised by the client itself.
	KindConfiguration Kind = "CONFIGURATION"
	KindCardinality   Kind = "INCORRECT_RESULT_SIZE"
	KindMapping       Kind = "MAPPING"

	// Engine errors, assigned by the translation table.
	KindDataIntegrityViolation Kind = "DATA_INTEGRITY_VIOLATION"
	KindInvalidQuery           Kind = "INVALID_QUERY"
	KindTransient              Kind = "TRANSIENT"
	KindResourceFailure        Kind = "RESOURCE_FAILURE"
	KindPermissionDenied       Kind = "PERMISSION_DENIED"
	KindInvalidUsage           Kind = "INVALID_USAGE"
	KindUncategorized          Kind = "UNCATEGORIZED"
)

var (
	// ErrInvalidDatabaseName is returned when a blank database name is selected.
	ErrInvalidDatabaseName = errors.New("neoclient: database name must not be blank")

	// ErrIncorrectResultSize is returned by One when the statement yields more
	// than one record.
	ErrIncorrectResultSize = errors.New("neoclient: incorrect result size")

	// ErrNoValue is returned when a mapping produces no value.
	ErrNoValue = errors.New("neoclient: mapping produced no value")

	// ErrNoConverter is returned when no conversion exists between a record
	// value and the requested type.
	ErrNoConverter = errors.New("neoclient: no converter found")

	// ErrTooManyColumns is returned by single value mapping for records with
	// more than one column.
	ErrTooManyColumns = errors.New("neoclient: record has more than one value")
)

// DataAccessError is the generic failure of an execution. Err holds the
// cause: a sentinel from this package or the original engine error.
type DataAccessError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *DataAccessError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// Is matches another *DataAccessError by Kind, so that
// errors.Is(err, &DataAccessError{Kind: KindTransient}) works.
func (e *DataAccessError) Is(target error) bool {
	t, ok := target.(*DataAccessError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

func newError(kind Kind, op string, err error) *DataAccessError {
	return &DataAccessError{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the first DataAccessError in err's chain, or ""
// when there is none.
func KindOf(err error) Kind {
	var dae *DataAccessError
	if errors.As(err, &dae) {
		return dae.Kind
	}
	return ""
}
