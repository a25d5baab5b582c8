package neoclient

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Engine opens sessions against a graph database. NewEngine adapts a
// neo4j.DriverWithContext; tests substitute their own implementation.
type Engine interface {
	// NewSession opens a session bound to database. An empty name selects
	// the server's default database.
	NewSession(ctx context.Context, database string) (Session, error)
}

// Session is a logical connection that can host one explicit transaction.
type Session interface {
	BeginTransaction(ctx context.Context) (Transaction, error)
	Close(ctx context.Context) error
}

// Runner executes a single statement and streams back its records.
type Runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (Result, error)
}

// Transaction is a Runner with an outcome.
type Transaction interface {
	Runner
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Result is a lazily fetched record stream. Next advances the stream, Record
// returns the current record and Err reports the error that stopped it.
// Consume discards the remaining records and returns the statement summary.
type Result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
	Consume(ctx context.Context) (Summary, error)
}

// Summary is the metadata the server reports once a statement completes.
type Summary struct {
	Query         string
	Parameters    map[string]any
	Database      string
	Server        string
	StatementType string
	Counters      Counters
	Notifications []Notification

	// AvailableAfter and ConsumedAfter are the server side timings of the
	// first record and of the full result.
	AvailableAfter time.Duration
	ConsumedAfter  time.Duration
}

// Counters holds the update statistics of a statement.
type Counters struct {
	NodesCreated         int
	NodesDeleted         int
	RelationshipsCreated int
	RelationshipsDeleted int
	PropertiesSet        int
	LabelsAdded          int
	LabelsRemoved        int
	IndexesAdded         int
	IndexesRemoved       int
	ConstraintsAdded     int
	ConstraintsRemoved   int
	SystemUpdates        int
}

// ContainsUpdates reports whether the statement changed any data.
func (c Counters) ContainsUpdates() bool {
	return c.NodesCreated > 0 || c.NodesDeleted > 0 ||
		c.RelationshipsCreated > 0 || c.RelationshipsDeleted > 0 ||
		c.PropertiesSet > 0 || c.LabelsAdded > 0 || c.LabelsRemoved > 0 ||
		c.IndexesAdded > 0 || c.IndexesRemoved > 0 ||
		c.ConstraintsAdded > 0 || c.ConstraintsRemoved > 0
}

// Notification is a server hint attached to a summary, e.g. a deprecation
// warning or a cartesian product in the plan.
type Notification struct {
	Code        string
	Title       string
	Description string
	Severity    string
	// Line and Column are 1-based; zero when the server gave no position.
	Line   int
	Column int
}
