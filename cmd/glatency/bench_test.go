package main

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sauvikbiswas-andromeda/neoclient"
)

// countingEngine answers every statement with an empty result whose
// counters report one created node per row of $rows.
type countingEngine struct {
	mu        sync.Mutex
	runs      []string
	commits   int
	rollbacks int
	failOn    string
}

func (e *countingEngine) NewSession(context.Context, string) (neoclient.Session, error) {
	return &countingSession{engine: e}, nil
}

type countingSession struct{ engine *countingEngine }

func (s *countingSession) BeginTransaction(context.Context) (neoclient.Transaction, error) {
	return &countingTx{engine: s.engine}, nil
}

func (s *countingSession) Close(context.Context) error { return nil }

type countingTx struct{ engine *countingEngine }

func (t *countingTx) Run(_ context.Context, cypher string, params map[string]any) (neoclient.Result, error) {
	t.engine.mu.Lock()
	defer t.engine.mu.Unlock()
	t.engine.runs = append(t.engine.runs, cypher)
	if cypher == t.engine.failOn {
		return nil, &neo4j.Neo4jError{Code: "Neo.TransientError.Transaction.DeadlockDetected", Msg: "deadlock"}
	}
	rows, _ := params["rows"].([]any)
	return &emptyResult{summary: neoclient.Summary{
		Counters: neoclient.Counters{NodesCreated: len(rows), PropertiesSet: len(rows)},
	}}, nil
}

func (t *countingTx) Commit(context.Context) error {
	t.engine.mu.Lock()
	t.engine.commits++
	t.engine.mu.Unlock()
	return nil
}

func (t *countingTx) Rollback(context.Context) error {
	t.engine.mu.Lock()
	t.engine.rollbacks++
	t.engine.mu.Unlock()
	return nil
}

type emptyResult struct{ summary neoclient.Summary }

func (r *emptyResult) Next(context.Context) bool { return false }

func (r *emptyResult) Record() *neo4j.Record { return nil }

func (r *emptyResult) Err() error { return nil }

func (r *emptyResult) Consume(context.Context) (neoclient.Summary, error) {
	return r.summary, nil
}

func newTestBench(engine neoclient.Engine) *bench {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &bench{
		client:      neoclient.New(engine, neoclient.WithLogger(logger)),
		database:    "bench",
		logger:      logger,
		recorder:    newRecorder(logger),
		rng:         rand.New(rand.NewSource(1)),
		concurrency: 3,
	}
}

func TestBench_Write(t *testing.T) {
	engine := &countingEngine{}
	b := newTestBench(engine)

	n, err := b.write(context.Background(), mergeUsersCypher, rowsFor(sequence(25), userRow), 10)

	require.NoError(t, err)
	assert.Equal(t, 25, n)
	assert.Len(t, engine.runs, 3)
	assert.Equal(t, 3, engine.commits)
	assert.Zero(t, engine.rollbacks)
}

func TestBench_WriteFailure(t *testing.T) {
	engine := &countingEngine{failOn: createUsersCypher}
	b := newTestBench(engine)

	_, err := b.write(context.Background(), createUsersCypher, rowsFor(sequence(4), userRow), 2)

	require.Error(t, err)
	assert.Equal(t, neoclient.KindTransient, neoclient.KindOf(err))
	assert.Zero(t, engine.commits)
	assert.Positive(t, engine.rollbacks)
}

func TestBench_Timed(t *testing.T) {
	b := newTestBench(&countingEngine{})
	key := metricKey{"batch create", 2, 0.5}

	n, err := b.timed(context.Background(), key, createUsersCypher, rowsFor(sequence(5), userRow), 2)

	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.Len(t, b.recorder.metrics[key], 1)
	assert.Equal(t, 3, b.recorder.metrics[key][0].statements)
}

func TestObjectsWritten(t *testing.T) {
	assert.Equal(t, 4, objectsWritten(neoclient.Counters{NodesCreated: 4}, 10))
	assert.Equal(t, 10, objectsWritten(neoclient.Counters{NodesCreated: 4, PropertiesSet: 30}, 10))
	assert.Zero(t, objectsWritten(neoclient.Counters{}, 10))
	assert.Equal(t, 3, objectsWritten(neoclient.Counters{RelationshipsCreated: 3}, 0))
}
