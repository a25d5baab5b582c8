package neoclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// eventLog records the order of engine interactions and deliveries.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	copy(out, l.events)
	return out
}

func (l *eventLog) count(event string) int {
	n := 0
	for _, e := range l.all() {
		if e == event {
			n++
		}
	}
	return n
}

// fakeEngine hands out sessions whose transactions answer Run with run.
type fakeEngine struct {
	log *eventLog
	run func(cypher string, params map[string]any) (*fakeResult, error)

	newSessionErr error
	beginErr      error
	commitErr     error

	mu        sync.Mutex
	databases []string
	runs      []fakeRun
}

type fakeRun struct {
	cypher string
	params map[string]any
}

func newFakeEngine(records ...*neo4j.Record) *fakeEngine {
	e := &fakeEngine{log: &eventLog{}}
	e.run = func(string, map[string]any) (*fakeResult, error) {
		return &fakeResult{records: records, failAt: -1}, nil
	}
	return e
}

func (e *fakeEngine) NewSession(_ context.Context, database string) (Session, error) {
	if e.newSessionErr != nil {
		return nil, e.newSessionErr
	}
	e.mu.Lock()
	e.databases = append(e.databases, database)
	e.mu.Unlock()
	e.log.add("session")
	return &fakeSession{engine: e}, nil
}

func (e *fakeEngine) sessionCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.databases)
}

func (e *fakeEngine) lastRun() fakeRun {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runs[len(e.runs)-1]
}

type fakeSession struct {
	engine *fakeEngine
}

func (s *fakeSession) BeginTransaction(context.Context) (Transaction, error) {
	if s.engine.beginErr != nil {
		return nil, s.engine.beginErr
	}
	s.engine.log.add("begin")
	return &fakeTx{engine: s.engine, log: s.engine.log, commitErr: s.engine.commitErr}, nil
}

func (s *fakeSession) Close(context.Context) error {
	s.engine.log.add("close")
	return nil
}

type fakeTx struct {
	engine    *fakeEngine
	log       *eventLog
	commitErr error

	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (t *fakeTx) Run(_ context.Context, cypher string, params map[string]any) (Result, error) {
	t.log.add("run")
	if t.engine == nil {
		return &fakeResult{failAt: -1, log: t.log}, nil
	}
	t.engine.mu.Lock()
	t.engine.runs = append(t.engine.runs, fakeRun{cypher: cypher, params: params})
	t.engine.mu.Unlock()
	res, err := t.engine.run(cypher, params)
	if err != nil {
		return nil, err
	}
	res.log = t.log
	return res, nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.mu.Lock()
	t.commits++
	t.mu.Unlock()
	t.log.add("commit")
	return t.commitErr
}

func (t *fakeTx) Rollback(context.Context) error {
	t.mu.Lock()
	t.rollbacks++
	t.mu.Unlock()
	t.log.add("rollback")
	return nil
}

// fakeResult streams records and fails at index failAt when it is >= 0.
// Next stops with ctx's error once ctx is done, unless buffered is set:
// buffered results keep serving records already fetched, as the driver does.
type fakeResult struct {
	records    []*neo4j.Record
	failAt     int
	failErr    error
	summary    Summary
	consumeErr error
	buffered   bool
	log        *eventLog

	pos     int
	current *neo4j.Record
	err     error
}

func (r *fakeResult) Next(ctx context.Context) bool {
	if err := ctx.Err(); err != nil && !r.buffered {
		r.err = err
		r.current = nil
		return false
	}
	if r.failAt >= 0 && r.pos == r.failAt {
		r.err = r.failErr
		r.current = nil
		return false
	}
	if r.pos >= len(r.records) {
		r.current = nil
		return false
	}
	r.current = r.records[r.pos]
	r.pos++
	r.log.add("next")
	return true
}

func (r *fakeResult) Record() *neo4j.Record { return r.current }

func (r *fakeResult) Err() error { return r.err }

func (r *fakeResult) Consume(context.Context) (Summary, error) {
	r.log.add("consume")
	if r.consumeErr != nil {
		return Summary{}, r.consumeErr
	}
	return r.summary, nil
}

func record(key string, value any) *neo4j.Record {
	return &neo4j.Record{Keys: []string{key}, Values: []any{value}}
}

func records(key string, values ...any) []*neo4j.Record {
	out := make([]*neo4j.Record, 0, len(values))
	for _, v := range values {
		out = append(out, record(key, v))
	}
	return out
}
