package neoclient

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recovered(fn func()) (r any) {
	defer func() { r = recover() }()
	fn()
	return nil
}

func assertRolledBack(t *testing.T, engine *fakeEngine) {
	t.Helper()
	assert.Zero(t, engine.log.count("commit"))
	assert.Equal(t, 1, engine.log.count("rollback"))
	assert.Equal(t, 1, engine.log.count("close"))
}

func TestRelease_PanicRollsBack(t *testing.T) {
	ctx := context.Background()

	t.Run("all loop body", func(t *testing.T) {
		engine := newFakeEngine(records("n", int64(1), int64(2))...)
		c := New(engine)

		r := recovered(func() {
			for range FetchAs[int64](c.Query("UNWIND [1, 2] AS n RETURN n")).All(ctx) {
				panic("consumer failed")
			}
		})

		assert.Equal(t, "consumer failed", r)
		assertRolledBack(t, engine)
	})

	t.Run("delegate callback", func(t *testing.T) {
		engine := newFakeEngine()
		c := New(engine)

		r := recovered(func() {
			_, _ = Delegate(c, func(ctx context.Context, runner Runner) (int, error) {
				if _, err := runner.Run(ctx, "CREATE (n:User)", nil); err != nil {
					return 0, err
				}
				panic("callback failed")
			}).Run(ctx)
		})

		assert.Equal(t, "callback failed", r)
		assertRolledBack(t, engine)
	})

	t.Run("in transaction fn", func(t *testing.T) {
		engine := newFakeEngine()
		c := New(engine)

		r := recovered(func() {
			_ = c.InTransaction(ctx, "movies", func(ctx context.Context, tc *Client) error {
				if _, err := tc.Query("CREATE (n:User)").In("movies").Run(ctx); err != nil {
					return err
				}
				panic("fn failed")
			})
		})

		assert.Equal(t, "fn failed", r)
		assert.Equal(t, []string{"session", "begin", "run", "consume", "rollback", "close"}, engine.log.all())
	})
}

func TestRelease_CancelledMidStreamRollsBack(t *testing.T) {
	for _, buffered := range []bool{false, true} {
		name := "streaming"
		if buffered {
			name = "buffered"
		}
		t.Run(name, func(t *testing.T) {
			engine := newFakeEngine()
			engine.run = func(string, map[string]any) (*fakeResult, error) {
				return &fakeResult{records: records("n", int64(1), int64(2), int64(3)), failAt: -1, buffered: buffered}, nil
			}
			c := New(engine)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var got []int64
			var last error
			for v, err := range FetchAs[int64](c.Query("UNWIND [1, 2, 3] AS n RETURN n")).All(ctx) {
				if err != nil {
					last = err
					break
				}
				got = append(got, v)
				cancel()
			}

			require.ErrorIs(t, last, context.Canceled)
			if buffered {
				assert.Len(t, got, 3)
			} else {
				assert.Equal(t, []int64{1}, got)
			}
			assertRolledBack(t, engine)
			assert.Zero(t, engine.log.count("consume"))
		})
	}
}

func TestMappedBy_NilFunctionLeavesSpecUsable(t *testing.T) {
	ctx := context.Background()
	engine := newFakeEngine(record("n", int64(1)))
	spec := New(engine).Query("RETURN 1 AS n")

	_, err := MappedBy[int](spec, nil).List(ctx)
	assert.Equal(t, KindConfiguration, KindOf(err))
	assert.NoError(t, spec.Err())
	assert.Zero(t, engine.sessionCount())

	rows, err := spec.Fetch().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"n": int64(1)}}, rows)

	_, err = spec.Run(ctx)
	assert.NoError(t, err)

	var nilFn func(*neo4j.Record) (string, error)
	_, _, err = MappedBy(spec, nilFn).One(ctx)
	assert.Equal(t, KindConfiguration, KindOf(err))
}
