package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sauvikbiswas-andromeda/neoclient"
)

var benchFlags struct {
	totalObjects     int
	runs             int
	concurrency      int
	batches          []int
	contentionRatios []float64
	seed             int64
	out              string
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure batched write latency under contention",
	Long: `Measure the latency of batched User and Group writes. Every batch is one
statement in its own transaction; batches run concurrently.

For each batch size and contention ratio the benchmark runs two experiments:
  - merge: pre-create the contended share of users, then MERGE all of them
  - update: create users and groups, then bind them while concurrently
    updating the contended share of both

Measurements are written to --out as CSV and summarised in the log.`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	f := benchCmd.Flags()
	f.IntVar(&benchFlags.totalObjects, "total", 10000, "Users written by the merge experiment")
	f.IntVar(&benchFlags.runs, "runs", 10, "Runs per batch size and contention ratio")
	f.IntVar(&benchFlags.concurrency, "concurrency", 4, "Batches executed concurrently")
	f.IntSliceVar(&benchFlags.batches, "batch", []int{1, 100, 500, 1000, 5000}, "Batch sizes")
	f.Float64SliceVar(&benchFlags.contentionRatios, "contention", []float64{0.0, 0.01, 0.1, 0.5, 0.9, 0.99}, "Contention ratios")
	f.Int64Var(&benchFlags.seed, "seed", 0, "Random seed (default: current time)")
	f.StringVar(&benchFlags.out, "out", "results.csv", "CSV report file")
}

type bench struct {
	client      *neoclient.Client
	database    string
	logger      *slog.Logger
	recorder    *recorder
	rng         *rand.Rand
	concurrency int
}

func runBench(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if benchFlags.totalObjects <= 0 || benchFlags.runs <= 0 || benchFlags.concurrency <= 0 {
		return fmt.Errorf("--total, --runs and --concurrency must be positive")
	}

	reportFile, err := os.Create(benchFlags.out)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer reportFile.Close()

	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	seed := benchFlags.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	b := &bench{
		client:      s.client,
		database:    s.cfg.Database,
		logger:      s.logger,
		recorder:    newRecorder(s.logger),
		rng:         rand.New(rand.NewSource(seed)),
		concurrency: benchFlags.concurrency,
	}
	b.logger.Info("starting benchmark", "server", s.cfg.Server(), "database", b.database, "seed", seed)

	if err := b.cleanUpGraph(ctx); err != nil {
		return err
	}
	if err := b.createConstraints(ctx); err != nil {
		return err
	}

	for _, batchSize := range benchFlags.batches {
		for _, contentionRatio := range benchFlags.contentionRatios {
			for run := 0; run < benchFlags.runs; run++ {
				b.logger.Info("run", "batch_size", batchSize, "contention_ratio", contentionRatio, "run", run+1)
				if err := b.mergeExperiment(ctx, benchFlags.totalObjects, batchSize, contentionRatio); err != nil {
					return err
				}
				if err := b.updateExperiment(ctx, benchFlags.totalObjects, batchSize, contentionRatio); err != nil {
					return err
				}
			}
		}
	}

	if err := b.recorder.writeCSV(reportFile); err != nil {
		return err
	}
	if err := b.recorder.logSummary(); err != nil {
		return err
	}
	b.logger.Info("successfully executed all queries", "report", benchFlags.out)
	return nil
}

// mergeExperiment pre-creates the contended share of users and then merges
// every user, so that contentionRatio of the merges hit existing nodes.
func (b *bench) mergeExperiment(ctx context.Context, totalObjects, batchSize int, contentionRatio float64) error {
	preCreated := uniqueRandomInts(b.rng, 0, totalObjects, int(contentionRatio*float64(totalObjects)))

	if _, err := b.timed(ctx, metricKey{"batch create", batchSize, contentionRatio},
		createUsersCypher, rowsFor(preCreated, userRow), batchSize); err != nil {
		return err
	}
	if _, err := b.timed(ctx, metricKey{"batch merge", batchSize, contentionRatio},
		mergeUsersCypher, rowsFor(sequence(totalObjects), userRow), batchSize); err != nil {
		return err
	}

	users, _, err := neoclient.FetchAs[int64](statement(b.client, b.database, countUsersCypher)).One(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if users != int64(totalObjects) {
		b.logger.Warn("unexpected user count after merge", "want", totalObjects, "got", users)
	}
	return b.cleanUpGraph(ctx)
}

// updateExperiment creates sqrt(totalObjects) users and groups, then binds
// every user to every group while the contended share of both is updated.
func (b *bench) updateExperiment(ctx context.Context, totalObjects, batchSize int, contentionRatio float64) error {
	side := int(math.Sqrt(float64(totalObjects)))
	ids := sequence(side)

	if _, err := b.write(ctx, createUsersCypher, rowsFor(ids, userRow), batchSize); err != nil {
		return err
	}
	if _, err := b.write(ctx, createGroupsCypher, rowsFor(ids, groupRow), batchSize); err != nil {
		return err
	}

	bindings := make([]any, 0, side*side)
	for _, u := range ids {
		for _, g := range ids {
			bindings = append(bindings, bindingRow(u, g))
		}
	}
	contended := uniqueRandomInts(b.rng, 0, side, int(float64(side)*contentionRatio))

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	st := time.Now()
	for _, phase := range []struct {
		cypher string
		rows   []any
	}{
		{createBindingsCypher, bindings},
		{updateUsersCypher, rowsFor(contended, userRow)},
		{updateGroupsCypher, rowsFor(contended, groupRow)},
	} {
		g.Go(func() error {
			n, err := b.write(gctx, phase.cypher, phase.rows, batchSize)
			written.Add(int64(n))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to execute transactions: %w", err)
	}
	b.recorder.observe(metricKey{"update operation", batchSize, contentionRatio}, st,
		int(written.Load()), len(chunk(bindings, batchSize)))

	return b.cleanUpGraph(ctx)
}

// timed writes rows and records the phase under key.
func (b *bench) timed(ctx context.Context, key metricKey, cypher string, rows []any, batchSize int) (int, error) {
	st := time.Now()
	n, err := b.write(ctx, cypher, rows, batchSize)
	if err != nil {
		return n, err
	}
	b.recorder.observe(key, st, n, len(chunk(rows, batchSize)))
	return n, nil
}

// write runs cypher once per batch of rows, at most b.concurrency batches at
// a time, and returns the number of nodes and relationships created or
// updated.
func (b *bench) write(ctx context.Context, cypher string, rows []any, batchSize int) (int, error) {
	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, batch := range chunk(rows, batchSize) {
		g.Go(func() error {
			summary, err := statement(b.client, b.database, cypher).Bind("rows", batch).Run(gctx)
			if err != nil {
				return fmt.Errorf("failed to write batch of %d: %w", len(batch), err)
			}
			written.Add(int64(objectsWritten(summary.Counters, len(batch))))
			return nil
		})
	}
	err := g.Wait()
	return int(written.Load()), err
}

// objectsWritten counts created entities, or every row of the batch when
// the statement set properties on them.
func objectsWritten(c neoclient.Counters, rows int) int {
	written := c.NodesCreated + c.RelationshipsCreated
	if c.PropertiesSet > 0 {
		written = max(written, rows)
	}
	return written
}
