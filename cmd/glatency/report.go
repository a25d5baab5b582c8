package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

type metricKey struct {
	name            string
	batchSize       int
	contentionRatio float64
}

type measurement struct {
	objects             int
	statements          int
	totalTime           time.Duration
	effectiveThroughput float64
}

// recorder collects one measurement per timed phase and run.
type recorder struct {
	logger *slog.Logger

	mu      sync.Mutex
	keys    []metricKey
	metrics map[metricKey][]measurement
}

func newRecorder(logger *slog.Logger) *recorder {
	return &recorder{logger: logger, metrics: make(map[metricKey][]measurement)}
}

// observe records a phase that started at start and wrote objects through
// statements.
func (r *recorder) observe(key metricKey, start time.Time, objects, statements int) {
	elapsed := time.Since(start)
	m := measurement{
		objects:    objects,
		statements: statements,
		totalTime:  elapsed,
	}
	if elapsed > 0 {
		m.effectiveThroughput = float64(objects) / elapsed.Seconds()
	}
	r.logger.Info(key.name,
		"batch_size", key.batchSize,
		"contention_ratio", key.contentionRatio,
		"total_time", elapsed,
		"objects", objects,
		"statements", statements,
		"effective_throughput", fmt.Sprintf("%.2f", m.effectiveThroughput),
	)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.metrics[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.metrics[key] = append(r.metrics[key], m)
}

var reportHeader = []string{"Name", "Batch Size", "Contention Ratio", "Objects", "Statements", "Total Time (ms)", "Effective Throughput"}

// writeCSV writes every measurement in the order phases were first seen.
func (r *recorder) writeCSV(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := csv.NewWriter(w)
	if err := report.Write(reportHeader); err != nil {
		return fmt.Errorf("error writing record to csv: %w", err)
	}
	for _, key := range r.keys {
		for _, m := range r.metrics[key] {
			record := []string{
				key.name,
				fmt.Sprintf("%d", key.batchSize),
				fmt.Sprintf("%.2f", key.contentionRatio),
				fmt.Sprintf("%d", m.objects),
				fmt.Sprintf("%d", m.statements),
				fmt.Sprintf("%d", m.totalTime.Milliseconds()),
				fmt.Sprintf("%.2f", m.effectiveThroughput),
			}
			if err := report.Write(record); err != nil {
				return fmt.Errorf("error writing record to csv: %w", err)
			}
		}
	}
	report.Flush()
	return report.Error()
}

type phaseSummary struct {
	key              metricKey
	runs             int
	medianTime       float64
	p95Time          float64
	medianThroughput float64
	meanThroughput   float64
}

// summarize aggregates the runs of every phase.
func (r *recorder) summarize() ([]phaseSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]phaseSummary, 0, len(r.keys))
	for _, key := range r.keys {
		metric := r.metrics[key]
		totalTimes := make([]float64, 0, len(metric))
		throughputs := make([]float64, 0, len(metric))
		for _, m := range metric {
			totalTimes = append(totalTimes, float64(m.totalTime.Milliseconds()))
			throughputs = append(throughputs, m.effectiveThroughput)
		}

		s := phaseSummary{key: key, runs: len(metric)}
		var err error
		if s.medianTime, err = stats.Median(totalTimes); err != nil {
			return nil, fmt.Errorf("failed to calculate median of total time: %w", err)
		}
		if s.p95Time, err = stats.Percentile(totalTimes, 95); err != nil {
			return nil, fmt.Errorf("failed to calculate p95 of total time: %w", err)
		}
		if s.medianThroughput, err = stats.Median(throughputs); err != nil {
			return nil, fmt.Errorf("failed to calculate median of effective throughput: %w", err)
		}
		if s.meanThroughput, err = stats.Mean(throughputs); err != nil {
			return nil, fmt.Errorf("failed to calculate mean of effective throughput: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *recorder) logSummary() error {
	summaries, err := r.summarize()
	if err != nil {
		return err
	}
	for _, s := range summaries {
		r.logger.Info("summary",
			"name", s.key.name,
			"batch_size", s.key.batchSize,
			"contention_ratio", s.key.contentionRatio,
			"runs", s.runs,
			"total_time_median_ms", s.medianTime,
			"total_time_p95_ms", s.p95Time,
			"effective_throughput_median", fmt.Sprintf("%.2f", s.medianThroughput),
			"effective_throughput_mean", fmt.Sprintf("%.2f", s.meanThroughput),
		)
	}
	return nil
}
