package neoclient

import (
	"context"
	"log/slog"
)

// LevelTrace is below slog.LevelDebug and enables parameter logging.
const LevelTrace = slog.LevelDebug - 4

// logStatement logs the statement text at debug and its parameters at trace.
func logStatement(ctx context.Context, logger *slog.Logger, cypher string, params *ParameterSet) {
	if !logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	logger.DebugContext(ctx, "executing cypher", "cypher", cypher)
	if !params.IsEmpty() && logger.Enabled(ctx, LevelTrace) {
		logger.Log(ctx, LevelTrace, "with parameters", "parameters", params.String())
	}
}

// processSummary logs the notifications of a completed statement and
// returns the summary unchanged.
func processSummary(ctx context.Context, logger *slog.Logger, summary Summary) Summary {
	for _, n := range summary.Notifications {
		level := slog.LevelInfo
		if n.Severity == "WARNING" {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, n.Title,
			"code", n.Code,
			"description", n.Description,
			"line", n.Line,
			"column", n.Column,
			"cypher", summary.Query,
		)
	}
	return summary
}
