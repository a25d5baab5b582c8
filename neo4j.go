package neoclient

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	neo4jlog "github.com/neo4j/neo4j-go-driver/v5/neo4j/log"
)

// neo4jEngine adapts a neo4j.DriverWithContext to Engine.
type neo4jEngine struct {
	driver neo4j.DriverWithContext
}

// NewEngine wraps driver. The driver's connection pool is shared by every
// session the engine opens; closing the driver stays with the caller.
func NewEngine(driver neo4j.DriverWithContext) Engine {
	return &neo4jEngine{driver: driver}
}

func (e *neo4jEngine) NewSession(ctx context.Context, database string) (Session, error) {
	if e.driver == nil {
		return nil, fmt.Errorf("neo4j driver is not initialized")
	}
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	return &neo4jSession{session: session}, nil
}

type neo4jSession struct {
	session neo4j.SessionWithContext
}

func (s *neo4jSession) BeginTransaction(ctx context.Context) (Transaction, error) {
	tx, err := s.session.BeginTransaction(ctx)
	if err != nil {
		return nil, err
	}
	return &neo4jTransaction{tx: tx}, nil
}

func (s *neo4jSession) Close(ctx context.Context) error {
	return s.session.Close(ctx)
}

type neo4jTransaction struct {
	tx neo4j.ExplicitTransaction
}

func (t *neo4jTransaction) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	res, err := t.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return &neo4jResult{res: res}, nil
}

func (t *neo4jTransaction) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *neo4jTransaction) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

type neo4jResult struct {
	res neo4j.ResultWithContext
}

func (r *neo4jResult) Next(ctx context.Context) bool { return r.res.Next(ctx) }
func (r *neo4jResult) Record() *neo4j.Record { return r.res.Record() }
func (r *neo4jResult) Err() error { return r.res.Err() }

func (r *neo4jResult) Consume(ctx context.Context) (Summary, error) {
	summary, err := r.res.Consume(ctx)
	if err != nil {
		return Summary{}, err
	}
	return convertSummary(summary), nil
}

// convertSummary copies the parts of a driver summary callers look at.
func convertSummary(summary neo4j.ResultSummary) Summary {
	if summary == nil {
		return Summary{}
	}
	out := Summary{
		StatementType:  statementTypeName(summary.StatementType()),
		AvailableAfter: summary.ResultAvailableAfter(),
		ConsumedAfter:  summary.ResultConsumedAfter(),
	}
	if q := summary.Query(); q != nil {
		out.Query = q.Text()
		out.Parameters = q.Parameters()
	}
	if db := summary.Database(); db != nil {
		out.Database = db.Name()
	}
	if srv := summary.Server(); srv != nil {
		out.Server = srv.Address()
	}
	if c := summary.Counters(); c != nil {
		out.Counters = Counters{
			NodesCreated:         c.NodesCreated(),
			NodesDeleted:         c.NodesDeleted(),
			RelationshipsCreated: c.RelationshipsCreated(),
			RelationshipsDeleted: c.RelationshipsDeleted(),
			PropertiesSet:        c.PropertiesSet(),
			LabelsAdded:          c.LabelsAdded(),
			LabelsRemoved:        c.LabelsRemoved(),
			IndexesAdded:         c.IndexesAdded(),
			IndexesRemoved:       c.IndexesRemoved(),
			ConstraintsAdded:     c.ConstraintsAdded(),
			ConstraintsRemoved:   c.ConstraintsRemoved(),
			SystemUpdates:        c.SystemUpdates(),
		}
	}
	for _, n := range summary.Notifications() {
		note := Notification{
			Code:        n.Code(),
			Title:       n.Title(),
			Description: n.Description(),
			Severity:    n.RawSeverityLevel(),
		}
		if pos := n.Position(); pos != nil {
			note.Line = pos.Line()
			note.Column = pos.Column()
		}
		out.Notifications = append(out.Notifications, note)
	}
	return out
}

func statementTypeName(t neo4j.StatementType) string {
	switch t {
	case neo4j.StatementTypeReadOnly:
		return "r"
	case neo4j.StatementTypeReadWrite:
		return "rw"
	case neo4j.StatementTypeWriteOnly:
		return "w"
	case neo4j.StatementTypeSchemaWrite:
		return "s"
	default:
		return ""
	}
}

// driverLogger routes the driver's internal logging into slog.
type driverLogger struct {
	logger *slog.Logger
}

var _ neo4jlog.Logger = (*driverLogger)(nil)

func (l *driverLogger) Error(name, id string, err error) {
	l.logger.Error("neo4j driver error", "component", name, "id", id, "error", err)
}

func (l *driverLogger) Warnf(name, id string, msg string, args ...any) {
	l.logger.Warn(fmt.Sprintf(msg, args...), "component", name, "id", id)
}

func (l *driverLogger) Infof(name, id string, msg string, args ...any) {
	l.logger.Info(fmt.Sprintf(msg, args...), "component", name, "id", id)
}

func (l *driverLogger) Debugf(name, id string, msg string, args ...any) {
	if !l.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	l.logger.Debug(fmt.Sprintf(msg, args...), "component", name, "id", id)
}
