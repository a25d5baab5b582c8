package neoclient

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// TransactionRegistry looks up a transaction that is already open for a
// database. Statements resolved against a registered transaction join it
// instead of opening their own.
type TransactionRegistry interface {
	Transaction(database string) (Transaction, bool)
}

// Transactions is a TransactionRegistry keyed by database name. The empty
// name stands for the default database.
type Transactions map[string]Transaction

func (t Transactions) Transaction(database string) (Transaction, bool) {
	tx, ok := t[database]
	return tx, ok
}

// resolveHolder joins the transaction reg holds for database or, when there
// is none, opens a session with a fresh transaction. The session is closed
// once the transaction is committed or rolled back.
func (c *Client) resolveHolder(ctx context.Context, database string, reg TransactionRegistry) (*runnerHolder, error) {
	if reg != nil {
		if tx, ok := reg.Transaction(database); ok {
			return joinedHolder(tx), nil
		}
	}

	session, err := c.engine.NewSession(ctx, database)
	if err != nil {
		return nil, err
	}
	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		if cerr := session.Close(context.WithoutCancel(ctx)); cerr != nil {
			c.logger.Warn("failed to close session", "database", database, "error", cerr)
		}
		return nil, err
	}

	end := func(outcome func(context.Context) error) func(context.Context) error {
		return func(ctx context.Context) error {
			err := outcome(ctx)
			if cerr := session.Close(ctx); cerr != nil && err == nil {
				err = cerr
			}
			return err
		}
	}
	return &runnerHolder{
		runner:   tx,
		commit:   end(tx.Commit),
		rollback: end(tx.Rollback),
	}, nil
}

// Tx is an explicit transaction on one database. It is a
// TransactionRegistry for that database, so every statement run through a
// client bound to it joins the transaction. Only Commit and Rollback end it.
type Tx struct {
	database string
	session  Session
	tx       Transaction
	logger   *slog.Logger
	done     atomic.Bool
}

// BeginTransaction opens a session on database and starts an explicit
// transaction on it. An empty database selects the default database.
func (c *Client) BeginTransaction(ctx context.Context, database string) (*Tx, error) {
	if database != "" {
		if err := verifyDatabaseName(database); err != nil {
			return nil, err
		}
	}
	session, err := c.engine.NewSession(ctx, database)
	if err != nil {
		return nil, c.translator.Translate("begin transaction", err)
	}
	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		if cerr := session.Close(context.WithoutCancel(ctx)); cerr != nil {
			c.logger.Warn("failed to close session", "database", database, "error", cerr)
		}
		return nil, c.translator.Translate("begin transaction", err)
	}
	return &Tx{database: database, session: session, tx: tx, logger: c.logger}, nil
}

func (t *Tx) Transaction(database string) (Transaction, bool) {
	if database != t.database || t.done.Load() {
		return nil, false
	}
	return t.tx, true
}

// Database returns the database the transaction runs on.
func (t *Tx) Database() string {
	return t.database
}

// Commit commits the transaction and closes its session.
func (t *Tx) Commit(ctx context.Context) error {
	return t.end(ctx, "commit", t.tx.Commit)
}

// Rollback rolls the transaction back and closes its session.
func (t *Tx) Rollback(ctx context.Context) error {
	return t.end(ctx, "rollback", t.tx.Rollback)
}

func (t *Tx) end(ctx context.Context, op string, outcome func(context.Context) error) error {
	if !t.done.CompareAndSwap(false, true) {
		return newError(KindInvalidUsage, op, fmt.Errorf("transaction on %q already ended", t.database))
	}
	err := outcome(ctx)
	if cerr := t.session.Close(context.WithoutCancel(ctx)); cerr != nil {
		if err == nil {
			err = cerr
		} else {
			t.logger.Warn("failed to close session", "database", t.database, "error", cerr)
		}
	}
	return err
}

// InTransaction runs fn with a client whose statements on database all join
// one explicit transaction. The transaction commits when fn returns nil and
// rolls back otherwise, including when fn panics.
func (c *Client) InTransaction(ctx context.Context, database string, fn func(ctx context.Context, c *Client) error) error {
	tx, err := c.BeginTransaction(ctx, database)
	if err != nil {
		return err
	}
	committing := false
	defer func() {
		if committing {
			return
		}
		if rerr := tx.Rollback(context.WithoutCancel(ctx)); rerr != nil {
			c.logger.Warn("rollback failed", "database", database, "error", rerr)
		}
	}()

	if err := fn(ctx, c.withRegistry(tx)); err != nil {
		return err
	}
	committing = true
	return c.translator.Translate("commit", tx.Commit(ctx))
}
