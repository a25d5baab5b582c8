package neoclient

import (
	"context"
	"fmt"
)

// Delegation runs caller code against the runner of a resolved scope.
type Delegation[T any] struct {
	client   *Client
	callback func(ctx context.Context, runner Runner) (T, error)
	database string
	registry TransactionRegistry
	err      error
}

// Delegate prepares callback to run inside a transaction scope. The scope
// commits when callback returns nil and rolls back otherwise.
func Delegate[T any](c *Client, callback func(ctx context.Context, runner Runner) (T, error)) *Delegation[T] {
	d := &Delegation[T]{client: c, callback: callback, registry: c.registry}
	if callback == nil {
		d.err = newError(KindConfiguration, "delegate", fmt.Errorf("callback is required"))
	}
	return d
}

// In selects the target database. See QuerySpec.In.
func (d *Delegation[T]) In(database string) *Delegation[T] {
	if err := verifyDatabaseName(database); err != nil {
		if d.err == nil {
			d.err = err
		}
		return d
	}
	d.database = database
	return d
}

// WithTransactions overrides the client's registry for this delegation.
func (d *Delegation[T]) WithTransactions(reg TransactionRegistry) *Delegation[T] {
	d.registry = reg
	return d
}

// Err returns the first error recorded while building the delegation.
func (d *Delegation[T]) Err() error {
	return d.err
}

// Run resolves the scope, calls the callback and releases the scope. A
// panicking callback rolls the scope back before the panic propagates.
func (d *Delegation[T]) Run(ctx context.Context) (out T, err error) {
	if d.err != nil {
		return out, d.err
	}
	c := d.client
	holder, err := c.resolveHolder(ctx, d.database, d.registry)
	if err != nil {
		return out, c.translator.Translate("delegate", err)
	}
	completed := false
	defer func() {
		if ferr := holder.finish(ctx, !completed || err != nil); ferr != nil {
			if err == nil {
				err = ferr
			} else {
				c.logger.WarnContext(ctx, "release failed", "op", "delegate", "error", ferr)
			}
		}
		if err != nil {
			var zero T
			out, err = zero, c.translator.Translate("delegate", err)
		}
	}()
	out, err = d.callback(ctx, holder.runner)
	completed = true
	return out, err
}
