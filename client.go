package neoclient

import (
	"log/slog"
)

// Client builds and runs Cypher statements. Each execution runs in its own
// transaction unless a TransactionRegistry supplies one to join. A Client is
// safe for concurrent use; executions share nothing but the engine.
type Client struct {
	engine      Engine
	logger      *slog.Logger
	translator  *Translator
	conversions *Conversions
	registry    TransactionRegistry
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger statements and summaries are logged to.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTranslator replaces the error translation table.
func WithTranslator(t *Translator) Option {
	return func(c *Client) {
		if t != nil {
			c.translator = t
		}
	}
}

// WithConversions replaces the conversions used by FetchAs.
func WithConversions(conv *Conversions) Option {
	return func(c *Client) {
		if conv != nil {
			c.conversions = conv
		}
	}
}

// WithTransactions makes every statement of the client look up an open
// transaction in reg before starting its own.
func WithTransactions(reg TransactionRegistry) Option {
	return func(c *Client) {
		c.registry = reg
	}
}

// New returns a Client executing against engine.
func New(engine Engine, opts ...Option) *Client {
	c := &Client{
		engine:      engine,
		logger:      slog.Default(),
		translator:  NewTranslator(),
		conversions: NewConversions(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// withRegistry returns a copy of c bound to reg.
func (c *Client) withRegistry(reg TransactionRegistry) *Client {
	cp := *c
	cp.registry = reg
	return &cp
}

// Query starts a statement from literal Cypher text.
func (c *Client) Query(cypher string) *QuerySpec {
	return c.QueryFunc(func() string { return cypher })
}

// QueryFunc starts a statement whose text is produced by fn. fn is called at
// most once, when the statement is executed.
func (c *Client) QueryFunc(fn func() string) *QuerySpec {
	return &QuerySpec{
		client:   c,
		cypher:   fn,
		params:   NewParameterSet(),
		registry: c.registry,
	}
}
