package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/sauvikbiswas-andromeda/neoclient"
)

var (
	constrainedNodes         = []string{"User", "Group"}
	constrainedRelationships = []string{"GROUP_USER_BINDING"}
)

func constraintStatements() []string {
	stmts := make([]string, 0, len(constrainedNodes)+len(constrainedRelationships))
	for _, node := range constrainedNodes {
		stmts = append(stmts, fmt.Sprintf("CREATE CONSTRAINT %s_id IF NOT EXISTS FOR (n:%s) REQUIRE n.`~id` IS UNIQUE", strings.ToLower(node), node))
	}
	for _, rel := range constrainedRelationships {
		stmts = append(stmts, fmt.Sprintf("CREATE CONSTRAINT %s_id IF NOT EXISTS FOR ()-[r:%s]-() REQUIRE r.`~id` IS UNIQUE", strings.ToLower(rel), rel))
	}
	return stmts
}

// createConstraints creates the ~id uniqueness constraints in one transaction.
func (b *bench) createConstraints(ctx context.Context) error {
	return b.client.InTransaction(ctx, b.database, func(ctx context.Context, tc *neoclient.Client) error {
		for _, stmt := range constraintStatements() {
			if _, err := statement(tc, b.database, stmt).Run(ctx); err != nil {
				return fmt.Errorf("failed to create constraint: %w", err)
			}
		}
		return nil
	})
}

func (b *bench) cleanUpGraph(ctx context.Context) error {
	summary, err := statement(b.client, b.database, "MATCH (n) DETACH DELETE n").Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to clean up graph: %w", err)
	}
	b.logger.Debug("graph cleaned", "nodes_deleted", summary.Counters.NodesDeleted)
	return nil
}

// statement starts cypher on database, or on the default database when
// database is empty.
func statement(c *neoclient.Client, database, cypher string) *neoclient.QuerySpec {
	spec := c.Query(cypher)
	if database != "" {
		spec = spec.In(database)
	}
	return spec
}
