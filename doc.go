/*
Package neoclient runs Cypher statements against Neo4j with one transaction
per execution and maps the records into Go values.

# Overview

A statement is built from a Client, bound to parameters and an optional
target database, and finished with a terminal operation:

	c := neoclient.New(neoclient.NewEngine(driver))

	name, ok, err := neoclient.FetchAs[string](
		c.Query("MATCH (u:User {id: $id}) RETURN u.name").In("neo4j").Bind("id", "user-1"),
	).One(ctx)

	for row, err := range c.Query("MATCH (u:User) RETURN u.id AS id, u.name AS name").Fetch().All(ctx) {
		if err != nil {
			return err
		}
		fmt.Println(row["id"], row["name"])
	}

	summary, err := c.Query("MATCH (n) DETACH DELETE n").Run(ctx)

Terminal operations:

  - One returns the only record; more than one is an error of KindCardinality.
  - First returns the first record and discards the rest.
  - All returns an iter.Seq2 that fetches and maps records as the caller ranges.
  - Run discards records and returns the Summary.
  - Delegate runs arbitrary code against the transaction's Runner.

# Transactions

Every execution resolves a scope before it touches the engine. When the
client (WithTransactions) or the statement (QuerySpec.WithTransactions) has a
TransactionRegistry holding an open transaction for the target database, the
statement joins it and leaves commit and rollback to its owner. Otherwise a
session is opened, a transaction begun, and both end with the execution:
commit after the last record was handed to the caller, rollback on any
failure, on a cancelled context, on a panic or when the caller breaks out of
an All loop. Exactly one of the two
happens, and it happens before the terminal operation returns.

Client.InTransaction and Client.BeginTransaction open explicit transactions
that several statements can join.

# Mapping

Fetch maps records to map[string]any. FetchAs converts single column records
through Conversions; a null value is ErrNoValue. MappedBy takes any function
of the record and rejects nil results the same way.

# Errors

Building errors, such as a blank database name, are kept on the QuerySpec and
returned by every terminal operation without contacting the engine. Engine
errors pass through a Translator that classifies Neo4j status codes into a
*DataAccessError; unrecognised errors are returned unchanged.
*/
package neoclient
