package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var queryFlags struct {
	database string
	params   []string
}

var queryCmd = &cobra.Command{
	Use:   "query CYPHER",
	Short: "Run a Cypher statement and print its records",
	Long: `Run a Cypher statement in its own transaction and print each record as it
arrives. Parameters are given as --param name=value; values that parse as
integers, floats or booleans are bound as such, everything else as strings.`,
	Example: `  glatency query 'MATCH (u:User) RETURN u.name AS name LIMIT 5'
  glatency query --db movies --param id=user-1 'MATCH (u:User {id: $id}) RETURN u'`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryFlags.database, "db", "", "Target database (default: config database or server default)")
	queryCmd.Flags().StringArrayVar(&queryFlags.params, "param", nil, "Statement parameter as name=value (repeatable)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	params, err := parseParams(queryFlags.params)
	if err != nil {
		return err
	}

	s, err := connect(ctx)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	spec := s.client.Query(args[0]).BindAll(params)
	database := queryFlags.database
	if database == "" {
		database = s.cfg.Database
	}
	if database != "" {
		spec = spec.In(database)
	}

	out := cmd.OutOrStdout()
	rows := 0
	for row, err := range spec.Fetch().All(ctx) {
		if err != nil {
			return fmt.Errorf("query failed after %d records: %w", rows, err)
		}
		fmt.Fprintln(out, formatRow(row))
		rows++
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d records\n", rows)
	return nil
}

func parseParams(raw []string) (map[string]any, error) {
	params := make(map[string]any, len(raw))
	for _, p := range raw {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", p)
		}
		params[name] = parseValue(value)
	}
	return params, nil
}

func parseValue(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

// formatRow prints columns in name order so output is stable.
func formatRow(row map[string]any) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, row[k]))
	}
	return strings.Join(parts, "\t")
}
