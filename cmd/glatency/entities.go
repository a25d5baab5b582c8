package main

import (
	"fmt"
	"time"
)

// Statements are batched: each one unwinds $rows, a list of parameter maps.
const (
	createUsersCypher    = "UNWIND $rows AS row CREATE (n:User{`~id`: row._id}) SET n += {email: row.email, id: row.id, name: row.name, tenantId: row.tenantId, updatedAt: row.updatedAt, isShellEntity: (coalesce(n.isShellEntity, true) AND false), deletedAt: null}"
	mergeUsersCypher     = "UNWIND $rows AS row MERGE (n:User{`~id`: row._id}) SET n += {email: row.email, id: row.id, name: row.name, tenantId: row.tenantId, updatedAt: row.updatedAt, isShellEntity: (coalesce(n.isShellEntity, true) AND false), deletedAt: null}"
	createGroupsCypher   = "UNWIND $rows AS row CREATE (n:Group{`~id`: row._id}) SET n += {id: row.id, name: row.name, tenantId: row.tenantId, updatedAt: row.updatedAt, isShellEntity: (coalesce(n.isShellEntity, true) AND false), deletedAt: null}"
	createBindingsCypher = "UNWIND $rows AS row MATCH (u:User{`~id`: row.user_id}), (g:Group{`~id`: row.group_id}) CREATE (g)-[r:GROUP_USER_BINDING{`~id`: row.user_id + \".\" + row.group_id}]->(u)"
	updateUsersCypher    = "UNWIND $rows AS row MATCH (n:User{`~id`: row._id}) SET n += {name: row.name + \"-Altered\", updatedAt: row.updatedAt}"
	updateGroupsCypher   = "UNWIND $rows AS row MATCH (n:Group{`~id`: row._id}) SET n += {name: row.name + \"-Altered\", updatedAt: row.updatedAt}"

	countUsersCypher = "MATCH (n:User) RETURN count(n)"
)

func userRow(id int) map[string]any {
	return map[string]any{
		"_id":       fmt.Sprintf("user-%d", id),
		"id":        fmt.Sprintf("user-%d", id),
		"email":     fmt.Sprintf("user-%d@gmail.com", id),
		"name":      fmt.Sprintf("User-%d", id),
		"tenantId":  "tenant-X",
		"updatedAt": time.Now().Unix(),
	}
}

func groupRow(id int) map[string]any {
	return map[string]any{
		"_id":       fmt.Sprintf("group-%d", id),
		"id":        fmt.Sprintf("group-%d", id),
		"name":      fmt.Sprintf("Group-%d", id),
		"tenantId":  "tenant-X",
		"updatedAt": time.Now().Unix(),
	}
}

func bindingRow(user, group int) map[string]any {
	return map[string]any{
		"user_id":  fmt.Sprintf("user-%d", user),
		"group_id": fmt.Sprintf("group-%d", group),
	}
}

func rowsFor(ids []int, row func(int) map[string]any) []any {
	rows := make([]any, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, row(id))
	}
	return rows
}

func sequence(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// chunk splits rows into batches of at most size rows.
func chunk(rows []any, size int) [][]any {
	if size <= 0 {
		size = 1
	}
	batches := make([][]any, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		batches = append(batches, rows[start:end])
	}
	return batches
}
