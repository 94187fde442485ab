package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// Migrate aplica el esquema embebido. Es idempotente.
func Migrate(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schema); err != nil {
		return wrapErr("aplicar esquema", err)
	}
	return nil
}

// Schema devuelve el DDL embebido (cmd/seed lo antepone al seed generado).
func Schema() string {
	return schema
}

// tables en orden de borrado seguro (tests).
var tables = []string{
	"receipt_draft_lines", "receipt_drafts", "document_links", "stock_ledger",
	"document_lines", "documents", "document_sequences", "users", "branches",
}

// Truncate vacía todas las tablas del motor. Solo para tests de integración.
func Truncate(ctx context.Context, q Querier) error {
	for _, t := range tables {
		if _, err := q.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", t)); err != nil {
			return wrapErr("truncate "+t, err)
		}
	}
	return nil
}
