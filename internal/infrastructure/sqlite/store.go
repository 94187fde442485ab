// Package sqlite implementa los repositorios del motor sobre SQLite (modo local/embebido).
//
// Las transacciones se abren con BEGIN IMMEDIATE (_txlock=immediate): un solo escritor a
// la vez, así que la guarda de stock y la numeración quedan serializadas sin locks
// adicionales. El esquema embebido se aplica en New.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jhoicas/backoffice-api/internal/application/documents"
	"github.com/jhoicas/backoffice-api/internal/domain"
)

//go:embed schema.sql
var schema string

var _ documents.TxRunner = (*Store)(nil)

// Store agrupa la conexión y hace de TxRunner.
type Store struct {
	db *sql.DB
}

// New abre (o crea) la base en path y aplica el esquema. ":memory:" usa una base en memoria
// con una sola conexión.
func New(path string) (*Store, error) {
	params := "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
	dsn := "file:" + strings.TrimPrefix(path, "file:") + "?" + params + "&_journal_mode=WAL"
	if path == ":memory:" {
		dsn = "file::memory:?" + params
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("abrir sqlite: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("aplicar esquema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close cierra la base.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB expone la conexión (seed y tests).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Run ejecuta fn en una transacción inmediata.
func (s *Store) Run(ctx context.Context, fn func(repos documents.Repos) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Transient("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	repos := documents.Repos{
		Documents: &documentRepo{q: tx},
		Ledger:    &LedgerRepo{q: tx},
		Links:     &linkRepo{q: tx},
		Drafts:    &draftRepo{q: tx},
		Sequences: &sequenceRepo{q: tx},
	}
	if err := fn(repos); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}

// Ledger kardex sobre la conexión (lecturas fuera de transacción y carga inicial).
func (s *Store) Ledger() *LedgerRepo {
	return &LedgerRepo{q: s.db}
}

// Branches repositorio de sucursales sobre la conexión.
func (s *Store) Branches() *BranchRepo {
	return &BranchRepo{q: s.db}
}

// querier es lo común entre *sql.DB y *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func ts(t time.Time) int64 { return t.UTC().UnixNano() }

func fromTS(n int64) time.Time { return time.Unix(0, n).UTC() }

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
