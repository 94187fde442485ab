// Package memory implementa los repositorios en memoria con transacciones serializadas.
// Cada transacción trabaja sobre una copia del estado que reemplaza al original solo
// si fn termina sin error. Se usa en tests y en el modo de demostración.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/backoffice-api/internal/application/documents"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

var _ documents.TxRunner = (*Store)(nil)

// Hooks permiten inyectar fallos dentro de una transacción (tests de atomicidad y reintento).
// Un error devuelto por el hook se propaga como si viniera de la base de datos.
type Hooks struct {
	BeforeCreateDocument func(doc *entity.Document) error
	BeforeAppendLedger   func(entries []entity.StockLedgerEntry) error
}

// Stats conteos de filas confirmadas.
type Stats struct {
	Documents     int
	Lines         int
	LedgerEntries int
	Links         int
	Drafts        int
}

// Store guarda el estado confirmado. Sucursales y usuarios van aparte porque se leen fuera
// de las transacciones del writer.
type Store struct {
	mu    sync.Mutex
	st    *state
	hooks Hooks

	branchMu sync.RWMutex
	branches map[string]entity.Branch
	users    map[string]entity.User // por email
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		st:       newState(),
		branches: make(map[string]entity.Branch),
		users:    make(map[string]entity.User),
	}
}

// SetHooks reemplaza los hooks de fallos.
func (s *Store) SetHooks(h Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = h
}

// Run ejecuta fn sobre una copia del estado; la copia se confirma solo si fn devuelve nil.
func (s *Store) Run(ctx context.Context, fn func(repos documents.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(s.repos(work)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) repos(st *state) documents.Repos {
	return documents.Repos{
		Documents: &documentRepo{st: st, hooks: s.hooks},
		Ledger:    &ledgerRepo{st: st, hooks: s.hooks},
		Links:     &linkRepo{st: st},
		Drafts:    &draftRepo{st: st},
		Sequences: &sequenceRepo{st: st},
	}
}

// Ledger devuelve un repositorio de kardex de solo lectura sobre el estado confirmado.
func (s *Store) Ledger() *LockedLedger {
	return &LockedLedger{s: s}
}

// Stats devuelve los conteos actuales.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.st.lines {
		n += len(l)
	}
	return Stats{
		Documents:     len(s.st.documents),
		Lines:         n,
		LedgerEntries: len(s.st.ledger),
		Links:         len(s.st.links),
		Drafts:        len(s.st.drafts),
	}
}

type linkKey struct {
	predecessor string
	kind        string
}

type state struct {
	documents map[string]entity.Document
	lines     map[string][]entity.DocumentLine
	ledger    []entity.StockLedgerEntry
	links     map[linkKey]entity.DocumentLink
	drafts    map[string]entity.Draft
	sequences map[string]int64
}

func newState() *state {
	return &state{
		documents: make(map[string]entity.Document),
		lines:     make(map[string][]entity.DocumentLine),
		links:     make(map[linkKey]entity.DocumentLink),
		drafts:    make(map[string]entity.Draft),
		sequences: make(map[string]int64),
	}
}

func (st *state) clone() *state {
	c := newState()
	for k, v := range st.documents {
		c.documents[k] = v
	}
	for k, v := range st.lines {
		c.lines[k] = append([]entity.DocumentLine(nil), v...)
	}
	c.ledger = append([]entity.StockLedgerEntry(nil), st.ledger...)
	for k, v := range st.links {
		c.links[k] = v
	}
	for k, v := range st.drafts {
		v.Lines = append([]entity.DocumentLine(nil), v.Lines...)
		c.drafts[k] = v
	}
	for k, v := range st.sequences {
		c.sequences[k] = v
	}
	return c
}
