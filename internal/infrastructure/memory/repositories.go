package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/numbering"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var (
	_ repository.DocumentRepository = (*documentRepo)(nil)
	_ repository.LedgerRepository   = (*ledgerRepo)(nil)
	_ repository.LedgerRepository   = (*LockedLedger)(nil)
	_ repository.LinkRepository     = (*linkRepo)(nil)
	_ repository.DraftRepository    = (*draftRepo)(nil)
	_ repository.SequenceRepository = (*sequenceRepo)(nil)
)

type documentRepo struct {
	st    *state
	hooks Hooks
}

func (r *documentRepo) Create(_ context.Context, doc *entity.Document) error {
	if r.hooks.BeforeCreateDocument != nil {
		if err := r.hooks.BeforeCreateDocument(doc); err != nil {
			return err
		}
	}
	if _, ok := r.st.documents[doc.Number]; ok {
		return fmt.Errorf("documento %s: %w", doc.Number, domain.ErrDuplicateNumber)
	}
	r.st.documents[doc.Number] = *doc
	return nil
}

func (r *documentRepo) CreateLines(_ context.Context, number string, lines []entity.DocumentLine) error {
	if _, ok := r.st.documents[number]; !ok {
		return fmt.Errorf("líneas de %s: %w", number, domain.ErrNotFound)
	}
	type lineKey struct {
		key entity.LineKey
		seq int
	}
	seen := make(map[lineKey]bool, len(lines))
	for _, l := range lines {
		k := lineKey{key: l.Key(), seq: l.Seq}
		if seen[k] {
			return fmt.Errorf("línea duplicada %s/%s #%d en %s", l.ItemCode, l.Variant, l.Seq, number)
		}
		seen[k] = true
	}
	r.st.lines[number] = append(r.st.lines[number], lines...)
	return nil
}

func (r *documentRepo) GetByNumber(_ context.Context, number string) (*entity.Document, error) {
	d, ok := r.st.documents[number]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *documentRepo) GetForUpdate(ctx context.Context, number string) (*entity.Document, error) {
	return r.GetByNumber(ctx, number)
}

func (r *documentRepo) GetLines(_ context.Context, number string) ([]entity.DocumentLine, error) {
	out := append([]entity.DocumentLine(nil), r.st.lines[number]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r *documentRepo) MaxNumberWithPrefix(_ context.Context, prefix string) (string, error) {
	max := ""
	for n := range r.st.documents {
		if strings.HasPrefix(n, prefix) && (max == "" || numbering.Less(max, n)) {
			max = n
		}
	}
	return max, nil
}

func (r *documentRepo) UpdateSuccessor(_ context.Context, number, successor string, status entity.DocumentStatus) error {
	d, ok := r.st.documents[number]
	if !ok {
		return fmt.Errorf("documento %s: %w", number, domain.ErrNotFound)
	}
	d.SuccessorNumber = successor
	d.Status = status
	r.st.documents[number] = d
	return nil
}

type ledgerRepo struct {
	st    *state
	hooks Hooks
}

func (r *ledgerRepo) Append(_ context.Context, entries []entity.StockLedgerEntry) error {
	if r.hooks.BeforeAppendLedger != nil {
		if err := r.hooks.BeforeAppendLedger(entries); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if e.Inbound < 0 || e.Outbound < 0 {
			return fmt.Errorf("asiento %s con cantidades negativas", e.ID)
		}
	}
	r.st.ledger = append(r.st.ledger, entries...)
	return nil
}

func (r *ledgerRepo) Balance(_ context.Context, key entity.StockKey, asOf time.Time) (int64, error) {
	var total int64
	for i := range r.st.ledger {
		e := &r.st.ledger[i]
		if e.Active && e.Key() == key && !e.EffectiveDate.After(asOf) {
			total += e.Net()
		}
	}
	return total, nil
}

// LockKey no hace nada: las transacciones en memoria ya están serializadas.
func (r *ledgerRepo) LockKey(context.Context, entity.StockKey) error { return nil }

func (r *ledgerRepo) ListByDocument(_ context.Context, number string) ([]entity.StockLedgerEntry, error) {
	var out []entity.StockLedgerEntry
	for _, e := range r.st.ledger {
		if e.DocumentNumber == number {
			out = append(out, e)
		}
	}
	return out, nil
}

// LockedLedger expone el kardex confirmado fuera de una transacción.
type LockedLedger struct {
	s *Store
}

func (l *LockedLedger) repo() *ledgerRepo { return &ledgerRepo{st: l.s.st, hooks: l.s.hooks} }

// Append escribe asientos directamente (carga inicial y tests).
func (l *LockedLedger) Append(ctx context.Context, entries []entity.StockLedgerEntry) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.repo().Append(ctx, entries)
}

// Balance implementa repository.LedgerRepository.
func (l *LockedLedger) Balance(ctx context.Context, key entity.StockKey, asOf time.Time) (int64, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.repo().Balance(ctx, key, asOf)
}

// LockKey implementa repository.LedgerRepository.
func (l *LockedLedger) LockKey(context.Context, entity.StockKey) error { return nil }

// ListByDocument implementa repository.LedgerRepository.
func (l *LockedLedger) ListByDocument(ctx context.Context, number string) ([]entity.StockLedgerEntry, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.repo().ListByDocument(ctx, number)
}

type linkRepo struct {
	st *state
}

func (r *linkRepo) Create(_ context.Context, link *entity.DocumentLink) error {
	k := linkKey{predecessor: link.PredecessorNumber, kind: link.Kind}
	if cur, ok := r.st.links[k]; ok {
		if cur.SuccessorNumber == link.SuccessorNumber {
			return nil
		}
		return &domain.LinkConflictError{
			Predecessor: link.PredecessorNumber, Existing: cur.SuccessorNumber,
			Attempted: link.SuccessorNumber, Kind: link.Kind,
		}
	}
	r.st.links[k] = *link
	return nil
}

func (r *linkRepo) GetByPredecessor(_ context.Context, number, kind string) (*entity.DocumentLink, error) {
	l, ok := r.st.links[linkKey{predecessor: number, kind: kind}]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *linkRepo) ListBySuccessor(_ context.Context, number string) ([]*entity.DocumentLink, error) {
	var out []*entity.DocumentLink
	for _, l := range r.st.links {
		if l.SuccessorNumber == number {
			l := l
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out, nil
}

type draftRepo struct {
	st *state
}

func (r *draftRepo) Save(ctx context.Context, d *entity.Draft) error {
	cur, err := r.GetPendingByPredecessor(ctx, d.PredecessorNumber)
	if err != nil {
		return err
	}
	if cur != nil {
		d.ID = cur.ID
	} else if d.ID == "" {
		d.ID = uuid.New().String()
	}
	c := *d
	c.Lines = append([]entity.DocumentLine(nil), d.Lines...)
	r.st.drafts[d.ID] = c
	return nil
}

func (r *draftRepo) GetByID(_ context.Context, id string) (*entity.Draft, error) {
	d, ok := r.st.drafts[id]
	if !ok {
		return nil, nil
	}
	d.Lines = append([]entity.DocumentLine(nil), d.Lines...)
	return &d, nil
}

func (r *draftRepo) GetPendingByPredecessor(_ context.Context, predecessor string) (*entity.Draft, error) {
	for _, d := range r.st.drafts {
		if d.PredecessorNumber == predecessor && d.IsPending() {
			d.Lines = append([]entity.DocumentLine(nil), d.Lines...)
			return &d, nil
		}
	}
	return nil, nil
}

func (r *draftRepo) MarkPromoted(_ context.Context, id, number string) error {
	d, ok := r.st.drafts[id]
	if !ok {
		return fmt.Errorf("borrador %s: %w", id, domain.ErrNotFound)
	}
	d.Status = entity.DraftStatusPromoted
	d.PromotedNumber = number
	r.st.drafts[id] = d
	return nil
}

type sequenceRepo struct {
	st *state
}

func (r *sequenceRepo) Increment(_ context.Context, prefix string, floor int64) (int64, error) {
	if r.st.sequences[prefix] < floor {
		r.st.sequences[prefix] = floor
	}
	r.st.sequences[prefix]++
	return r.st.sequences[prefix], nil
}
