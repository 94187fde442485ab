package documents

import (
	"context"
	"fmt"

	"github.com/jhoicas/backoffice-api/internal/domain/numbering"
)

// SequenceGenerator asigna el siguiente número de un scope dentro de la transacción activa.
// No garantiza orden de llegada, solo unicidad (respaldada por la constraint de la tabla).
type SequenceGenerator interface {
	Next(ctx context.Context, repos Repos, scope numbering.Scope) (string, error)
}

// ScanSequence toma el mayor número existente con el prefijo exacto y le suma 1.
// Entre la lectura y el insert hay una ventana de carrera que resuelve la RetryPolicy.
type ScanSequence struct{}

// Next implementa SequenceGenerator.
func (ScanSequence) Next(ctx context.Context, repos Repos, scope numbering.Scope) (string, error) {
	if err := scope.Validate(); err != nil {
		return "", err
	}
	last, err := repos.Documents.MaxNumberWithPrefix(ctx, scope.Prefix())
	if err != nil {
		return "", fmt.Errorf("máximo consecutivo %s: %w", scope.Prefix(), err)
	}
	return numbering.NextAfter(scope, last), nil
}

// CounterSequence reclama el número con un incremento atómico sobre document_sequences.
// El contador nunca queda por debajo del mayor número ya emitido en el scope, así que
// puede activarse sobre una base que antes numeraba por escaneo.
type CounterSequence struct{}

// Next implementa SequenceGenerator.
func (CounterSequence) Next(ctx context.Context, repos Repos, scope numbering.Scope) (string, error) {
	if err := scope.Validate(); err != nil {
		return "", err
	}
	last, err := repos.Documents.MaxNumberWithPrefix(ctx, scope.Prefix())
	if err != nil {
		return "", fmt.Errorf("máximo consecutivo %s: %w", scope.Prefix(), err)
	}
	n, err := repos.Sequences.Increment(ctx, scope.Prefix(), numbering.Suffix(last, scope.Prefix()))
	if err != nil {
		return "", fmt.Errorf("contador %s: %w", scope.Prefix(), err)
	}
	return numbering.Format(scope, n), nil
}

// NewSequenceGenerator devuelve la estrategia configurada ("scan" o "counter").
func NewSequenceGenerator(strategy string) (SequenceGenerator, error) {
	switch strategy {
	case "", "scan":
		return ScanSequence{}, nil
	case "counter":
		return CounterSequence{}, nil
	}
	return nil, fmt.Errorf("estrategia de numeración desconocida: %q", strategy)
}
