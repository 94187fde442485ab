package repository

import "context"

// SequenceRepository es el contador atómico por prefijo (estrategia alternativa al escaneo).
type SequenceRepository interface {
	// Increment reclama max(último valor, floor) + 1 para el prefijo.
	// floor es el mayor consecutivo ya usado fuera del contador (0 si ninguno).
	Increment(ctx context.Context, prefix string, floor int64) (int64, error)
}
