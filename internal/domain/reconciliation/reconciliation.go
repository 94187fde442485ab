// Package reconciliation compara lo recibido contra lo despachado y calcula
// las diferencias que debe cubrir una corrección automática.
package reconciliation

import (
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// Delta es la diferencia aceptado − despachado para una clave (artículo, variante).
// Negativo = faltante, positivo = sobrante.
type Delta struct {
	ItemCode string
	Variant  string
	Shipped  int64
	Accepted int64
}

// Quantity devuelve la cantidad firmada de la línea de corrección.
func (d Delta) Quantity() int64 {
	return d.Accepted - d.Shipped
}

// Input agrupa los dos lados de la conciliación.
type Input struct {
	ReceiptNumber string
	SourceNumber  string
	Shipped       []entity.DocumentLine
	Accepted      []entity.DocumentLine
}

// Compute devuelve las diferencias no nulas, en el orden de las líneas despachadas.
// Las claves se comparan exactas; varias líneas de la misma clave se suman.
// Una clave aceptada que no existe en el origen devuelve *domain.IntegrityError.
// Una clave despachada que no aparece en la recepción cuenta como aceptado 0.
func Compute(in Input) ([]Delta, error) {
	shipped := make(map[entity.LineKey]int64, len(in.Shipped))
	order := make([]entity.LineKey, 0, len(in.Shipped))
	for _, l := range in.Shipped {
		k := l.Key()
		if _, seen := shipped[k]; !seen {
			order = append(order, k)
		}
		shipped[k] += l.Quantity
	}

	accepted := make(map[entity.LineKey]int64, len(in.Accepted))
	for _, l := range in.Accepted {
		k := l.Key()
		if _, ok := shipped[k]; !ok {
			return nil, &domain.IntegrityError{
				Document: in.ReceiptNumber,
				Source:   in.SourceNumber,
				ItemCode: l.ItemCode,
				Variant:  l.Variant,
			}
		}
		accepted[k] += l.Quantity
	}

	var deltas []Delta
	for _, k := range order {
		d := Delta{ItemCode: k.ItemCode, Variant: k.Variant, Shipped: shipped[k], Accepted: accepted[k]}
		if d.Quantity() != 0 {
			deltas = append(deltas, d)
		}
	}
	return deltas, nil
}

// CorrectionLines convierte las diferencias en líneas de corrección numeradas desde 1.
func CorrectionLines(deltas []Delta) []entity.DocumentLine {
	lines := make([]entity.DocumentLine, 0, len(deltas))
	for i, d := range deltas {
		lines = append(lines, entity.DocumentLine{
			Seq:      i + 1,
			ItemCode: d.ItemCode,
			Variant:  d.Variant,
			Quantity: d.Quantity(),
		})
	}
	return lines
}
