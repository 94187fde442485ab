package entity

import "time"

// Estados de un borrador.
const (
	DraftStatusPending  = "pending"
	DraftStatusPromoted = "promoted"
)

// Draft guarda el avance parcial de una recepción antes de finalizarla.
// Se identifica por su propio ID, hay como máximo un borrador pendiente por
// predecesor y cada guardado lo reemplaza completo.
type Draft struct {
	ID                string
	Type              DocumentTypeCode
	PredecessorNumber string
	Branch            string
	Destination       string
	IssueDate         time.Time
	Note              string
	CreatedBy         string
	Lines             []DocumentLine
	Status            string
	PromotedNumber    string
	UpdatedAt         time.Time
}

// IsPending indica si el borrador todavía puede modificarse o promoverse.
func (d *Draft) IsPending() bool {
	return d.Status == DraftStatusPending
}
