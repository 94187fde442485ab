package entity

import "time"

// Tipos de enlace predecesor → sucesor.
const (
	LinkKindFulfilment = "fulfilment" // requisición → entrega
	LinkKindReceipt    = "receipt"    // entrega/traslado/devolución → recepción
	LinkKindCorrection = "correction" // recepción → corrección
)

// DocumentLink relaciona un sucesor con su predecesor. Un predecesor tiene
// como máximo un sucesor por Kind.
type DocumentLink struct {
	PredecessorNumber string
	SuccessorNumber   string
	Kind              string
	CreatedAt         time.Time
}
