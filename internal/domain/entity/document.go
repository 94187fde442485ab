package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentStatus es el estado de ciclo de vida de un documento. El conjunto es
// cerrado: cada tipo declara su estado inicial y a cuál pasa cuando se cierra.
type DocumentStatus string

const (
	StatusOpen      DocumentStatus = "open"       // requisición pendiente de atender
	StatusClosed    DocumentStatus = "closed"     // requisición atendida por una entrega
	StatusInTransit DocumentStatus = "in_transit" // entrega/traslado/devolución sin recibir
	StatusReceived  DocumentStatus = "received"   // recibido por la sucursal destino
	StatusPosted    DocumentStatus = "posted"     // documento terminal
)

// Valid indica si el estado pertenece al conjunto cerrado.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusInTransit, StatusReceived, StatusPosted:
		return true
	}
	return false
}

// Document es la cabecera de un documento de negocio.
// Number es único e inmutable; Destination, PredecessorNumber y SuccessorNumber
// se persisten como NULL cuando están vacíos.
type Document struct {
	Number            string
	Type              DocumentTypeCode
	Branch            string
	Destination       string
	IssueDate         time.Time
	Note              string
	CreatedBy         string
	CreatedAt         time.Time
	PredecessorNumber string
	SuccessorNumber   string
	Status            DocumentStatus
}

// DocumentLine es una línea de detalle. Quantity es no negativa salvo en correcciones.
type DocumentLine struct {
	DocumentNumber string
	Seq            int
	ItemCode       string
	Variant        string
	Quantity       int64
	UnitPrice      decimal.Decimal // solo ventas; cero en el resto
	Note           string
}

// Key devuelve la clave (artículo, variante) usada para conciliar líneas.
func (l *DocumentLine) Key() LineKey {
	return LineKey{ItemCode: l.ItemCode, Variant: l.Variant}
}

// Total devuelve Quantity * UnitPrice.
func (l *DocumentLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// LineKey identifica un artículo+variante dentro de un documento.
type LineKey struct {
	ItemCode string
	Variant  string
}
