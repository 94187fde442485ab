package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentLineRequest línea enviada por el cliente.
type DocumentLineRequest struct {
	ItemCode  string          `json:"item_code" validate:"required"`
	Variant   string          `json:"variant"`
	Quantity  int64           `json:"quantity" validate:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Note      string          `json:"note"`
}

// SubmitDocumentRequest entrada de POST /api/documents/:type.
// IssueDate acepta YYYY-MM-DD o RFC3339; vacío = hoy.
type SubmitDocumentRequest struct {
	Branch      string                `json:"branch" validate:"required"`
	Destination string                `json:"destination"`
	IssueDate   string                `json:"issue_date"`
	Note        string                `json:"note"`
	Predecessor string                `json:"predecessor"`
	Mode        string                `json:"mode" validate:"omitempty,oneof=finalize pending"`
	Lines       []DocumentLineRequest `json:"lines" validate:"required,min=1"`
}

// SubmitDocumentResponse números asignados por el envío.
type SubmitDocumentResponse struct {
	DocumentNumber   string `json:"document_number,omitempty"`
	CorrectionNumber string `json:"correction_number,omitempty"`
	DraftID          string `json:"draft_id,omitempty"`
	Attempts         int    `json:"attempts,omitempty"`
}

// DocumentLineResponse línea persistida.
type DocumentLineResponse struct {
	Seq       int             `json:"seq"`
	ItemCode  string          `json:"item_code"`
	Variant   string          `json:"variant"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
	Note      string          `json:"note,omitempty"`
}

// LedgerEntryResponse asiento de kardex generado por el documento.
type LedgerEntryResponse struct {
	Branch        string    `json:"branch"`
	ItemCode      string    `json:"item_code"`
	Variant       string    `json:"variant"`
	Inbound       int64     `json:"inbound"`
	Outbound      int64     `json:"outbound"`
	EffectiveDate time.Time `json:"effective_date"`
}

// LinkResponse enlace predecesor → sucesor.
type LinkResponse struct {
	Predecessor string `json:"predecessor"`
	Successor   string `json:"successor"`
	Kind        string `json:"kind"`
}

// DocumentResponse salida de GET /api/documents/:number.
type DocumentResponse struct {
	Number      string                 `json:"number"`
	Type        string                 `json:"type"`
	Branch      string                 `json:"branch"`
	Destination string                 `json:"destination,omitempty"`
	IssueDate   time.Time              `json:"issue_date"`
	Status      string                 `json:"status"`
	Note        string                 `json:"note,omitempty"`
	CreatedBy   string                 `json:"created_by"`
	CreatedAt   time.Time              `json:"created_at"`
	Predecessor *LinkResponse          `json:"predecessor,omitempty"`
	Successors  []LinkResponse         `json:"successors"`
	Lines       []DocumentLineResponse `json:"lines"`
	Ledger      []LedgerEntryResponse  `json:"ledger"`
}

// PromoteDraftResponse salida de POST /api/drafts/:id/promote.
type PromoteDraftResponse = SubmitDocumentResponse

// BalanceResponse saldo de una clave de stock.
type BalanceResponse struct {
	Branch   string    `json:"branch"`
	ItemCode string    `json:"item_code"`
	Variant  string    `json:"variant"`
	AsOf     time.Time `json:"as_of"`
	Balance  int64     `json:"balance"`
}

// DocumentTypeResponse describe un tipo de documento emitible.
type DocumentTypeResponse struct {
	Code        string `json:"code"`
	Tag         string `json:"tag"`
	Period      string `json:"period"`
	LedgerSign  int    `json:"ledger_sign"`
	Guarded     bool   `json:"guarded"`
	Closes      string `json:"closes,omitempty"`
	Reconciles  bool   `json:"reconciles"`
	Submittable bool   `json:"submittable"`
}
