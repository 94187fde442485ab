package entity

import "sort"

// DocumentTypeCode identifica un tipo de documento de negocio.
type DocumentTypeCode string

const (
	DocRequisition     DocumentTypeCode = "requisition"
	DocDelivery        DocumentTypeCode = "delivery"
	DocDeliveryReceipt DocumentTypeCode = "delivery-receipt"
	DocTransfer        DocumentTypeCode = "transfer"
	DocTransferReceipt DocumentTypeCode = "transfer-receipt"
	DocReturn          DocumentTypeCode = "return"
	DocReturnReceipt   DocumentTypeCode = "return-receipt"
	DocCorrection      DocumentTypeCode = "correction"
	DocPackingList     DocumentTypeCode = "packing-list"
	DocSale            DocumentTypeCode = "sale"
)

// Formatos de periodo para la numeración.
const (
	PeriodYYMM = "YYMM"
	PeriodYY   = "YY" // tipos heredados
)

// Signo del efecto en el kardex.
const (
	LedgerNone     = 0
	LedgerInbound  = 1
	LedgerOutbound = -1
)

// DocumentType describe cómo se numera, persiste y encadena un tipo de documento.
type DocumentType struct {
	Code         DocumentTypeCode
	Tag          string // prefijo de numeración (SJ, TJ, ...)
	PeriodLayout string
	Family       string // familia de tablas cabecera/detalle en el sistema origen
	LedgerSign   int
	// Guarded: las salidas se validan contra el saldo del kardex antes de escribir.
	Guarded             bool
	RequiresDestination bool
	Origins             []string // roles de sucursal que pueden emitirlo; vacío = cualquiera
	// Closes es el tipo de predecesor que este documento cierra con CloseKind.
	Closes              DocumentTypeCode
	CloseKind           string
	PredecessorRequired bool
	Reconciles          bool // recepciones: se concilian contra el predecesor
	SignedLines         bool // correcciones: cantidades con signo
	Priced              bool // las líneas llevan precio unitario
	Submittable         bool // false = solo lo genera el motor
	InitialStatus       DocumentStatus
}

// MutatesLedger indica si el tipo escribe asientos de kardex.
func (t DocumentType) MutatesLedger() bool {
	return t.LedgerSign != LedgerNone
}

// AllowsOrigin indica si una sucursal con el rol dado puede emitir el tipo.
func (t DocumentType) AllowsOrigin(role string) bool {
	if len(t.Origins) == 0 {
		return true
	}
	for _, r := range t.Origins {
		if r == role {
			return true
		}
	}
	return false
}

// CloseStatus devuelve el estado al que pasa el predecesor al enlazarse con
// el tipo de enlace dado. ok=false si el enlace no cambia el estado.
func CloseStatus(kind string) (DocumentStatus, bool) {
	switch kind {
	case LinkKindFulfilment:
		return StatusClosed, true
	case LinkKindReceipt:
		return StatusReceived, true
	}
	return "", false
}

var documentTypes = map[DocumentTypeCode]DocumentType{
	DocRequisition: {
		Code: DocRequisition, Tag: "RQ", PeriodLayout: PeriodYYMM, Family: "requisitions",
		Origins: []string{BranchRoleStore}, RequiresDestination: true,
		Submittable: true, InitialStatus: StatusOpen,
	},
	DocDelivery: {
		Code: DocDelivery, Tag: "SJ", PeriodLayout: PeriodYYMM, Family: "deliveries",
		LedgerSign: LedgerOutbound, Guarded: true, RequiresDestination: true,
		Origins: []string{BranchRoleCentral},
		Closes:  DocRequisition, CloseKind: LinkKindFulfilment,
		Submittable: true, InitialStatus: StatusInTransit,
	},
	DocDeliveryReceipt: {
		Code: DocDeliveryReceipt, Tag: "TJ", PeriodLayout: PeriodYYMM, Family: "delivery_receipts",
		LedgerSign: LedgerInbound,
		Closes:     DocDelivery, CloseKind: LinkKindReceipt, PredecessorRequired: true, Reconciles: true,
		Submittable: true, InitialStatus: StatusPosted,
	},
	DocTransfer: {
		Code: DocTransfer, Tag: "MT", PeriodLayout: PeriodYYMM, Family: "transfers",
		LedgerSign: LedgerOutbound, Guarded: true, RequiresDestination: true,
		Submittable: true, InitialStatus: StatusInTransit,
	},
	DocTransferReceipt: {
		Code: DocTransferReceipt, Tag: "TMT", PeriodLayout: PeriodYYMM, Family: "transfer_receipts",
		LedgerSign: LedgerInbound,
		Closes:     DocTransfer, CloseKind: LinkKindReceipt, PredecessorRequired: true, Reconciles: true,
		Submittable: true, InitialStatus: StatusPosted,
	},
	DocReturn: {
		Code: DocReturn, Tag: "RT", PeriodLayout: PeriodYYMM, Family: "returns",
		LedgerSign: LedgerOutbound, Guarded: true, RequiresDestination: true,
		Origins:     []string{BranchRoleStore},
		Submittable: true, InitialStatus: StatusInTransit,
	},
	DocReturnReceipt: {
		Code: DocReturnReceipt, Tag: "TRT", PeriodLayout: PeriodYYMM, Family: "return_receipts",
		LedgerSign: LedgerInbound, Origins: []string{BranchRoleCentral},
		Closes: DocReturn, CloseKind: LinkKindReceipt, PredecessorRequired: true, Reconciles: true,
		Submittable: true, InitialStatus: StatusPosted,
	},
	DocCorrection: {
		Code: DocCorrection, Tag: "KR", PeriodLayout: PeriodYYMM, Family: "corrections",
		CloseKind: LinkKindCorrection, SignedLines: true,
		InitialStatus: StatusPosted,
	},
	DocPackingList: {
		Code: DocPackingList, Tag: "PL", PeriodLayout: PeriodYY, Family: "packing_lists",
		Origins:     []string{BranchRoleCentral},
		Submittable: true, InitialStatus: StatusPosted,
	},
	DocSale: {
		Code: DocSale, Tag: "PJ", PeriodLayout: PeriodYYMM, Family: "sales",
		LedgerSign: LedgerOutbound, // sin guarda: las ventas de caja no se bloquean
		Origins:    []string{BranchRoleStore}, Priced: true,
		Submittable: true, InitialStatus: StatusPosted,
	},
}

// LookupDocumentType devuelve la definición del tipo.
func LookupDocumentType(code DocumentTypeCode) (DocumentType, bool) {
	t, ok := documentTypes[code]
	return t, ok
}

// DocumentTypes devuelve todos los tipos ordenados por código.
func DocumentTypes() []DocumentType {
	out := make([]DocumentType, 0, len(documentTypes))
	for _, t := range documentTypes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
