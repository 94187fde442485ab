package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrValidation        = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrLinkConflict      = errors.New("el documento predecesor ya tiene otro sucesor")
	ErrIntegrity         = errors.New("inconsistencia entre documentos")
	ErrSequenceConflict  = errors.New("conflicto de numeración, reintente")
	ErrTransient         = errors.New("infraestructura no disponible, reintente")
	ErrEmailExists       = errors.New("el email ya está registrado")

	// ErrDuplicateNumber lo devuelven los repositorios cuando la constraint única
	// sobre documents.number rechaza el insert. Solo el Writer lo consume.
	ErrDuplicateNumber = errors.New("número de documento duplicado")
)

// Códigos estables expuestos al cliente.
const (
	KindValidation        = "VALIDATION"
	KindInsufficientStock = "INSUFFICIENT_STOCK"
	KindSequenceConflict  = "SEQUENCE_CONFLICT"
	KindLinkConflict      = "LINK_CONFLICT"
	KindEmailExists       = "EMAIL_EXISTS"
	KindIntegrity         = "INTEGRITY"
	KindTransient         = "TRANSIENT"
	KindNotFound          = "NOT_FOUND"
	KindUnauthorized      = "UNAUTHORIZED"
	KindForbidden         = "FORBIDDEN"
	KindInternal          = "INTERNAL"
)

// ValidationError describe un campo o regla de entrada que no se cumple.
type ValidationError struct {
	Field  string
	Reason string
}

// Invalid construye un ValidationError.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validación: " + e.Reason
	}
	return fmt.Sprintf("validación: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientStockError detalla el faltante de una clave de stock.
type InsufficientStockError struct {
	Branch    string
	ItemCode  string
	Variant   string
	Available int64
	Requested int64
}

// Shortfall cantidad que falta para cubrir lo solicitado.
func (e *InsufficientStockError) Shortfall() int64 {
	return e.Requested - e.Available
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en %s para %s/%s: disponible %d, solicitado %d, faltan %d",
		e.Branch, e.ItemCode, e.Variant, e.Available, e.Requested, e.Shortfall())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// LinkConflictError: el predecesor ya fue cerrado por otro documento del mismo tipo de cierre.
type LinkConflictError struct {
	Predecessor string
	Existing    string
	Attempted   string
	Kind        string
}

func (e *LinkConflictError) Error() string {
	return fmt.Sprintf("%s ya está enlazado (%s) con %s; no se puede enlazar con %s",
		e.Predecessor, e.Kind, e.Existing, e.Attempted)
}

func (e *LinkConflictError) Unwrap() error { return ErrLinkConflict }

// IntegrityError: una línea de recepción no tiene línea correspondiente en el documento origen.
type IntegrityError struct {
	Document string
	Source   string
	ItemCode string
	Variant  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("línea %s/%s de %s no existe en el documento origen %s",
		e.ItemCode, e.Variant, e.Document, e.Source)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

// SequenceConflictError se devuelve cuando se agotan los reintentos por número duplicado.
type SequenceConflictError struct {
	Attempts int
	Last     error
}

func (e *SequenceConflictError) Error() string {
	return fmt.Sprintf("numeración en conflicto tras %d intentos: %v", e.Attempts, e.Last)
}

func (e *SequenceConflictError) Unwrap() []error { return []error{ErrSequenceConflict, e.Last} }

// TransientError envuelve fallos del pool o del motor de base de datos.
type TransientError struct {
	Op  string
	Err error
}

// Transient construye un TransientError para la operación indicada.
func Transient(op string, err error) *TransientError {
	return &TransientError{Op: op, Err: err}
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() []error { return []error{ErrTransient, e.Err} }

// Kind traduce cualquier error al código estable que ve el cliente.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInsufficientStock):
		return KindInsufficientStock
	case errors.Is(err, ErrSequenceConflict):
		return KindSequenceConflict
	case errors.Is(err, ErrLinkConflict):
		return KindLinkConflict
	case errors.Is(err, ErrIntegrity):
		return KindIntegrity
	case errors.Is(err, ErrEmailExists):
		return KindEmailExists
	case errors.Is(err, ErrTransient):
		return KindTransient
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	}
	return KindInternal
}

// IsRetryable indica si el cliente puede reenviar la misma solicitud.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSequenceConflict) || errors.Is(err, ErrTransient)
}
