// Package numbering arma y descompone números de documento con formato
// BRANCH.TAG.PERIOD.NNNN (ej. K01.SJ.2601.0007).
package numbering

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// MinDigits es el ancho mínimo del consecutivo. Pasado 9999 el número se ensancha, nunca se reinicia.
const MinDigits = 4

const sep = "."

var (
	branchCodeRe = regexp.MustCompile(`^[A-Z0-9]{2,3}$`)
	tagRe        = regexp.MustCompile(`^[A-Z]{2,4}$`)
)

// Scope es el dominio de unicidad de un consecutivo: sucursal + tipo + periodo.
type Scope struct {
	Branch string
	Tag    string
	Period string
}

// ScopeFor calcula el scope para un documento de tipo t emitido por branch en la fecha issue.
func ScopeFor(branch string, t entity.DocumentType, issue time.Time) Scope {
	return Scope{Branch: branch, Tag: t.Tag, Period: PeriodKey(t.PeriodLayout, issue)}
}

// PeriodKey devuelve YYMM, o YY para los tipos heredados.
func PeriodKey(layout string, issue time.Time) string {
	if layout == entity.PeriodYY {
		return issue.Format("06")
	}
	return issue.Format("0601")
}

// Prefix devuelve el prefijo exacto, con el punto final, usado para buscar el máximo.
// El punto final evita que K01.PL.26. coincida con K01.PL.2601.
func (s Scope) Prefix() string {
	return s.Branch + sep + s.Tag + sep + s.Period + sep
}

// Validate comprueba que sucursal y etiqueta tengan el formato esperado.
func (s Scope) Validate() error {
	if !branchCodeRe.MatchString(s.Branch) {
		return fmt.Errorf("código de sucursal inválido: %q", s.Branch)
	}
	if !tagRe.MatchString(s.Tag) {
		return fmt.Errorf("etiqueta de tipo inválida: %q", s.Tag)
	}
	if len(s.Period) != 2 && len(s.Period) != 4 {
		return fmt.Errorf("periodo inválido: %q", s.Period)
	}
	return nil
}

// Format arma el número para el consecutivo n.
func Format(s Scope, n int64) string {
	return s.Prefix() + fmt.Sprintf("%0*d", MinDigits, n)
}

// Suffix extrae el consecutivo de number si empieza por prefix.
// Ausente o no numérico devuelve 0.
func Suffix(number, prefix string) int64 {
	if !strings.HasPrefix(number, prefix) {
		return 0
	}
	n, err := strconv.ParseInt(number[len(prefix):], 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// NextAfter devuelve el número siguiente al máximo existente (vacío si no hay ninguno).
func NextAfter(s Scope, last string) string {
	return Format(s, Suffix(last, s.Prefix())+1)
}

// Less ordena dos números del mismo prefijo por consecutivo (más largo = mayor).
func Less(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// Parse descompone un número completo.
func Parse(number string) (Scope, int64, error) {
	parts := strings.Split(number, sep)
	if len(parts) != 4 {
		return Scope{}, 0, fmt.Errorf("número de documento mal formado: %q", number)
	}
	s := Scope{Branch: parts[0], Tag: parts[1], Period: parts[2]}
	if err := s.Validate(); err != nil {
		return Scope{}, 0, err
	}
	if len(parts[3]) < MinDigits {
		return Scope{}, 0, fmt.Errorf("consecutivo demasiado corto: %q", number)
	}
	n, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return Scope{}, 0, fmt.Errorf("consecutivo no numérico: %q", number)
	}
	return s, n, nil
}

// ValidBranchCode indica si code cumple el formato de código de sucursal.
func ValidBranchCode(code string) bool {
	return branchCodeRe.MatchString(code)
}
