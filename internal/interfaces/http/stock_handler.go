package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/stock"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// StockHandler consulta saldos del kardex (protegido).
type StockHandler struct {
	calc *stock.BalanceCalculator
	log  *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(calc *stock.BalanceCalculator, log *logger.Logger) *StockHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &StockHandler{calc: calc, log: log.Component("http")}
}

// Balance godoc
// @Summary      Saldo de stock por sucursal, artículo y variante
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        branch   query  string  true   "Sucursal"
// @Param        item     query  string  true   "Código de artículo"
// @Param        variant  query  string  false  "Variante (talla)"
// @Param        as_of    query  string  false  "Fecha de corte (YYYY-MM-DD o RFC3339)"
// @Success      200      {object}  dto.BalanceResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Router       /api/stock/balance [get]
func (h *StockHandler) Balance(c *fiber.Ctx) error {
	key := entity.StockKey{
		Branch:   strings.ToUpper(c.Query("branch")),
		ItemCode: c.Query("item"),
		Variant:  c.Query("variant"),
	}
	if key.Branch == "" || key.ItemCode == "" {
		return writeError(c, h.log, domain.Invalid("branch/item", "requeridos"))
	}
	asOf, err := parseDate(c.Query("as_of"), true)
	if err != nil {
		return writeError(c, h.log, domain.Invalid("as_of", "formato esperado YYYY-MM-DD o RFC3339"))
	}
	asOf = h.calc.AsOf(asOf)
	balance, err := h.calc.Balance(c.UserContext(), key, asOf)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.BalanceResponse{
		Branch: key.Branch, ItemCode: key.ItemCode, Variant: key.Variant, AsOf: asOf, Balance: balance,
	})
}
