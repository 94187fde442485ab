package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/documents"
	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// DocumentHandler maneja la emisión y consulta de documentos (protegido).
type DocumentHandler struct {
	writer *documents.Writer
	log    *logger.Logger
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(writer *documents.Writer, log *logger.Logger) *DocumentHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DocumentHandler{writer: writer, log: log.Component("http")}
}

// Submit godoc
// @Summary      Emitir documento
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        type  path  string                     true  "Tipo de documento"
// @Param        body  body  dto.SubmitDocumentRequest  true  "Cabecera y líneas"
// @Success      201   {object}  dto.SubmitDocumentResponse
// @Success      202   {object}  dto.SubmitDocumentResponse  "borrador guardado"
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/documents/{type} [post]
func (h *DocumentHandler) Submit(c *fiber.Ctx) error {
	var in dto.SubmitDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if !CanActOn(c, in.Branch) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: domain.KindForbidden, Message: "la sucursal no corresponde al usuario"})
	}
	issueDate, err := parseDate(in.IssueDate, false)
	if err != nil {
		return writeError(c, h.log, domain.Invalid("issue_date", "formato esperado YYYY-MM-DD o RFC3339"))
	}

	sub := documents.Submission{
		Type: entity.DocumentTypeCode(strings.ToLower(c.Params("type"))),
		Header: documents.Header{
			Branch:      strings.ToUpper(in.Branch),
			Destination: strings.ToUpper(in.Destination),
			IssueDate:   issueDate,
			Note:        in.Note,
		},
		PredecessorRef: in.Predecessor,
		Mode:           in.Mode,
		CreatedBy:      GetUserID(c),
		Lines:          make([]documents.LineInput, 0, len(in.Lines)),
	}
	for _, l := range in.Lines {
		sub.Lines = append(sub.Lines, documents.LineInput{
			ItemCode: l.ItemCode, Variant: l.Variant, Quantity: l.Quantity, UnitPrice: l.UnitPrice, Note: l.Note,
		})
	}

	res, err := h.writer.Submit(c.UserContext(), sub)
	if err != nil {
		return writeError(c, h.log, err)
	}
	status := fiber.StatusCreated
	if res.DocumentNumber == "" && res.DraftID != "" {
		status = fiber.StatusAccepted
	}
	return c.Status(status).JSON(toSubmitResponse(res))
}

// Promote godoc
// @Summary      Finalizar borrador de recepción
// @Tags         drafts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del borrador"
// @Success      201  {object}  dto.PromoteDraftResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/drafts/{id}/promote [post]
func (h *DocumentHandler) Promote(c *fiber.Ctx) error {
	draft, err := h.writer.GetDraft(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !CanActOn(c, draft.Branch) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: domain.KindForbidden, Message: "la sucursal no corresponde al usuario"})
	}
	res, err := h.writer.Promote(c.UserContext(), draft.ID, GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSubmitResponse(res))
}

// Get godoc
// @Summary      Consultar documento por número
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        number  path  string  true  "Número de documento"
// @Success      200     {object}  dto.DocumentResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/documents/{number} [get]
func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	view, err := h.writer.Get(c.UserContext(), c.Params("number"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toDocumentResponse(view))
}

// Types godoc
// @Summary      Listar tipos de documento
// @Tags         documents
// @Produce      json
// @Success      200  {array}  dto.DocumentTypeResponse
// @Router       /api/document-types [get]
func (h *DocumentHandler) Types(c *fiber.Ctx) error {
	types := entity.DocumentTypes()
	out := make([]dto.DocumentTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, dto.DocumentTypeResponse{
			Code: string(t.Code), Tag: t.Tag, Period: t.PeriodLayout, LedgerSign: t.LedgerSign,
			Guarded: t.Guarded, Closes: string(t.Closes), Reconciles: t.Reconciles, Submittable: t.Submittable,
		})
	}
	return c.JSON(out)
}

func toSubmitResponse(res documents.Result) dto.SubmitDocumentResponse {
	return dto.SubmitDocumentResponse{
		DocumentNumber:   res.DocumentNumber,
		CorrectionNumber: res.CorrectionNumber,
		DraftID:          res.DraftID,
		Attempts:         res.Attempts,
	}
}

func toDocumentResponse(v *documents.DocumentView) dto.DocumentResponse {
	d := v.Document
	out := dto.DocumentResponse{
		Number: d.Number, Type: string(d.Type), Branch: d.Branch, Destination: d.Destination,
		IssueDate: d.IssueDate, Status: string(d.Status), Note: d.Note,
		CreatedBy: d.CreatedBy, CreatedAt: d.CreatedAt,
		Successors: make([]dto.LinkResponse, 0, len(v.Successors)),
		Lines:      make([]dto.DocumentLineResponse, 0, len(v.Lines)),
		Ledger:     make([]dto.LedgerEntryResponse, 0, len(v.Ledger)),
	}
	if v.Predecessor != nil {
		out.Predecessor = &dto.LinkResponse{
			Predecessor: v.Predecessor.PredecessorNumber, Successor: v.Predecessor.SuccessorNumber, Kind: v.Predecessor.Kind,
		}
	}
	for _, l := range v.Successors {
		out.Successors = append(out.Successors, dto.LinkResponse{
			Predecessor: l.PredecessorNumber, Successor: l.SuccessorNumber, Kind: l.Kind,
		})
	}
	for i := range v.Lines {
		l := &v.Lines[i]
		out.Lines = append(out.Lines, dto.DocumentLineResponse{
			Seq: l.Seq, ItemCode: l.ItemCode, Variant: l.Variant, Quantity: l.Quantity,
			UnitPrice: l.UnitPrice, Total: l.Total(), Note: l.Note,
		})
	}
	for _, e := range v.Ledger {
		out.Ledger = append(out.Ledger, dto.LedgerEntryResponse{
			Branch: e.Branch, ItemCode: e.ItemCode, Variant: e.Variant,
			Inbound: e.Inbound, Outbound: e.Outbound, EffectiveDate: e.EffectiveDate,
		})
	}
	return out
}

// parseDate acepta YYYY-MM-DD (UTC) o RFC3339. Con endOfDay, una fecha sin hora cubre el día completo.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
