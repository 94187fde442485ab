package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/auth"
	"github.com/jhoicas/backoffice-api/internal/application/documents"
	"github.com/jhoicas/backoffice-api/internal/application/stock"
	"github.com/jhoicas/backoffice-api/internal/application/usecase"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Writer    *documents.Writer
	Balance   *stock.BalanceCalculator
	BranchUC  *usecase.BranchUseCase
	AuthUC    *auth.AuthUseCase
	JWTSecret string
	Log       *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth: login público, registro solo admin
	authHandler := NewAuthHandler(deps.AuthUC, deps.Log)
	api.Post("/auth/login", authHandler.Login)

	documentHandler := NewDocumentHandler(deps.Writer, deps.Log)
	api.Get("/document-types", documentHandler.Types)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	protected.Post("/auth/register", RequireRole(entity.RoleAdmin), authHandler.Register)

	// Sucursales: alta solo admin
	branches := protected.Group("/branches")
	branchHandler := NewBranchHandler(deps.BranchUC, deps.Log)
	branches.Post("/", RequireRole(entity.RoleAdmin), branchHandler.Create)
	branches.Get("/", branchHandler.List)
	branches.Get("/:code", branchHandler.GetByCode)

	// Documentos y borradores
	docs := protected.Group("/documents")
	docs.Post("/:type", RequireRole(entity.RoleAdmin, entity.RoleBodeguero, entity.RoleVendedor), documentHandler.Submit)
	docs.Get("/:number", documentHandler.Get)

	drafts := protected.Group("/drafts")
	drafts.Post("/:id/promote", RequireRole(entity.RoleAdmin, entity.RoleBodeguero, entity.RoleVendedor), documentHandler.Promote)

	// Kardex
	stockHandler := NewStockHandler(deps.Balance, deps.Log)
	protected.Get("/stock/balance", stockHandler.Balance)
}
