package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/numbering"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// BranchUseCase registro de sucursales.
type BranchUseCase struct {
	repo repository.BranchRepository
	now  func() time.Time
}

// NewBranchUseCase construye el caso de uso.
func NewBranchUseCase(repo repository.BranchRepository) *BranchUseCase {
	return &BranchUseCase{repo: repo, now: time.Now}
}

// Create registra una sucursal. El código se normaliza a mayúsculas.
func (uc *BranchUseCase) Create(ctx context.Context, in dto.CreateBranchRequest) (*dto.BranchResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if !numbering.ValidBranchCode(code) {
		return nil, domain.Invalid("code", "debe tener 2 o 3 caracteres alfanuméricos")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("name", "requerido")
	}
	if !entity.ValidBranchRole(in.Role) {
		return nil, domain.Invalid("role", fmt.Sprintf("rol desconocido: %q", in.Role))
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	b := &entity.Branch{
		Code:      code,
		Name:      name,
		Role:      in.Role,
		Active:    active,
		CreatedAt: uc.now(),
	}
	if err := uc.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return toBranchResponse(b), nil
}

// Get obtiene una sucursal por código; domain.ErrNotFound si no existe.
func (uc *BranchUseCase) Get(ctx context.Context, code string) (*dto.BranchResponse, error) {
	b, err := uc.repo.GetByCode(ctx, strings.ToUpper(code))
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("sucursal %s: %w", code, domain.ErrNotFound)
	}
	return toBranchResponse(b), nil
}

// List lista las sucursales ordenadas por código, paginadas.
func (uc *BranchUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.BranchListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	from := min(page.Offset, len(list))
	to := min(from+page.Limit, len(list))
	items := make([]dto.BranchResponse, 0, to-from)
	for _, b := range list[from:to] {
		items = append(items, *toBranchResponse(b))
	}
	return &dto.BranchListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(list)},
	}, nil
}

func toBranchResponse(b *entity.Branch) *dto.BranchResponse {
	if b == nil {
		return nil
	}
	return &dto.BranchResponse{
		Code:      b.Code,
		Name:      b.Name,
		Role:      b.Role,
		Active:    b.Active,
		CreatedAt: b.CreatedAt,
	}
}
