package dto

import "time"

// CreateBranchRequest entrada para registrar una sucursal.
type CreateBranchRequest struct {
	Code   string `json:"code" validate:"required,min=2,max=3"`
	Name   string `json:"name" validate:"required,min=1,max=200"`
	Role   string `json:"role" validate:"required,oneof=central store"`
	Active *bool  `json:"active"`
}

// BranchResponse salida de una sucursal.
type BranchResponse struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// BranchListResponse lista de sucursales.
type BranchListResponse struct {
	Items []BranchResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}
