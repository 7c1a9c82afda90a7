package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/almacen-api/internal/application/dto"
	"github.com/jhoicas/almacen-api/internal/domain"
	"github.com/jhoicas/almacen-api/internal/domain/entity"
	"github.com/jhoicas/almacen-api/internal/domain/repository"
)

// LocationUseCase administra las ubicaciones de stock (central, puntos de
// venta). Son datos de referencia: se crean y se listan, no se borran.
type LocationUseCase struct {
	repo repository.LocationRepository
}

// NewLocationUseCase construye el caso de uso.
func NewLocationUseCase(repo repository.LocationRepository) *LocationUseCase {
	return &LocationUseCase{repo: repo}
}

// Create da de alta una ubicación con código único en mayúsculas.
func (uc *LocationUseCase) Create(ctx context.Context, in dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" || in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if existing, err := uc.repo.GetByCode(ctx, code); err == nil && existing != nil {
		return nil, domain.ErrDuplicate
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	now := time.Now()
	loc := &entity.Location{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      in.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, loc); err != nil {
		return nil, err
	}
	return toLocationResponse(loc), nil
}

// List devuelve todas las ubicaciones.
func (uc *LocationUseCase) List(ctx context.Context) ([]dto.LocationResponse, error) {
	locs, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LocationResponse, 0, len(locs))
	for _, l := range locs {
		out = append(out, *toLocationResponse(l))
	}
	return out, nil
}

func toLocationResponse(l *entity.Location) *dto.LocationResponse {
	return &dto.LocationResponse{
		ID:        l.ID,
		Code:      l.Code,
		Name:      l.Name,
		CreatedAt: l.CreatedAt,
	}
}
