package service

import (
	"context"

	"catalog-service/internal/domain"
	"catalog-service/internal/gateway"

	"github.com/google/uuid"
)

// IDGenerator returns a fresh identifier for a new entity.
type IDGenerator func() string

// ProductUseCase defines the catalog operations exposed to callers
type ProductUseCase interface {
	// Create stores the product and returns its id, generating one when empty.
	Create(ctx context.Context, product domain.Product) (string, error)
	// CreateCategory stores the category and returns its id, generating one when empty.
	CreateCategory(ctx context.Context, category domain.Category) (string, error)
	// Update applies changes and returns id, or "" when the product does not exist.
	Update(ctx context.Context, id string, changes domain.ProductChanges) (string, error)
	// UpdateStatus sets only the active flag, with the same result as Update.
	UpdateStatus(ctx context.Context, id string, active bool) (string, error)
	GetAll(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByName(ctx context.Context, name string) (*domain.Product, error)
	GetByCategory(ctx context.Context, category string) ([]domain.Product, error)
	GetAllCategories(ctx context.Context) ([]domain.Category, error)
}

type productUseCase struct {
	gateway gateway.ProductGateway
	newID   IDGenerator
}

// NewProductUseCase creates a ProductUseCase that generates UUIDs
func NewProductUseCase(gw gateway.ProductGateway) ProductUseCase {
	return NewProductUseCaseWithIDGenerator(gw, uuid.NewString)
}

// NewProductUseCaseWithIDGenerator creates a ProductUseCase with a custom id source
func NewProductUseCaseWithIDGenerator(gw gateway.ProductGateway, newID IDGenerator) ProductUseCase {
	return &productUseCase{
		gateway: gw,
		newID:   newID,
	}
}

func (s *productUseCase) Create(ctx context.Context, product domain.Product) (string, error) {
	if product.ID == "" {
		product.ID = s.newID()
	}
	if err := s.gateway.Create(ctx, product); err != nil {
		return "", err
	}
	return product.ID, nil
}

func (s *productUseCase) CreateCategory(ctx context.Context, category domain.Category) (string, error) {
	if category.ID == "" {
		category.ID = s.newID()
	}
	if err := s.gateway.CreateCategory(ctx, category); err != nil {
		return "", err
	}
	return category.ID, nil
}

func (s *productUseCase) Update(ctx context.Context, id string, changes domain.ProductChanges) (string, error) {
	// Nothing to write, only confirm the product exists
	if changes.IsEmpty() {
		product, err := s.gateway.GetByID(ctx, id)
		if err != nil || product == nil {
			return "", err
		}
		return id, nil
	}

	found, err := s.gateway.Update(ctx, id, changes)
	if err != nil || !found {
		return "", err
	}
	return id, nil
}

// UpdateStatus goes through the partial update so only the active flag is written
func (s *productUseCase) UpdateStatus(ctx context.Context, id string, active bool) (string, error) {
	return s.Update(ctx, id, domain.ProductChanges{Active: &active})
}

func (s *productUseCase) GetAll(ctx context.Context) ([]domain.Product, error) {
	return s.gateway.GetAll(ctx)
}

func (s *productUseCase) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.gateway.GetByID(ctx, id)
}

func (s *productUseCase) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	return s.gateway.GetByName(ctx, name)
}

func (s *productUseCase) GetByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return s.gateway.GetByCategory(ctx, category)
}

func (s *productUseCase) GetAllCategories(ctx context.Context) ([]domain.Category, error) {
	return s.gateway.GetAllCategories(ctx)
}
