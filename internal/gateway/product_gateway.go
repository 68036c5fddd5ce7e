package gateway

import (
	"context"
	"errors"

	"catalog-service/internal/domain"
	"catalog-service/internal/repository"
)

// ErrNotImplemented is returned by lookups the catalog does not support yet.
var ErrNotImplemented = errors.New("method not implemented")

// ProductGateway translates between domain entities and stored models
type ProductGateway interface {
	Create(ctx context.Context, product domain.Product) error
	CreateCategory(ctx context.Context, category domain.Category) error
	Update(ctx context.Context, id string, changes domain.ProductChanges) (bool, error)
	UpdateStatus(ctx context.Context, id string, active bool) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetAll(ctx context.Context) ([]domain.Product, error)
	GetAllCategories(ctx context.Context) ([]domain.Category, error)
	GetByName(ctx context.Context, name string) (*domain.Product, error)
	GetByCategory(ctx context.Context, category string) ([]domain.Product, error)
}

type productGateway struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

// NewProductGateway creates a new instance of ProductGateway
func NewProductGateway(products repository.ProductRepository, categories repository.CategoryRepository) ProductGateway {
	return &productGateway{
		products:   products,
		categories: categories,
	}
}

func (g *productGateway) Create(ctx context.Context, product domain.Product) error {
	return g.products.Create(ctx, toProductModel(product))
}

func (g *productGateway) CreateCategory(ctx context.Context, category domain.Category) error {
	return g.categories.Create(ctx, repository.CategoryModel{
		CategoriaID:        category.ID,
		CategoriaDescricao: category.Name,
	})
}

// Update never rewrites the identity of the product
func (g *productGateway) Update(ctx context.Context, id string, changes domain.ProductChanges) (bool, error) {
	return g.products.Update(ctx, id, repository.ProductPatch{
		Nome:      changes.Name,
		Descricao: changes.Description,
		Preco:     changes.Price,
		Categoria: changes.Category,
		Ativo:     changes.Active,
	})
}

func (g *productGateway) UpdateStatus(ctx context.Context, id string, active bool) (bool, error) {
	return false, ErrNotImplemented
}

// GetByID returns nil when the product does not exist
func (g *productGateway) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	model, err := g.products.GetByID(ctx, id)
	if err != nil || model == nil {
		return nil, err
	}

	product := toProduct(*model)
	return &product, nil
}

func (g *productGateway) GetAll(ctx context.Context) ([]domain.Product, error) {
	models, err := g.products.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(models))
	for _, m := range models {
		products = append(products, toProduct(m))
	}
	return products, nil
}

func (g *productGateway) GetAllCategories(ctx context.Context) ([]domain.Category, error) {
	models, err := g.categories.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(models))
	for _, m := range models {
		categories = append(categories, domain.Category{ID: m.CategoriaID, Name: m.CategoriaDescricao})
	}
	return categories, nil
}

func (g *productGateway) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	return nil, ErrNotImplemented
}

func (g *productGateway) GetByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return nil, ErrNotImplemented
}

func toProductModel(p domain.Product) repository.ProductModel {
	return repository.ProductModel{
		ID:        p.ID,
		Nome:      p.Name,
		Descricao: p.Description,
		Preco:     p.Price,
		Categoria: p.Category,
		Ativo:     p.Active,
	}
}

func toProduct(m repository.ProductModel) domain.Product {
	return domain.Product{
		ID:          m.ID,
		Name:        m.Nome,
		Category:    m.Categoria,
		Price:       m.Preco,
		Description: m.Descricao,
		Active:      m.Ativo,
	}
}
