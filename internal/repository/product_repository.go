package repository

import (
	"context"

	"catalog-service/internal/database"

	"go.uber.org/zap"
)

// Product attribute names as stored in the table.
const (
	ProductKey             = "produtoId"
	productNameAttr        = "produtoNome"
	productDescriptionAttr = "produtoDescricao"
	productPriceAttr       = "preco"
	productCategoryAttr    = "categoriaId"
	productActiveAttr      = "ativo"
)

// ProductModel is the stored shape of a product.
type ProductModel struct {
	ID        string
	Nome      string
	Descricao string
	Preco     float64
	Categoria string
	Ativo     bool
}

// ProductPatch carries the product fields to change. Nil fields are omitted
// from the write, so zero values that are set are still written.
type ProductPatch struct {
	Nome      *string
	Descricao *string
	Preco     *float64
	Categoria *string
	Ativo     *bool
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product ProductModel) error
	GetByID(ctx context.Context, id string) (*ProductModel, error)
	GetAll(ctx context.Context) ([]ProductModel, error)
	Update(ctx context.Context, id string, patch ProductPatch) (bool, error)
}

type productRepository struct {
	store  database.Store
	logger *zap.Logger
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(store database.Store, logger *zap.Logger) ProductRepository {
	return &productRepository{
		store:  store,
		logger: logger.Named("product_repository"),
	}
}

// Create stores a full product, replacing any product with the same id
func (r *productRepository) Create(ctx context.Context, product ProductModel) error {
	if err := r.store.Create(ctx, productToItem(product)); err != nil {
		r.logger.Error("Failed to create product", zap.String("id", product.ID), zap.Error(err))
		return err
	}
	return nil
}

// GetByID returns nil when the product does not exist
func (r *productRepository) GetByID(ctx context.Context, id string) (*ProductModel, error) {
	item, err := r.store.Read(ctx, id)
	if err != nil {
		r.logger.Error("Failed to get product", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	product := itemToProduct(item)
	return &product, nil
}

func (r *productRepository) GetAll(ctx context.Context) ([]ProductModel, error) {
	items, err := r.store.ReadAll(ctx)
	if err != nil {
		r.logger.Error("Failed to list products", zap.Error(err))
		return nil, err
	}

	products := make([]ProductModel, 0, len(items))
	for _, item := range items {
		products = append(products, itemToProduct(item))
	}
	return products, nil
}

// Update writes only the fields set in patch and reports whether the product exists
func (r *productRepository) Update(ctx context.Context, id string, patch ProductPatch) (bool, error) {
	found, err := r.store.Update(ctx, id, productPatchToItem(patch))
	if err != nil {
		r.logger.Error("Failed to update product", zap.String("id", id), zap.Error(err))
		return false, err
	}
	return found, nil
}

func productToItem(p ProductModel) database.Item {
	return database.Item{
		ProductKey:             p.ID,
		productNameAttr:        p.Nome,
		productDescriptionAttr: p.Descricao,
		productPriceAttr:       p.Preco,
		productCategoryAttr:    p.Categoria,
		productActiveAttr:      p.Ativo,
	}
}

func productPatchToItem(p ProductPatch) database.Item {
	item := database.Item{}
	if p.Nome != nil {
		item[productNameAttr] = *p.Nome
	}
	if p.Descricao != nil {
		item[productDescriptionAttr] = *p.Descricao
	}
	if p.Preco != nil {
		item[productPriceAttr] = *p.Preco
	}
	if p.Categoria != nil {
		item[productCategoryAttr] = *p.Categoria
	}
	if p.Ativo != nil {
		item[productActiveAttr] = *p.Ativo
	}
	return item
}

func itemToProduct(item database.Item) ProductModel {
	return ProductModel{
		ID:        stringAttr(item, ProductKey),
		Nome:      stringAttr(item, productNameAttr),
		Descricao: stringAttr(item, productDescriptionAttr),
		Preco:     floatAttr(item, productPriceAttr),
		Categoria: stringAttr(item, productCategoryAttr),
		Ativo:     boolAttr(item, productActiveAttr),
	}
}
