package repository

import (
	"context"

	"catalog-service/internal/database"

	"go.uber.org/zap"
)

// Category attribute names as stored in the table.
const (
	CategoryKey             = "categoriaId"
	categoryDescriptionAttr = "categoriaDescricao"
)

// CategoryModel is the stored shape of a category.
type CategoryModel struct {
	CategoriaID        string
	CategoriaDescricao string
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category CategoryModel) error
	GetAll(ctx context.Context) ([]CategoryModel, error)
}

type categoryRepository struct {
	store  database.Store
	logger *zap.Logger
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(store database.Store, logger *zap.Logger) CategoryRepository {
	return &categoryRepository{
		store:  store,
		logger: logger.Named("category_repository"),
	}
}

func (r *categoryRepository) Create(ctx context.Context, category CategoryModel) error {
	if err := r.store.Create(ctx, categoryToItem(category)); err != nil {
		r.logger.Error("Failed to create category", zap.String("id", category.CategoriaID), zap.Error(err))
		return err
	}
	return nil
}

func (r *categoryRepository) GetAll(ctx context.Context) ([]CategoryModel, error) {
	items, err := r.store.ReadAll(ctx)
	if err != nil {
		r.logger.Error("Failed to list categories", zap.Error(err))
		return nil, err
	}

	categories := make([]CategoryModel, 0, len(items))
	for _, item := range items {
		categories = append(categories, itemToCategory(item))
	}
	return categories, nil
}

func categoryToItem(c CategoryModel) database.Item {
	return database.Item{
		CategoryKey:             c.CategoriaID,
		categoryDescriptionAttr: c.CategoriaDescricao,
	}
}

func itemToCategory(item database.Item) CategoryModel {
	return CategoryModel{
		CategoriaID:        stringAttr(item, CategoryKey),
		CategoriaDescricao: stringAttr(item, categoryDescriptionAttr),
	}
}
