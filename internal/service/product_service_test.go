package service

import (
	"context"
	"errors"
	"testing"

	"catalog-service/internal/database"
	"catalog-service/internal/database/databasetest"
	"catalog-service/internal/domain"
	"catalog-service/internal/gateway"
	"catalog-service/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestUseCase wires the full stack over an in-memory DynamoDB.
func newTestUseCase(t *testing.T) (ProductUseCase, *databasetest.FakeDynamoDB) {
	t.Helper()

	fake := databasetest.NewFakeDynamoDB()
	fake.AddTable("produtos", repository.ProductKey)
	fake.AddTable("categorias", repository.CategoryKey)

	products, err := database.NewTable(fake, database.TableConfig{Name: "produtos", Key: repository.ProductKey}, zap.NewNop(), nil)
	require.NoError(t, err)
	categories, err := database.NewTable(fake, database.TableConfig{Name: "categorias", Key: repository.CategoryKey}, zap.NewNop(), nil)
	require.NoError(t, err)

	gw := gateway.NewProductGateway(
		repository.NewProductRepository(products, zap.NewNop()),
		repository.NewCategoryRepository(categories, zap.NewNop()),
	)
	return NewProductUseCase(gw), fake
}

// Feature: catalog-service, Property: generated ids are unique
func TestProperty_GeneratedIDsAreUnique(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("creating n products without ids yields n distinct ids", prop.ForAll(
		func(n int) bool {
			uc, fake := newTestUseCase(t)
			ctx := context.Background()

			seen := make(map[string]struct{}, n)
			for i := 0; i < n; i++ {
				id, err := uc.Create(ctx, domain.NewProduct("", "Pizza", "c1", 10, ""))
				if err != nil || id == "" {
					return false
				}
				if _, err := uuid.Parse(id); err != nil {
					return false
				}
				seen[id] = struct{}{}
			}
			return len(seen) == n && fake.Len("produtos") == n
		},
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: catalog-service, Property: partial update changes only the supplied field
func TestProperty_UpdatePriceLeavesOtherFields(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("only preco changes", prop.ForAll(
		func(name, category, description string, price, newPrice float64) bool {
			uc, _ := newTestUseCase(t)
			ctx := context.Background()

			id, err := uc.Create(ctx, domain.NewProduct("", name, category, price, description))
			if err != nil {
				return false
			}

			updated, err := uc.Update(ctx, id, domain.ProductChanges{Price: &newPrice})
			if err != nil || updated != id {
				return false
			}

			got, err := uc.GetByID(ctx, id)
			if err != nil || got == nil {
				return false
			}
			want := domain.NewProduct(id, name, category, newPrice, description)
			return *got == want
		},
		gen.AlphaString(),
		gen.Identifier(),
		gen.AlphaString(),
		gen.Float64Range(0, 1000),
		gen.Float64Range(0, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCreateKeepsSuppliedID(t *testing.T) {
	uc, _ := newTestUseCase(t)

	id, err := uc.Create(context.Background(), domain.NewProduct("fixed-id", "Pizza", "c1", 10, ""))
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)
}

func TestCreateUsesInjectedGenerator(t *testing.T) {
	gw := &stubGateway{}
	uc := NewProductUseCaseWithIDGenerator(gw, func() string { return "generated" })

	id, err := uc.CreateCategory(context.Background(), domain.Category{Name: "Bebidas"})
	require.NoError(t, err)
	assert.Equal(t, "generated", id)
	assert.Equal(t, domain.Category{ID: "generated", Name: "Bebidas"}, gw.lastCategory)
}

func TestCreateThenUpdateScenario(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	id, err := uc.Create(ctx, domain.Product{Name: "Pizza", Category: "c1", Price: 30, Description: "calabresa", Active: true})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := uc.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.Product{ID: id, Name: "Pizza", Category: "c1", Price: 30, Description: "calabresa", Active: true}, *got)

	price := 35.0
	updated, err := uc.Update(ctx, id, domain.ProductChanges{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, id, updated)

	got, err = uc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.Product{ID: id, Name: "Pizza", Category: "c1", Price: 35, Description: "calabresa", Active: true}, *got)
}

func TestUpdateMissingReturnsEmptyID(t *testing.T) {
	uc, fake := newTestUseCase(t)
	ctx := context.Background()

	price := 1.0
	id, err := uc.Update(ctx, "missing", domain.ProductChanges{Price: &price})
	require.NoError(t, err)
	assert.Empty(t, id)

	id, err = uc.UpdateStatus(ctx, "missing", false)
	require.NoError(t, err)
	assert.Empty(t, id)

	assert.Equal(t, 0, fake.Len("produtos"))
}

func TestUpdateStatusOnlyTouchesActive(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	id, err := uc.Create(ctx, domain.NewProduct("", "Pizza", "c1", 30, "calabresa"))
	require.NoError(t, err)

	updated, err := uc.UpdateStatus(ctx, id, false)
	require.NoError(t, err)
	assert.Equal(t, id, updated)

	got, err := uc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, 30.0, got.Price)
	assert.Equal(t, "Pizza", got.Name)
}

func TestEmptyCatalog(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	products, err := uc.GetAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)

	categories, err := uc.GetAllCategories(ctx)
	require.NoError(t, err)
	assert.NotNil(t, categories)
	assert.Empty(t, categories)

	got, err := uc.GetByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCategoriesRoundTrip(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	id, err := uc.CreateCategory(ctx, domain.Category{Name: "Bebidas"})
	require.NoError(t, err)

	categories, err := uc.GetAllCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{{ID: id, Name: "Bebidas"}}, categories)
}

func TestUnsupportedLookups(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	_, err := uc.GetByName(ctx, "Pizza")
	assert.ErrorIs(t, err, gateway.ErrNotImplemented)

	_, err = uc.GetByCategory(ctx, "c1")
	assert.ErrorIs(t, err, gateway.ErrNotImplemented)
}

func TestStoreFailuresPropagate(t *testing.T) {
	uc, fake := newTestUseCase(t)
	boom := errors.New("service unavailable")
	fake.Err = boom
	ctx := context.Background()

	id, err := uc.Create(ctx, domain.NewProduct("", "Pizza", "c1", 10, ""))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, id)

	price := 1.0
	_, err = uc.Update(ctx, "p1", domain.ProductChanges{Price: &price})
	assert.ErrorIs(t, err, boom)

	_, err = uc.GetAll(ctx)
	assert.ErrorIs(t, err, boom)
}

type stubGateway struct {
	gateway.ProductGateway
	lastCategory domain.Category
}

func (s *stubGateway) CreateCategory(ctx context.Context, category domain.Category) error {
	s.lastCategory = category
	return nil
}

// memoryGateway keeps products in a map and merges updates with ProductChanges.Apply.
type memoryGateway struct {
	gateway.ProductGateway
	products map[string]domain.Product
	updates  int
}

func newMemoryGateway(products ...domain.Product) *memoryGateway {
	g := &memoryGateway{products: make(map[string]domain.Product)}
	for _, p := range products {
		g.products[p.ID] = p
	}
	return g
}

func (g *memoryGateway) Update(ctx context.Context, id string, changes domain.ProductChanges) (bool, error) {
	g.updates++
	p, ok := g.products[id]
	if !ok {
		return false, nil
	}
	g.products[id] = changes.Apply(p)
	return true, nil
}

func (g *memoryGateway) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, ok := g.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func TestUpdateWithoutChangesOnlyChecksExistence(t *testing.T) {
	gw := newMemoryGateway(domain.NewProduct("p1", "Pizza", "c1", 30, "calabresa"))
	uc := NewProductUseCase(gw)
	ctx := context.Background()

	id, err := uc.Update(ctx, "p1", domain.ProductChanges{})
	require.NoError(t, err)
	assert.Equal(t, "p1", id)

	id, err = uc.Update(ctx, "missing", domain.ProductChanges{})
	require.NoError(t, err)
	assert.Empty(t, id)

	assert.Zero(t, gw.updates)
	assert.Equal(t, domain.NewProduct("p1", "Pizza", "c1", 30, "calabresa"), gw.products["p1"])
}

func TestUpdateStatusKeepsOtherFields(t *testing.T) {
	gw := newMemoryGateway(domain.NewProduct("p1", "Pizza", "c1", 30, "calabresa"))
	uc := NewProductUseCase(gw)

	id, err := uc.UpdateStatus(context.Background(), "p1", false)
	require.NoError(t, err)
	assert.Equal(t, "p1", id)

	want := domain.NewProduct("p1", "Pizza", "c1", 30, "calabresa")
	want.Active = false
	assert.Equal(t, want, gw.products["p1"])
	assert.Equal(t, 1, gw.updates)
}
