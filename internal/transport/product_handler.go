package transport

import (
	"errors"
	"fmt"
	"net/http"

	"catalog-service/internal/domain"
	"catalog-service/internal/gateway"
	"catalog-service/internal/middleware"
	"catalog-service/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const productUpdatedMessage = "Produto atualizado com sucesso."

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Nome        string  `json:"nome" validate:"required,max=200"`
	CategoriaID string  `json:"categoriaId"`
	Preco       float64 `json:"preco" validate:"gte=0"`
	Descricao   string  `json:"descricao" validate:"max=2000"`
	Ativo       *bool   `json:"ativo"`
}

// UpdateProductRequest represents a partial product update; absent fields are kept
type UpdateProductRequest struct {
	Nome        *string  `json:"nome" validate:"omitempty,min=1,max=200"`
	CategoriaID *string  `json:"categoriaId"`
	Preco       *float64 `json:"preco" validate:"omitempty,gte=0"`
	Descricao   *string  `json:"descricao" validate:"omitempty,max=2000"`
	Ativo       *bool    `json:"ativo"`
}

// UpdateStatusRequest represents the status change payload
type UpdateStatusRequest struct {
	Ativo *bool `json:"ativo" validate:"required"`
}

// CreateCategoryRequest represents the category creation payload
type CreateCategoryRequest struct {
	Nome string `json:"nome" validate:"required,max=200"`
}

// ProductResponse represents a product as returned to clients
type ProductResponse struct {
	ID          string  `json:"id"`
	Nome        string  `json:"nome"`
	CategoriaID string  `json:"categoriaId"`
	Preco       float64 `json:"preco"`
	Descricao   string  `json:"descricao"`
	Ativo       bool    `json:"ativo"`
}

// CategoryResponse represents a category as returned to clients
type CategoryResponse struct {
	ID   string `json:"id"`
	Nome string `json:"nome"`
}

// CreateProductResponse carries the id of a new product
type CreateProductResponse struct {
	ProdutoID string `json:"produtoId"`
}

// CreateCategoryResponse carries the id of a new category
type CreateCategoryResponse struct {
	ID string `json:"id"`
}

// UpdateResponse confirms an update
type UpdateResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ProductHandler handles HTTP requests for catalog operations
type ProductHandler struct {
	useCase service.ProductUseCase
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(useCase service.ProductUseCase, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		useCase: useCase,
		logger:  logger.Named("transport"),
	}
}

// RegisterRoutes registers all catalog routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/produtos", func(r chi.Router) {
		r.Get("/", h.GetAll)
		r.Post("/", h.CreateProduct)

		r.Get("/categorias", h.GetAllCategories)
		r.Post("/categorias", h.CreateCategory)
		r.Get("/categorias/{categoria}", h.GetByCategory)

		r.Get("/nome/{nome}", h.GetByName)

		r.Get("/{id}", h.GetByID)
		r.Put("/{id}", h.UpdateProduct)
		r.Put("/{id}/status", h.UpdateProductStatus)
	})
}

// GetAll lists every product
func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	products, err := h.useCase.GetAll(r.Context())
	if err != nil {
		h.respondWithFailure(w, r, "list products", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponses(products))
}

// GetAllCategories lists every category
func (h *ProductHandler) GetAllCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.useCase.GetAllCategories(r.Context())
	if err != nil {
		h.respondWithFailure(w, r, "list categories", err)
		return
	}

	response := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		response = append(response, CategoryResponse{ID: c.ID, Nome: c.Name})
	}
	middleware.RespondWithJSON(w, http.StatusOK, response)
}

// GetByID returns one product or 404
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.useCase.GetByID(r.Context(), id)
	if err != nil {
		h.respondWithFailure(w, r, "get product", err)
		return
	}
	if product == nil {
		middleware.RespondWithRequestError(w, r, http.StatusNotFound, fmt.Sprintf("Produto com id %s não encontrado.", id))
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(*product))
}

// GetByName returns the product with the given name or 404
func (h *ProductHandler) GetByName(w http.ResponseWriter, r *http.Request) {
	nome := chi.URLParam(r, "nome")

	product, err := h.useCase.GetByName(r.Context(), nome)
	if err != nil {
		h.respondWithFailure(w, r, "get product by name", err)
		return
	}
	if product == nil {
		middleware.RespondWithRequestError(w, r, http.StatusNotFound, fmt.Sprintf("Produto com nome %s não encontrado.", nome))
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponse(*product))
}

// GetByCategory lists the products of a category or 404 when there are none
func (h *ProductHandler) GetByCategory(w http.ResponseWriter, r *http.Request) {
	categoria := chi.URLParam(r, "categoria")

	products, err := h.useCase.GetByCategory(r.Context(), categoria)
	if err != nil {
		h.respondWithFailure(w, r, "get products by category", err)
		return
	}
	if len(products) == 0 {
		middleware.RespondWithRequestError(w, r, http.StatusNotFound, fmt.Sprintf("Produto com categoria %s não encontrado.", categoria))
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, toProductResponses(products))
}

// CreateProduct stores a new product, active unless stated otherwise
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	product := domain.NewProduct("", req.Nome, req.CategoriaID, req.Preco, req.Descricao)
	if req.Ativo != nil {
		product.Active = *req.Ativo
	}

	id, err := h.useCase.Create(r.Context(), product)
	if err != nil {
		h.respondWithFailure(w, r, "create product", err)
		return
	}

	h.logger.Info("Product created", zap.String("id", id))
	middleware.RespondWithJSON(w, http.StatusCreated, CreateProductResponse{ProdutoID: id})
}

// CreateCategory stores a new category
func (h *ProductHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.useCase.CreateCategory(r.Context(), domain.Category{Name: req.Nome})
	if err != nil {
		h.respondWithFailure(w, r, "create category", err)
		return
	}

	h.logger.Info("Category created", zap.String("id", id))
	middleware.RespondWithJSON(w, http.StatusCreated, CreateCategoryResponse{ID: id})
}

// UpdateProduct applies the supplied fields to an existing product
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	updated, err := h.useCase.Update(r.Context(), id, domain.ProductChanges{
		Name:        req.Nome,
		Category:    req.CategoriaID,
		Price:       req.Preco,
		Description: req.Descricao,
		Active:      req.Ativo,
	})
	h.respondToUpdate(w, r, id, updated, err)
}

// UpdateProductStatus activates or deactivates a product
func (h *ProductHandler) UpdateProductStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	updated, err := h.useCase.UpdateStatus(r.Context(), id, *req.Ativo)
	h.respondToUpdate(w, r, id, updated, err)
}

func (h *ProductHandler) respondToUpdate(w http.ResponseWriter, r *http.Request, id, updated string, err error) {
	if err != nil {
		h.respondWithFailure(w, r, "update product", err)
		return
	}
	if updated == "" {
		middleware.RespondWithRequestError(w, r, http.StatusNotFound, fmt.Sprintf("Produto com id %s não encontrado.", id))
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, UpdateResponse{ID: updated, Message: productUpdatedMessage})
}

// decode reads and validates the body, answering 400 itself on failure
func (h *ProductHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := middleware.DecodeAndValidate(w, r, v); err != nil {
		h.logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))

		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.RespondWithRequestError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *ProductHandler) respondWithFailure(w http.ResponseWriter, r *http.Request, action string, err error) {
	if errors.Is(err, gateway.ErrNotImplemented) {
		middleware.RespondWithRequestError(w, r, http.StatusNotImplemented, "operation not implemented")
		return
	}

	h.logger.Error("Failed to "+action, zap.String("path", r.URL.Path), zap.Error(err))
	middleware.RespondWithRequestError(w, r, http.StatusInternalServerError, "failed to "+action)
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Nome:        p.Name,
		CategoriaID: p.Category,
		Preco:       p.Price,
		Descricao:   p.Description,
		Ativo:       p.Active,
	}
}

func toProductResponses(products []domain.Product) []ProductResponse {
	response := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		response = append(response, toProductResponse(p))
	}
	return response
}
