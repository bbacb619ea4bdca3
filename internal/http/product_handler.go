package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ecosopis/storefront/internal/auth"
	"github.com/ecosopis/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type ProductService interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, id int64, patch domain.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type ProductHandler struct {
	products ProductService
	timeout  time.Duration
}

func NewProductHandler(products ProductService, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		products: products,
		timeout:  timeout,
	}
}

// GET /api/products?category=&search=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	products, err := h.products.ListProducts(ctx, domain.ProductFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		out = append(out, normalizeProduct(p))
	}
	respondJSON(w, http.StatusOK, out)
}

// GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, err := h.products.GetProduct(ctx, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, normalizeProduct(*p))
}

// POST /api/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := auth.Authorize(callerFromRequest(r), domain.RoleAdmin); err != nil {
		handleError(w, r, err)
		return
	}

	var p domain.Product
	if err := decodeJSON(r, &p); err != nil {
		handleError(w, r, err)
		return
	}
	p.ID = 0

	if err := h.products.CreateProduct(ctx, &p); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, normalizeProduct(p))
}

// PUT /api/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := auth.Authorize(callerFromRequest(r), domain.RoleAdmin); err != nil {
		handleError(w, r, err)
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var patch domain.ProductPatch
	if err := decodeJSON(r, &patch); err != nil {
		handleError(w, r, err)
		return
	}

	p, err := h.products.UpdateProduct(ctx, id, patch)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, normalizeProduct(*p))
}

// DELETE /api/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := auth.Authorize(callerFromRequest(r), domain.RoleAdmin); err != nil {
		handleError(w, r, err)
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(ctx, id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// tags always serialize as an array
func normalizeProduct(p domain.Product) domain.Product {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p
}
