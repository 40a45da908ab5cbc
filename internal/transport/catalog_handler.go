package transport

import (
	"errors"
	"net/http"

	"catalog-pricing/internal/middleware"
	"catalog-pricing/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BrandPayload identifies a brand in a mutation request. The id is required
// for updates and deletes, ignored on creation.
type BrandPayload struct {
	ID   *uuid.UUID `json:"id,omitempty"`
	Name string     `json:"name"`
}

// ProductPayload is one product row in a mutation request.
type ProductPayload struct {
	ID       *uuid.UUID `json:"id,omitempty"`
	Category string     `json:"category"`
	Price    int64      `json:"price"`
}

// BrandProductRequest is the shared payload for all brand mutations.
type BrandProductRequest struct {
	Brand    *BrandPayload    `json:"brand" validate:"required"`
	Products []ProductPayload `json:"products" validate:"dive"`
}

// CatalogHandler handles HTTP requests for catalog queries and mutations
type CatalogHandler struct {
	pricingService service.PricingService
	brandService   service.BrandService
	logger         *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(pricingService service.PricingService, brandService service.BrandService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		pricingService: pricingService,
		brandService:   brandService,
		logger:         logger,
	}
}

// RegisterRoutes registers all catalog routes. The rate limiter applies to
// mutating routes only.
func (h *CatalogHandler) RegisterRoutes(r chi.Router, rateLimiter func(http.Handler) http.Handler) {
	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/lowest-price", h.GetLowestPriceByCategory)
		r.Get("/brand/lowest-price", h.GetCheapestBrandBasket)
		r.Get("/category/price", h.GetCategoryPriceRange)
	})

	r.Route("/api/brands", func(r chi.Router) {
		if rateLimiter != nil {
			r.Use(rateLimiter)
		}
		r.Post("/", h.AddBrandWithProducts)
		r.Put("/", h.UpdateBrandWithProducts)
		r.Delete("/", h.DeleteBrandWithProducts)
	})
}

// GetLowestPriceByCategory returns the cheapest product per category plus
// the total of the selected prices.
func (h *CatalogHandler) GetLowestPriceByCategory(w http.ResponseWriter, r *http.Request) {
	summary, err := h.pricingService.LowestPriceByCategory(r.Context())
	if err != nil {
		h.respondRetrievalError(w, err, "failed to retrieve lowest prices by category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

// GetCheapestBrandBasket returns the brand with the cheapest
// one-of-each-category basket.
func (h *CatalogHandler) GetCheapestBrandBasket(w http.ResponseWriter, r *http.Request) {
	summary, err := h.pricingService.CheapestBrandBasket(r.Context())
	if err != nil {
		h.respondRetrievalError(w, err, "failed to retrieve cheapest brand basket")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, summary)
}

// GetCategoryPriceRange returns the products tied at the minimum and
// maximum price within one category.
func (h *CatalogHandler) GetCategoryPriceRange(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "category query parameter is required")
		return
	}

	priceRange, err := h.pricingService.CategoryPriceRange(r.Context(), category)
	if err != nil {
		h.respondRetrievalError(w, err, "failed to retrieve category price range")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, priceRange)
}

// AddBrandWithProducts creates a brand with its products
func (h *CatalogHandler) AddBrandWithProducts(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeBrandRequest(w, r)
	if !ok {
		return
	}

	result := h.brandService.AddBrandWithProducts(r.Context(), req.Brand.Name, toProductInputs(req.Products))
	if !result.Success {
		h.logger.Warn("Brand creation rejected", zap.String("reason", result.Message))
	}

	middleware.RespondWithJSON(w, http.StatusCreated, result)
}

// UpdateBrandWithProducts renames a brand and merges its product set
func (h *CatalogHandler) UpdateBrandWithProducts(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeBrandRequest(w, r)
	if !ok {
		return
	}

	if req.Brand.ID == nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "brand id is required")
		return
	}

	result := h.brandService.UpdateBrandWithProducts(r.Context(), *req.Brand.ID, req.Brand.Name, toProductInputs(req.Products))
	if !result.Success {
		h.logger.Warn("Brand update rejected",
			zap.String("brand_id", req.Brand.ID.String()),
			zap.String("reason", result.Message),
		)
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// DeleteBrandWithProducts soft-deletes a brand and all its products
func (h *CatalogHandler) DeleteBrandWithProducts(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeBrandRequest(w, r)
	if !ok {
		return
	}

	if req.Brand.ID == nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "brand id is required")
		return
	}

	result := h.brandService.DeleteBrandWithProducts(r.Context(), *req.Brand.ID)
	if !result.Success {
		h.logger.Warn("Brand deletion rejected",
			zap.String("brand_id", req.Brand.ID.String()),
			zap.String("reason", result.Message),
		)
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

func (h *CatalogHandler) decodeBrandRequest(w http.ResponseWriter, r *http.Request) (*BrandProductRequest, bool) {
	var req BrandProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Brand request validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return nil, false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	return &req, true
}

func (h *CatalogHandler) respondRetrievalError(w http.ResponseWriter, err error, message string) {
	var retrievalErr *service.RetrievalError
	if errors.As(err, &retrievalErr) {
		h.logger.Error("Catalog retrieval failed",
			zap.String("code", retrievalErr.Code),
			zap.Error(err),
		)
		middleware.RespondWithError(w, http.StatusInternalServerError, retrievalErr.Message)
		return
	}

	h.logger.Error("Catalog retrieval failed", zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, message)
}

func toProductInputs(payloads []ProductPayload) []service.ProductInput {
	inputs := make([]service.ProductInput, 0, len(payloads))
	for _, p := range payloads {
		inputs = append(inputs, service.ProductInput{
			ID:       p.ID,
			Category: p.Category,
			Price:    p.Price,
		})
	}
	return inputs
}
