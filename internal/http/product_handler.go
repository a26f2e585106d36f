package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tuanvumaihuynh/inventory-service/internal/apperr"
	"github.com/tuanvumaihuynh/inventory-service/internal/http/apierr"
	"github.com/tuanvumaihuynh/inventory-service/internal/model"
	"github.com/tuanvumaihuynh/inventory-service/internal/service"
	"github.com/tuanvumaihuynh/inventory-service/pkg/validator"
)

type productHandler struct {
	logger         *slog.Logger
	maxUploadBytes int64
	validator      validator.Validator
	productSvc     service.ProductService
}

func newProductHandler(logger *slog.Logger, maxUploadBytes int64, productSvc service.ProductService) *productHandler {
	return &productHandler{
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
		validator:      validator.NewDefaultValidator(),
		productSvc:     productSvc,
	}
}

type productRequest struct {
	Name      string `json:"name" validate:"required"`
	Unit      string `json:"unit"`
	Category  string `json:"category"`
	Brand     string `json:"brand"`
	Stock     int    `json:"stock" validate:"gte=0"`
	Status    string `json:"status"`
	Image     string `json:"image"`
	ChangedBy string `json:"changedBy"`
}

type productResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Category  string    `json:"category"`
	Brand     string    `json:"brand"`
	Stock     int       `json:"stock"`
	Status    string    `json:"status"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type historyEntryResponse struct {
	OldStock  int       `json:"oldStock"`
	NewStock  int       `json:"newStock"`
	ChangedBy string    `json:"changedBy"`
	Timestamp time.Time `json:"timestamp"`
}

type importDuplicateResponse struct {
	Name       string `json:"name"`
	ExistingID int64  `json:"existingId"`
}

type importResponse struct {
	Added      int                       `json:"added"`
	Skipped    int                       `json:"skipped"`
	Duplicates []importDuplicateResponse `json:"duplicates"`
}

type deleteResponse struct {
	Deleted int64 `json:"deleted"`
}

func (h *productHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productSvc.ListProducts(r.Context())
	if err != nil {
		h.writeError(w, r, fmt.Errorf("product service list products: %w", err))
		return
	}

	h.writeJSON(w, r, http.StatusOK, productsToResponse(products))
}

func (h *productHandler) searchProducts(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	products, err := h.productSvc.SearchProducts(r.Context(), name)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("product service search products: %w", err))
		return
	}

	h.writeJSON(w, r, http.StatusOK, productsToResponse(products))
}

func (h *productHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeProductRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	product, err := h.productSvc.CreateProduct(r.Context(), service.CreateProductParams{
		Name:     req.Name,
		Unit:     req.Unit,
		Category: req.Category,
		Brand:    req.Brand,
		Stock:    req.Stock,
		Status:   req.Status,
		Image:    req.Image,
	})
	if err != nil {
		h.writeError(w, r, fmt.Errorf("product service create product: %w", err))
		return
	}

	h.writeJSON(w, r, http.StatusCreated, productToResponse(product))
}

func (h *productHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	req, err := h.decodeProductRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	product, err := h.productSvc.UpdateProduct(r.Context(), service.UpdateProductParams{
		ID:        id,
		Name:      req.Name,
		Unit:      req.Unit,
		Category:  req.Category,
		Brand:     req.Brand,
		Stock:     req.Stock,
		Status:    req.Status,
		Image:     req.Image,
		ChangedBy: req.ChangedBy,
	})
	if err != nil {
		h.writeError(w, r, fmt.Errorf("product service update product: %w", err))
		return
	}

	h.writeJSON(w, r, http.StatusOK, productToResponse(product))
}

func (h *productHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	deleted, err := h.productSvc.DeleteProduct(r.Context(), id)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("product service delete product: %w", err))
		return
	}

	h.writeJSON(w, r, http.StatusOK, deleteResponse{Deleted: deleted})
}

func (h *productHandler) getProductHistory(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	entries, err := h.productSvc.GetProductHistory(r.Context(), id)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("product service get product history: %w", err))
		return
	}

	items := make([]historyEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, historyEntryResponse{
			OldStock:  entry.OldStock,
			NewStock:  entry.NewStock,
			ChangedBy: entry.ChangedBy,
			Timestamp: entry.ChangedAt,
		})
	}

	h.writeJSON(w, r, http.StatusOK, items)
}

func (h *productHandler) importProducts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, apperr.CSVFileRequiredErr.WrapParent(err))
		return
	}
	defer file.Close()

	summary, err := h.productSvc.ImportProducts(r.Context(), file)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("product service import products: %w", err))
		return
	}

	duplicates := make([]importDuplicateResponse, 0, len(summary.Duplicates))
	for _, dup := range summary.Duplicates {
		duplicates = append(duplicates, importDuplicateResponse{
			Name:       dup.Name,
			ExistingID: dup.ExistingID,
		})
	}

	h.writeJSON(w, r, http.StatusOK, importResponse{
		Added:      summary.Added,
		Skipped:    summary.Skipped,
		Duplicates: duplicates,
	})
}

func (h *productHandler) exportProducts(w http.ResponseWriter, r *http.Request) {
	// Buffered so a storage failure can still produce an error response
	// instead of a truncated attachment.
	var buf bytes.Buffer
	if err := h.productSvc.ExportProducts(r.Context(), &buf); err != nil {
		h.writeError(w, r, fmt.Errorf("product service export products: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="products.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.WarnContext(r.Context(), "error writing csv export", slog.Any("error", err))
	}
}

func (h *productHandler) decodeProductRequest(r *http.Request) (productRequest, error) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, apperr.ValidationErr.WrapParent(err)
	}

	if err := h.validator.Validate(req); err != nil {
		return req, err
	}

	return req, nil
}

func parseProductID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperr.InvalidProductIDErr.WrapParent(err)
	}
	return id, nil
}

func (h *productHandler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.ErrorContext(r.Context(), "error encoding response", slog.Any("error", err))
	}
}

func (h *productHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	h.logger.Log(r.Context(), logLevel, "http response error", slog.Any("error", err))

	if err := json.NewEncoder(w).Encode(res); err != nil {
		h.logger.ErrorContext(r.Context(), "error encoding error response", slog.Any("error", err))
	}
}

func productToResponse(p model.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Unit:      p.Unit,
		Category:  p.Category,
		Brand:     p.Brand,
		Stock:     p.Stock,
		Status:    p.Status,
		Image:     p.Image,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func productsToResponse(products []model.Product) []productResponse {
	items := make([]productResponse, 0, len(products))
	for _, product := range products {
		items = append(items, productToResponse(product))
	}
	return items
}
