package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/inventory-service/internal/apperr"
	"github.com/tuanvumaihuynh/inventory-service/internal/http/apierr"
	"github.com/tuanvumaihuynh/inventory-service/internal/model"
	"github.com/tuanvumaihuynh/inventory-service/internal/service"
)

// stubProductService lets each test plug in just the behavior it needs.
// Unset methods fail the request loudly via nil dereference.
type stubProductService struct {
	createFn  func(ctx context.Context, params service.CreateProductParams) (model.Product, error)
	listFn    func(ctx context.Context) ([]model.Product, error)
	searchFn  func(ctx context.Context, name string) ([]model.Product, error)
	updateFn  func(ctx context.Context, params service.UpdateProductParams) (model.Product, error)
	deleteFn  func(ctx context.Context, id int64) (int64, error)
	historyFn func(ctx context.Context, id int64) ([]model.InventoryLog, error)
	importFn  func(ctx context.Context, r io.Reader) (service.ImportSummary, error)
	exportFn  func(ctx context.Context, w io.Writer) error
}

func (s *stubProductService) CreateProduct(ctx context.Context, params service.CreateProductParams) (model.Product, error) {
	return s.createFn(ctx, params)
}

func (s *stubProductService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.listFn(ctx)
}

func (s *stubProductService) SearchProducts(ctx context.Context, name string) ([]model.Product, error) {
	return s.searchFn(ctx, name)
}

func (s *stubProductService) UpdateProduct(ctx context.Context, params service.UpdateProductParams) (model.Product, error) {
	return s.updateFn(ctx, params)
}

func (s *stubProductService) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	return s.deleteFn(ctx, id)
}

func (s *stubProductService) GetProductHistory(ctx context.Context, id int64) ([]model.InventoryLog, error) {
	return s.historyFn(ctx, id)
}

func (s *stubProductService) ImportProducts(ctx context.Context, r io.Reader) (service.ImportSummary, error) {
	return s.importFn(ctx, r)
}

func (s *stubProductService) ExportProducts(ctx context.Context, w io.Writer) error {
	return s.exportFn(ctx, w)
}

func newTestRouter(svc service.ProductService) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := newProductHandler(logger, 1<<20, svc)

	r := chi.NewRouter()
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/search", h.searchProducts)
		r.Get("/export", h.exportProducts)
		r.Post("/import", h.importProducts)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
		r.Get("/{id}/history", h.getProductHistory)
	})
	return r
}

func doRequest(t *testing.T, router chi.Router, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) apierr.ErrorResponse {
	t.Helper()
	var res apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestListProducts(t *testing.T) {
	t.Run("Should return products as JSON", func(t *testing.T) {
		now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		svc := &stubProductService{
			listFn: func(context.Context) ([]model.Product, error) {
				return []model.Product{{ID: 2, Name: "Bolt", Stock: 7, CreatedAt: now, UpdatedAt: now}}, nil
			},
		}

		rec := doRequest(t, newTestRouter(svc), http.MethodGet, "/api/products", nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var items []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
		require.Len(t, items, 1)
		assert.Equal(t, float64(2), items[0]["id"])
		assert.Equal(t, "Bolt", items[0]["name"])
		assert.Equal(t, float64(7), items[0]["stock"])
	})

	t.Run("Should return an empty array when there are no products", func(t *testing.T) {
		svc := &stubProductService{
			listFn: func(context.Context) ([]model.Product, error) {
				return nil, nil
			},
		}

		rec := doRequest(t, newTestRouter(svc), http.MethodGet, "/api/products", nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]\n", rec.Body.String())
	})
}

func TestSearchProducts(t *testing.T) {
	t.Run("Should pass the name filter to the service", func(t *testing.T) {
		var gotName string
		svc := &stubProductService{
			searchFn: func(_ context.Context, name string) ([]model.Product, error) {
				gotName = name
				return nil, nil
			},
		}

		rec := doRequest(t, newTestRouter(svc), http.MethodGet, "/api/products/search?name=bol", nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "bol", gotName)
	})
}

func TestCreateProductHandler(t *testing.T) {
	t.Run("Should create a product and return 201", func(t *testing.T) {
		svc := &stubProductService{
			createFn: func(_ context.Context, params service.CreateProductParams) (model.Product, error) {
				return model.Product{ID: 1, Name: params.Name, Stock: params.Stock}, nil
			},
		}

		body := strings.NewReader(`{"name":"Widget","unit":"pcs","stock":10}`)
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/products", body, "application/json")

		require.Equal(t, http.StatusCreated, rec.Code)

		var res map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, float64(1), res["id"])
		assert.Equal(t, "Widget", res["name"])
	})

	t.Run("Should reject a missing name without calling the service", func(t *testing.T) {
		called := false
		svc := &stubProductService{
			createFn: func(_ context.Context, _ service.CreateProductParams) (model.Product, error) {
				called = true
				return model.Product{}, nil
			},
		}

		body := strings.NewReader(`{"unit":"pcs","stock":10}`)
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/products", body, "application/json")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, called)

		res := decodeErrorResponse(t, rec)
		require.Len(t, res.Details, 1)
		assert.Equal(t, "Name", res.Details[0].Field)
	})

	t.Run("Should reject negative stock without calling the service", func(t *testing.T) {
		called := false
		svc := &stubProductService{
			createFn: func(_ context.Context, _ service.CreateProductParams) (model.Product, error) {
				called = true
				return model.Product{}, nil
			},
		}

		body := strings.NewReader(`{"name":"Widget","stock":-1}`)
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/products", body, "application/json")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, called)
	})

	t.Run("Should reject a body that is not JSON", func(t *testing.T) {
		svc := &stubProductService{}

		body := strings.NewReader(`not json`)
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/products", body, "application/json")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		res := decodeErrorResponse(t, rec)
		assert.Equal(t, apperr.ValidationErrorCode, res.Code)
	})
}

func TestUpdateProductHandler(t *testing.T) {
	validBody := func() io.Reader {
		return strings.NewReader(`{"name":"Widget","stock":3,"changedBy":"alice"}`)
	}

	t.Run("Should pass the parsed id and actor to the service", func(t *testing.T) {
		var gotParams service.UpdateProductParams
		svc := &stubProductService{
			updateFn: func(_ context.Context, params service.UpdateProductParams) (model.Product, error) {
				gotParams = params
				return model.Product{ID: params.ID, Name: params.Name, Stock: params.Stock}, nil
			},
		}

		rec := doRequest(t, newTestRouter(svc), http.MethodPut, "/api/products/42", validBody(), "application/json")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(42), gotParams.ID)
		assert.Equal(t, "alice", gotParams.ChangedBy)
	})

	t.Run("Should return 400 for a non-numeric id", func(t *testing.T) {
		svc := &stubProductService{}

		rec := doRequest(t, newTestRouter(svc), http.MethodPut, "/api/products/abc", validBody(), "application/json")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		res := decodeErrorResponse(t, rec)
		assert.Equal(t, apperr.InvalidProductIDCode, res.Code)
	})

	t.Run("Should return 404 when the product does not exist", func(t *testing.T) {
		svc := &stubProductService{
			updateFn: func(_ context.Context, _ service.UpdateProductParams) (model.Product, error) {
				return model.Product{}, apperr.ProductNotFoundErr
			},
		}

		rec := doRequest(t, newTestRouter(svc), http.MethodPut, "/api/products/42", validBody(), "application/json")

		require.Equal(t, http.StatusNotFound, rec.Code)
		res := decodeErrorResponse(t, rec)
		assert.Equal(t, apperr.ProductNotFoundCode, res.Code)
	})

	t.Run("Should return 400 when the name collides with another product", func(t *testing.T) {
		svc := &stubProductService{
			updateFn: func(_ context.Context, _ service.UpdateProductParams) (model.Product, error) {
				return model.Product{}, apperr.ProductNameConflictErr
			},
		}

		rec := doRequest(t, newTestRouter(svc), http.MethodPut, "/api/products/42", validBody(), "application/json")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		res := decodeErrorResponse(t, rec)
		assert.Equal(t, apperr.ProductNameConflictCode, res.Code)
	})
}

func TestDeleteProductHandler(t *testing.T) {
	t.Run("Should report the number of deleted rows", func(t *testing.T) {
		svc := &stubProductService{
			deleteFn: func(_ context.Context, id int64) (int64, error) {
				require.Equal(t, int64(7), id)
				return 1, nil
			},
		}

		rec := doRequest(t, newTestRouter(svc), http.MethodDelete, "/api/products/7", nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"deleted":1}`, rec.Body.String())
	})

	t.Run("Should report zero for an unknown id", func(t *testing.T) {
		svc := &stubProductService{
			deleteFn: func(_ context.Context, _ int64) (int64, error) {
				return 0, nil
			},
		}

		rec := doRequest(t, newTestRouter(svc), http.MethodDelete, "/api/products/999", nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"deleted":0}`, rec.Body.String())
	})
}

func TestGetProductHistoryHandler(t *testing.T) {
	t.Run("Should render history entries with audit field names", func(t *testing.T) {
		changedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		svc := &stubProductService{
			historyFn: func(_ context.Context, id int64) ([]model.InventoryLog, error) {
				require.Equal(t, int64(5), id)
				return []model.InventoryLog{
					{ID: 1, ProductID: 5, OldStock: 10, NewStock: 3, ChangedBy: "alice", ChangedAt: changedAt},
				}, nil
			},
		}

		rec := doRequest(t, newTestRouter(svc), http.MethodGet, "/api/products/5/history", nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"oldStock":10,"newStock":3,"changedBy":"alice","timestamp":"2024-03-01T12:00:00Z"}]`, rec.Body.String())
	})
}

func TestImportProductsHandler(t *testing.T) {
	multipartBody := func(t *testing.T, fieldName, content string) (io.Reader, string) {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile(fieldName, "products.csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return &buf, mw.FormDataContentType()
	}

	t.Run("Should return the import summary", func(t *testing.T) {
		svc := &stubProductService{
			importFn: func(_ context.Context, r io.Reader) (service.ImportSummary, error) {
				content, err := io.ReadAll(r)
				require.NoError(t, err)
				assert.Contains(t, string(content), "Widget")
				return service.ImportSummary{
					Added:   1,
					Skipped: 1,
					Duplicates: []service.ImportDuplicate{
						{Name: "Bolt", ExistingID: 3},
					},
				}, nil
			},
		}

		body, contentType := multipartBody(t, "file", "name,unit\nWidget,pcs\nBolt,pcs\n")
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/products/import", body, contentType)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"added":1,"skipped":1,"duplicates":[{"name":"Bolt","existingId":3}]}`, rec.Body.String())
	})

	t.Run("Should return 400 when the file part is missing", func(t *testing.T) {
		svc := &stubProductService{}

		body, contentType := multipartBody(t, "upload", "name\nWidget\n")
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/products/import", body, contentType)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		res := decodeErrorResponse(t, rec)
		assert.Equal(t, apperr.CSVFileRequiredCode, res.Code)
	})

	t.Run("Should surface a malformed stream as 400", func(t *testing.T) {
		svc := &stubProductService{
			importFn: func(_ context.Context, _ io.Reader) (service.ImportSummary, error) {
				return service.ImportSummary{}, apperr.CSVMalformedErr
			},
		}

		body, contentType := multipartBody(t, "file", `Bad"Row`)
		rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/products/import", body, contentType)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		res := decodeErrorResponse(t, rec)
		assert.Equal(t, apperr.CSVMalformedCode, res.Code)
	})
}

func TestExportProductsHandler(t *testing.T) {
	t.Run("Should serve the CSV as an attachment", func(t *testing.T) {
		svc := &stubProductService{
			exportFn: func(_ context.Context, w io.Writer) error {
				_, err := w.Write([]byte("\"name\",\"unit\"\n\"Widget\",\"pcs\"\n"))
				return err
			},
		}

		rec := doRequest(t, newTestRouter(svc), http.MethodGet, "/api/products/export", nil, "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="products.csv"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "\"name\",\"unit\"\n\"Widget\",\"pcs\"\n", rec.Body.String())
	})

	t.Run("Should return a JSON error when the export fails midway", func(t *testing.T) {
		svc := &stubProductService{
			exportFn: func(_ context.Context, w io.Writer) error {
				_, _ = w.Write([]byte("\"name\"\n"))
				return io.ErrUnexpectedEOF
			},
		}

		rec := doRequest(t, newTestRouter(svc), http.MethodGet, "/api/products/export", nil, "")

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	})
}
