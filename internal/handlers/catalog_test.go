package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/atacadex/api/internal/domain"
	"github.com/atacadex/api/internal/services"
)

type stubCatalogService struct {
	getFunc  func(ctx context.Context, productID string) (services.Product, error)
	listFunc func(ctx context.Context, filter services.ProductListFilter) (domain.CursorPage[services.Product], error)
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID string) (services.Product, error) {
	return s.getFunc(ctx, productID)
}

func (s *stubCatalogService) ListProducts(ctx context.Context, filter services.ProductListFilter) (domain.CursorPage[services.Product], error) {
	return s.listFunc(ctx, filter)
}

func catalogRouter(svc services.CatalogService) chi.Router {
	handlers := NewCatalogHandlers(nil, svc)
	r := chi.NewRouter()
	handlers.Routes(r)
	return r
}

func sampleProduct() services.Product {
	return services.Product{
		ID:            "prod-1",
		SupplierRef:   "sup-1",
		Name:          "Arroz Tipo 1 5kg",
		BasePrice:     1000,
		UnitOfMeasure: "fardo",
		StockOnHand:   10,
		Active:        true,
		CreatedAt:     time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestGetProductEndpoint(t *testing.T) {
	svc := &stubCatalogService{
		getFunc: func(_ context.Context, productID string) (services.Product, error) {
			if productID != "prod-1" {
				t.Fatalf("unexpected product id %q", productID)
			}
			return sampleProduct(), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/prod-1", nil)
	rr := httptest.NewRecorder()

	catalogRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp productResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Product.Name != "Arroz Tipo 1 5kg" || resp.Product.BasePrice != 1000 {
		t.Fatalf("unexpected payload %#v", resp.Product)
	}
}

func TestGetProductEndpointMapsNotFound(t *testing.T) {
	svc := &stubCatalogService{
		getFunc: func(context.Context, string) (services.Product, error) {
			return services.Product{}, services.ErrCatalogProductNotFound
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/prod-missing", nil)
	rr := httptest.NewRecorder()

	catalogRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	assertErrorCode(t, rr, "product_not_found")
}

func TestListProductsEndpointForwardsFilters(t *testing.T) {
	var captured services.ProductListFilter
	svc := &stubCatalogService{
		listFunc: func(_ context.Context, filter services.ProductListFilter) (domain.CursorPage[services.Product], error) {
			captured = filter
			return domain.CursorPage[services.Product]{Items: []services.Product{sampleProduct()}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/?supplier_id=sup-1&only_active=true&page_size=25", nil)
	rr := httptest.NewRecorder()

	catalogRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if captured.SupplierID != "sup-1" || !captured.OnlyActive {
		t.Fatalf("unexpected filter %#v", captured)
	}
	if captured.Pagination.PageSize != 25 {
		t.Fatalf("unexpected page size %d", captured.Pagination.PageSize)
	}
}

func TestListProductsEndpointRejectsBadPageSize(t *testing.T) {
	svc := &stubCatalogService{
		listFunc: func(context.Context, services.ProductListFilter) (domain.CursorPage[services.Product], error) {
			t.Fatal("service must not be called")
			return domain.CursorPage[services.Product]{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/?page_size=abc", nil)
	rr := httptest.NewRecorder()

	catalogRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
