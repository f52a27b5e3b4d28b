package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/atacadex/api/internal/domain"
	"github.com/atacadex/api/internal/platform/auth"
	"github.com/atacadex/api/internal/services"
)

type stubOrderService struct {
	createFunc     func(ctx context.Context, cmd services.CreateOrderCommand) (services.Order, error)
	transitionFunc func(ctx context.Context, cmd services.OrderStatusTransitionCommand) (services.Order, error)
	cancelFunc     func(ctx context.Context, cmd services.CancelOrderCommand) (services.Order, error)
	deleteFunc     func(ctx context.Context, cmd services.DeleteOrderCommand) error
	getFunc        func(ctx context.Context, orderID string) (services.Order, error)
	listFunc       func(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[services.Order], error)
}

func (s *stubOrderService) CreateOrder(ctx context.Context, cmd services.CreateOrderCommand) (services.Order, error) {
	return s.createFunc(ctx, cmd)
}

func (s *stubOrderService) TransitionStatus(ctx context.Context, cmd services.OrderStatusTransitionCommand) (services.Order, error) {
	return s.transitionFunc(ctx, cmd)
}

func (s *stubOrderService) Cancel(ctx context.Context, cmd services.CancelOrderCommand) (services.Order, error) {
	return s.cancelFunc(ctx, cmd)
}

func (s *stubOrderService) DeleteOrder(ctx context.Context, cmd services.DeleteOrderCommand) error {
	return s.deleteFunc(ctx, cmd)
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID string) (services.Order, error) {
	return s.getFunc(ctx, orderID)
}

func (s *stubOrderService) ListOrders(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[services.Order], error) {
	return s.listFunc(ctx, filter)
}

func sampleOrder() services.Order {
	created := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	return services.Order{
		ID:           "ord_01sample",
		OrderNumber:  "AT-2025-000042",
		StoreRef:     "store-1",
		SupplierRef:  "sup-1",
		CreatedByRef: "user-1",
		Status:       domain.OrderStatusPending,
		Total:        3600,
		Cashback:     180,
		Items: []domain.OrderLineItem{
			{ProductRef: "prod-1", Quantity: 3, UnitPrice: 1200, AdjustmentApplied: 200},
		},
		CreatedAt: created,
	}
}

func orderRouter(svc services.OrderService) chi.Router {
	handlers := NewOrderHandlers(nil, svc)
	r := chi.NewRouter()
	handlers.Routes(r)
	return r
}

func authenticatedRequest(method, target, body string, roles ...string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	identity := &auth.Identity{UID: "user-1", Roles: roles}
	if len(roles) == 0 {
		identity.Roles = []string{auth.RoleStore}
	}
	return req.WithContext(auth.WithIdentity(req.Context(), identity))
}

func TestCreateOrderEndpointReturnsCreatedOrder(t *testing.T) {
	var captured services.CreateOrderCommand
	svc := &stubOrderService{
		createFunc: func(_ context.Context, cmd services.CreateOrderCommand) (services.Order, error) {
			captured = cmd
			return sampleOrder(), nil
		},
	}

	body := `{"store_id":"store-1","supplier_id":"sup-1","items":[{"product_id":"prod-1","quantity":3}]}`
	req := authenticatedRequest(http.MethodPost, "/", body)
	rr := httptest.NewRecorder()

	orderRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.ActorID != "user-1" {
		t.Fatalf("expected actor from identity, got %q", captured.ActorID)
	}
	if captured.Cart.StoreID != "store-1" || len(captured.Cart.Lines) != 1 || captured.Cart.Lines[0].Quantity != 3 {
		t.Fatalf("unexpected command %#v", captured)
	}

	var resp orderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Order.OrderNumber != "AT-2025-000042" {
		t.Fatalf("unexpected order number %q", resp.Order.OrderNumber)
	}
	if len(resp.Order.Items) != 1 || resp.Order.Items[0].UnitPrice != 1200 {
		t.Fatalf("unexpected items %#v", resp.Order.Items)
	}
}

func TestCreateOrderEndpointMapsInsufficientStock(t *testing.T) {
	svc := &stubOrderService{
		createFunc: func(context.Context, services.CreateOrderCommand) (services.Order, error) {
			return services.Order{}, services.ErrOrderInsufficientStock
		},
	}

	body := `{"store_id":"store-1","supplier_id":"sup-1","items":[{"product_id":"prod-1","quantity":99}]}`
	req := authenticatedRequest(http.MethodPost, "/", body)
	rr := httptest.NewRecorder()

	orderRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	assertErrorCode(t, rr, "insufficient_stock")
}

func TestCreateOrderEndpointRejectsInvalidJSON(t *testing.T) {
	svc := &stubOrderService{
		createFunc: func(context.Context, services.CreateOrderCommand) (services.Order, error) {
			t.Fatal("service must not be called")
			return services.Order{}, nil
		},
	}

	req := authenticatedRequest(http.MethodPost, "/", "{not json")
	rr := httptest.NewRecorder()

	orderRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCreateOrderEndpointRequiresIdentity(t *testing.T) {
	svc := &stubOrderService{}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	orderRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestTransitionStatusEndpoint(t *testing.T) {
	var captured services.OrderStatusTransitionCommand
	svc := &stubOrderService{
		transitionFunc: func(_ context.Context, cmd services.OrderStatusTransitionCommand) (services.Order, error) {
			captured = cmd
			order := sampleOrder()
			order.Status = domain.OrderStatusInSeparation
			return order, nil
		},
	}

	req := authenticatedRequest(http.MethodPost, "/ord_01sample:status", `{"status":"in_separation"}`, auth.RoleSupplier)
	rr := httptest.NewRecorder()

	orderRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.OrderID != "ord_01sample" {
		t.Fatalf("unexpected order id %q", captured.OrderID)
	}
	if captured.TargetStatus != domain.OrderStatusInSeparation {
		t.Fatalf("expected status upper-cased, got %q", captured.TargetStatus)
	}
}

func TestTransitionStatusEndpointRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrderService{
		transitionFunc: func(context.Context, services.OrderStatusTransitionCommand) (services.Order, error) {
			t.Fatal("service must not be called")
			return services.Order{}, nil
		},
	}

	req := authenticatedRequest(http.MethodPost, "/ord_01sample:status", `{"status":"TELEPORTED"}`)
	rr := httptest.NewRecorder()

	orderRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestTransitionStatusEndpointMapsInvalidState(t *testing.T) {
	svc := &stubOrderService{
		transitionFunc: func(context.Context, services.OrderStatusTransitionCommand) (services.Order, error) {
			return services.Order{}, services.ErrOrderInvalidState
		},
	}

	req := authenticatedRequest(http.MethodPost, "/ord_01sample:status", `{"status":"DELIVERED"}`)
	rr := httptest.NewRecorder()

	orderRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	assertErrorCode(t, rr, "order_invalid_state")
}

func TestCancelOrderEndpointAllowsEmptyBody(t *testing.T) {
	var captured services.CancelOrderCommand
	svc := &stubOrderService{
		cancelFunc: func(_ context.Context, cmd services.CancelOrderCommand) (services.Order, error) {
			captured = cmd
			order := sampleOrder()
			order.Status = domain.OrderStatusCancelled
			return order, nil
		},
	}

	req := authenticatedRequest(http.MethodPost, "/ord_01sample:cancel", "")
	rr := httptest.NewRecorder()

	orderRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.OrderID != "ord_01sample" || captured.ActorID != "user-1" {
		t.Fatalf("unexpected command %#v", captured)
	}
}

func TestCancelOrderEndpointMapsUnauthorized(t *testing.T) {
	svc := &stubOrderService{
		cancelFunc: func(context.Context, services.CancelOrderCommand) (services.Order, error) {
			return services.Order{}, services.ErrOrderUnauthorized
		},
	}

	req := authenticatedRequest(http.MethodPost, "/ord_01sample:cancel", `{"reason":"late"}`)
	rr := httptest.NewRecorder()

	orderRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	assertErrorCode(t, rr, "order_forbidden")
}

func TestDeleteOrderEndpoint(t *testing.T) {
	var captured services.DeleteOrderCommand
	svc := &stubOrderService{
		deleteFunc: func(_ context.Context, cmd services.DeleteOrderCommand) error {
			captured = cmd
			return nil
		},
	}

	req := authenticatedRequest(http.MethodDelete, "/ord_01sample", "", auth.RoleAdmin)
	rr := httptest.NewRecorder()

	orderRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if captured.OrderID != "ord_01sample" {
		t.Fatalf("unexpected command %#v", captured)
	}
}

func TestGetOrderEndpointMapsNotFound(t *testing.T) {
	svc := &stubOrderService{
		getFunc: func(context.Context, string) (services.Order, error) {
			return services.Order{}, services.ErrOrderNotFound
		},
	}

	req := authenticatedRequest(http.MethodGet, "/ord_missing", "")
	rr := httptest.NewRecorder()

	orderRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	assertErrorCode(t, rr, "order_not_found")
}

func TestListOrdersEndpointForwardsFilters(t *testing.T) {
	var captured services.OrderListFilter
	svc := &stubOrderService{
		listFunc: func(_ context.Context, filter services.OrderListFilter) (domain.CursorPage[services.Order], error) {
			captured = filter
			return domain.CursorPage[services.Order]{
				Items:         []services.Order{sampleOrder()},
				NextPageToken: "tok",
			}, nil
		},
	}

	req := authenticatedRequest(http.MethodGet, "/?store_id=store-1&status=pending,shipped&page_size=5&created_after=2025-03-01T00:00:00Z", "")
	rr := httptest.NewRecorder()

	orderRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.StoreID != "store-1" {
		t.Fatalf("unexpected store filter %q", captured.StoreID)
	}
	if len(captured.Status) != 2 || captured.Status[0] != domain.OrderStatusPending || captured.Status[1] != domain.OrderStatusShipped {
		t.Fatalf("unexpected status filter %#v", captured.Status)
	}
	if captured.Pagination.PageSize != 5 {
		t.Fatalf("unexpected page size %d", captured.Pagination.PageSize)
	}
	if captured.DateRange.From == nil || !captured.DateRange.From.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date range %#v", captured.DateRange)
	}

	var resp orderListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Items) != 1 || resp.NextPageToken != "tok" {
		t.Fatalf("unexpected response %#v", resp)
	}
}

func TestListOrdersEndpointRejectsUnknownStatusFilter(t *testing.T) {
	svc := &stubOrderService{
		listFunc: func(context.Context, services.OrderListFilter) (domain.CursorPage[services.Order], error) {
			t.Fatal("service must not be called")
			return domain.CursorPage[services.Order]{}, nil
		},
	}

	req := authenticatedRequest(http.MethodGet, "/?status=warp", "")
	rr := httptest.NewRecorder()

	orderRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func assertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, code string) {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if body["error"] != code {
		t.Fatalf("expected error code %q, got %v", code, body["error"])
	}
}
