package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	domain "github.com/atacadex/api/internal/domain"
	"github.com/atacadex/api/internal/repositories"
)

// Shared stubs -----------------------------------------------------------

type stubOrderRepo struct {
	mu     sync.Mutex
	orders map[string]domain.Order

	insertFunc func(ctx context.Context, order domain.Order) error
	findFunc   func(ctx context.Context, orderID string) (domain.Order, error)
	listFunc   func(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error)
}

func newStubOrderRepo(seed ...domain.Order) *stubOrderRepo {
	repo := &stubOrderRepo{orders: make(map[string]domain.Order)}
	for _, order := range seed {
		repo.orders[order.ID] = order
	}
	return repo
}

func (r *stubOrderRepo) Insert(ctx context.Context, order domain.Order) error {
	if r.insertFunc != nil {
		return r.insertFunc(ctx, order)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = order
	return nil
}

func (r *stubOrderRepo) Update(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return stubNotFoundError{entity: "order"}
	}
	r.orders[order.ID] = order
	return nil
}

func (r *stubOrderRepo) Delete(_ context.Context, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[orderID]; !ok {
		return stubNotFoundError{entity: "order"}
	}
	delete(r.orders, orderID)
	return nil
}

func (r *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r.findFunc != nil {
		return r.findFunc(ctx, orderID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, stubNotFoundError{entity: "order"}
	}
	return order, nil
}

func (r *stubOrderRepo) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r.listFunc != nil {
		return r.listFunc(ctx, filter)
	}
	return domain.CursorPage[domain.Order]{}, nil
}

func (r *stubOrderRepo) stored(orderID string) (domain.Order, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	return order, ok
}

type stubNotFoundError struct{ entity string }

func (e stubNotFoundError) Error() string      { return e.entity + " not found" }
func (e stubNotFoundError) IsNotFound() bool   { return true }
func (e stubNotFoundError) IsConflict() bool   { return false }
func (e stubNotFoundError) IsUnavailable() bool { return false }

// memoryCatalog backs catalog reads and stock mutations with a map so tests
// can assert post-transaction stock levels.
type memoryCatalog struct {
	mu       sync.Mutex
	products map[string]domain.Product
}

func newMemoryCatalog(products ...domain.Product) *memoryCatalog {
	catalog := &memoryCatalog{products: make(map[string]domain.Product, len(products))}
	for _, product := range products {
		catalog.products[product.ID] = product
	}
	return catalog
}

func (c *memoryCatalog) FindByID(_ context.Context, productID string) (domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	product, ok := c.products[productID]
	if !ok {
		return domain.Product{}, repositories.NewCatalogError(repositories.CatalogErrorProductNotFound, "product "+productID+" not found", nil)
	}
	return product, nil
}

func (c *memoryCatalog) List(context.Context, repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	return domain.CursorPage[domain.Product]{}, nil
}

func (c *memoryCatalog) AdjustStock(_ context.Context, productID string, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	product, ok := c.products[productID]
	if !ok {
		return repositories.NewCatalogError(repositories.CatalogErrorProductNotFound, "product "+productID+" not found", nil)
	}
	next := product.StockOnHand + delta
	if next < 0 {
		return repositories.NewCatalogError(repositories.CatalogErrorInsufficientStock, "stock would go negative", nil)
	}
	product.StockOnHand = next
	c.products[productID] = product
	return nil
}

func (c *memoryCatalog) stock(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products[productID].StockOnHand
}

type stubCounterRepo struct {
	mu   sync.Mutex
	next int64
}

func (r *stubCounterRepo) Next(_ context.Context, _ string, step int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if step <= 0 {
		step = 1
	}
	r.next += step
	return r.next, nil
}

type stubPaymentTermsRepo struct {
	terms map[string]domain.PaymentTerms
}

func (r *stubPaymentTermsRepo) FindByID(_ context.Context, id string) (domain.PaymentTerms, error) {
	terms, ok := r.terms[id]
	if !ok {
		return domain.PaymentTerms{}, stubNotFoundError{entity: "payment terms"}
	}
	return terms, nil
}

type stubConditionService struct {
	adjustment Adjustment
	err        error
}

func (s *stubConditionService) Resolve(context.Context, string, string) (Adjustment, error) {
	return s.adjustment, s.err
}

type stubCampaignService struct {
	campaigns []Campaign
	err       error
}

func (s *stubCampaignService) ActiveCampaigns(context.Context, string, time.Time) ([]Campaign, error) {
	return s.campaigns, s.err
}

type stubDirectory struct {
	users     map[string]domain.User
	stores    map[string]domain.Store
	suppliers map[string]domain.Supplier
}

func (d *stubDirectory) GetUser(_ context.Context, id string) (User, error) {
	user, ok := d.users[id]
	if !ok {
		return User{}, stubNotFoundError{entity: "user"}
	}
	return user, nil
}

func (d *stubDirectory) GetStore(_ context.Context, id string) (Store, error) {
	store, ok := d.stores[id]
	if !ok {
		return Store{}, stubNotFoundError{entity: "store"}
	}
	return store, nil
}

func (d *stubDirectory) GetSupplier(_ context.Context, id string) (Supplier, error) {
	supplier, ok := d.suppliers[id]
	if !ok {
		return Supplier{}, stubNotFoundError{entity: "supplier"}
	}
	return supplier, nil
}

func (d *stubDirectory) IsMemberOfStore(user User, storeID string) bool {
	return user.StoreRef != nil && *user.StoreRef == storeID
}

func (d *stubDirectory) IsMemberOfSupplier(user User, supplierID string) bool {
	return user.SupplierRef != nil && *user.SupplierRef == supplierID
}

type captureEvents struct {
	mu     sync.Mutex
	events []OrderEvent
}

func (c *captureEvents) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureEvents) last() (OrderEvent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return OrderEvent{}, false
	}
	return c.events[len(c.events)-1], true
}

type captureAudit struct {
	mu      sync.Mutex
	entries []RecordAuditEntryCommand
}

func (c *captureAudit) Record(_ context.Context, cmd RecordAuditEntryCommand) (AuditLogEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, cmd)
	return AuditLogEntry{Action: cmd.Action}, nil
}

func (c *captureAudit) List(context.Context, AuditLogFilter) (domain.CursorPage[AuditLogEntry], error) {
	return domain.CursorPage[AuditLogEntry]{}, nil
}

// Fixture ----------------------------------------------------------------

type orderFixture struct {
	orders    *stubOrderRepo
	catalog   *memoryCatalog
	counters  *stubCounterRepo
	terms     *stubPaymentTermsRepo
	condition *stubConditionService
	campaigns *stubCampaignService
	directory *stubDirectory
	events    *captureEvents
	audit     *captureAudit
	now       time.Time
}

func strPtr(v string) *string { return &v }

func newOrderFixture(products ...domain.Product) *orderFixture {
	return &orderFixture{
		orders:   newStubOrderRepo(),
		catalog:  newMemoryCatalog(products...),
		counters: &stubCounterRepo{},
		terms:    &stubPaymentTermsRepo{terms: map[string]domain.PaymentTerms{}},
		condition: &stubConditionService{},
		campaigns: &stubCampaignService{},
		directory: &stubDirectory{
			users: map[string]domain.User{
				"user-store": {ID: "user-store", Role: domain.RoleStore, StoreRef: strPtr("store-1"), Active: true},
				"user-sup":   {ID: "user-sup", Role: domain.RoleSupplier, SupplierRef: strPtr("sup-1"), Active: true},
				"user-admin": {ID: "user-admin", Role: domain.RoleAdmin, Active: true},
			},
			stores: map[string]domain.Store{
				"store-1": {ID: "store-1", TradeName: "Mercado Norte", State: "SP", Active: true},
			},
			suppliers: map[string]domain.Supplier{
				"sup-1": {ID: "sup-1", TradeName: "Distribuidora Sul", Active: true},
			},
		},
		events: &captureEvents{},
		audit:  &captureAudit{},
		now:    time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func (f *orderFixture) service(t *testing.T) OrderService {
	t.Helper()
	seq := 0
	service, err := NewOrderService(OrderServiceDeps{
		Orders:       f.orders,
		Catalog:      f.catalog,
		Counters:     f.counters,
		PaymentTerms: f.terms,
		Conditions:   f.condition,
		Campaigns:    f.campaigns,
		Directory:    f.directory,
		AuditLogs:    f.audit,
		Clock:        func() time.Time { return f.now },
		IDGenerator: func() string {
			seq++
			return "01TEST" + string(rune('A'+seq-1))
		},
		Events: f.events,
	})
	if err != nil {
		t.Fatalf("unexpected error creating service: %v", err)
	}
	return service
}

// CreateOrder ------------------------------------------------------------

func TestCreateOrderAppliesRegionalAdjustmentAndCashback(t *testing.T) {
	fixture := newOrderFixture(domain.Product{
		ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 10, Active: true,
	})
	fixture.condition.adjustment = Adjustment{UnitPriceDelta: 200, CashbackBps: 500}
	service := fixture.service(t)

	order, err := service.CreateOrder(context.Background(), CreateOrderCommand{
		ActorID: "user-store",
		Cart: Cart{
			StoreID:    "store-1",
			SupplierID: "sup-1",
			Lines:      []CartLine{{ProductID: "prod-1", Quantity: 3}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.Total != 3600 {
		t.Fatalf("expected total 3600, got %d", order.Total)
	}
	if order.Cashback != 180 {
		t.Fatalf("expected cashback 180, got %d", order.Cashback)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected status PENDING, got %s", order.Status)
	}
	if order.OrderNumber != "AT-2025-000001" {
		t.Fatalf("unexpected order number %s", order.OrderNumber)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(order.Items))
	}
	if order.Items[0].UnitPrice != 1200 || order.Items[0].AdjustmentApplied != 200 {
		t.Fatalf("unexpected line %#v", order.Items[0])
	}
	if got := fixture.catalog.stock("prod-1"); got != 7 {
		t.Fatalf("expected stock 7 after decrement, got %d", got)
	}
	if order.Total != order.ItemsTotal() {
		t.Fatalf("total %d disagrees with items total %d", order.Total, order.ItemsTotal())
	}

	if _, ok := fixture.orders.stored(order.ID); !ok {
		t.Fatalf("order %s not persisted", order.ID)
	}
	event, ok := fixture.events.last()
	if !ok || event.Type != "order.created" {
		t.Fatalf("expected order.created event, got %#v", event)
	}
}

func TestCreateOrderAddsValueCampaignCashback(t *testing.T) {
	fixture := newOrderFixture(domain.Product{
		ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 10, Active: true,
	})
	fixture.condition.adjustment = Adjustment{UnitPriceDelta: 200, CashbackBps: 500}
	fixture.campaigns.campaigns = []Campaign{
		{
			ID: "camp-1", SupplierRef: "sup-1", Kind: domain.CampaignValueThreshold,
			MinOrderValue: 3000, CashbackAmount: 500, Active: true,
			StartsOn: fixture.now.AddDate(0, 0, -1),
		},
	}
	service := fixture.service(t)

	order, err := service.CreateOrder(context.Background(), CreateOrderCommand{
		ActorID: "user-store",
		Cart: Cart{
			StoreID:    "store-1",
			SupplierID: "sup-1",
			Lines:      []CartLine{{ProductID: "prod-1", Quantity: 3}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Cashback != 680 {
		t.Fatalf("expected cashback 680 (rate plus campaign), got %d", order.Cashback)
	}
}

func TestCreateOrderRejectsInsufficientStock(t *testing.T) {
	fixture := newOrderFixture(domain.Product{
		ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 2, Active: true,
	})
	service := fixture.service(t)

	_, err := service.CreateOrder(context.Background(), CreateOrderCommand{
		ActorID: "user-store",
		Cart: Cart{
			StoreID:    "store-1",
			SupplierID: "sup-1",
			Lines:      []CartLine{{ProductID: "prod-1", Quantity: 3}},
		},
	})
	if !errors.Is(err, ErrOrderInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	if got := fixture.catalog.stock("prod-1"); got != 2 {
		t.Fatalf("stock must stay untouched on rejection, got %d", got)
	}
}

func TestCreateOrderGrantsQuantityCampaignGift(t *testing.T) {
	fixture := newOrderFixture(
		domain.Product{ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 10, Active: true},
		domain.Product{ID: "prod-gift", SupplierRef: "sup-1", BasePrice: 700, StockOnHand: 5, Active: true},
	)
	fixture.campaigns.campaigns = []Campaign{
		{
			ID: "camp-qty", SupplierRef: "sup-1", Kind: domain.CampaignQuantityThreshold,
			MinQuantity: 3, RewardProductRef: "prod-gift", Active: true,
			StartsOn: fixture.now.AddDate(0, 0, -1),
		},
	}
	service := fixture.service(t)

	order, err := service.CreateOrder(context.Background(), CreateOrderCommand{
		ActorID: "user-store",
		Cart: Cart{
			StoreID:    "store-1",
			SupplierID: "sup-1",
			Lines:      []CartLine{{ProductID: "prod-1", Quantity: 3}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected paid line plus gift, got %d lines", len(order.Items))
	}
	gift := order.Items[1]
	if !gift.Gift || gift.ProductRef != "prod-gift" || gift.Quantity != 1 || gift.UnitPrice != 0 {
		t.Fatalf("unexpected gift line %#v", gift)
	}
	if order.Total != 3000 {
		t.Fatalf("gift must not change total, got %d", order.Total)
	}
	if got := fixture.catalog.stock("prod-gift"); got != 4 {
		t.Fatalf("expected gift stock 4, got %d", got)
	}
}

func TestCreateOrderSkipsGiftWhenRewardOutOfStock(t *testing.T) {
	fixture := newOrderFixture(
		domain.Product{ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 10, Active: true},
		domain.Product{ID: "prod-gift", SupplierRef: "sup-1", BasePrice: 700, StockOnHand: 0, Active: true},
	)
	fixture.campaigns.campaigns = []Campaign{
		{
			ID: "camp-qty", SupplierRef: "sup-1", Kind: domain.CampaignQuantityThreshold,
			MinQuantity: 3, RewardProductRef: "prod-gift", Active: true,
			StartsOn: fixture.now.AddDate(0, 0, -1),
		},
	}
	service := fixture.service(t)

	order, err := service.CreateOrder(context.Background(), CreateOrderCommand{
		ActorID: "user-store",
		Cart: Cart{
			StoreID:    "store-1",
			SupplierID: "sup-1",
			Lines:      []CartLine{{ProductID: "prod-1", Quantity: 3}},
		},
	})
	if err != nil {
		t.Fatalf("order must succeed without the gift: %v", err)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected gift skipped, got %d lines", len(order.Items))
	}
	if got := fixture.catalog.stock("prod-gift"); got != 0 {
		t.Fatalf("reward stock must stay 0, got %d", got)
	}
}

func TestCreateOrderRejectsSupplierActors(t *testing.T) {
	fixture := newOrderFixture(domain.Product{
		ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 10, Active: true,
	})
	service := fixture.service(t)

	_, err := service.CreateOrder(context.Background(), CreateOrderCommand{
		ActorID: "user-sup",
		Cart: Cart{
			StoreID:    "store-1",
			SupplierID: "sup-1",
			Lines:      []CartLine{{ProductID: "prod-1", Quantity: 1}},
		},
	})
	if !errors.Is(err, ErrOrderUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestCreateOrderRejectsForeignStoreMembers(t *testing.T) {
	fixture := newOrderFixture(domain.Product{
		ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 10, Active: true,
	})
	fixture.directory.users["user-other"] = domain.User{
		ID: "user-other", Role: domain.RoleStore, StoreRef: strPtr("store-2"), Active: true,
	}
	service := fixture.service(t)

	_, err := service.CreateOrder(context.Background(), CreateOrderCommand{
		ActorID: "user-other",
		Cart: Cart{
			StoreID:    "store-1",
			SupplierID: "sup-1",
			Lines:      []CartLine{{ProductID: "prod-1", Quantity: 1}},
		},
	})
	if !errors.Is(err, ErrOrderUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestCreateOrderRejectsProductsFromAnotherSupplier(t *testing.T) {
	fixture := newOrderFixture(domain.Product{
		ID: "prod-x", SupplierRef: "sup-other", BasePrice: 1000, StockOnHand: 10, Active: true,
	})
	service := fixture.service(t)

	_, err := service.CreateOrder(context.Background(), CreateOrderCommand{
		ActorID: "user-store",
		Cart: Cart{
			StoreID:    "store-1",
			SupplierID: "sup-1",
			Lines:      []CartLine{{ProductID: "prod-x", Quantity: 1}},
		},
	})
	if !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCreateOrderValidatesPaymentTermsOwnership(t *testing.T) {
	fixture := newOrderFixture(domain.Product{
		ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 10, Active: true,
	})
	fixture.terms.terms["terms-1"] = domain.PaymentTerms{
		ID: "terms-1", SupplierRef: "sup-other", Active: true,
	}
	service := fixture.service(t)

	_, err := service.CreateOrder(context.Background(), CreateOrderCommand{
		ActorID: "user-store",
		Cart: Cart{
			StoreID:        "store-1",
			SupplierID:     "sup-1",
			PaymentTermsID: strPtr("terms-1"),
			Lines:          []CartLine{{ProductID: "prod-1", Quantity: 1}},
		},
	})
	if !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected invalid input for foreign payment terms, got %v", err)
	}
}

func TestCreateOrderMergesDuplicateLines(t *testing.T) {
	fixture := newOrderFixture(domain.Product{
		ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 5, Active: true,
	})
	service := fixture.service(t)

	order, err := service.CreateOrder(context.Background(), CreateOrderCommand{
		ActorID: "user-store",
		Cart: Cart{
			StoreID:    "store-1",
			SupplierID: "sup-1",
			Lines: []CartLine{
				{ProductID: "prod-1", Quantity: 2},
				{ProductID: "prod-1", Quantity: 3},
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 5 {
		t.Fatalf("expected one merged line of 5, got %#v", order.Items)
	}
	if got := fixture.catalog.stock("prod-1"); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
}

// TransitionStatus -------------------------------------------------------

func seedOrder(fixture *orderFixture, status domain.OrderStatus) domain.Order {
	order := domain.Order{
		ID:          "ord-1",
		OrderNumber: "AT-2025-000042",
		StoreRef:    "store-1",
		SupplierRef: "sup-1",
		Status:      status,
		Total:       3600,
		Items: []domain.OrderLineItem{
			{ProductRef: "prod-1", Quantity: 3, UnitPrice: 1200},
		},
		CreatedAt: fixture.now.Add(-24 * time.Hour),
	}
	fixture.orders.orders[order.ID] = order
	return order
}

func TestTransitionStatusSupplierAdvancesOrder(t *testing.T) {
	fixture := newOrderFixture(domain.Product{
		ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 7, Active: true,
	})
	seedOrder(fixture, domain.OrderStatusPending)
	service := fixture.service(t)

	order, err := service.TransitionStatus(context.Background(), OrderStatusTransitionCommand{
		OrderID: "ord-1", TargetStatus: domain.OrderStatusInSeparation, ActorID: "user-sup",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != domain.OrderStatusInSeparation {
		t.Fatalf("expected IN_SEPARATION, got %s", order.Status)
	}
	if order.SeparationStartedAt == nil || !order.SeparationStartedAt.Equal(fixture.now) {
		t.Fatalf("expected separation timestamp %v, got %v", fixture.now, order.SeparationStartedAt)
	}
}

func TestTransitionStatusStoreCancelsPendingOrderAndRestoresStock(t *testing.T) {
	fixture := newOrderFixture(domain.Product{
		ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 7, Active: true,
	})
	seedOrder(fixture, domain.OrderStatusPending)
	service := fixture.service(t)

	order, err := service.Cancel(context.Background(), CancelOrderCommand{
		OrderID: "ord-1", ActorID: "user-store", Reason: "ordered by mistake",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", order.Status)
	}
	if order.CancelledAt == nil {
		t.Fatalf("expected cancellation timestamp")
	}
	if got := fixture.catalog.stock("prod-1"); got != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got)
	}
}

func TestTransitionStatusStoreCannotCancelShippedOrder(t *testing.T) {
	fixture := newOrderFixture(domain.Product{
		ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 7, Active: true,
	})
	seedOrder(fixture, domain.OrderStatusShipped)
	service := fixture.service(t)

	_, err := service.Cancel(context.Background(), CancelOrderCommand{
		OrderID: "ord-1", ActorID: "user-store",
	})
	if !errors.Is(err, ErrOrderUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if !strings.Contains(err.Error(), "already in process") {
		t.Fatalf("expected in-process rejection, got %v", err)
	}
	if got := fixture.catalog.stock("prod-1"); got != 7 {
		t.Fatalf("stock must stay untouched, got %d", got)
	}
}

func TestTransitionStatusAdminMayForceBackwardsMove(t *testing.T) {
	fixture := newOrderFixture(domain.Product{
		ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 7, Active: true,
	})
	shippedAt := fixture.now.Add(-2 * time.Hour)
	order := seedOrder(fixture, domain.OrderStatusShipped)
	order.ShippedAt = &shippedAt
	fixture.orders.orders[order.ID] = order
	service := fixture.service(t)

	updated, err := service.TransitionStatus(context.Background(), OrderStatusTransitionCommand{
		OrderID: "ord-1", TargetStatus: domain.OrderStatusPending, ActorID: "user-admin",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.OrderStatusPending {
		t.Fatalf("expected PENDING, got %s", updated.Status)
	}
	if updated.ShippedAt == nil || !updated.ShippedAt.Equal(shippedAt) {
		t.Fatalf("shipped timestamp must survive the backwards move")
	}
	if got := fixture.catalog.stock("prod-1"); got != 7 {
		t.Fatalf("backwards move must not touch stock, got %d", got)
	}
}

func TestTransitionStatusTerminalStatesRejectEveryActor(t *testing.T) {
	for _, status := range []domain.OrderStatus{domain.OrderStatusDelivered, domain.OrderStatusCancelled} {
		for _, actor := range []string{"user-admin", "user-sup", "user-store"} {
			fixture := newOrderFixture(domain.Product{
				ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 7, Active: true,
			})
			order := seedOrder(fixture, status)
			if status == domain.OrderStatusCancelled {
				cancelled := fixture.now.Add(-time.Hour)
				order.CancelledAt = &cancelled
				fixture.orders.orders[order.ID] = order
			}
			service := fixture.service(t)

			_, err := service.TransitionStatus(context.Background(), OrderStatusTransitionCommand{
				OrderID: "ord-1", TargetStatus: domain.OrderStatusPending, ActorID: actor,
			})
			if !errors.Is(err, ErrOrderInvalidState) {
				t.Fatalf("status %s actor %s: expected invalid state, got %v", status, actor, err)
			}
		}
	}
}

func TestTransitionStatusSupplierCannotSkipSeparation(t *testing.T) {
	fixture := newOrderFixture(domain.Product{
		ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 7, Active: true,
	})
	seedOrder(fixture, domain.OrderStatusPending)
	service := fixture.service(t)

	_, err := service.TransitionStatus(context.Background(), OrderStatusTransitionCommand{
		OrderID: "ord-1", TargetStatus: domain.OrderStatusShipped, ActorID: "user-sup",
	})
	if !errors.Is(err, ErrOrderInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestTransitionStatusRejectsForeignSupplier(t *testing.T) {
	fixture := newOrderFixture(domain.Product{
		ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 7, Active: true,
	})
	fixture.directory.users["user-sup2"] = domain.User{
		ID: "user-sup2", Role: domain.RoleSupplier, SupplierRef: strPtr("sup-2"), Active: true,
	}
	seedOrder(fixture, domain.OrderStatusPending)
	service := fixture.service(t)

	_, err := service.TransitionStatus(context.Background(), OrderStatusTransitionCommand{
		OrderID: "ord-1", TargetStatus: domain.OrderStatusInSeparation, ActorID: "user-sup2",
	})
	if !errors.Is(err, ErrOrderUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestTransitionStatusUnknownOrder(t *testing.T) {
	fixture := newOrderFixture()
	service := fixture.service(t)

	_, err := service.TransitionStatus(context.Background(), OrderStatusTransitionCommand{
		OrderID: "ord-missing", TargetStatus: domain.OrderStatusInSeparation, ActorID: "user-sup",
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// DeleteOrder ------------------------------------------------------------

func TestDeleteOrderRestoresStockForNonCancelledOrders(t *testing.T) {
	fixture := newOrderFixture(domain.Product{
		ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 7, Active: true,
	})
	seedOrder(fixture, domain.OrderStatusPending)
	service := fixture.service(t)

	if err := service.DeleteOrder(context.Background(), DeleteOrderCommand{
		OrderID: "ord-1", ActorID: "user-admin",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fixture.catalog.stock("prod-1"); got != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got)
	}
	if _, ok := fixture.orders.stored("ord-1"); ok {
		t.Fatalf("order must be removed")
	}
}

func TestDeleteOrderSkipsRestoreForCancelledOrders(t *testing.T) {
	fixture := newOrderFixture(domain.Product{
		ID: "prod-1", SupplierRef: "sup-1", BasePrice: 1000, StockOnHand: 10, Active: true,
	})
	order := seedOrder(fixture, domain.OrderStatusCancelled)
	cancelled := fixture.now.Add(-time.Hour)
	order.CancelledAt = &cancelled
	fixture.orders.orders[order.ID] = order
	service := fixture.service(t)

	if err := service.DeleteOrder(context.Background(), DeleteOrderCommand{
		OrderID: "ord-1", ActorID: "user-admin",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fixture.catalog.stock("prod-1"); got != 10 {
		t.Fatalf("cancelled orders already returned stock, got %d", got)
	}
}

// Reads ------------------------------------------------------------------

func TestGetOrderMapsNotFound(t *testing.T) {
	fixture := newOrderFixture()
	service := fixture.service(t)

	if _, err := service.GetOrder(context.Background(), "ord-missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := service.GetOrder(context.Background(), "  "); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestListOrdersPassesFilterThrough(t *testing.T) {
	fixture := newOrderFixture()
	var captured repositories.OrderListFilter
	fixture.orders.listFunc = func(_ context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
		captured = filter
		return domain.CursorPage[domain.Order]{NextPageToken: "tok"}, nil
	}
	service := fixture.service(t)

	page, err := service.ListOrders(context.Background(), OrderListFilter{
		StoreID: "store-1",
		Status:  []domain.OrderStatus{domain.OrderStatusPending},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.StoreID != "store-1" || len(captured.Status) != 1 {
		t.Fatalf("filter not forwarded: %#v", captured)
	}
	if page.NextPageToken != "tok" {
		t.Fatalf("expected continuation token, got %q", page.NextPageToken)
	}
}
