package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// RangeQuery represents inclusive range filters for numeric or timestamp fields.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}

// CursorPage wraps a page of results together with the continuation token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// UserRole enumerates the account types recognised by the platform.
type UserRole string

const (
	// RoleAdmin marks platform operators with unrestricted access.
	RoleAdmin UserRole = "admin"
	// RoleStore marks users attached to a purchasing store.
	RoleStore UserRole = "store"
	// RoleSupplier marks users attached to a selling supplier.
	RoleSupplier UserRole = "supplier"
)

// User is a platform account. Store and supplier membership are mutually
// exclusive; admins carry neither reference.
type User struct {
	ID          string
	Name        string
	Email       string
	Role        UserRole
	StoreRef    *string
	SupplierRef *string
	Active      bool
	CreatedAt   time.Time
}

// Store is a purchasing business. State is the two-letter region code that
// drives regional condition lookups.
type Store struct {
	ID           string
	TradeName    string
	LegalName    string
	CNPJ         string
	ContactName  string
	ContactEmail string
	Phone        string
	City         string
	State        string
	Active       bool
	CreatedAt    time.Time
}

// Supplier is a selling business that owns products, regional conditions, and
// campaigns.
type Supplier struct {
	ID           string
	TradeName    string
	LegalName    string
	CNPJ         string
	ContactEmail string
	State        string
	Active       bool
	CreatedAt    time.Time
}

// PaymentTerms describes a supplier payment arrangement referenced by orders.
type PaymentTerms struct {
	ID          string
	SupplierRef string
	Description string
	DaysUntilDue int
	Active      bool
}

// Product is a catalog entry. BasePrice is expressed in centavos and
// StockOnHand may never go negative.
type Product struct {
	ID            string
	SupplierRef   string
	CategoryRef   string
	Name          string
	Description   string
	BasePrice     int64
	UnitOfMeasure string
	StockOnHand   int
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RegionalCondition overrides pricing for a (supplier, state) pair. At most
// one condition is considered per pair. UnitPriceAdjustment is a signed
// centavo delta applied per unit; CashbackBps is a cashback rate in basis
// points (10000 = 100%).
type RegionalCondition struct {
	ID                  string
	SupplierRef         string
	State               string
	UnitPriceAdjustment int64
	CashbackBps         int64
	PaymentTermDays     int
	Active              bool
}

// CampaignKind discriminates the supported promotional campaign rules.
type CampaignKind string

const (
	// CampaignValueThreshold grants a flat cashback amount once the order
	// total reaches a minimum value.
	CampaignValueThreshold CampaignKind = "value_threshold"
	// CampaignQuantityThreshold grants a free reward product once the total
	// ordered quantity reaches a minimum.
	CampaignQuantityThreshold CampaignKind = "quantity_threshold"
)

// Campaign is a time-bounded promotional rule owned by a supplier. StartsOn is
// required; EndsOn is optional and inclusive. Only active campaigns whose
// window contains the order date participate in pricing.
type Campaign struct {
	ID          string
	SupplierRef string
	Name        string
	Kind        CampaignKind
	StartsOn    time.Time
	EndsOn      *time.Time

	// value_threshold parameters.
	MinOrderValue  int64
	CashbackAmount int64

	// quantity_threshold parameters.
	MinQuantity       int
	RewardProductRef  string
	RewardDescription string

	Active bool
}

// InWindow reports whether asOf falls inside the campaign validity window.
// Bounds are inclusive and compared at date granularity.
func (c Campaign) InWindow(asOf time.Time) bool {
	day := truncateToDay(asOf)
	if day.Before(truncateToDay(c.StartsOn)) {
		return false
	}
	if c.EndsOn != nil && day.After(truncateToDay(*c.EndsOn)) {
		return false
	}
	return true
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// OrderStatus enumerates valid lifecycle states for orders.
type OrderStatus string

const (
	// OrderStatusPending indicates the order was placed and awaits supplier action.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusInSeparation indicates the supplier started picking the order.
	OrderStatusInSeparation OrderStatus = "IN_SEPARATION"
	// OrderStatusShipped indicates the order left the supplier.
	OrderStatusShipped OrderStatus = "SHIPPED"
	// OrderStatusDelivered indicates the order reached the store. Terminal.
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusCancelled indicates the order was cancelled and its stock
	// restored. Terminal.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ValidOrderStatus reports whether the value belongs to the closed status set.
func ValidOrderStatus(status OrderStatus) bool {
	switch status {
	case OrderStatusPending, OrderStatusInSeparation, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Finalized reports whether the status is terminal.
func (s OrderStatus) Finalized() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// OrderLineItem is a single priced line owned by an order. Product is a
// non-owning reference by ID. UnitPrice snapshots the effective unit price at
// order time and never tracks later catalog changes. AdjustmentApplied records
// the regional delta in effect at creation (0 for gift lines).
type OrderLineItem struct {
	ProductRef        string
	Quantity          int
	UnitPrice         int64
	AdjustmentApplied int64
	Gift              bool
}

// Subtotal returns the line contribution to the order total.
func (l OrderLineItem) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Order is the fulfillment aggregate root. It owns its line items by value;
// Total and Cashback are derived at creation and never recomputed. The four
// transition timestamps are stamped on first entry into the matching status
// and are never overwritten.
type Order struct {
	ID              string
	OrderNumber     string
	StoreRef        string
	SupplierRef     string
	CreatedByRef    string
	PaymentTermsRef *string
	Status          OrderStatus
	Total           int64
	Cashback        int64
	Items           []OrderLineItem

	CreatedAt           time.Time
	SeparationStartedAt *time.Time
	ShippedAt           *time.Time
	DeliveredAt         *time.Time
	CancelledAt         *time.Time
}

// ItemsTotal recomputes the sum of line subtotals. Creation guarantees
// Total == ItemsTotal(); the helper exists for integrity checks and tests.
func (o Order) ItemsTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Subtotal()
	}
	return total
}

// TotalQuantity sums the quantities across all lines, gifts included.
func (o Order) TotalQuantity() int {
	var qty int
	for _, item := range o.Items {
		qty += item.Quantity
	}
	return qty
}

// AuditLogEntry records a mutation performed through the service layer.
type AuditLogEntry struct {
	ID         string
	ActorRef   string
	Action     string
	TargetKind string
	TargetRef  string
	Detail     map[string]any
	OccurredAt time.Time
}

// HealthStatus summarises the outcome of a dependency probe.
type HealthStatus string

const (
	// HealthStatusOK indicates the dependency answered within its budget.
	HealthStatusOK HealthStatus = "ok"
	// HealthStatusDegraded indicates the dependency answered with an error.
	HealthStatusDegraded HealthStatus = "degraded"
	// HealthStatusError indicates the dependency timed out or was cancelled.
	HealthStatusError HealthStatus = "error"
)

// SystemHealthCheck captures a single dependency probe result.
type SystemHealthCheck struct {
	Status    HealthStatus
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport summarises dependency probe results for readiness checks.
type SystemHealthReport struct {
	Status      HealthStatus
	Checks      map[string]SystemHealthCheck
	GeneratedAt time.Time
}
