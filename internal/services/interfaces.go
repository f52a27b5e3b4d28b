package services

import (
	"context"
	"time"

	domain "github.com/atacadex/api/internal/domain"
	"github.com/atacadex/api/internal/repositories"
)

// Aliases keep handler and service signatures terse while the canonical
// definitions live in the domain package.
type (
	Pagination         = domain.Pagination
	SortOrder          = domain.SortOrder
	Store              = domain.Store
	Supplier           = domain.Supplier
	User               = domain.User
	UserRole           = domain.UserRole
	PaymentTerms       = domain.PaymentTerms
	Product            = domain.Product
	RegionalCondition  = domain.RegionalCondition
	Campaign           = domain.Campaign
	CampaignKind       = domain.CampaignKind
	Order              = domain.Order
	OrderLineItem      = domain.OrderLineItem
	OrderStatus        = domain.OrderStatus
	SystemHealthReport = domain.SystemHealthReport
	AuditLogEntry      = domain.AuditLogEntry

	OrderListFilter   = repositories.OrderListFilter
	ProductListFilter = repositories.ProductListFilter
	AuditLogFilter    = repositories.AuditLogFilter
)

// Adjustment is the resolved regional pricing override for one supplier and
// store state. The zero value is the neutral adjustment.
type Adjustment struct {
	UnitPriceDelta  int64
	CashbackBps     int64
	PaymentTermDays int
}

// ConditionService resolves regional pricing adjustments.
type ConditionService interface {
	// Resolve returns the adjustment for the supplier in the given state.
	// Absent or inactive conditions yield the neutral adjustment, never an error.
	Resolve(ctx context.Context, supplierID string, state string) (Adjustment, error)
}

// CampaignService evaluates which promotional campaigns apply at a point in time.
type CampaignService interface {
	// ActiveCampaigns returns the supplier's campaigns that are active and
	// whose validity window contains asOf, sorted by campaign ID.
	ActiveCampaigns(ctx context.Context, supplierID string, asOf time.Time) ([]Campaign, error)
}

// OrderService encapsulates order creation, lifecycle transitions, deletion,
// and read flows.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	TransitionStatus(ctx context.Context, cmd OrderStatusTransitionCommand) (Order, error)
	Cancel(ctx context.Context, cmd CancelOrderCommand) (Order, error)
	DeleteOrder(ctx context.Context, cmd DeleteOrderCommand) error
	GetOrder(ctx context.Context, orderID string) (Order, error)
	ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error)
}

// CatalogService exposes read access to the product catalog.
type CatalogService interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
	ListProducts(ctx context.Context, filter ProductListFilter) (domain.CursorPage[Product], error)
}

// DirectoryService resolves accounts and business entities for authorisation.
type DirectoryService interface {
	GetUser(ctx context.Context, userID string) (User, error)
	GetStore(ctx context.Context, storeID string) (Store, error)
	GetSupplier(ctx context.Context, supplierID string) (Supplier, error)
	// IsMemberOfStore reports whether the user belongs to the store.
	IsMemberOfStore(user User, storeID string) bool
	// IsMemberOfSupplier reports whether the user belongs to the supplier.
	IsMemberOfSupplier(user User, supplierID string) bool
}

// SystemService surfaces operational state for health endpoints.
type SystemService interface {
	Health(ctx context.Context) (SystemHealthReport, error)
}

// AuditLogService records and queries immutable audit entries.
type AuditLogService interface {
	Record(ctx context.Context, cmd RecordAuditEntryCommand) (AuditLogEntry, error)
	List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[AuditLogEntry], error)
}

// Commands ------------------------------------------------------------------

// CartLine is one requested product and quantity.
type CartLine struct {
	ProductID string
	Quantity  int
}

// Cart is the order request payload: one store buying from one supplier.
type Cart struct {
	StoreID        string
	SupplierID     string
	PaymentTermsID *string
	Lines          []CartLine
}

// CreateOrderCommand places an order on behalf of the acting user.
type CreateOrderCommand struct {
	Cart    Cart
	ActorID string
}

// OrderStatusTransitionCommand moves an order to a target status.
type OrderStatusTransitionCommand struct {
	OrderID      string
	TargetStatus OrderStatus
	ActorID      string
	Reason       string
}

// CancelOrderCommand cancels an order, restoring stock on first entry.
type CancelOrderCommand struct {
	OrderID string
	ActorID string
	Reason  string
}

// DeleteOrderCommand removes an order, restoring stock unless already cancelled.
type DeleteOrderCommand struct {
	OrderID string
	ActorID string
}

// RecordAuditEntryCommand captures a mutation for the audit trail.
type RecordAuditEntryCommand struct {
	ActorRef   string
	Action     string
	TargetKind string
	TargetRef  string
	Detail     map[string]any
}

// Pricing -------------------------------------------------------------------

// PricedLine is a cart line after regional adjustment.
type PricedLine struct {
	ProductRef        string
	Quantity          int
	UnitPrice         int64
	AdjustmentApplied int64
}

// GiftCandidate is a quantity-threshold reward pending a stock check.
type GiftCandidate struct {
	CampaignID string
	ProductRef string
}

// PricingResult is the deterministic output of pricing a cart: priced lines,
// order total, total quantity, combined cashback, and gift candidates.
type PricingResult struct {
	Lines          []PricedLine
	Total          int64
	TotalQuantity  int
	Cashback       int64
	GiftCandidates []GiftCandidate
}
