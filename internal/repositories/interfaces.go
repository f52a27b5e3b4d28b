package repositories

import (
	"context"
	"time"

	domain "github.com/atacadex/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	Catalog() CatalogRepository
	RegionalConditions() RegionalConditionRepository
	Campaigns() CampaignRepository
	Stores() StoreRepository
	Suppliers() SupplierRepository
	Users() UserRepository
	PaymentTerms() PaymentTermsRepository
	AuditLogs() AuditLogRepository
	Counters() CounterRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository persists order aggregates (header plus owned line items in a
// single document) and provides query helpers for stores, suppliers, and admins.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	Delete(ctx context.Context, orderID string) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
}

// CatalogRepository stores products and performs stock mutations. AdjustStock
// applies a signed delta to a product's stock inside the ambient transaction;
// implementations must reject any delta that would take stock below zero.
type CatalogRepository interface {
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[domain.Product], error)
	AdjustStock(ctx context.Context, productID string, delta int) error
}

// RegionalConditionRepository resolves pricing overrides per supplier and state.
type RegionalConditionRepository interface {
	FindBySupplierAndState(ctx context.Context, supplierID string, state string) (domain.RegionalCondition, error)
	ListBySupplier(ctx context.Context, supplierID string) ([]domain.RegionalCondition, error)
}

// CampaignRepository stores promotional campaign definitions per supplier.
type CampaignRepository interface {
	FindByID(ctx context.Context, campaignID string) (domain.Campaign, error)
	ListBySupplier(ctx context.Context, supplierID string) ([]domain.Campaign, error)
}

// StoreRepository stores purchasing businesses.
type StoreRepository interface {
	FindByID(ctx context.Context, storeID string) (domain.Store, error)
}

// SupplierRepository stores selling businesses.
type SupplierRepository interface {
	FindByID(ctx context.Context, supplierID string) (domain.Supplier, error)
}

// UserRepository stores platform accounts keyed by auth subject.
type UserRepository interface {
	FindByID(ctx context.Context, userID string) (domain.User, error)
}

// PaymentTermsRepository stores supplier payment arrangements.
type PaymentTermsRepository interface {
	FindByID(ctx context.Context, paymentTermsID string) (domain.PaymentTerms, error)
}

// AuditLogRepository persists immutable audit trail entries.
type AuditLogRepository interface {
	Append(ctx context.Context, entry domain.AuditLogEntry) error
	List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[domain.AuditLogEntry], error)
}

// CounterRepository provides transaction-safe sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// Filter DTOs shared across repositories ------------------------------------

type OrderListFilter struct {
	StoreID    string
	SupplierID string
	Status     []domain.OrderStatus
	DateRange  domain.RangeQuery[time.Time]
	Pagination domain.Pagination
}

type ProductListFilter struct {
	SupplierID string
	OnlyActive bool
	Pagination domain.Pagination
}

type AuditLogFilter struct {
	TargetRef  string
	Actor      string
	Action     string
	DateRange  domain.RangeQuery[time.Time]
	Pagination domain.Pagination
}
