package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/atacadex/api/internal/platform/firestore"
	"github.com/atacadex/api/internal/repositories"
)

// Registry bundles every Firestore-backed repository behind the
// repositories.Registry interface so wiring happens in one place.
type Registry struct {
	provider *pfirestore.Provider

	unitOfWork *UnitOfWork
	orders     *OrderRepository
	catalog    *CatalogRepository
	conditions *RegionalConditionRepository
	campaigns  *CampaignRepository
	stores     *StoreRepository
	suppliers  *SupplierRepository
	users      *UserRepository
	terms      *PaymentTermsRepository
	auditLogs  *AuditLogRepository
	counters   *CounterRepository
	health     repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry constructs the full repository set against a shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	unitOfWork, err := NewUnitOfWork(provider)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	catalog, err := NewCatalogRepository(provider)
	if err != nil {
		return nil, err
	}
	conditions, err := NewRegionalConditionRepository(provider)
	if err != nil {
		return nil, err
	}
	campaigns, err := NewCampaignRepository(provider)
	if err != nil {
		return nil, err
	}
	stores, err := NewStoreRepository(provider)
	if err != nil {
		return nil, err
	}
	suppliers, err := NewSupplierRepository(provider)
	if err != nil {
		return nil, err
	}
	users, err := NewUserRepository(provider)
	if err != nil {
		return nil, err
	}
	terms, err := NewPaymentTermsRepository(provider)
	if err != nil {
		return nil, err
	}
	auditLogs, err := NewAuditLogRepository(provider)
	if err != nil {
		return nil, err
	}
	counters, err := NewCounterRepository(provider)
	if err != nil {
		return nil, err
	}
	health, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{
		{
			Name: "firestore",
			Check: func(ctx context.Context) error {
				_, err := provider.Client(ctx)
				return err
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider:   provider,
		unitOfWork: unitOfWork,
		orders:     orders,
		catalog:    catalog,
		conditions: conditions,
		campaigns:  campaigns,
		stores:     stores,
		suppliers:  suppliers,
		users:      users,
		terms:      terms,
		auditLogs:  auditLogs,
		counters:   counters,
		health:     health,
	}, nil
}

// Close releases the shared Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

// RunInTx delegates to the unit of work.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil || r.unitOfWork == nil {
		return errors.New("registry not initialised")
	}
	return r.unitOfWork.RunInTx(ctx, fn)
}

func (r *Registry) Orders() repositories.OrderRepository                 { return r.orders }
func (r *Registry) Catalog() repositories.CatalogRepository              { return r.catalog }
func (r *Registry) RegionalConditions() repositories.RegionalConditionRepository {
	return r.conditions
}
func (r *Registry) Campaigns() repositories.CampaignRepository           { return r.campaigns }
func (r *Registry) Stores() repositories.StoreRepository                 { return r.stores }
func (r *Registry) Suppliers() repositories.SupplierRepository           { return r.suppliers }
func (r *Registry) Users() repositories.UserRepository                   { return r.users }
func (r *Registry) PaymentTerms() repositories.PaymentTermsRepository    { return r.terms }
func (r *Registry) AuditLogs() repositories.AuditLogRepository           { return r.auditLogs }
func (r *Registry) Counters() repositories.CounterRepository             { return r.counters }
func (r *Registry) Health() repositories.HealthRepository                { return r.health }
