package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atacadex/api/internal/platform/config"
	"github.com/atacadex/api/internal/repositories"
	"github.com/atacadex/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Orders     services.OrderService
	Catalog    services.CatalogService
	Directory  services.DirectoryService
	Conditions services.ConditionService
	Campaigns  services.CampaignService
	System     services.SystemService
	Audit      services.AuditLogService
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// Option customises container construction.
type Option func(*containerOptions)

type containerOptions struct {
	events services.OrderEventPublisher
	logger func(ctx context.Context, event string, fields map[string]any)
	clock  func() time.Time
}

// WithOrderEventPublisher wires the publisher used for order lifecycle events.
func WithOrderEventPublisher(events services.OrderEventPublisher) Option {
	return func(o *containerOptions) {
		o.events = events
	}
}

// WithServiceLogger injects the structured logging bridge used by services.
func WithServiceLogger(logger func(ctx context.Context, event string, fields map[string]any)) Option {
	return func(o *containerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the clock used by all services (primarily for testing).
func WithClock(clock func() time.Time) Option {
	return func(o *containerOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// NewContainer constructs the runtime dependencies. Production wiring provides the
// Firestore-backed registry, while tests can supply in-memory registries.
func NewContainer(_ context.Context, cfg config.Config, reg repositories.Registry, opts ...Option) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	options := containerOptions{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	svc, err := buildServices(reg, cfg, options)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients or background workers.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(reg repositories.Registry, cfg config.Config, options containerOptions) (Services, error) {
	var svc Services

	if cfg.Features.EnableAuditTrail {
		audit, err := services.NewAuditLogService(services.AuditLogServiceDeps{
			Repository: reg.AuditLogs(),
			Clock:      options.clock,
			Logger:     options.logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build audit log service: %w", err)
		}
		svc.Audit = audit
	}

	directory, err := services.NewDirectoryService(services.DirectoryServiceDeps{
		Users:     reg.Users(),
		Stores:    reg.Stores(),
		Suppliers: reg.Suppliers(),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build directory service: %w", err)
	}
	svc.Directory = directory

	conditions, err := services.NewConditionService(services.ConditionServiceDeps{
		Conditions: reg.RegionalConditions(),
		Logger:     options.logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build condition service: %w", err)
	}
	svc.Conditions = conditions

	var campaigns services.CampaignService
	if cfg.Features.EnableCampaigns {
		campaigns, err = services.NewCampaignService(services.CampaignServiceDeps{
			Campaigns: reg.Campaigns(),
			Logger:    options.logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build campaign service: %w", err)
		}
	} else {
		campaigns = disabledCampaignService{}
	}
	svc.Campaigns = campaigns

	catalog, err := services.NewCatalogService(services.CatalogServiceDeps{
		Catalog: reg.Catalog(),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalog

	system, err := services.NewSystemService(services.SystemServiceDeps{
		HealthRepository: reg.Health(),
		Clock:            options.clock,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build system service: %w", err)
	}
	svc.System = system

	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:       reg.Orders(),
		Catalog:      reg.Catalog(),
		Counters:     reg.Counters(),
		PaymentTerms: reg.PaymentTerms(),
		Conditions:   conditions,
		Campaigns:    campaigns,
		Directory:    directory,
		AuditLogs:    svc.Audit,
		UnitOfWork:   reg,
		Clock:        options.clock,
		Events:       options.events,
		Logger:       options.logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orders

	return svc, nil
}

// disabledCampaignService stands in when the campaigns feature flag is off.
type disabledCampaignService struct{}

func (disabledCampaignService) ActiveCampaigns(context.Context, string, time.Time) ([]services.Campaign, error) {
	return nil, nil
}
