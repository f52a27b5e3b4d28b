package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/atacadex/api/internal/domain"
	"github.com/atacadex/api/internal/repositories"
)

const (
	orderEventCreated       = "order.created"
	orderEventStatusChanged = "order.status.changed"
	orderEventDeleted       = "order.deleted"

	orderIDPrefix = "ord_"

	orderNumberCounter = "orders"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order or a referenced entity could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidState indicates an invalid status transition was attempted.
	ErrOrderInvalidState = errors.New("order: invalid status transition")
	// ErrOrderUnauthorized indicates the acting user may not perform the operation.
	ErrOrderUnauthorized = errors.New("order: unauthorized")
	// ErrOrderInsufficientStock indicates a cart line exceeds available stock.
	ErrOrderInsufficientStock = errors.New("order: insufficient stock")
	// ErrOrderConflict indicates concurrent modification or duplicates.
	ErrOrderConflict = errors.New("order: conflict")
)

// OrderEventPublisher publishes order domain events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderEvent captures metadata for emitted order domain events.
type OrderEvent struct {
	Type           string
	OrderID        string
	OrderNumber    string
	PreviousStatus string
	CurrentStatus  string
	ActorID        string
	OccurredAt     time.Time
	Metadata       map[string]any
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders       repositories.OrderRepository
	Catalog      repositories.CatalogRepository
	Counters     repositories.CounterRepository
	PaymentTerms repositories.PaymentTermsRepository
	Conditions   ConditionService
	Campaigns    CampaignService
	Directory    DirectoryService
	AuditLogs    AuditLogService
	UnitOfWork   repositories.UnitOfWork
	Clock        func() time.Time
	IDGenerator  func() string
	Events       OrderEventPublisher
	Logger       func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders       repositories.OrderRepository
	catalog      repositories.CatalogRepository
	counters     repositories.CounterRepository
	paymentTerms repositories.PaymentTermsRepository
	conditions   ConditionService
	campaigns    CampaignService
	directory    DirectoryService
	auditLogs    AuditLogService
	unitOfWork   repositories.UnitOfWork
	clock        func() time.Time
	newID        func() string
	events       OrderEventPublisher
	logger       func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("order service: catalog repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter repository is required")
	}
	if deps.Conditions == nil {
		return nil, errors.New("order service: condition service is required")
	}
	if deps.Campaigns == nil {
		return nil, errors.New("order service: campaign service is required")
	}
	if deps.Directory == nil {
		return nil, errors.New("order service: directory service is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:       deps.Orders,
		catalog:      deps.Catalog,
		counters:     deps.Counters,
		paymentTerms: deps.PaymentTerms,
		conditions:   deps.Conditions,
		campaigns:    deps.Campaigns,
		directory:    deps.Directory,
		auditLogs:    deps.AuditLogs,
		unitOfWork:   unit,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		events: deps.Events,
		logger: logger,
	}, nil
}

func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	storeID := strings.TrimSpace(cmd.Cart.StoreID)
	supplierID := strings.TrimSpace(cmd.Cart.SupplierID)
	actorID := strings.TrimSpace(cmd.ActorID)

	if storeID == "" {
		return Order{}, fmt.Errorf("%w: store id is required", ErrOrderInvalidInput)
	}
	if supplierID == "" {
		return Order{}, fmt.Errorf("%w: supplier id is required", ErrOrderInvalidInput)
	}
	if actorID == "" {
		return Order{}, fmt.Errorf("%w: actor id is required", ErrOrderInvalidInput)
	}
	if len(cmd.Cart.Lines) == 0 {
		return Order{}, fmt.Errorf("%w: cart must contain at least one line", ErrOrderInvalidInput)
	}
	for _, line := range cmd.Cart.Lines {
		if strings.TrimSpace(line.ProductID) == "" {
			return Order{}, fmt.Errorf("%w: line product id is required", ErrOrderInvalidInput)
		}
		if line.Quantity < 1 {
			return Order{}, fmt.Errorf("%w: quantity for %s must be at least 1", ErrOrderInvalidInput, line.ProductID)
		}
	}

	actor, err := s.directory.GetUser(ctx, actorID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if actor.Role == domain.RoleSupplier {
		return Order{}, fmt.Errorf("%w: suppliers may not place orders", ErrOrderUnauthorized)
	}
	if actor.Role == domain.RoleStore && !s.directory.IsMemberOfStore(actor, storeID) {
		return Order{}, fmt.Errorf("%w: user does not belong to store %s", ErrOrderUnauthorized, storeID)
	}

	store, err := s.directory.GetStore(ctx, storeID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if !store.Active {
		return Order{}, fmt.Errorf("%w: store %s is inactive", ErrOrderInvalidInput, storeID)
	}

	supplier, err := s.directory.GetSupplier(ctx, supplierID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if !supplier.Active {
		return Order{}, fmt.Errorf("%w: supplier %s is inactive", ErrOrderInvalidInput, supplierID)
	}

	var paymentTermsRef *string
	if cmd.Cart.PaymentTermsID != nil {
		termsID := strings.TrimSpace(*cmd.Cart.PaymentTermsID)
		if termsID != "" {
			if s.paymentTerms == nil {
				return Order{}, errors.New("order service: payment terms repository not configured")
			}
			terms, err := s.paymentTerms.FindByID(ctx, termsID)
			if err != nil {
				return Order{}, s.mapRepositoryError(err)
			}
			if terms.SupplierRef != supplierID {
				return Order{}, fmt.Errorf("%w: payment terms %s do not belong to supplier %s", ErrOrderInvalidInput, termsID, supplierID)
			}
			if !terms.Active {
				return Order{}, fmt.Errorf("%w: payment terms %s are inactive", ErrOrderInvalidInput, termsID)
			}
			paymentTermsRef = valuePtr(termsID)
		}
	}

	now := s.now()

	adjustment, err := s.conditions.Resolve(ctx, supplierID, store.State)
	if err != nil {
		return Order{}, err
	}
	campaigns, err := s.campaigns.ActiveCampaigns(ctx, supplierID, now)
	if err != nil {
		return Order{}, err
	}

	number, err := s.generateOrderNumber(ctx, now)
	if err != nil {
		return Order{}, err
	}

	order := Order{
		ID:              s.nextOrderID(),
		OrderNumber:     number,
		StoreRef:        storeID,
		SupplierRef:     supplierID,
		CreatedByRef:    actorID,
		PaymentTermsRef: paymentTermsRef,
		Status:          domain.OrderStatusPending,
		CreatedAt:       now,
	}

	lines := mergeCartLines(cmd.Cart.Lines)

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		// All reads happen before the first buffered write.
		products := make(map[string]Product, len(lines))
		for _, line := range lines {
			product, err := s.catalog.FindByID(txCtx, line.ProductID)
			if err != nil {
				return s.mapRepositoryError(err)
			}
			if product.SupplierRef != supplierID {
				return fmt.Errorf("%w: product %s does not belong to supplier %s", ErrOrderInvalidInput, line.ProductID, supplierID)
			}
			if !product.Active {
				return fmt.Errorf("%w: product %s is inactive", ErrOrderInvalidInput, line.ProductID)
			}
			products[line.ProductID] = product
		}

		for _, line := range lines {
			if products[line.ProductID].StockOnHand < line.Quantity {
				return fmt.Errorf("%w: product %s has %d on hand, requested %d",
					ErrOrderInsufficientStock, line.ProductID, products[line.ProductID].StockOnHand, line.Quantity)
			}
		}

		pricing, err := PriceCart(lines, products, adjustment, campaigns)
		if err != nil {
			return err
		}

		remaining := make(map[string]int, len(products))
		for id, product := range products {
			remaining[id] = product.StockOnHand - quantityFor(lines, id)
		}

		var giftLines []OrderLineItem
		for _, candidate := range pricing.GiftCandidates {
			stock, known := remaining[candidate.ProductRef]
			if !known {
				reward, err := s.catalog.FindByID(txCtx, candidate.ProductRef)
				if err != nil {
					if errors.Is(s.mapRepositoryError(err), ErrOrderNotFound) {
						s.logger(txCtx, "order.gift.skipped", map[string]any{
							"campaign": candidate.CampaignID,
							"product":  candidate.ProductRef,
							"reason":   "reward product missing",
						})
						continue
					}
					return s.mapRepositoryError(err)
				}
				stock = reward.StockOnHand
			}
			if stock < 1 {
				s.logger(txCtx, "order.gift.skipped", map[string]any{
					"campaign": candidate.CampaignID,
					"product":  candidate.ProductRef,
					"reason":   "reward out of stock",
				})
				continue
			}
			remaining[candidate.ProductRef] = stock - 1
			giftLines = append(giftLines, OrderLineItem{
				ProductRef: candidate.ProductRef,
				Quantity:   1,
				UnitPrice:  0,
				Gift:       true,
			})
		}

		order.Total = pricing.Total
		order.Cashback = pricing.Cashback
		order.Items = make([]OrderLineItem, 0, len(pricing.Lines)+len(giftLines))
		for _, line := range pricing.Lines {
			order.Items = append(order.Items, OrderLineItem{
				ProductRef:        line.ProductRef,
				Quantity:          line.Quantity,
				UnitPrice:         line.UnitPrice,
				AdjustmentApplied: line.AdjustmentApplied,
			})
		}
		order.Items = append(order.Items, giftLines...)

		// Writes: decrement stock for every line, then insert the aggregate.
		for _, item := range order.Items {
			if err := s.catalog.AdjustStock(txCtx, item.ProductRef, -item.Quantity); err != nil {
				return s.mapRepositoryError(err)
			}
		}
		if err := s.orders.Insert(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:          orderEventCreated,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CurrentStatus: string(order.Status),
		ActorID:       actorID,
		OccurredAt:    now,
		Metadata: map[string]any{
			"store":    storeID,
			"supplier": supplierID,
			"total":    order.Total,
			"cashback": order.Cashback,
		},
	})
	s.recordAudit(ctx, actorID, "order.create", order.ID, map[string]any{
		"orderNumber": order.OrderNumber,
		"total":       order.Total,
	})

	return order, nil
}

func (s *orderService) TransitionStatus(ctx context.Context, cmd OrderStatusTransitionCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	actorID := strings.TrimSpace(cmd.ActorID)
	target := cmd.TargetStatus

	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if actorID == "" {
		return Order{}, fmt.Errorf("%w: actor id is required", ErrOrderInvalidInput)
	}
	if !domain.ValidOrderStatus(target) {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, target)
	}

	actor, err := s.directory.GetUser(ctx, actorID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	now := s.now()
	var order Order
	var prevStatus domain.OrderStatus

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		loaded, err := s.orders.FindByID(txCtx, orderID)
		if err != nil {
			return s.mapRepositoryError(err)
		}

		if err := s.authorizeActorForOrder(actor, loaded); err != nil {
			return err
		}
		if err := authorizeTransition(actor.Role, loaded.Status, target); err != nil {
			return err
		}

		prevStatus = loaded.Status
		restore := target == domain.OrderStatusCancelled && loaded.CancelledAt == nil
		stampTransition(&loaded, target, now)

		if restore {
			for _, item := range loaded.Items {
				if err := s.catalog.AdjustStock(txCtx, item.ProductRef, item.Quantity); err != nil {
					return s.mapRepositoryError(err)
				}
			}
		}

		if err := s.orders.Update(txCtx, loaded); err != nil {
			return s.mapRepositoryError(err)
		}
		order = loaded
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	metadata := map[string]any{}
	if reason := strings.TrimSpace(cmd.Reason); reason != "" {
		metadata["reason"] = reason
	}

	s.publishEvent(ctx, OrderEvent{
		Type:           orderEventStatusChanged,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		PreviousStatus: string(prevStatus),
		CurrentStatus:  string(order.Status),
		ActorID:        actorID,
		OccurredAt:     now,
		Metadata:       metadata,
	})
	s.recordAudit(ctx, actorID, "order.status."+strings.ToLower(string(target)), order.ID, map[string]any{
		"from": string(prevStatus),
		"to":   string(order.Status),
	})

	return order, nil
}

func (s *orderService) Cancel(ctx context.Context, cmd CancelOrderCommand) (Order, error) {
	return s.TransitionStatus(ctx, OrderStatusTransitionCommand{
		OrderID:      cmd.OrderID,
		TargetStatus: domain.OrderStatusCancelled,
		ActorID:      cmd.ActorID,
		Reason:       cmd.Reason,
	})
}

func (s *orderService) DeleteOrder(ctx context.Context, cmd DeleteOrderCommand) error {
	orderID := strings.TrimSpace(cmd.OrderID)
	actorID := strings.TrimSpace(cmd.ActorID)
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	now := s.now()
	var deleted Order

	err := s.runInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orders.FindByID(txCtx, orderID)
		if err != nil {
			return s.mapRepositoryError(err)
		}

		// Cancelled orders already returned their stock.
		if order.Status != domain.OrderStatusCancelled {
			for _, item := range order.Items {
				if err := s.catalog.AdjustStock(txCtx, item.ProductRef, item.Quantity); err != nil {
					return s.mapRepositoryError(err)
				}
			}
		}

		if err := s.orders.Delete(txCtx, orderID); err != nil {
			return s.mapRepositoryError(err)
		}
		deleted = order
		return nil
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:           orderEventDeleted,
		OrderID:        deleted.ID,
		OrderNumber:    deleted.OrderNumber,
		PreviousStatus: string(deleted.Status),
		ActorID:        actorID,
		OccurredAt:     now,
	})
	s.recordAudit(ctx, actorID, "order.delete", deleted.ID, map[string]any{
		"orderNumber": deleted.OrderNumber,
		"status":      string(deleted.Status),
	})

	return nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error) {
	page, err := s.orders.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Order]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

// authorizeActorForOrder ensures non-admin users act only on orders belonging
// to their own store or supplier.
func (s *orderService) authorizeActorForOrder(actor User, order Order) error {
	switch actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleStore:
		if !s.directory.IsMemberOfStore(actor, order.StoreRef) {
			return fmt.Errorf("%w: user does not belong to store %s", ErrOrderUnauthorized, order.StoreRef)
		}
		return nil
	case domain.RoleSupplier:
		if !s.directory.IsMemberOfSupplier(actor, order.SupplierRef) {
			return fmt.Errorf("%w: user does not belong to supplier %s", ErrOrderUnauthorized, order.SupplierRef)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown role %q", ErrOrderUnauthorized, actor.Role)
	}
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var catalogErr *repositories.CatalogError
	if errors.As(err, &catalogErr) {
		switch catalogErr.Code {
		case repositories.CatalogErrorProductNotFound:
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repositories.CatalogErrorInsufficientStock:
			return fmt.Errorf("%w: %v", ErrOrderInsufficientStock, err)
		}
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}

func (s *orderService) generateOrderNumber(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, orderNumberCounter, 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("AT-%04d-%06d", now.Year(), seq), nil
}

func (s *orderService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *orderService) now() time.Time {
	return s.clock()
}

func (s *orderService) nextOrderID() string {
	return orderIDPrefix + s.newID()
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if event.Metadata != nil {
		event.Metadata = maps.Clone(event.Metadata)
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":   event.Type,
			"order":  event.OrderID,
			"error":  err.Error(),
			"status": event.CurrentStatus,
		})
	}
}

func (s *orderService) recordAudit(ctx context.Context, actorID, action, orderID string, detail map[string]any) {
	if s.auditLogs == nil {
		return
	}
	if _, err := s.auditLogs.Record(ctx, RecordAuditEntryCommand{
		ActorRef:   actorID,
		Action:     action,
		TargetKind: "order",
		TargetRef:  orderID,
		Detail:     detail,
	}); err != nil {
		s.logger(ctx, "order.audit.record.failed", map[string]any{
			"action": action,
			"order":  orderID,
			"error":  err.Error(),
		})
	}
}

// mergeCartLines collapses duplicate product lines so stock checks and
// decrements see one quantity per product.
func mergeCartLines(lines []CartLine) []CartLine {
	index := make(map[string]int, len(lines))
	merged := make([]CartLine, 0, len(lines))
	for _, line := range lines {
		id := strings.TrimSpace(line.ProductID)
		if pos, ok := index[id]; ok {
			merged[pos].Quantity += line.Quantity
			continue
		}
		index[id] = len(merged)
		merged = append(merged, CartLine{ProductID: id, Quantity: line.Quantity})
	}
	return merged
}

func quantityFor(lines []CartLine, productID string) int {
	for _, line := range lines {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func valuePtr[T any](v T) *T {
	return &v
}
