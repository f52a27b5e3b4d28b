package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/atacadex/api/internal/domain"
	pfirestore "github.com/atacadex/api/internal/platform/firestore"
	"github.com/atacadex/api/internal/platform/pagination"
	"github.com/atacadex/api/internal/repositories"
)

const ordersCollection = "orders"

type orderLineDocument struct {
	ProductRef        string `firestore:"productRef"`
	Quantity          int    `firestore:"quantity"`
	UnitPrice         int64  `firestore:"unitPrice"`
	AdjustmentApplied int64  `firestore:"adjustmentApplied"`
	Gift              bool   `firestore:"gift"`
}

type orderDocument struct {
	OrderNumber     string              `firestore:"orderNumber"`
	StoreRef        string              `firestore:"storeRef"`
	SupplierRef     string              `firestore:"supplierRef"`
	CreatedByRef    string              `firestore:"createdByRef"`
	PaymentTermsRef *string             `firestore:"paymentTermsRef,omitempty"`
	Status          string              `firestore:"status"`
	Total           int64               `firestore:"total"`
	Cashback        int64               `firestore:"cashback"`
	Items           []orderLineDocument `firestore:"items"`

	CreatedAt           time.Time  `firestore:"createdAt"`
	SeparationStartedAt *time.Time `firestore:"separationStartedAt,omitempty"`
	ShippedAt           *time.Time `firestore:"shippedAt,omitempty"`
	DeliveredAt         *time.Time `firestore:"deliveredAt,omitempty"`
	CancelledAt         *time.Time `firestore:"cancelledAt,omitempty"`
}

func newOrderDocument(order domain.Order) orderDocument {
	doc := orderDocument{
		OrderNumber:         order.OrderNumber,
		StoreRef:            order.StoreRef,
		SupplierRef:         order.SupplierRef,
		CreatedByRef:        order.CreatedByRef,
		PaymentTermsRef:     order.PaymentTermsRef,
		Status:              string(order.Status),
		Total:               order.Total,
		Cashback:            order.Cashback,
		CreatedAt:           order.CreatedAt.UTC(),
		SeparationStartedAt: order.SeparationStartedAt,
		ShippedAt:           order.ShippedAt,
		DeliveredAt:         order.DeliveredAt,
		CancelledAt:         order.CancelledAt,
	}
	doc.Items = make([]orderLineDocument, 0, len(order.Items))
	for _, item := range order.Items {
		doc.Items = append(doc.Items, orderLineDocument{
			ProductRef:        item.ProductRef,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			AdjustmentApplied: item.AdjustmentApplied,
			Gift:              item.Gift,
		})
	}
	return doc
}

func (d orderDocument) toDomain(id string) domain.Order {
	order := domain.Order{
		ID:                  id,
		OrderNumber:         d.OrderNumber,
		StoreRef:            d.StoreRef,
		SupplierRef:         d.SupplierRef,
		CreatedByRef:        d.CreatedByRef,
		PaymentTermsRef:     d.PaymentTermsRef,
		Status:              domain.OrderStatus(d.Status),
		Total:               d.Total,
		Cashback:            d.Cashback,
		CreatedAt:           d.CreatedAt,
		SeparationStartedAt: d.SeparationStartedAt,
		ShippedAt:           d.ShippedAt,
		DeliveredAt:         d.DeliveredAt,
		CancelledAt:         d.CancelledAt,
	}
	order.Items = make([]domain.OrderLineItem, 0, len(d.Items))
	for _, item := range d.Items {
		order.Items = append(order.Items, domain.OrderLineItem{
			ProductRef:        item.ProductRef,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			AdjustmentApplied: item.AdjustmentApplied,
			Gift:              item.Gift,
		})
	}
	return order
}

// OrderRepository persists order aggregates in Firestore. The order header and
// its line items live in a single document so creation and deletion are atomic.
type OrderRepository struct {
	provider *pfirestore.Provider
	orders   *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil, nil)
	return &OrderRepository{provider: provider, orders: base}, nil
}

// Insert creates the order document, failing when the ID already exists.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.orders == nil {
		return errors.New("order repository not initialised")
	}
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order id is required")
	}

	ref, err := r.orders.DocumentRef(ctx, order.ID)
	if err != nil {
		return err
	}
	doc := newOrderDocument(order)

	if tx, ok := transactionFrom(ctx); ok {
		return pfirestore.WrapError("orders.insert", tx.Create(ref, doc))
	}
	_, err = ref.Create(ctx, doc)
	return pfirestore.WrapError("orders.insert", err)
}

// Update replaces the order document.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	if r == nil || r.orders == nil {
		return errors.New("order repository not initialised")
	}
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order id is required")
	}

	ref, err := r.orders.DocumentRef(ctx, order.ID)
	if err != nil {
		return err
	}
	doc := newOrderDocument(order)

	if tx, ok := transactionFrom(ctx); ok {
		return pfirestore.WrapError("orders.update", tx.Set(ref, doc))
	}
	_, err = ref.Set(ctx, doc)
	return pfirestore.WrapError("orders.update", err)
}

// Delete removes the order document together with its embedded line items.
func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	if r == nil || r.orders == nil {
		return errors.New("order repository not initialised")
	}
	ref, err := r.orders.DocumentRef(ctx, orderID)
	if err != nil {
		return err
	}

	if tx, ok := transactionFrom(ctx); ok {
		return pfirestore.WrapError("orders.delete", tx.Delete(ref))
	}
	_, err = ref.Delete(ctx)
	return pfirestore.WrapError("orders.delete", err)
}

// FindByID loads the order aggregate, joining the ambient transaction when present.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.orders == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order id is required")
	}

	if tx, ok := transactionFrom(ctx); ok {
		ref, err := r.orders.DocumentRef(ctx, id)
		if err != nil {
			return domain.Order{}, err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return domain.Order{}, pfirestore.WrapError("orders.get", err)
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.Order{}, fmt.Errorf("firestore orders decode %s: %w", id, err)
		}
		return doc.toDomain(id), nil
	}

	doc, err := r.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// List returns a page of orders ordered by creation time descending.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.orders == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	docs, err := r.orders.Query(ctx, func(query firestore.Query) firestore.Query {
		if storeID := strings.TrimSpace(filter.StoreID); storeID != "" {
			query = query.Where("storeRef", "==", storeID)
		}
		if supplierID := strings.TrimSpace(filter.SupplierID); supplierID != "" {
			query = query.Where("supplierRef", "==", supplierID)
		}
		if len(filter.Status) == 1 {
			query = query.Where("status", "==", string(filter.Status[0]))
		} else if len(filter.Status) > 1 {
			statuses := make([]string, 0, len(filter.Status))
			for _, s := range filter.Status {
				statuses = append(statuses, string(s))
			}
			query = query.Where("status", "in", statuses)
		}
		if filter.DateRange.From != nil {
			query = query.Where("createdAt", ">=", filter.DateRange.From.UTC())
		}
		if filter.DateRange.To != nil {
			query = query.Where("createdAt", "<=", filter.DateRange.To.UTC())
		}
		query = query.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			query = query.StartAfter(cursor.StartAfter...)
		}
		return query.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	page := domain.CursorPage[domain.Order]{}
	for i, doc := range docs {
		if i >= pageSize {
			break
		}
		page.Items = append(page.Items, doc.Data.toDomain(doc.ID))
	}
	if len(docs) > pageSize {
		last := docs[pageSize-1]
		token, err := pagination.EncodeToken(pagination.Cursor{StartAfter: []any{last.Data.CreatedAt, last.ID}})
		if err != nil {
			return domain.CursorPage[domain.Order]{}, err
		}
		page.NextPageToken = token
	}
	return page, nil
}
