package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/atacadex/api/internal/domain"
	pfirestore "github.com/atacadex/api/internal/platform/firestore"
	"github.com/atacadex/api/internal/platform/pagination"
	"github.com/atacadex/api/internal/repositories"
)

const productsCollection = "products"

type productDocument struct {
	SupplierRef   string    `firestore:"supplierRef"`
	CategoryRef   string    `firestore:"categoryRef,omitempty"`
	Name          string    `firestore:"name"`
	Description   string    `firestore:"description,omitempty"`
	BasePrice     int64     `firestore:"basePrice"`
	UnitOfMeasure string    `firestore:"unitOfMeasure,omitempty"`
	StockOnHand   int       `firestore:"stockOnHand"`
	Active        bool      `firestore:"active"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

func (d productDocument) toDomain(id string) domain.Product {
	return domain.Product{
		ID:            id,
		SupplierRef:   d.SupplierRef,
		CategoryRef:   d.CategoryRef,
		Name:          d.Name,
		Description:   d.Description,
		BasePrice:     d.BasePrice,
		UnitOfMeasure: d.UnitOfMeasure,
		StockOnHand:   d.StockOnHand,
		Active:        d.Active,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// CatalogRepository persists products in Firestore and performs stock mutations.
type CatalogRepository struct {
	provider *pfirestore.Provider
	products *pfirestore.BaseRepository[productDocument]
}

// NewCatalogRepository constructs a Firestore-backed product repository.
func NewCatalogRepository(provider *pfirestore.Provider) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productsCollection, nil, nil)
	return &CatalogRepository{provider: provider, products: base}, nil
}

// FindByID loads a product. Inside a unit of work the read joins the ambient
// transaction so subsequent stock writes are serialised against it.
func (r *CatalogRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.products == nil {
		return domain.Product{}, errors.New("catalog repository not initialised")
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return domain.Product{}, repositories.NewCatalogError(repositories.CatalogErrorInvalidInput, "product id is required", nil)
	}

	if tx, ok := transactionFrom(ctx); ok {
		ref, err := r.products.DocumentRef(ctx, id)
		if err != nil {
			return domain.Product{}, err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return domain.Product{}, repositories.NewCatalogError(repositories.CatalogErrorProductNotFound, fmt.Sprintf("product %s not found", id), err)
			}
			return domain.Product{}, pfirestore.WrapError("products.get", err)
		}
		var doc productDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.Product{}, fmt.Errorf("firestore products decode %s: %w", id, err)
		}
		return doc.toDomain(id), nil
	}

	doc, err := r.products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// List returns a product page ordered by document ID with optional supplier
// and active filters.
func (r *CatalogRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	if r == nil || r.products == nil {
		return domain.CursorPage[domain.Product]{}, errors.New("catalog repository not initialised")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}

	docs, err := r.products.Query(ctx, func(query firestore.Query) firestore.Query {
		if supplierID := strings.TrimSpace(filter.SupplierID); supplierID != "" {
			query = query.Where("supplierRef", "==", supplierID)
		}
		if filter.OnlyActive {
			query = query.Where("active", "==", true)
		}
		query = query.OrderBy(firestore.DocumentID, firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			query = query.StartAfter(cursor.StartAfter...)
		}
		return query.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}

	page := domain.CursorPage[domain.Product]{}
	for i, doc := range docs {
		if i >= pageSize {
			break
		}
		page.Items = append(page.Items, doc.Data.toDomain(doc.ID))
	}
	if len(docs) > pageSize {
		last := docs[pageSize-1]
		token, err := pagination.EncodeToken(pagination.Cursor{StartAfter: []any{last.ID}})
		if err != nil {
			return domain.CursorPage[domain.Product]{}, err
		}
		page.NextPageToken = token
	}
	return page, nil
}

// AdjustStock applies a signed delta to a product's stock. Inside a unit of
// work the write is buffered against the ambient transaction and the caller
// is responsible for having validated availability from its in-transaction
// reads. Standalone calls run their own transaction and enforce the
// non-negative invariant atomically.
func (r *CatalogRepository) AdjustStock(ctx context.Context, productID string, delta int) error {
	if r == nil || r.provider == nil {
		return errors.New("catalog repository not initialised")
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return repositories.NewCatalogError(repositories.CatalogErrorInvalidInput, "product id is required", nil)
	}
	if delta == 0 {
		return nil
	}

	now := time.Now().UTC()
	updates := []firestore.Update{
		{Path: "stockOnHand", Value: firestore.Increment(delta)},
		{Path: "updatedAt", Value: now},
	}

	if tx, ok := transactionFrom(ctx); ok {
		ref, err := r.products.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Update(ref, updates); err != nil {
			return pfirestore.WrapError("products.adjuststock", err)
		}
		return nil
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.products.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewCatalogError(repositories.CatalogErrorProductNotFound, fmt.Sprintf("product %s not found", id), err)
			}
			return err
		}
		var doc productDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("firestore products decode %s: %w", id, err)
		}
		if doc.StockOnHand+delta < 0 {
			return repositories.NewCatalogError(repositories.CatalogErrorInsufficientStock, fmt.Sprintf("insufficient stock for product %s", id), nil)
		}
		return tx.Update(ref, updates)
	})
	if err != nil {
		var catalogErr *repositories.CatalogError
		if errors.As(err, &catalogErr) {
			return catalogErr
		}
		return pfirestore.WrapError("products.adjuststock", err)
	}
	return nil
}
