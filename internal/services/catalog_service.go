package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/atacadex/api/internal/domain"
	"github.com/atacadex/api/internal/repositories"
)

var (
	// ErrCatalogInvalidInput indicates the caller supplied malformed arguments.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogProductNotFound indicates the requested product does not exist.
	ErrCatalogProductNotFound = errors.New("catalog: product not found")
)

// CatalogServiceDeps bundles collaborators for the catalog read service.
type CatalogServiceDeps struct {
	Catalog repositories.CatalogRepository
}

type catalogService struct {
	catalog repositories.CatalogRepository
}

var _ CatalogService = (*catalogService)(nil)

// NewCatalogService wires dependencies into a concrete CatalogService.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("catalog service: catalog repository is required")
	}
	return &catalogService{catalog: deps.Catalog}, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	product, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return Product{}, fmt.Errorf("%w: %s", ErrCatalogProductNotFound, productID)
		}
		return Product{}, fmt.Errorf("catalog: get %s: %w", productID, err)
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter ProductListFilter) (domain.CursorPage[Product], error) {
	filter.SupplierID = strings.TrimSpace(filter.SupplierID)
	if filter.Pagination.PageSize < 0 {
		return domain.CursorPage[Product]{}, fmt.Errorf("%w: page size must not be negative", ErrCatalogInvalidInput)
	}

	page, err := s.catalog.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Product]{}, fmt.Errorf("catalog: list: %w", err)
	}
	return page, nil
}
