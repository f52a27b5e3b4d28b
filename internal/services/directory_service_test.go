package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/atacadex/api/internal/domain"
)

type stubUserRepo struct {
	users map[string]domain.User
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, stubNotFoundError{entity: "user"}
	}
	return user, nil
}

type stubStoreRepo struct {
	stores map[string]domain.Store
}

func (r *stubStoreRepo) FindByID(_ context.Context, id string) (domain.Store, error) {
	store, ok := r.stores[id]
	if !ok {
		return domain.Store{}, stubNotFoundError{entity: "store"}
	}
	return store, nil
}

type stubSupplierRepo struct {
	suppliers map[string]domain.Supplier
}

func (r *stubSupplierRepo) FindByID(_ context.Context, id string) (domain.Supplier, error) {
	supplier, ok := r.suppliers[id]
	if !ok {
		return domain.Supplier{}, stubNotFoundError{entity: "supplier"}
	}
	return supplier, nil
}

func newDirectoryService(t *testing.T) DirectoryService {
	t.Helper()
	service, err := NewDirectoryService(DirectoryServiceDeps{
		Users: &stubUserRepo{users: map[string]domain.User{
			"user-1": {ID: "user-1", Role: domain.RoleStore, StoreRef: strPtr("store-1"), Active: true},
		}},
		Stores: &stubStoreRepo{stores: map[string]domain.Store{
			"store-1": {ID: "store-1", TradeName: "Mercado Norte", State: "SP", Active: true},
		}},
		Suppliers: &stubSupplierRepo{suppliers: map[string]domain.Supplier{
			"sup-1": {ID: "sup-1", TradeName: "Distribuidora Sul", Active: true},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error creating service: %v", err)
	}
	return service
}

func TestDirectoryServiceLookups(t *testing.T) {
	service := newDirectoryService(t)
	ctx := context.Background()

	user, err := service.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Role != domain.RoleStore {
		t.Fatalf("unexpected user %#v", user)
	}

	store, err := service.GetStore(ctx, "store-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.State != "SP" {
		t.Fatalf("unexpected store %#v", store)
	}

	supplier, err := service.GetSupplier(ctx, "sup-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if supplier.TradeName != "Distribuidora Sul" {
		t.Fatalf("unexpected supplier %#v", supplier)
	}
}

func TestDirectoryServiceMapsNotFound(t *testing.T) {
	service := newDirectoryService(t)
	ctx := context.Background()

	if _, err := service.GetUser(ctx, "user-missing"); !errors.Is(err, ErrDirectoryNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := service.GetStore(ctx, "store-missing"); !errors.Is(err, ErrDirectoryNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := service.GetSupplier(ctx, "sup-missing"); !errors.Is(err, ErrDirectoryNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := service.GetUser(ctx, "  "); !errors.Is(err, ErrDirectoryInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestDirectoryServiceMembership(t *testing.T) {
	service := newDirectoryService(t)

	storeUser := domain.User{Role: domain.RoleStore, StoreRef: strPtr("store-1")}
	supplierUser := domain.User{Role: domain.RoleSupplier, SupplierRef: strPtr("sup-1")}
	admin := domain.User{Role: domain.RoleAdmin}

	if !service.IsMemberOfStore(storeUser, "store-1") {
		t.Fatalf("expected membership of store-1")
	}
	if service.IsMemberOfStore(storeUser, "store-2") {
		t.Fatalf("unexpected membership of store-2")
	}
	if service.IsMemberOfStore(admin, "store-1") {
		t.Fatalf("admins carry no store membership")
	}
	if !service.IsMemberOfSupplier(supplierUser, "sup-1") {
		t.Fatalf("expected membership of sup-1")
	}
	if service.IsMemberOfSupplier(supplierUser, "") {
		t.Fatalf("blank supplier id must not match")
	}
}
