package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atacadex/api/internal/repositories"
)

var (
	// ErrDirectoryInvalidInput indicates the caller supplied malformed arguments.
	ErrDirectoryInvalidInput = errors.New("directory: invalid input")
	// ErrDirectoryNotFound indicates the requested account or entity does not exist.
	ErrDirectoryNotFound = errors.New("directory: not found")
)

// DirectoryServiceDeps bundles the account and business entity repositories.
type DirectoryServiceDeps struct {
	Users     repositories.UserRepository
	Stores    repositories.StoreRepository
	Suppliers repositories.SupplierRepository
}

type directoryService struct {
	users     repositories.UserRepository
	stores    repositories.StoreRepository
	suppliers repositories.SupplierRepository
}

var _ DirectoryService = (*directoryService)(nil)

// NewDirectoryService wires dependencies into a concrete DirectoryService.
func NewDirectoryService(deps DirectoryServiceDeps) (DirectoryService, error) {
	if deps.Users == nil {
		return nil, errors.New("directory service: user repository is required")
	}
	if deps.Stores == nil {
		return nil, errors.New("directory service: store repository is required")
	}
	if deps.Suppliers == nil {
		return nil, errors.New("directory service: supplier repository is required")
	}
	return &directoryService{
		users:     deps.Users,
		stores:    deps.Stores,
		suppliers: deps.Suppliers,
	}, nil
}

func (s *directoryService) GetUser(ctx context.Context, userID string) (User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrDirectoryInvalidInput)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return User{}, mapDirectoryError("user", userID, err)
	}
	return user, nil
}

func (s *directoryService) GetStore(ctx context.Context, storeID string) (Store, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return Store{}, fmt.Errorf("%w: store id is required", ErrDirectoryInvalidInput)
	}
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return Store{}, mapDirectoryError("store", storeID, err)
	}
	return store, nil
}

func (s *directoryService) GetSupplier(ctx context.Context, supplierID string) (Supplier, error) {
	supplierID = strings.TrimSpace(supplierID)
	if supplierID == "" {
		return Supplier{}, fmt.Errorf("%w: supplier id is required", ErrDirectoryInvalidInput)
	}
	supplier, err := s.suppliers.FindByID(ctx, supplierID)
	if err != nil {
		return Supplier{}, mapDirectoryError("supplier", supplierID, err)
	}
	return supplier, nil
}

func (s *directoryService) IsMemberOfStore(user User, storeID string) bool {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" || user.StoreRef == nil {
		return false
	}
	return *user.StoreRef == storeID
}

func (s *directoryService) IsMemberOfSupplier(user User, supplierID string) bool {
	supplierID = strings.TrimSpace(supplierID)
	if supplierID == "" || user.SupplierRef == nil {
		return false
	}
	return *user.SupplierRef == supplierID
}

func mapDirectoryError(kind, id string, err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %s %s", ErrDirectoryNotFound, kind, id)
	}
	return fmt.Errorf("directory: get %s %s: %w", kind, id, err)
}
