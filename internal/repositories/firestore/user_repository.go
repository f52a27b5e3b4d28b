package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/atacadex/api/internal/domain"
	pfirestore "github.com/atacadex/api/internal/platform/firestore"
)

const usersCollection = "users"

type userDocument struct {
	Name        string    `firestore:"name"`
	Email       string    `firestore:"email"`
	Role        string    `firestore:"role"`
	StoreRef    *string   `firestore:"storeRef,omitempty"`
	SupplierRef *string   `firestore:"supplierRef,omitempty"`
	Active      bool      `firestore:"active"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

func (d userDocument) toDomain(id string) domain.User {
	return domain.User{
		ID:          id,
		Name:        d.Name,
		Email:       strings.TrimSpace(d.Email),
		Role:        domain.UserRole(strings.ToLower(strings.TrimSpace(d.Role))),
		StoreRef:    d.StoreRef,
		SupplierRef: d.SupplierRef,
		Active:      d.Active,
		CreatedAt:   d.CreatedAt,
	}
}

// UserRepository stores platform accounts keyed by the auth subject.
type UserRepository struct {
	users *pfirestore.BaseRepository[userDocument]
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[userDocument](provider, usersCollection, nil, nil)
	return &UserRepository{users: base}, nil
}

// FindByID loads the account by its auth subject.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.User, error) {
	if r == nil || r.users == nil {
		return domain.User{}, errors.New("user repository not initialised")
	}
	if strings.TrimSpace(userID) == "" {
		return domain.User{}, errors.New("user id is required")
	}
	doc, err := r.users.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}
