package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/atacadex/api/internal/domain"
	pfirestore "github.com/atacadex/api/internal/platform/firestore"
)

const (
	storesCollection       = "stores"
	suppliersCollection    = "suppliers"
	paymentTermsCollection = "paymentTerms"
)

type storeDocument struct {
	TradeName    string    `firestore:"tradeName"`
	LegalName    string    `firestore:"legalName,omitempty"`
	CNPJ         string    `firestore:"cnpj"`
	ContactName  string    `firestore:"contactName,omitempty"`
	ContactEmail string    `firestore:"contactEmail,omitempty"`
	Phone        string    `firestore:"phone,omitempty"`
	City         string    `firestore:"city,omitempty"`
	State        string    `firestore:"state"`
	Active       bool      `firestore:"active"`
	CreatedAt    time.Time `firestore:"createdAt"`
}

type supplierDocument struct {
	TradeName    string    `firestore:"tradeName"`
	LegalName    string    `firestore:"legalName,omitempty"`
	CNPJ         string    `firestore:"cnpj"`
	ContactEmail string    `firestore:"contactEmail,omitempty"`
	State        string    `firestore:"state,omitempty"`
	Active       bool      `firestore:"active"`
	CreatedAt    time.Time `firestore:"createdAt"`
}

type paymentTermsDocument struct {
	SupplierRef  string `firestore:"supplierRef"`
	Description  string `firestore:"description"`
	DaysUntilDue int    `firestore:"daysUntilDue"`
	Active       bool   `firestore:"active"`
}

// StoreRepository stores purchasing businesses.
type StoreRepository struct {
	stores *pfirestore.BaseRepository[storeDocument]
}

// NewStoreRepository constructs a Firestore-backed store repository.
func NewStoreRepository(provider *pfirestore.Provider) (*StoreRepository, error) {
	if provider == nil {
		return nil, errors.New("store repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[storeDocument](provider, storesCollection, nil, nil)
	return &StoreRepository{stores: base}, nil
}

// FindByID loads the store by ID.
func (r *StoreRepository) FindByID(ctx context.Context, storeID string) (domain.Store, error) {
	if r == nil || r.stores == nil {
		return domain.Store{}, errors.New("store repository not initialised")
	}
	doc, err := r.stores.Get(ctx, strings.TrimSpace(storeID))
	if err != nil {
		return domain.Store{}, err
	}
	data := doc.Data
	return domain.Store{
		ID:           doc.ID,
		TradeName:    data.TradeName,
		LegalName:    data.LegalName,
		CNPJ:         data.CNPJ,
		ContactName:  data.ContactName,
		ContactEmail: data.ContactEmail,
		Phone:        data.Phone,
		City:         data.City,
		State:        strings.ToUpper(strings.TrimSpace(data.State)),
		Active:       data.Active,
		CreatedAt:    data.CreatedAt,
	}, nil
}

// SupplierRepository stores selling businesses.
type SupplierRepository struct {
	suppliers *pfirestore.BaseRepository[supplierDocument]
}

// NewSupplierRepository constructs a Firestore-backed supplier repository.
func NewSupplierRepository(provider *pfirestore.Provider) (*SupplierRepository, error) {
	if provider == nil {
		return nil, errors.New("supplier repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[supplierDocument](provider, suppliersCollection, nil, nil)
	return &SupplierRepository{suppliers: base}, nil
}

// FindByID loads the supplier by ID.
func (r *SupplierRepository) FindByID(ctx context.Context, supplierID string) (domain.Supplier, error) {
	if r == nil || r.suppliers == nil {
		return domain.Supplier{}, errors.New("supplier repository not initialised")
	}
	doc, err := r.suppliers.Get(ctx, strings.TrimSpace(supplierID))
	if err != nil {
		return domain.Supplier{}, err
	}
	data := doc.Data
	return domain.Supplier{
		ID:           doc.ID,
		TradeName:    data.TradeName,
		LegalName:    data.LegalName,
		CNPJ:         data.CNPJ,
		ContactEmail: data.ContactEmail,
		State:        strings.ToUpper(strings.TrimSpace(data.State)),
		Active:       data.Active,
		CreatedAt:    data.CreatedAt,
	}, nil
}

// PaymentTermsRepository stores supplier payment arrangements.
type PaymentTermsRepository struct {
	terms *pfirestore.BaseRepository[paymentTermsDocument]
}

// NewPaymentTermsRepository constructs a Firestore-backed payment terms repository.
func NewPaymentTermsRepository(provider *pfirestore.Provider) (*PaymentTermsRepository, error) {
	if provider == nil {
		return nil, errors.New("payment terms repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[paymentTermsDocument](provider, paymentTermsCollection, nil, nil)
	return &PaymentTermsRepository{terms: base}, nil
}

// FindByID loads the payment terms by ID.
func (r *PaymentTermsRepository) FindByID(ctx context.Context, paymentTermsID string) (domain.PaymentTerms, error) {
	if r == nil || r.terms == nil {
		return domain.PaymentTerms{}, errors.New("payment terms repository not initialised")
	}
	doc, err := r.terms.Get(ctx, strings.TrimSpace(paymentTermsID))
	if err != nil {
		return domain.PaymentTerms{}, err
	}
	data := doc.Data
	return domain.PaymentTerms{
		ID:           doc.ID,
		SupplierRef:  data.SupplierRef,
		Description:  data.Description,
		DaysUntilDue: data.DaysUntilDue,
		Active:       data.Active,
	}, nil
}
