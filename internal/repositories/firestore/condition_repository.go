package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/atacadex/api/internal/domain"
	pfirestore "github.com/atacadex/api/internal/platform/firestore"
)

const regionalConditionsCollection = "regionalConditions"

type regionalConditionDocument struct {
	SupplierRef         string `firestore:"supplierRef"`
	State               string `firestore:"state"`
	UnitPriceAdjustment int64  `firestore:"unitPriceAdjustment"`
	CashbackBps         int64  `firestore:"cashbackBps"`
	PaymentTermDays     int    `firestore:"paymentTermDays,omitempty"`
	Active              bool   `firestore:"active"`
}

func (d regionalConditionDocument) toDomain(id string) domain.RegionalCondition {
	return domain.RegionalCondition{
		ID:                  id,
		SupplierRef:         d.SupplierRef,
		State:               d.State,
		UnitPriceAdjustment: d.UnitPriceAdjustment,
		CashbackBps:         d.CashbackBps,
		PaymentTermDays:     d.PaymentTermDays,
		Active:              d.Active,
	}
}

// RegionalConditionRepository resolves pricing overrides stored per supplier and state.
type RegionalConditionRepository struct {
	conditions *pfirestore.BaseRepository[regionalConditionDocument]
}

// NewRegionalConditionRepository constructs a Firestore-backed condition repository.
func NewRegionalConditionRepository(provider *pfirestore.Provider) (*RegionalConditionRepository, error) {
	if provider == nil {
		return nil, errors.New("regional condition repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[regionalConditionDocument](provider, regionalConditionsCollection, nil, nil)
	return &RegionalConditionRepository{conditions: base}, nil
}

// FindBySupplierAndState returns the condition for the (supplier, state) pair.
// A missing pair surfaces as a not-found repository error; callers treat it as
// a neutral adjustment.
func (r *RegionalConditionRepository) FindBySupplierAndState(ctx context.Context, supplierID string, state string) (domain.RegionalCondition, error) {
	if r == nil || r.conditions == nil {
		return domain.RegionalCondition{}, errors.New("regional condition repository not initialised")
	}
	supplierID = strings.TrimSpace(supplierID)
	state = strings.ToUpper(strings.TrimSpace(state))
	if supplierID == "" || state == "" {
		return domain.RegionalCondition{}, errors.New("supplier id and state are required")
	}

	docs, err := r.conditions.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.
			Where("supplierRef", "==", supplierID).
			Where("state", "==", state).
			Limit(1)
	})
	if err != nil {
		return domain.RegionalCondition{}, err
	}
	if len(docs) == 0 {
		return domain.RegionalCondition{}, pfirestore.WrapError("regionalconditions.find", notFoundErr("regional condition"))
	}
	return docs[0].Data.toDomain(docs[0].ID), nil
}

// ListBySupplier returns every condition configured for the supplier.
func (r *RegionalConditionRepository) ListBySupplier(ctx context.Context, supplierID string) ([]domain.RegionalCondition, error) {
	if r == nil || r.conditions == nil {
		return nil, errors.New("regional condition repository not initialised")
	}
	supplierID = strings.TrimSpace(supplierID)
	if supplierID == "" {
		return nil, errors.New("supplier id is required")
	}

	docs, err := r.conditions.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("supplierRef", "==", supplierID)
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.RegionalCondition, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Data.toDomain(doc.ID))
	}
	return out, nil
}
