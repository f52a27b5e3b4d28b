package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/atacadex/api/internal/domain"
	pfirestore "github.com/atacadex/api/internal/platform/firestore"
)

const campaignsCollection = "campaigns"

type campaignDocument struct {
	SupplierRef string     `firestore:"supplierRef"`
	Name        string     `firestore:"name"`
	Kind        string     `firestore:"kind"`
	StartsOn    time.Time  `firestore:"startsOn"`
	EndsOn      *time.Time `firestore:"endsOn,omitempty"`

	MinOrderValue  int64 `firestore:"minOrderValue,omitempty"`
	CashbackAmount int64 `firestore:"cashbackAmount,omitempty"`

	MinQuantity       int    `firestore:"minQuantity,omitempty"`
	RewardProductRef  string `firestore:"rewardProductRef,omitempty"`
	RewardDescription string `firestore:"rewardDescription,omitempty"`

	Active bool `firestore:"active"`
}

func (d campaignDocument) toDomain(id string) domain.Campaign {
	return domain.Campaign{
		ID:                id,
		SupplierRef:       d.SupplierRef,
		Name:              d.Name,
		Kind:              domain.CampaignKind(d.Kind),
		StartsOn:          d.StartsOn,
		EndsOn:            d.EndsOn,
		MinOrderValue:     d.MinOrderValue,
		CashbackAmount:    d.CashbackAmount,
		MinQuantity:       d.MinQuantity,
		RewardProductRef:  d.RewardProductRef,
		RewardDescription: d.RewardDescription,
		Active:            d.Active,
	}
}

// CampaignRepository stores promotional campaign definitions.
type CampaignRepository struct {
	campaigns *pfirestore.BaseRepository[campaignDocument]
}

// NewCampaignRepository constructs a Firestore-backed campaign repository.
func NewCampaignRepository(provider *pfirestore.Provider) (*CampaignRepository, error) {
	if provider == nil {
		return nil, errors.New("campaign repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[campaignDocument](provider, campaignsCollection, nil, nil)
	return &CampaignRepository{campaigns: base}, nil
}

// FindByID loads a single campaign.
func (r *CampaignRepository) FindByID(ctx context.Context, campaignID string) (domain.Campaign, error) {
	if r == nil || r.campaigns == nil {
		return domain.Campaign{}, errors.New("campaign repository not initialised")
	}
	doc, err := r.campaigns.Get(ctx, strings.TrimSpace(campaignID))
	if err != nil {
		return domain.Campaign{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// ListBySupplier returns every campaign owned by the supplier, ordered by
// document ID so downstream evaluation is deterministic.
func (r *CampaignRepository) ListBySupplier(ctx context.Context, supplierID string) ([]domain.Campaign, error) {
	if r == nil || r.campaigns == nil {
		return nil, errors.New("campaign repository not initialised")
	}
	supplierID = strings.TrimSpace(supplierID)
	if supplierID == "" {
		return nil, errors.New("supplier id is required")
	}

	docs, err := r.campaigns.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.
			Where("supplierRef", "==", supplierID).
			OrderBy(firestore.DocumentID, firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Campaign, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Data.toDomain(doc.ID))
	}
	return out, nil
}
