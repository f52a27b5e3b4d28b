package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/atacadex/api/internal/repositories"
)

// ErrCampaignInvalidInput signals the caller provided invalid evaluation arguments.
var ErrCampaignInvalidInput = errors.New("campaign: invalid input")

// CampaignServiceDeps bundles collaborators for the campaign service.
type CampaignServiceDeps struct {
	Campaigns repositories.CampaignRepository
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type campaignService struct {
	campaigns repositories.CampaignRepository
	logger    func(context.Context, string, map[string]any)
}

// NewCampaignService wires dependencies into a concrete CampaignService.
func NewCampaignService(deps CampaignServiceDeps) (CampaignService, error) {
	if deps.Campaigns == nil {
		return nil, errors.New("campaign service: campaign repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &campaignService{
		campaigns: deps.Campaigns,
		logger:    logger,
	}, nil
}

// ActiveCampaigns returns the supplier's campaigns in effect at asOf, sorted
// by campaign ID so repeated evaluations apply rewards in the same order.
func (s *campaignService) ActiveCampaigns(ctx context.Context, supplierID string, asOf time.Time) ([]Campaign, error) {
	supplierID = strings.TrimSpace(supplierID)
	if supplierID == "" {
		return nil, fmt.Errorf("%w: supplier id is required", ErrCampaignInvalidInput)
	}

	campaigns, err := s.campaigns.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("campaign: list for %s: %w", supplierID, err)
	}

	active := make([]Campaign, 0, len(campaigns))
	for _, campaign := range campaigns {
		if !campaign.Active {
			continue
		}
		if !campaign.InWindow(asOf) {
			continue
		}
		active = append(active, campaign)
	}

	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return active, nil
}
