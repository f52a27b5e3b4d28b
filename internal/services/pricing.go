package services

import (
	"errors"
	"fmt"
	"strings"

	domain "github.com/atacadex/api/internal/domain"
)

// ErrPricingInvalidInput signals bad pricing data such as empty carts or
// unknown products.
var ErrPricingInvalidInput = errors.New("pricing: invalid input")

// PriceCart computes the realized order amounts for a cart: adjusted unit
// prices, order total, total quantity, combined cashback, and the gift
// candidates owed by quantity-threshold campaigns. The computation is pure;
// stock checks against candidates happen at the caller under its transaction.
//
// Cashback is the sum of the regional rate applied to the total (half-up) and
// the flat amounts of every qualifying value-threshold campaign. Campaign
// rewards accumulate; campaigns must already be filtered to the active window
// and arrive sorted by ID.
func PriceCart(lines []CartLine, products map[string]Product, adjustment Adjustment, campaigns []Campaign) (PricingResult, error) {
	if len(lines) == 0 {
		return PricingResult{}, fmt.Errorf("%w: cart must contain at least one line", ErrPricingInvalidInput)
	}

	result := PricingResult{Lines: make([]PricedLine, 0, len(lines))}

	for _, line := range lines {
		productID := strings.TrimSpace(line.ProductID)
		if productID == "" {
			return PricingResult{}, fmt.Errorf("%w: line product id is required", ErrPricingInvalidInput)
		}
		if line.Quantity < 1 {
			return PricingResult{}, fmt.Errorf("%w: quantity for %s must be at least 1", ErrPricingInvalidInput, productID)
		}
		product, ok := products[productID]
		if !ok {
			return PricingResult{}, fmt.Errorf("%w: product %s not loaded", ErrPricingInvalidInput, productID)
		}

		unitPrice := domain.AdjustedUnitPrice(product.BasePrice, adjustment.UnitPriceDelta)
		result.Lines = append(result.Lines, PricedLine{
			ProductRef:        productID,
			Quantity:          line.Quantity,
			UnitPrice:         unitPrice,
			AdjustmentApplied: adjustment.UnitPriceDelta,
		})
		result.Total += unitPrice * int64(line.Quantity)
		result.TotalQuantity += line.Quantity
	}

	if adjustment.CashbackBps > 0 {
		result.Cashback = domain.ApplyBasisPoints(result.Total, adjustment.CashbackBps)
	}

	for _, campaign := range campaigns {
		switch campaign.Kind {
		case domain.CampaignValueThreshold:
			if result.Total >= campaign.MinOrderValue {
				result.Cashback += campaign.CashbackAmount
			}
		case domain.CampaignQuantityThreshold:
			if result.TotalQuantity >= campaign.MinQuantity && strings.TrimSpace(campaign.RewardProductRef) != "" {
				result.GiftCandidates = append(result.GiftCandidates, GiftCandidate{
					CampaignID: campaign.ID,
					ProductRef: strings.TrimSpace(campaign.RewardProductRef),
				})
			}
		}
	}

	return result, nil
}
