package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atacadex/api/internal/repositories"
)

// ErrConditionInvalidInput signals the caller provided invalid lookup arguments.
var ErrConditionInvalidInput = errors.New("condition: invalid input")

// ConditionServiceDeps bundles collaborators for the condition service.
type ConditionServiceDeps struct {
	Conditions repositories.RegionalConditionRepository
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

type conditionService struct {
	conditions repositories.RegionalConditionRepository
	logger     func(context.Context, string, map[string]any)
}

// NewConditionService wires dependencies into a concrete ConditionService.
func NewConditionService(deps ConditionServiceDeps) (ConditionService, error) {
	if deps.Conditions == nil {
		return nil, errors.New("condition service: condition repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &conditionService{
		conditions: deps.Conditions,
		logger:     logger,
	}, nil
}

// Resolve looks up the regional condition for the supplier and state. A missing
// or inactive condition resolves to the neutral adjustment.
func (s *conditionService) Resolve(ctx context.Context, supplierID string, state string) (Adjustment, error) {
	supplierID = strings.TrimSpace(supplierID)
	state = strings.ToUpper(strings.TrimSpace(state))
	if supplierID == "" {
		return Adjustment{}, fmt.Errorf("%w: supplier id is required", ErrConditionInvalidInput)
	}
	if state == "" {
		return Adjustment{}, fmt.Errorf("%w: state is required", ErrConditionInvalidInput)
	}

	condition, err := s.conditions.FindBySupplierAndState(ctx, supplierID, state)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return Adjustment{}, nil
		}
		return Adjustment{}, fmt.Errorf("condition: resolve %s/%s: %w", supplierID, state, err)
	}
	if !condition.Active {
		return Adjustment{}, nil
	}

	return Adjustment{
		UnitPriceDelta:  condition.UnitPriceAdjustment,
		CashbackBps:     condition.CashbackBps,
		PaymentTermDays: condition.PaymentTermDays,
	}, nil
}
