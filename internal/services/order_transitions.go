package services

import (
	"fmt"
	"slices"
	"time"

	domain "github.com/atacadex/api/internal/domain"
)

type transitionKey struct {
	from domain.OrderStatus
	to   domain.OrderStatus
}

// orderTransitions is the closed table of permitted lifecycle moves and the
// roles allowed to perform each. Admins bypass the table; terminal states
// reject every actor before the table is consulted.
var orderTransitions = map[transitionKey][]domain.UserRole{
	{from: domain.OrderStatusPending, to: domain.OrderStatusInSeparation}: {domain.RoleSupplier},
	{from: domain.OrderStatusInSeparation, to: domain.OrderStatusShipped}: {domain.RoleSupplier},
	{from: domain.OrderStatusShipped, to: domain.OrderStatusDelivered}:    {domain.RoleSupplier},
	{from: domain.OrderStatusPending, to: domain.OrderStatusCancelled}:    {domain.RoleSupplier, domain.RoleStore},
	{from: domain.OrderStatusInSeparation, to: domain.OrderStatusCancelled}: {domain.RoleSupplier},
	{from: domain.OrderStatusShipped, to: domain.OrderStatusCancelled}:      {domain.RoleSupplier},
}

// authorizeTransition validates a status move for the acting role. Terminal
// origins fail for every actor, admins may force any remaining move, and store
// users receive a dedicated rejection when cancelling an order that already
// left PENDING.
func authorizeTransition(role domain.UserRole, from, to domain.OrderStatus) error {
	if !domain.ValidOrderStatus(to) {
		return fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, to)
	}
	if from.Finalized() {
		return fmt.Errorf("%w: order is %s", ErrOrderInvalidState, from)
	}
	if role == domain.RoleAdmin {
		return nil
	}
	if from == to {
		return fmt.Errorf("%w: order is already %s", ErrOrderInvalidState, from)
	}

	allowed, ok := orderTransitions[transitionKey{from: from, to: to}]
	if !ok {
		return fmt.Errorf("%w: %s to %s", ErrOrderInvalidState, from, to)
	}
	if slices.Contains(allowed, role) {
		return nil
	}
	if role == domain.RoleStore && to == domain.OrderStatusCancelled {
		return fmt.Errorf("%w: order already in process", ErrOrderUnauthorized)
	}
	return fmt.Errorf("%w: role %s may not move order from %s to %s", ErrOrderUnauthorized, role, from, to)
}

// stampTransition records the status change on the order, setting the matching
// timestamp only on first entry so repeated visits never overwrite history.
func stampTransition(order *domain.Order, target domain.OrderStatus, now time.Time) {
	order.Status = target
	switch target {
	case domain.OrderStatusInSeparation:
		if order.SeparationStartedAt == nil {
			order.SeparationStartedAt = &now
		}
	case domain.OrderStatusShipped:
		if order.ShippedAt == nil {
			order.ShippedAt = &now
		}
	case domain.OrderStatusDelivered:
		if order.DeliveredAt == nil {
			order.DeliveredAt = &now
		}
	case domain.OrderStatusCancelled:
		if order.CancelledAt == nil {
			order.CancelledAt = &now
		}
	}
}
