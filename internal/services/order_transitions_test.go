package services

import (
	"errors"
	"testing"
	"time"

	domain "github.com/atacadex/api/internal/domain"
)

func TestAuthorizeTransitionTable(t *testing.T) {
	cases := []struct {
		name    string
		role    domain.UserRole
		from    domain.OrderStatus
		to      domain.OrderStatus
		wantErr error
	}{
		{name: "supplier starts separation", role: domain.RoleSupplier, from: domain.OrderStatusPending, to: domain.OrderStatusInSeparation},
		{name: "supplier ships", role: domain.RoleSupplier, from: domain.OrderStatusInSeparation, to: domain.OrderStatusShipped},
		{name: "supplier delivers", role: domain.RoleSupplier, from: domain.OrderStatusShipped, to: domain.OrderStatusDelivered},
		{name: "supplier cancels pending", role: domain.RoleSupplier, from: domain.OrderStatusPending, to: domain.OrderStatusCancelled},
		{name: "supplier cancels separation", role: domain.RoleSupplier, from: domain.OrderStatusInSeparation, to: domain.OrderStatusCancelled},
		{name: "supplier cancels shipped", role: domain.RoleSupplier, from: domain.OrderStatusShipped, to: domain.OrderStatusCancelled},
		{name: "store cancels pending", role: domain.RoleStore, from: domain.OrderStatusPending, to: domain.OrderStatusCancelled},

		{name: "store cancels separation", role: domain.RoleStore, from: domain.OrderStatusInSeparation, to: domain.OrderStatusCancelled, wantErr: ErrOrderUnauthorized},
		{name: "store cancels shipped", role: domain.RoleStore, from: domain.OrderStatusShipped, to: domain.OrderStatusCancelled, wantErr: ErrOrderUnauthorized},
		{name: "store advances order", role: domain.RoleStore, from: domain.OrderStatusPending, to: domain.OrderStatusInSeparation, wantErr: ErrOrderUnauthorized},
		{name: "supplier skips separation", role: domain.RoleSupplier, from: domain.OrderStatusPending, to: domain.OrderStatusShipped, wantErr: ErrOrderInvalidState},
		{name: "supplier rewinds", role: domain.RoleSupplier, from: domain.OrderStatusShipped, to: domain.OrderStatusPending, wantErr: ErrOrderInvalidState},
		{name: "supplier repeats status", role: domain.RoleSupplier, from: domain.OrderStatusShipped, to: domain.OrderStatusShipped, wantErr: ErrOrderInvalidState},

		{name: "admin forces backwards move", role: domain.RoleAdmin, from: domain.OrderStatusShipped, to: domain.OrderStatusPending},
		{name: "admin skips separation", role: domain.RoleAdmin, from: domain.OrderStatusPending, to: domain.OrderStatusDelivered},
		{name: "admin leaves delivered", role: domain.RoleAdmin, from: domain.OrderStatusDelivered, to: domain.OrderStatusPending, wantErr: ErrOrderInvalidState},
		{name: "admin leaves cancelled", role: domain.RoleAdmin, from: domain.OrderStatusCancelled, to: domain.OrderStatusPending, wantErr: ErrOrderInvalidState},

		{name: "unknown target status", role: domain.RoleAdmin, from: domain.OrderStatusPending, to: domain.OrderStatus("BOGUS"), wantErr: ErrOrderInvalidInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := authorizeTransition(tc.role, tc.from, tc.to)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestStampTransitionSetsTimestampOnFirstEntryOnly(t *testing.T) {
	first := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	order := domain.Order{Status: domain.OrderStatusPending}

	stampTransition(&order, domain.OrderStatusShipped, first)
	if order.Status != domain.OrderStatusShipped {
		t.Fatalf("expected SHIPPED, got %s", order.Status)
	}
	if order.ShippedAt == nil || !order.ShippedAt.Equal(first) {
		t.Fatalf("expected shipped at %v, got %v", first, order.ShippedAt)
	}

	stampTransition(&order, domain.OrderStatusPending, second)
	stampTransition(&order, domain.OrderStatusShipped, second)
	if !order.ShippedAt.Equal(first) {
		t.Fatalf("revisit must keep the original timestamp, got %v", order.ShippedAt)
	}
}

func TestStampTransitionCoversEachStatus(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	order := domain.Order{Status: domain.OrderStatusPending}
	stampTransition(&order, domain.OrderStatusInSeparation, now)
	stampTransition(&order, domain.OrderStatusShipped, now)
	stampTransition(&order, domain.OrderStatusDelivered, now)

	if order.SeparationStartedAt == nil || order.ShippedAt == nil || order.DeliveredAt == nil {
		t.Fatalf("expected every milestone stamped: %#v", order)
	}
	if order.CancelledAt != nil {
		t.Fatalf("cancellation must stay unset")
	}

	cancelled := domain.Order{Status: domain.OrderStatusPending}
	stampTransition(&cancelled, domain.OrderStatusCancelled, now)
	if cancelled.CancelledAt == nil || !cancelled.CancelledAt.Equal(now) {
		t.Fatalf("expected cancellation stamped, got %#v", cancelled.CancelledAt)
	}
}
