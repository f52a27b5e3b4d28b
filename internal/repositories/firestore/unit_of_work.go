package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/atacadex/api/internal/platform/firestore"
)

// notFoundErr builds a gRPC not-found error so WrapError categorises it the
// same way as a missing Firestore document.
func notFoundErr(entity string) error {
	return status.Error(codes.NotFound, entity+" not found")
}

type txContextKey struct{}

// withTransaction stashes the active Firestore transaction in the context so
// repositories invoked inside RunInTx participate in the same transaction.
func withTransaction(ctx context.Context, tx *firestore.Transaction) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// transactionFrom extracts the ambient transaction, if any.
func transactionFrom(ctx context.Context) (*firestore.Transaction, bool) {
	tx, ok := ctx.Value(txContextKey{}).(*firestore.Transaction)
	return tx, ok && tx != nil
}

// UnitOfWork groups repository operations into one Firestore transaction.
// Firestore requires every read inside a transaction to happen before the
// first buffered write, so callers must structure RunInTx bodies accordingly.
type UnitOfWork struct {
	provider *pfirestore.Provider
}

// NewUnitOfWork constructs a transaction coordinator bound to the provider.
func NewUnitOfWork(provider *pfirestore.Provider) (*UnitOfWork, error) {
	if provider == nil {
		return nil, errors.New("unit of work requires firestore provider")
	}
	return &UnitOfWork{provider: provider}, nil
}

// RunInTx executes fn within a single Firestore transaction. Nested calls
// reuse the ambient transaction instead of opening a new one.
func (u *UnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if u == nil || u.provider == nil {
		return errors.New("unit of work not initialised")
	}
	if fn == nil {
		return errors.New("unit of work: function is required")
	}
	if _, ok := transactionFrom(ctx); ok {
		return fn(ctx)
	}
	return u.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(withTransaction(ctx, tx))
	})
}
