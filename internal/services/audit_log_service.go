package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/atacadex/api/internal/domain"
	"github.com/atacadex/api/internal/repositories"
)

const auditIDPrefix = "aud_"

// AuditLogServiceDeps bundles constructor inputs for the audit writer service.
type AuditLogServiceDeps struct {
	Repository  repositories.AuditLogRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type auditLogService struct {
	repo   repositories.AuditLogRepository
	clock  func() time.Time
	newID  func() string
	logger func(context.Context, string, map[string]any)
}

var _ AuditLogService = (*auditLogService)(nil)

// NewAuditLogService creates an audit log writer backed by the supplied repository.
func NewAuditLogService(deps AuditLogServiceDeps) (AuditLogService, error) {
	if deps.Repository == nil {
		return nil, errors.New("audit log service: repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return strings.ToLower(ulid.Make().String())
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &auditLogService{
		repo:   deps.Repository,
		clock:  func() time.Time { return clock().UTC() },
		newID:  idGen,
		logger: logger,
	}, nil
}

// Record persists an audit log entry after normalising its fields. Entries are
// immutable once appended.
func (s *auditLogService) Record(ctx context.Context, cmd RecordAuditEntryCommand) (AuditLogEntry, error) {
	action := strings.TrimSpace(cmd.Action)
	if action == "" {
		return AuditLogEntry{}, errors.New("audit log service: action is required")
	}

	entry := domain.AuditLogEntry{
		ID:         auditIDPrefix + s.newID(),
		ActorRef:   strings.TrimSpace(cmd.ActorRef),
		Action:     action,
		TargetKind: strings.TrimSpace(cmd.TargetKind),
		TargetRef:  strings.TrimSpace(cmd.TargetRef),
		OccurredAt: s.clock(),
	}
	if len(cmd.Detail) > 0 {
		entry.Detail = cmd.Detail
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		return AuditLogEntry{}, fmt.Errorf("audit log service: append %s: %w", action, err)
	}
	return entry, nil
}

// List delegates to the repository to retrieve paginated audit logs.
func (s *auditLogService) List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[AuditLogEntry], error) {
	filter.TargetRef = strings.TrimSpace(filter.TargetRef)
	filter.Actor = strings.TrimSpace(filter.Actor)
	filter.Action = strings.TrimSpace(filter.Action)

	page, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[AuditLogEntry]{}, fmt.Errorf("audit log service: list: %w", err)
	}
	return page, nil
}
