package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/atacadex/api/internal/domain"
	pfirestore "github.com/atacadex/api/internal/platform/firestore"
	"github.com/atacadex/api/internal/platform/pagination"
	"github.com/atacadex/api/internal/repositories"
)

const auditLogsCollection = "auditLogs"

type auditLogDocument struct {
	ActorRef   string         `firestore:"actorRef"`
	Action     string         `firestore:"action"`
	TargetKind string         `firestore:"targetKind"`
	TargetRef  string         `firestore:"targetRef"`
	Detail     map[string]any `firestore:"detail,omitempty"`
	OccurredAt time.Time      `firestore:"occurredAt"`
}

func (d auditLogDocument) toDomain(id string) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		ID:         id,
		ActorRef:   d.ActorRef,
		Action:     d.Action,
		TargetKind: d.TargetKind,
		TargetRef:  d.TargetRef,
		Detail:     d.Detail,
		OccurredAt: d.OccurredAt,
	}
}

// AuditLogRepository persists immutable audit trail entries.
type AuditLogRepository struct {
	entries *pfirestore.BaseRepository[auditLogDocument]
}

// NewAuditLogRepository constructs a Firestore-backed audit log repository.
func NewAuditLogRepository(provider *pfirestore.Provider) (*AuditLogRepository, error) {
	if provider == nil {
		return nil, errors.New("audit log repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[auditLogDocument](provider, auditLogsCollection, nil, nil)
	return &AuditLogRepository{entries: base}, nil
}

// Append writes a new audit entry. Entries are never updated afterwards.
func (r *AuditLogRepository) Append(ctx context.Context, entry domain.AuditLogEntry) error {
	if r == nil || r.entries == nil {
		return errors.New("audit log repository not initialised")
	}
	if strings.TrimSpace(entry.ID) == "" {
		return errors.New("audit log entry id is required")
	}

	ref, err := r.entries.DocumentRef(ctx, entry.ID)
	if err != nil {
		return err
	}
	doc := auditLogDocument{
		ActorRef:   entry.ActorRef,
		Action:     entry.Action,
		TargetKind: entry.TargetKind,
		TargetRef:  entry.TargetRef,
		Detail:     entry.Detail,
		OccurredAt: entry.OccurredAt.UTC(),
	}
	_, err = ref.Create(ctx, doc)
	return pfirestore.WrapError("auditlogs.append", err)
}

// List returns audit entries ordered by occurrence time descending.
func (r *AuditLogRepository) List(ctx context.Context, filter repositories.AuditLogFilter) (domain.CursorPage[domain.AuditLogEntry], error) {
	if r == nil || r.entries == nil {
		return domain.CursorPage[domain.AuditLogEntry]{}, errors.New("audit log repository not initialised")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.AuditLogEntry]{}, err
	}

	docs, err := r.entries.Query(ctx, func(query firestore.Query) firestore.Query {
		if target := strings.TrimSpace(filter.TargetRef); target != "" {
			query = query.Where("targetRef", "==", target)
		}
		if actor := strings.TrimSpace(filter.Actor); actor != "" {
			query = query.Where("actorRef", "==", actor)
		}
		if action := strings.TrimSpace(filter.Action); action != "" {
			query = query.Where("action", "==", action)
		}
		if filter.DateRange.From != nil {
			query = query.Where("occurredAt", ">=", filter.DateRange.From.UTC())
		}
		if filter.DateRange.To != nil {
			query = query.Where("occurredAt", "<=", filter.DateRange.To.UTC())
		}
		query = query.OrderBy("occurredAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			query = query.StartAfter(cursor.StartAfter...)
		}
		return query.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.AuditLogEntry]{}, err
	}

	page := domain.CursorPage[domain.AuditLogEntry]{}
	for i, doc := range docs {
		if i >= pageSize {
			break
		}
		page.Items = append(page.Items, doc.Data.toDomain(doc.ID))
	}
	if len(docs) > pageSize {
		last := docs[pageSize-1]
		token, err := pagination.EncodeToken(pagination.Cursor{StartAfter: []any{last.Data.OccurredAt, last.ID}})
		if err != nil {
			return domain.CursorPage[domain.AuditLogEntry]{}, err
		}
		page.NextPageToken = token
	}
	return page, nil
}
