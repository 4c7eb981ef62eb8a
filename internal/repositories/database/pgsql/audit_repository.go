package pgsql

import (
	"context"
	"strconv"

	"github.com/dispersa-mx/spei_ledger/internal/apperrors"
	"github.com/dispersa-mx/spei_ledger/internal/core/domain"
	portsrepo "github.com/dispersa-mx/spei_ledger/internal/core/ports/repositories"
	"github.com/dispersa-mx/spei_ledger/internal/models"
	"github.com/dispersa-mx/spei_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxAuditRepository persists the append-only security audit trail.
type PgxAuditRepository struct {
	BaseRepository
}

// NewAuditRepository creates a new repository for security events.
func NewAuditRepository(pool *pgxpool.Pool) portsrepo.AuditRepositoryFacade {
	return &PgxAuditRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AuditRepositoryFacade = (*PgxAuditRepository)(nil)

// AppendSecurityEvent inserts one audit record. There is no update path.
func (r *PgxAuditRepository) AppendSecurityEvent(ctx context.Context, event domain.SecurityEvent) error {
	m := mapping.ToModelSecurityEvent(event)
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO security_events (event_id, action, severity, actor, origin_ip, detail, metadata, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`,
		m.EventID, m.Action, m.Severity, m.Actor, m.OriginIP, m.Detail, m.Metadata, m.OccurredAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to append security event "+event.Action, err)
	}
	return nil
}

// ListSecurityEvents queries the trail for forensics, newest first. All
// filters are optional and combined with AND through parameterized queries.
func (r *PgxAuditRepository) ListSecurityEvents(ctx context.Context, filter portsrepo.SecurityEventFilter) ([]domain.SecurityEvent, error) {
	query := `
		SELECT event_id, action, severity, actor, origin_ip, detail, metadata, occurred_at
		FROM security_events
		WHERE ($1 = '' OR action = $1)
		  AND ($2 = '' OR actor = $2)
		  AND ($3 = '' OR severity = $3)
		ORDER BY occurred_at DESC
		LIMIT $4;`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.Pool.Query(ctx, query, filter.Action, filter.Actor, string(filter.Severity), limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query security events (limit "+strconv.Itoa(limit)+")", err)
	}
	defer rows.Close()

	events := []models.SecurityEvent{}
	for rows.Next() {
		var m models.SecurityEvent
		if err := rows.Scan(&m.EventID, &m.Action, &m.Severity, &m.Actor, &m.OriginIP, &m.Detail, &m.Metadata, &m.OccurredAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan security event row", err)
		}
		events = append(events, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating security event rows", err)
	}
	return mapping.ToDomainSecurityEventSlice(events), nil
}
