package repository

import (
	"context"

	"github.com/shiftline-hq/shiftline/backend/internal/domain"
)

func (r *Repository) InsertAuditLog(ctx context.Context, entry *domain.AuditEntry) error {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `
		INSERT INTO audit_logs (organization_id, actor_id, action, entity_type, entity_id, old_data, new_data, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	args := []any{
		entry.OrganizationID, entry.ActorID, entry.Action, entry.EntityType, entry.EntityID,
		[]byte(entry.OldData), []byte(entry.NewData), entry.RecordedAt,
	}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&entry.ID)
}

func (r *Repository) ListAuditLogs(ctx context.Context, orgID int64, limit int) ([]*domain.AuditEntry, error) {
	ctx, cancel := r.queryCtx(ctx)
	defer cancel()

	query := `
		SELECT id, organization_id, actor_id, action, entity_type, entity_id, old_data, new_data, recorded_at
		FROM audit_logs
		WHERE organization_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.dbpool.QueryContext(ctx, query, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.AuditEntry, 0)
	for rows.Next() {
		entry := &domain.AuditEntry{}
		var oldData, newData []byte
		dst := []any{&entry.ID, &entry.OrganizationID, &entry.ActorID, &entry.Action, &entry.EntityType, &entry.EntityID, &oldData, &newData, &entry.RecordedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		entry.OldData = oldData
		entry.NewData = newData
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
