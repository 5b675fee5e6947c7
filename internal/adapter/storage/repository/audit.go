package repository

import (
	"context"
	"encoding/json"

	"github.com/antonkh/crmcore/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// insertAudit appends one audit entry inside the caller's transaction.
func (r *Repository) insertAudit(ctx context.Context, tx pgx.Tx, entry *domain.AuditLogEntry) error {
	var metadata []byte
	if entry.Metadata != nil {
		b, err := json.Marshal(entry.Metadata)
		if err != nil {
			return err
		}
		metadata = b
	}

	statement := r.db.QueryBuilder.Insert("audit_log").
		Columns("actor_id", "action", "entity_type", "entity_id", "metadata", "created_at").
		Values(entry.ActorID, entry.Action, entry.EntityType, entry.EntityID, metadata, entry.CreatedAt).
		Suffix("returning id")

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}
	return tx.QueryRow(ctx, sql, args...).Scan(&entry.ID)
}

// ListAuditLog returns a page of the audit stream, newest first.
func (r *Repository) ListAuditLog(ctx context.Context, limit, offset int) ([]*domain.AuditLogEntry, error) {
	statement := r.db.QueryBuilder.
		Select("id", "actor_id", "action", "entity_type", "entity_id", "metadata", "created_at").
		From("audit_log").
		OrderBy("id desc").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, storeError(err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	list := make([]*domain.AuditLogEntry, 0)
	for rows.Next() {
		entry := domain.AuditLogEntry{}
		var metadata []byte
		err := rows.Scan(
			&entry.ID,
			&entry.ActorID,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&metadata,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, storeError(err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, storeError(err)
			}
		}
		list = append(list, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}

	return list, nil
}
