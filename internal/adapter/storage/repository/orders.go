package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/antonkh/crmcore/internal/adapter/storage"
	"github.com/antonkh/crmcore/internal/core/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository is the pgx implementation of the order repository facade.
// State-changing methods run the order write, its history append and its
// audit append inside one transaction.
type Repository struct {
	db *storage.DB
}

func NewRepository(db *storage.DB) (*Repository, error) {
	return &Repository{db: db}, nil
}

func storeError(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order,
	audit *domain.AuditLogEntry) (*domain.Order, error) {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		statement := r.db.QueryBuilder.Insert("orders").
			Columns("client_id", "manager_id", "status", "total", "comments",
				"version", "created_at", "updated_at", "completed_at").
			Values(order.ClientID, order.ManagerID, order.Status, order.Total, order.Comments,
				order.Version, order.CreatedAt, order.UpdatedAt, order.CompletedAt).
			Suffix("returning id")

		sql, args, err := statement.ToSql()
		if err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&order.ID); err != nil {
			return err
		}

		if err := r.replaceItems(ctx, tx, order.ID, order.Items); err != nil {
			return err
		}

		for i := range order.History {
			order.History[i].OrderID = order.ID
			if err := r.insertHistory(ctx, tx, &order.History[i]); err != nil {
				return err
			}
		}

		entityID := order.ID
		audit.EntityID = &entityID
		return r.insertAudit(ctx, tx, audit)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return nil, domain.ErrInvalidOrder
		}
		return nil, storeError(err)
	}

	return order, nil
}

func (r *Repository) ReadOrder(ctx context.Context, orderID uint64) (*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select("id", "client_id", "manager_id", "status", "total", "comments",
			"version", "created_at", "updated_at", "completed_at").
		From("orders").
		Where(sq.Eq{"id": orderID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, storeError(err)
	}

	order := domain.Order{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&order.ID,
		&order.ClientID,
		&order.ManagerID,
		&order.Status,
		&order.Total,
		&order.Comments,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, storeError(err)
	}

	if err := r.loadItems(ctx, &order); err != nil {
		return nil, storeError(err)
	}
	if err := r.loadHistory(ctx, &order); err != nil {
		return nil, storeError(err)
	}

	return &order, nil
}

func (r *Repository) SaveOrder(ctx context.Context, order *domain.Order, expectedVersion uint64,
	history *domain.OrderStatusHistoryEntry, audit *domain.AuditLogEntry) (*domain.Order, error) {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		statement := r.db.QueryBuilder.Update("orders").
			Set("manager_id", order.ManagerID).
			Set("status", order.Status).
			Set("total", order.Total).
			Set("comments", order.Comments).
			Set("version", expectedVersion+1).
			Set("updated_at", order.UpdatedAt).
			Set("completed_at", order.CompletedAt).
			Where(sq.Eq{"id": order.ID, "version": expectedVersion})

		sql, args, err := statement.ToSql()
		if err != nil {
			return err
		}
		ct, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			// The row is either missing or already at another version.
			var exists bool
			err := tx.QueryRow(ctx, `select exists(select 1 from orders where id = $1)`, order.ID).Scan(&exists)
			if err != nil {
				return err
			}
			if !exists {
				return domain.ErrDataNotFound
			}
			return domain.ErrConcurrentModification
		}

		if err := r.replaceItems(ctx, tx, order.ID, order.Items); err != nil {
			return err
		}

		if history != nil {
			history.OrderID = order.ID
			if err := r.insertHistory(ctx, tx, history); err != nil {
				return err
			}
		}

		entityID := order.ID
		audit.EntityID = &entityID
		return r.insertAudit(ctx, tx, audit)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) || errors.Is(err, domain.ErrConcurrentModification) {
			return nil, err
		}
		return nil, storeError(err)
	}

	order.Version = expectedVersion + 1
	if history != nil {
		order.History = append(order.History, *history)
	}

	return order, nil
}

var nonTerminalStatuses = []domain.OrderStatus{
	domain.OrderStatusNew,
	domain.OrderStatusConfirmed,
	domain.OrderStatusShipped,
}

func (r *Repository) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select("id", "client_id", "manager_id", "status", "total", "comments",
			"version", "created_at", "updated_at", "completed_at").
		From("orders").
		OrderBy("id")

	if filter.Status != nil {
		statement = statement.Where(sq.Eq{"status": *filter.Status})
	}
	if filter.OpenOnly {
		statement = statement.Where(sq.Eq{"status": nonTerminalStatuses})
	}
	if filter.ManagerID != nil {
		statement = statement.Where(sq.Eq{"manager_id": *filter.ManagerID})
	}
	if filter.ClientID != nil {
		statement = statement.Where(sq.Eq{"client_id": *filter.ClientID})
	}
	if filter.From != nil {
		statement = statement.Where(sq.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		statement = statement.Where(sq.Lt{"created_at": *filter.To})
	}

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, storeError(err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	list := make([]*domain.Order, 0)
	for rows.Next() {
		order := domain.Order{}
		err := rows.Scan(
			&order.ID,
			&order.ClientID,
			&order.ManagerID,
			&order.Status,
			&order.Total,
			&order.Comments,
			&order.Version,
			&order.CreatedAt,
			&order.UpdatedAt,
			&order.CompletedAt,
		)
		if err != nil {
			return nil, storeError(err)
		}
		list = append(list, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}

	for _, order := range list {
		if err := r.loadItems(ctx, order); err != nil {
			return nil, storeError(err)
		}
	}

	return list, nil
}

func (r *Repository) ResolveClientName(ctx context.Context, clientID uint64) (string, error) {
	statement := r.db.QueryBuilder.
		Select("name").
		From("clients").
		Where(sq.Eq{"id": clientID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return "", storeError(err)
	}

	var name string
	err = r.db.QueryRow(ctx, sql, args...).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrDataNotFound
		}
		return "", storeError(err)
	}

	return name, nil
}

func (r *Repository) ResolveManager(ctx context.Context, managerID uint64) (*domain.Manager, error) {
	statement := r.db.QueryBuilder.
		Select("id", "name", "email").
		From("managers").
		Where(sq.Eq{"id": managerID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, storeError(err)
	}

	manager := domain.Manager{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&manager.ID, &manager.Name, &manager.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, storeError(err)
	}

	return &manager, nil
}

func (r *Repository) replaceItems(ctx context.Context, tx pgx.Tx, orderID uint64, items []domain.OrderItem) error {
	del := r.db.QueryBuilder.Delete("order_items").Where(sq.Eq{"order_id": orderID})
	sql, args, err := del.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return err
	}

	ins := r.db.QueryBuilder.Insert("order_items").
		Columns("order_id", "product_id", "quantity", "price", "position")
	for i, item := range items {
		ins = ins.Values(orderID, item.ProductID, item.Quantity, item.Price, i)
	}

	sql, args, err = ins.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, sql, args...)
	return err
}

func (r *Repository) insertHistory(ctx context.Context, tx pgx.Tx, entry *domain.OrderStatusHistoryEntry) error {
	statement := r.db.QueryBuilder.Insert("order_status_history").
		Columns("order_id", "status", "actor_id", "created_at").
		Values(entry.OrderID, entry.Status, entry.ActorID, entry.CreatedAt).
		Suffix("returning id")

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}
	return tx.QueryRow(ctx, sql, args...).Scan(&entry.ID)
}

func (r *Repository) loadItems(ctx context.Context, order *domain.Order) error {
	statement := r.db.QueryBuilder.
		Select("product_id", "quantity", "price").
		From("order_items").
		Where(sq.Eq{"order_id": order.ID}).
		OrderBy("position")

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	order.Items = order.Items[:0]
	for rows.Next() {
		item := domain.OrderItem{}
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.Price); err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func (r *Repository) loadHistory(ctx context.Context, order *domain.Order) error {
	statement := r.db.QueryBuilder.
		Select("id", "status", "actor_id", "created_at").
		From("order_status_history").
		Where(sq.Eq{"order_id": order.ID}).
		OrderBy("created_at", "id")

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	order.History = order.History[:0]
	for rows.Next() {
		entry := domain.OrderStatusHistoryEntry{OrderID: order.ID}
		if err := rows.Scan(&entry.ID, &entry.Status, &entry.ActorID, &entry.CreatedAt); err != nil {
			return err
		}
		order.History = append(order.History, entry)
	}
	return rows.Err()
}
