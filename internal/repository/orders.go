package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
)

// scheduled_date is a DATE; format it in SQL so it scans into a string.
const orderColumns = `id, shop_id, customer_id, COALESCE(vehicle_id::text, ''),
	to_char(scheduled_date, 'YYYY-MM-DD'), scheduled_time, status, total_amount, notes,
	created_at, updated_at`

const orderItemColumns = `id, order_id, item_type, ref_id, description, unit_price, quantity, is_taxable, line_total`

// PostgresOrderRepository stores work orders and their line items.
type PostgresOrderRepository struct {
	db     *sql.DB
	logger *logrus.Entry
}

func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db, logger: logging.New("order-repository")}
}

// Create does not re-check stock before decrementing it: two drafts holding
// the same tires can both be submitted.
func (r *PostgresOrderRepository) Create(ctx context.Context, o *models.Order) error {
	r.logger.WithFields(logging.Fields{
		"shop_id":     o.ShopID,
		"customer_id": o.CustomerID,
		"items":       len(o.Items),
	}).Debug("Creating order")

	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin order transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, shop_id, customer_id, vehicle_id, scheduled_date, scheduled_time,
		                    status, total_amount, notes, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5::date, $6, $7, $8, $9, $10, $11)`,
		o.ID, o.ShopID, o.CustomerID, o.VehicleID, o.ScheduledDate, o.ScheduledTime,
		string(o.Status), o.TotalAmount, o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return apperrors.FromPostgres(err, "insert order")
	}

	for i := range o.Items {
		item := &o.Items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.OrderID = o.ID

		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, shop_id, item_type, ref_id, description,
			                         unit_price, quantity, is_taxable, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			item.ID, o.ID, o.ShopID, string(item.ItemType), item.RefID, item.Description,
			item.UnitPrice, item.Quantity, item.IsTaxable, item.LineTotal,
		)
		if err != nil {
			return apperrors.FromPostgres(err, "insert order item")
		}

		if item.ItemType != models.ItemTypeTire {
			continue
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE inventory SET quantity = quantity - $3, updated_at = $4
			WHERE shop_id = $1 AND id = $2`,
			o.ShopID, item.RefID, item.Quantity, now,
		)
		if err != nil {
			return apperrors.FromPostgres(err, "decrement inventory")
		}
		if err := expectRow(res, "decrement tire "+item.RefID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit order")
	}

	r.logger.WithFields(logging.Fields{
		"shop_id":  o.ShopID,
		"order_id": o.ID,
		"total":    o.TotalAmount.Decimal.String(),
	}).Info("Order created")
	return nil
}

func (r *PostgresOrderRepository) Get(ctx context.Context, shopID, id string) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE shop_id = $1 AND id = $2`, shopID, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, notFound(err, "get order "+id)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderItemColumns+` FROM order_items
		WHERE shop_id = $1 AND order_id = $2
		ORDER BY item_type DESC, description`, shopID, id)
	if err != nil {
		return nil, errors.Wrap(err, "list order items")
	}
	defer rows.Close()

	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ItemType, &it.RefID, &it.Description,
			&it.UnitPrice, &it.Quantity, &it.IsTaxable, &it.LineTotal); err != nil {
			return nil, errors.Wrap(err, "scan order item")
		}
		o.Items = append(o.Items, it)
	}
	return o, errors.Wrap(rows.Err(), "iterate order items")
}

func (r *PostgresOrderRepository) List(ctx context.Context, shopID string, filter *models.OrderFilter) ([]*models.Order, int, error) {
	r.logger.WithFields(logging.Fields{
		"shop_id": shopID,
		"status":  filter.Status,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	}).Debug("Listing orders")

	w := scoped(shopID)
	if filter.Status != "" {
		w.add("status = ?", string(filter.Status))
	}
	if filter.CustomerID != "" {
		w.add("customer_id = ?", filter.CustomerID)
	}
	if filter.From != "" {
		w.add("scheduled_date >= ?::date", filter.From)
	}
	if filter.To != "" {
		w.add("scheduled_date <= ?::date", filter.To)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + w.String() +
		` ORDER BY scheduled_date DESC, scheduled_time DESC, created_at DESC` + w.page(filter.Page)
	orders, err := r.query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *PostgresOrderRepository) ListOnDate(ctx context.Context, shopID, date string) ([]*models.Order, error) {
	return r.query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE shop_id = $1 AND scheduled_date = $2::date
		ORDER BY scheduled_time`, shopID, date)
}

func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, shopID, id string, status models.OrderStatus) (*models.Order, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $3, updated_at = NOW()
		WHERE shop_id = $1 AND id = $2`, shopID, id, string(status))
	if err != nil {
		return nil, apperrors.FromPostgres(err, "update order status")
	}
	if err := expectRow(res, "update order "+id); err != nil {
		return nil, err
	}

	r.logger.WithFields(logging.Fields{
		"shop_id":    shopID,
		"order_id":   id,
		"new_status": status,
	}).Info("Order status updated")
	return r.Get(ctx, shopID, id)
}

func (r *PostgresOrderRepository) Reschedule(ctx context.Context, shopID, id, date, clock string) (*models.Order, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET scheduled_date = $3::date, scheduled_time = $4, updated_at = NOW()
		WHERE shop_id = $1 AND id = $2`, shopID, id, date, clock)
	if err != nil {
		return nil, apperrors.FromPostgres(err, "reschedule order")
	}
	if err := expectRow(res, "reschedule order "+id); err != nil {
		return nil, err
	}
	return r.Get(ctx, shopID, id)
}

// Delete removes the order and its items. Stock is not given back.
func (r *PostgresOrderRepository) Delete(ctx context.Context, shopID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE shop_id = $1 AND id = $2`, shopID, id)
	if err != nil {
		return apperrors.FromPostgres(err, "delete order")
	}
	if err := expectRow(res, "delete order "+id); err != nil {
		return err
	}
	r.logger.WithFields(logging.Fields{"shop_id": shopID, "order_id": id}).Info("Order deleted")
	return nil
}

func (r *PostgresOrderRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		orders = append(orders, o)
	}
	return orders, errors.Wrap(rows.Err(), "iterate orders")
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID,
		&o.ShopID,
		&o.CustomerID,
		&o.VehicleID,
		&o.ScheduledDate,
		&o.ScheduledTime,
		&o.Status,
		&o.TotalAmount,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
