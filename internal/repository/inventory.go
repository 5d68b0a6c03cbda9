package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
)

const tireColumns = `id, shop_id, brand, model, size, quantity, price, description, created_at, updated_at`

var tireSorts = map[string]string{
	"brand":      "brand",
	"model":      "model",
	"size":       "size",
	"quantity":   "quantity",
	"price":      "price",
	"created_at": "created_at",
}

type PostgresInventoryRepository struct {
	db     *sql.DB
	logger *logrus.Entry
}

func NewPostgresInventoryRepository(db *sql.DB) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{db: db, logger: logging.New("inventory-repository")}
}

func (r *PostgresInventoryRepository) Create(ctx context.Context, t *models.Tire) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inventory (`+tireColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.ShopID, t.Brand, t.Model, t.Size, t.Quantity, t.Price, t.Description, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return apperrors.FromPostgres(err, "insert tire")
	}
	r.logger.WithFields(logging.Fields{
		"shop_id":  t.ShopID,
		"tire_id":  t.ID,
		"quantity": t.Quantity,
	}).Info("Tire added to inventory")
	return nil
}

func (r *PostgresInventoryRepository) Get(ctx context.Context, shopID, id string) (*models.Tire, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tireColumns+` FROM inventory WHERE shop_id = $1 AND id = $2`, shopID, id)
	t, err := scanTire(row)
	if err != nil {
		return nil, notFound(err, "get tire "+id)
	}
	return t, nil
}

func (r *PostgresInventoryRepository) Update(ctx context.Context, t *models.Tire) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE inventory
		SET brand = $3, model = $4, size = $5, quantity = $6, price = $7, description = $8, updated_at = $9
		WHERE shop_id = $1 AND id = $2`,
		t.ShopID, t.ID, t.Brand, t.Model, t.Size, t.Quantity, t.Price, t.Description, t.UpdatedAt,
	)
	if err != nil {
		return apperrors.FromPostgres(err, "update tire")
	}
	return expectRow(res, "update tire "+t.ID)
}

func (r *PostgresInventoryRepository) Delete(ctx context.Context, shopID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM inventory WHERE shop_id = $1 AND id = $2`, shopID, id)
	if err != nil {
		return apperrors.FromPostgres(err, "delete tire")
	}
	return expectRow(res, "delete tire "+id)
}

func (r *PostgresInventoryRepository) List(ctx context.Context, shopID string, filter *models.TireFilter) ([]*models.Tire, int, error) {
	w := scoped(shopID)
	if filter.Search != "" {
		p := likePattern(filter.Search)
		w.add("(brand ILIKE ? OR model ILIKE ? OR size ILIKE ?)", p, p, p)
	}
	if filter.LowStock != nil {
		w.add("quantity <= ?", *filter.LowStock)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inventory`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count tires")
	}

	query := `SELECT ` + tireColumns + ` FROM inventory` + w.String() +
		orderBy(filter.Sort, filter.Desc, tireSorts, "brand") + w.page(filter.Page)
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list tires")
	}
	defer rows.Close()

	tires := make([]*models.Tire, 0)
	for rows.Next() {
		t, err := scanTire(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "scan tire")
		}
		tires = append(tires, t)
	}
	return tires, total, errors.Wrap(rows.Err(), "iterate tires")
}

func (r *PostgresInventoryRepository) AdjustQuantity(ctx context.Context, shopID, id string, delta int) (*models.Tire, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE inventory SET quantity = quantity + $3, updated_at = NOW()
		WHERE shop_id = $1 AND id = $2 AND quantity + $3 >= 0
		RETURNING `+tireColumns, shopID, id, delta)
	t, err := scanTire(row)
	if errors.Is(err, sql.ErrNoRows) {
		// either the tire is gone or the adjustment would go below zero
		if _, getErr := r.Get(ctx, shopID, id); getErr != nil {
			return nil, getErr
		}
		return nil, apperrors.NewValidationError("delta", fmt.Sprintf("adjustment of %d would make stock negative", delta))
	}
	if err != nil {
		return nil, apperrors.FromPostgres(err, "adjust tire quantity")
	}

	r.logger.WithFields(logging.Fields{
		"shop_id":  shopID,
		"tire_id":  id,
		"delta":    delta,
		"quantity": t.Quantity,
	}).Info("Inventory adjusted")
	return t, nil
}

func scanTire(row rowScanner) (*models.Tire, error) {
	var t models.Tire
	err := row.Scan(&t.ID, &t.ShopID, &t.Brand, &t.Model, &t.Size, &t.Quantity, &t.Price, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
