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

const customerColumns = `id, shop_id, name, phone, email, address, notes, created_at, updated_at`

var customerSorts = map[string]string{
	"name":       "name",
	"created_at": "created_at",
}

type PostgresCustomerRepository struct {
	db     *sql.DB
	logger *logrus.Entry
}

func NewPostgresCustomerRepository(db *sql.DB) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{db: db, logger: logging.New("customer-repository")}
}

func (r *PostgresCustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (`+customerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.ShopID, c.Name, c.Phone, c.Email, c.Address, c.Notes, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		r.logger.WithFields(logging.Fields{"shop_id": c.ShopID, "error": err.Error()}).Error("Failed to create customer")
		return apperrors.FromPostgres(err, "insert customer")
	}
	return nil
}

func (r *PostgresCustomerRepository) Get(ctx context.Context, shopID, id string) (*models.Customer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE shop_id = $1 AND id = $2`, shopID, id)
	c, err := scanCustomer(row)
	if err != nil {
		return nil, notFound(err, "get customer "+id)
	}
	return c, nil
}

func (r *PostgresCustomerRepository) Update(ctx context.Context, c *models.Customer) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE customers
		SET name = $3, phone = $4, email = $5, address = $6, notes = $7, updated_at = $8
		WHERE shop_id = $1 AND id = $2`,
		c.ShopID, c.ID, c.Name, c.Phone, c.Email, c.Address, c.Notes, c.UpdatedAt,
	)
	if err != nil {
		return apperrors.FromPostgres(err, "update customer")
	}
	return expectRow(res, "update customer "+c.ID)
}

func (r *PostgresCustomerRepository) Delete(ctx context.Context, shopID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE shop_id = $1 AND id = $2`, shopID, id)
	if err != nil {
		return apperrors.FromPostgres(err, "delete customer")
	}
	return expectRow(res, "delete customer "+id)
}

func (r *PostgresCustomerRepository) List(ctx context.Context, shopID string, filter *models.CustomerFilter) ([]*models.Customer, int, error) {
	r.logger.WithFields(logging.Fields{
		"shop_id": shopID,
		"search":  filter.Search,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	}).Debug("Listing customers")

	w := scoped(shopID)
	if filter.Search != "" {
		p := likePattern(filter.Search)
		w.add("(name ILIKE ? OR phone ILIKE ? OR email ILIKE ?)", p, p, p)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count customers")
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + w.String() +
		orderBy(filter.Sort, filter.Desc, customerSorts, "name") + w.page(filter.Page)
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list customers")
	}
	defer rows.Close()

	customers := make([]*models.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "scan customer")
		}
		customers = append(customers, c)
	}
	return customers, total, errors.Wrap(rows.Err(), "iterate customers")
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.ID, &c.ShopID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
