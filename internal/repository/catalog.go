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

const serviceColumns = `id, shop_id, name, description, price, price_type, is_taxable, is_active, created_at, updated_at`

// PostgresCatalogRepository stores the shop's labor services.
type PostgresCatalogRepository struct {
	db     *sql.DB
	logger *logrus.Entry
}

func NewPostgresCatalogRepository(db *sql.DB) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db, logger: logging.New("catalog-repository")}
}

func (r *PostgresCatalogRepository) Create(ctx context.Context, s *models.Service) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO services (`+serviceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.ShopID, s.Name, s.Description, s.Price, string(s.PriceType), s.IsTaxable, s.IsActive, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return apperrors.FromPostgres(err, "insert service")
	}
	r.logger.WithFields(logging.Fields{
		"shop_id":    s.ShopID,
		"service_id": s.ID,
		"price_type": s.PriceType,
	}).Info("Service added to catalog")
	return nil
}

func (r *PostgresCatalogRepository) Get(ctx context.Context, shopID, id string) (*models.Service, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE shop_id = $1 AND id = $2`, shopID, id)
	s, err := scanService(row)
	if err != nil {
		return nil, notFound(err, "get service "+id)
	}
	return s, nil
}

func (r *PostgresCatalogRepository) Update(ctx context.Context, s *models.Service) error {
	s.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE services
		SET name = $3, description = $4, price = $5, price_type = $6, is_taxable = $7, is_active = $8, updated_at = $9
		WHERE shop_id = $1 AND id = $2`,
		s.ShopID, s.ID, s.Name, s.Description, s.Price, string(s.PriceType), s.IsTaxable, s.IsActive, s.UpdatedAt,
	)
	if err != nil {
		return apperrors.FromPostgres(err, "update service")
	}
	return expectRow(res, "update service "+s.ID)
}

func (r *PostgresCatalogRepository) Delete(ctx context.Context, shopID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE shop_id = $1 AND id = $2`, shopID, id)
	if err != nil {
		return apperrors.FromPostgres(err, "delete service")
	}
	return expectRow(res, "delete service "+id)
}

func (r *PostgresCatalogRepository) List(ctx context.Context, shopID string, filter *models.ServiceFilter) ([]*models.Service, error) {
	w := scoped(shopID)
	if filter != nil && filter.ActiveOnly {
		w.add("is_active = ?", true)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services`+w.String()+` ORDER BY name`, w.args...)
	if err != nil {
		return nil, errors.Wrap(err, "list services")
	}
	defer rows.Close()

	services := make([]*models.Service, 0)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan service")
		}
		services = append(services, s)
	}
	return services, errors.Wrap(rows.Err(), "iterate services")
}

func scanService(row rowScanner) (*models.Service, error) {
	var s models.Service
	err := row.Scan(&s.ID, &s.ShopID, &s.Name, &s.Description, &s.Price, &s.PriceType, &s.IsTaxable, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
