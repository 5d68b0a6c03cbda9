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

const vehicleColumns = `id, shop_id, customer_id, year, make, model, vin, license_plate, created_at, updated_at`

type PostgresVehicleRepository struct {
	db     *sql.DB
	logger *logrus.Entry
}

func NewPostgresVehicleRepository(db *sql.DB) *PostgresVehicleRepository {
	return &PostgresVehicleRepository{db: db, logger: logging.New("vehicle-repository")}
}

func (r *PostgresVehicleRepository) Create(ctx context.Context, v *models.Vehicle) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	v.CreatedAt, v.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vehicles (`+vehicleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		v.ID, v.ShopID, v.CustomerID, nullInt(v.Year), v.Make, v.Model, v.VIN, v.LicensePlate, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		r.logger.WithFields(logging.Fields{"customer_id": v.CustomerID, "error": err.Error()}).Error("Failed to create vehicle")
		return apperrors.FromPostgres(err, "insert vehicle")
	}
	return nil
}

func (r *PostgresVehicleRepository) Get(ctx context.Context, shopID, id string) (*models.Vehicle, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE shop_id = $1 AND id = $2`, shopID, id)
	v, err := scanVehicle(row)
	if err != nil {
		return nil, notFound(err, "get vehicle "+id)
	}
	return v, nil
}

func (r *PostgresVehicleRepository) Update(ctx context.Context, v *models.Vehicle) error {
	v.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE vehicles
		SET customer_id = $3, year = $4, make = $5, model = $6, vin = $7, license_plate = $8, updated_at = $9
		WHERE shop_id = $1 AND id = $2`,
		v.ShopID, v.ID, v.CustomerID, nullInt(v.Year), v.Make, v.Model, v.VIN, v.LicensePlate, v.UpdatedAt,
	)
	if err != nil {
		return apperrors.FromPostgres(err, "update vehicle")
	}
	return expectRow(res, "update vehicle "+v.ID)
}

func (r *PostgresVehicleRepository) Delete(ctx context.Context, shopID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vehicles WHERE shop_id = $1 AND id = $2`, shopID, id)
	if err != nil {
		return apperrors.FromPostgres(err, "delete vehicle")
	}
	return expectRow(res, "delete vehicle "+id)
}

func (r *PostgresVehicleRepository) ListByCustomer(ctx context.Context, shopID, customerID string) ([]*models.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+vehicleColumns+` FROM vehicles
		WHERE shop_id = $1 AND customer_id = $2
		ORDER BY created_at`, shopID, customerID)
	if err != nil {
		return nil, errors.Wrap(err, "list vehicles")
	}
	defer rows.Close()

	vehicles := make([]*models.Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan vehicle")
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, errors.Wrap(rows.Err(), "iterate vehicles")
}

func scanVehicle(row rowScanner) (*models.Vehicle, error) {
	var v models.Vehicle
	var year sql.NullInt64
	err := row.Scan(&v.ID, &v.ShopID, &v.CustomerID, &year, &v.Make, &v.Model, &v.VIN, &v.LicensePlate, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if year.Valid {
		y := int(year.Int64)
		v.Year = &y
	}
	return &v, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
