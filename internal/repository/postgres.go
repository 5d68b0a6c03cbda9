package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
)

// OpenPostgres opens the pool and verifies the connection.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return db, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// where accumulates AND-ed conditions. Conditions are written with ?
// bindvars and rendered with numbered placeholders.
type where struct {
	clauses []string
	args    []interface{}
}

func scoped(shopID string) *where {
	w := &where{}
	w.add("shop_id = ?", shopID)
	return w
}

// add appends cond; args bind to its ? in order.
func (w *where) add(cond string, args ...interface{}) {
	w.clauses = append(w.clauses, cond)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	return sqlx.Rebind(sqlx.DOLLAR, " WHERE "+strings.Join(w.clauses, " AND "))
}

// next returns the placeholder for an extra argument appended after the conditions.
func (w *where) next(arg interface{}) string {
	w.args = append(w.args, arg)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *where) page(p models.Page) string {
	return " LIMIT " + w.next(p.Limit) + " OFFSET " + w.next(p.Offset)
}

// orderBy whitelists the sortable columns of a table.
func orderBy(sort string, desc bool, allowed map[string]string, fallback string) string {
	col, ok := allowed[sort]
	if !ok {
		col = fallback
	}
	dir := " ASC"
	if desc {
		dir = " DESC"
	}
	return " ORDER BY " + col + dir
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}

// expectRow maps zero affected rows to ErrNotFound.
func expectRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return errors.Wrap(apperrors.ErrNotFound, what)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(apperrors.ErrNotFound, what)
	}
	return apperrors.FromPostgres(err, what)
}

// PostgresShopRepository stores shop settings.
type PostgresShopRepository struct {
	db     *sql.DB
	logger *logrus.Entry
}

func NewPostgresShopRepository(db *sql.DB) *PostgresShopRepository {
	return &PostgresShopRepository{db: db, logger: logging.New("shop-repository")}
}

func (r *PostgresShopRepository) Create(ctx context.Context, shop *models.Shop) error {
	now := time.Now().UTC()
	shop.CreatedAt, shop.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shops (id, name, tax_rate, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		shop.ID, shop.Name, shop.TaxRate, shop.Currency, shop.CreatedAt, shop.UpdatedAt,
	)
	if err != nil {
		return apperrors.FromPostgres(err, "insert shop")
	}
	r.logger.WithFields(logging.Fields{"shop_id": shop.ID}).Info("Shop created")
	return nil
}

func (r *PostgresShopRepository) Get(ctx context.Context, shopID string) (*models.Shop, error) {
	r.logger.WithFields(logging.Fields{"shop_id": shopID}).Debug("Fetching shop")

	var s models.Shop
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, tax_rate, currency, created_at, updated_at
		FROM shops WHERE id = $1`, shopID,
	).Scan(&s.ID, &s.Name, &s.TaxRate, &s.Currency, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "get shop "+shopID)
	}
	s.Currency = strings.TrimSpace(s.Currency)
	return &s, nil
}

func (r *PostgresShopRepository) Update(ctx context.Context, shop *models.Shop) error {
	shop.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE shops SET name = $2, tax_rate = $3, currency = $4, updated_at = $5
		WHERE id = $1`,
		shop.ID, shop.Name, shop.TaxRate, shop.Currency, shop.UpdatedAt,
	)
	if err != nil {
		return apperrors.FromPostgres(err, "update shop")
	}
	if err := expectRow(res, "update shop "+shop.ID); err != nil {
		return err
	}
	r.logger.WithFields(logging.Fields{
		"shop_id":  shop.ID,
		"tax_rate": shop.TaxRate.String(),
	}).Info("Shop settings updated")
	return nil
}
