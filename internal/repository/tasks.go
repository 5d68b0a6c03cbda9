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

const taskColumns = `id, shop_id, title, description, status,
	COALESCE(to_char(due_date, 'YYYY-MM-DD'), ''), assigned_to, created_at, updated_at`

type PostgresTaskRepository struct {
	db     *sql.DB
	logger *logrus.Entry
}

func NewPostgresTaskRepository(db *sql.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db, logger: logging.New("task-repository")}
}

func (r *PostgresTaskRepository) Create(ctx context.Context, t *models.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, shop_id, title, description, status, due_date, assigned_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::date, $7, $8, $9)`,
		t.ID, t.ShopID, t.Title, t.Description, string(t.Status), t.DueDate, t.AssignedTo, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return apperrors.FromPostgres(err, "insert task")
	}
	return nil
}

func (r *PostgresTaskRepository) Get(ctx context.Context, shopID, id string) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE shop_id = $1 AND id = $2`, shopID, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, notFound(err, "get task "+id)
	}
	return t, nil
}

func (r *PostgresTaskRepository) Update(ctx context.Context, t *models.Task) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = $3, description = $4, status = $5, due_date = NULLIF($6, '')::date, assigned_to = $7, updated_at = $8
		WHERE shop_id = $1 AND id = $2`,
		t.ShopID, t.ID, t.Title, t.Description, string(t.Status), t.DueDate, t.AssignedTo, t.UpdatedAt,
	)
	if err != nil {
		return apperrors.FromPostgres(err, "update task")
	}
	return expectRow(res, "update task "+t.ID)
}

func (r *PostgresTaskRepository) Delete(ctx context.Context, shopID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE shop_id = $1 AND id = $2`, shopID, id)
	if err != nil {
		return apperrors.FromPostgres(err, "delete task")
	}
	return expectRow(res, "delete task "+id)
}

func (r *PostgresTaskRepository) List(ctx context.Context, shopID string, filter *models.TaskFilter) ([]*models.Task, error) {
	w := scoped(shopID)
	if filter != nil && filter.Status != "" {
		w.add("status = ?", string(filter.Status))
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks`+w.String()+` ORDER BY due_date NULLS LAST, created_at`, w.args...)
	if err != nil {
		return nil, errors.Wrap(err, "list tasks")
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan task")
		}
		tasks = append(tasks, t)
	}
	return tasks, errors.Wrap(rows.Err(), "iterate tasks")
}

func scanTask(row rowScanner) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.ShopID, &t.Title, &t.Description, &t.Status, &t.DueDate, &t.AssignedTo, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
