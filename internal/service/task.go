package service

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/repository"
)

// TaskService manages the shop's to-do list. Every change is published so
// open task boards update without polling.
type TaskService struct {
	repo   repository.TaskRepository
	events notifier
}

func NewTaskService(repo repository.TaskRepository, publisher events.Publisher) *TaskService {
	return &TaskService{repo: repo, events: newNotifier(publisher, "task-service")}
}

func (s *TaskService) Create(ctx context.Context, shopID string, in *models.TaskInput) (*models.Task, error) {
	if err := requireShopScope(shopID); err != nil {
		return nil, err
	}
	if err := ValidateTask(in); err != nil {
		return nil, err
	}
	t := &models.Task{ShopID: shopID}
	applyTask(t, in)
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.events.notify(ctx, events.TableTasks, events.OpInsert, shopID, t.ID)
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, shopID, id string) (*models.Task, error) {
	return s.repo.Get(ctx, shopID, id)
}

func (s *TaskService) Update(ctx context.Context, shopID, id string, in *models.TaskInput) (*models.Task, error) {
	if err := ValidateTask(in); err != nil {
		return nil, err
	}
	t, err := s.repo.Get(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	applyTask(t, in)
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.events.notify(ctx, events.TableTasks, events.OpUpdate, shopID, id)
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, shopID, id string) error {
	if err := s.repo.Delete(ctx, shopID, id); err != nil {
		return err
	}
	s.events.notify(ctx, events.TableTasks, events.OpDelete, shopID, id)
	return nil
}

func (s *TaskService) List(ctx context.Context, shopID string, filter *models.TaskFilter) ([]*models.Task, error) {
	if filter.Status != "" && filter.Status != models.TaskStatusOpen && filter.Status != models.TaskStatusDone {
		return nil, apperrors.NewValidationError("status", "status must be open or done")
	}
	return s.repo.List(ctx, shopID, filter)
}

func applyTask(t *models.Task, in *models.TaskInput) {
	t.Title = in.Title
	t.Description = in.Description
	t.Status = in.Status
	t.DueDate = in.DueDate
	t.AssignedTo = in.AssignedTo
}
