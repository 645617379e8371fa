package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/BuzzLyutic/tarefas-api/internal/model"
	"github.com/BuzzLyutic/tarefas-api/internal/repo"
)

const maxNameLength = 100 // как у колонки nome

var (
	ErrValidation = errors.New("validation error")
)

type TaskService struct {
	repo repo.TaskRepository
}

func NewTaskService(repo repo.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) Create(ctx context.Context, in model.TaskInput, idempKey string) (int64, error) {
	f, err := s.validate(in) // Валидация модели на корректность введенных данных
	if err != nil {
		return 0, err
	}
	return s.repo.Create(ctx, f, strings.TrimSpace(idempKey))
}

func (s *TaskService) Get(ctx context.Context, id int64) (model.Task, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return t, err
	}
	t.Highlighted = t.IsHighlighted()
	return t, nil
}

// List возвращает все задачи по возрастанию порядка с вычисленным флагом destaque
func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].Highlighted = tasks[i].IsHighlighted()
	}
	return tasks, nil
}

func (s *TaskService) Update(ctx context.Context, id int64, in model.TaskInput) error {
	// Сначала 404, потом уже ошибки валидации
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	f, err := s.validate(in)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, id, f)
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Move проверяет направление раньше, чем существование задачи
func (s *TaskService) Move(ctx context.Context, id int64, direction string) error {
	dir := model.Direction(strings.TrimSpace(direction))
	if !dir.Valid() {
		return fmt.Errorf("%w: invalid direction %q, use %q or %q", ErrValidation, direction, model.DirectionUp, model.DirectionDown)
	}
	return s.repo.Move(ctx, id, dir)
}

func (s *TaskService) GetStats(ctx context.Context) (model.Stats, error) {
	return s.repo.GetStats(ctx)
}

func (s *TaskService) validate(in model.TaskInput) (model.TaskFields, error) {
	var f model.TaskFields

	f.Name = strings.TrimSpace(in.Name)
	if f.Name == "" {
		return f, fmt.Errorf("%w: field 'nome' is required", ErrValidation)
	}
	if utf8.RuneCountInString(f.Name) > maxNameLength {
		return f, fmt.Errorf("%w: field 'nome' must be at most %d characters", ErrValidation, maxNameLength)
	}

	if in.Cost != nil && *in.Cost < 0 {
		return f, fmt.Errorf("%w: field 'custo' must not be negative", ErrValidation)
	}
	f.Cost = in.Cost

	if in.DueDate != nil && strings.TrimSpace(*in.DueDate) != "" {
		d, err := model.ParseDate(*in.DueDate)
		if err != nil {
			return f, fmt.Errorf("%w: field 'data_limite' must be a date in YYYY-MM-DD format", ErrValidation)
		}
		f.DueDate = &d.Time
	}

	return f, nil
}
