package repo

import (
	"context"

	"github.com/BuzzLyutic/tarefas-api/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	Create(ctx context.Context, f model.TaskFields, idempKey string) (int64, error)
	Get(ctx context.Context, id int64) (model.Task, error)
	List(ctx context.Context) ([]model.Task, error)
	Update(ctx context.Context, id int64, f model.TaskFields) error
	Delete(ctx context.Context, id int64) error
	Move(ctx context.Context, id int64, dir model.Direction) error
	GetStats(ctx context.Context) (model.Stats, error)
}
