package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/tarefas-api/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
	ErrorInvalid  = errors.New("invalid value")
)

// rankLockKey - ключ advisory-блокировки, под которой идут все изменения порядка
const rankLockKey int64 = 0x7461726566

const taskColumns = `id, nome, custo, data_limite, ordem`

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo { // Конструктор
	return &TaskRepo{
		pool: pool,
	}
}

func (r *TaskRepo) Create(ctx context.Context, f model.TaskFields, idempKey string) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		if idempKey != "" { // Ключ уже видели - отдаем ту же задачу
			err := tx.QueryRow(ctx, `SELECT resource_id FROM idempotency_keys WHERE key = $1`, idempKey).Scan(&id)
			if err == nil {
				return nil
			}
			if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
		}

		if err := nameTaken(ctx, tx, f.Name, 0); err != nil {
			return err
		}

		var rank int
		if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(ordem), 0) + 1 FROM tarefas`).Scan(&rank); err != nil {
			return err
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO tarefas (nome, custo, data_limite, ordem)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, f.Name, f.Cost, f.DueDate, rank).Scan(&id)
		if err != nil {
			return err
		}

		if idempKey != "" {
			_, err = tx.Exec(ctx, `INSERT INTO idempotency_keys (key, resource_id) VALUES ($1, $2)`, idempKey, id)
		}
		return err
	})
	return id, err
}

func (r *TaskRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tarefas WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return t, fmt.Errorf("%w: task %d", ErrorNotFound, id)
	}
	return t, err
}

func (r *TaskRepo) List(ctx context.Context) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tarefas ORDER BY ordem`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, id int64, f model.TaskFields) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockRank(ctx, tx, id); err != nil {
			return err
		}
		if err := nameTaken(ctx, tx, f.Name, id); err != nil {
			return err
		}

		// порядок не трогаем: меняется только через Move
		_, err := tx.Exec(ctx, `
			UPDATE tarefas
			SET nome = $2, custo = $3, data_limite = $4
			WHERE id = $1
		`, id, f.Name, f.Cost, f.DueDate)
		return err
	})
}

// Delete не перенумеровывает оставшиеся задачи, в порядке может появиться дырка
func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM tarefas WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return fmt.Errorf("%w: task %d", ErrorNotFound, id)
		}
		return nil
	})
}

// Move меняет задачу местами с соседом сверху или снизу.
// Вверх при дырке над задачей она просто занимает свободный номер, вниз при дырке ничего не происходит.
func (r *TaskRepo) Move(ctx context.Context, id int64, dir model.Direction) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		rank, err := lockRank(ctx, tx, id)
		if err != nil {
			return err
		}

		var target int
		switch dir {
		case model.DirectionUp:
			if rank <= 1 {
				return nil
			}
			target = rank - 1
		case model.DirectionDown:
			target = rank + 1
		default:
			return fmt.Errorf("%w: direction %q", ErrorInvalid, dir)
		}

		var neighborID int64
		err = tx.QueryRow(ctx, `SELECT id FROM tarefas WHERE ordem = $1 FOR UPDATE`, target).Scan(&neighborID)
		if errors.Is(err, pgx.ErrNoRows) {
			if dir == model.DirectionDown {
				return nil
			}
			_, err = tx.Exec(ctx, `UPDATE tarefas SET ordem = $2 WHERE id = $1`, id, target)
			return err
		}
		if err != nil {
			return err
		}

		// Уникальность порядка проверяется на коммите, поэтому обмен одним UPDATE допустим
		_, err = tx.Exec(ctx, `
			UPDATE tarefas
			SET ordem = CASE id WHEN $1 THEN $3::int ELSE $4::int END
			WHERE id IN ($1, $2)
		`, id, neighborID, target, rank)
		return err
	})
}

func (r *TaskRepo) GetStats(ctx context.Context) (model.Stats, error) {
	var s model.Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE custo >= $1),
			COALESCE(SUM(custo), 0),
			COALESCE(MAX(ordem), 0)
		FROM tarefas
	`, model.HighlightThreshold).Scan(&s.TotalTasks, &s.Highlighted, &s.TotalCost, &s.MaxRank)
	if err != nil {
		return s, err
	}
	s.RankGaps = s.MaxRank - s.TotalTasks
	return s, nil
}

// withTx выполняет fn в транзакции под общей advisory-блокировкой,
// так что create/update/delete/move друг с другом не пересекаются
func (r *TaskRepo) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // после Commit это no-op

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, rankLockKey); err != nil {
		return fmt.Errorf("acquire rank lock: %w", err)
	}

	if err := fn(tx); err != nil {
		return r.mapError(err)
	}
	return r.mapError(tx.Commit(ctx))
}

func lockRank(ctx context.Context, tx pgx.Tx, id int64) (int, error) {
	var rank int
	err := tx.QueryRow(ctx, `SELECT ordem FROM tarefas WHERE id = $1 FOR UPDATE`, id).Scan(&rank)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: task %d", ErrorNotFound, id)
	}
	return rank, err
}

// nameTaken проверяет, что имя не занято другой задачей (exceptID = 0 - любой)
func nameTaken(ctx context.Context, tx pgx.Tx, name string, exceptID int64) error {
	var taken bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM tarefas WHERE nome = $1 AND id <> $2)
	`, name, exceptID).Scan(&taken)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: task name %q already exists", ErrorConflict, name)
	}
	return nil
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	var due *time.Time
	if err := row.Scan(&t.ID, &t.Name, &t.Cost, &due, &t.Rank); err != nil {
		return t, err
	}
	if due != nil {
		t.DueDate = model.NewDate(*due)
	}
	return t, nil
}

func (r *TaskRepo) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", ErrorConflict, pgErr.ConstraintName)
		case "23514": // check_violation
			return fmt.Errorf("%w: %s", ErrorInvalid, pgErr.ConstraintName)
		}
	}
	return err
}
