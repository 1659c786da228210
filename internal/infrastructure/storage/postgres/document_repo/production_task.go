package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"craftflow/internal/core/apperror"
	"craftflow/internal/core/id"
	"craftflow/internal/domain/production"
	"craftflow/internal/infrastructure/storage/postgres"
)

const tasksTable = "doc_production_tasks"

var _ production.TaskRepository = (*ProductionTaskRepo)(nil)

// ProductionTaskRepo implements production.TaskRepository.
type ProductionTaskRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	taskCols  []string
}

// NewProductionTaskRepo creates a new production task repository.
func NewProductionTaskRepo(txManager *postgres.TxManager) *ProductionTaskRepo {
	return &ProductionTaskRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		taskCols:  postgres.ExtractDBColumns[production.Task](),
	}
}

func (r *ProductionTaskRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Create inserts a task.
func (r *ProductionTaskRepo) Create(ctx context.Context, task *production.Task) error {
	data := postgres.StructToMap(task)
	filtered := make(map[string]any, len(r.taskCols))
	for _, col := range r.taskCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.builder.
		Insert(tasksTable).
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetByID retrieves a task.
func (r *ProductionTaskRepo) GetByID(ctx context.Context, taskID id.ID) (*production.Task, error) {
	sql, args, err := r.builder.
		Select(r.taskCols...).
		From(tasksTable).
		Where(squirrel.Eq{"id": taskID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	task := &production.Task{}
	if err := pgxscan.Get(ctx, r.querier(ctx), task, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("production task", taskID.String())
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// GetByLine returns the task linked to an order line.
func (r *ProductionTaskRepo) GetByLine(ctx context.Context, lineID id.ID) (*production.Task, error) {
	sql, args, err := r.builder.
		Select(r.taskCols...).
		From(tasksTable).
		Where(squirrel.Eq{"order_line_id": lineID}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	task := &production.Task{}
	if err := pgxscan.Get(ctx, r.querier(ctx), task, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("production task", lineID.String())
		}
		return nil, fmt.Errorf("get task by line: %w", err)
	}
	return task, nil
}

// ListQueue returns open tasks, most urgent first.
func (r *ProductionTaskRepo) ListQueue(ctx context.Context) ([]*production.Task, error) {
	sql, args, err := r.builder.
		Select(r.taskCols...).
		From(tasksTable).
		Where(squirrel.NotEq{"status": production.TaskCompleted}).
		OrderBy("priority DESC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var tasks []*production.Task
	if err := pgxscan.Select(ctx, r.querier(ctx), &tasks, sql, args...); err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	return tasks, nil
}

// AdvanceStatus moves the task forward with a compare-and-set on the
// expected current status.
func (r *ProductionTaskRepo) AdvanceStatus(ctx context.Context, taskID id.ID, from, to production.TaskStatus, at time.Time) error {
	q := r.builder.
		Update(tasksTable).
		Set("status", to).
		Where(squirrel.Eq{"id": taskID}).
		Where(squirrel.Eq{"status": from})

	switch to {
	case production.TaskInProgress:
		q = q.Set("started_at", at)
	case production.TaskCompleted:
		q = q.Set("completed_at", at)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("advance status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("production task", taskID.String())
	}
	return nil
}

// LineTaskStatus reports the linked task's status for order status
// derivation. Satisfies orders.TaskProbe.
func (r *ProductionTaskRepo) LineTaskStatus(ctx context.Context, lineID id.ID) (string, bool, error) {
	task, err := r.GetByLine(ctx, lineID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(task.Status), true, nil
}
