package production

import (
	"context"
	"time"

	"craftflow/internal/core/id"
)

// TaskRepository persists production tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, taskID id.ID) (*Task, error)

	// GetByLine returns the task linked to the order line, if any.
	GetByLine(ctx context.Context, lineID id.ID) (*Task, error)

	// ListQueue returns non-completed tasks ordered by priority descending,
	// then creation time ascending.
	ListQueue(ctx context.Context) ([]*Task, error)

	// AdvanceStatus moves the task from one status to the next with a
	// compare-and-set. Zero rows affected means the task was not in the
	// expected status.
	AdvanceStatus(ctx context.Context, taskID id.ID, from, to TaskStatus, at time.Time) error

	// LineTaskStatus reports the linked task's status for status
	// derivation. Satisfies orders.TaskProbe.
	LineTaskStatus(ctx context.Context, lineID id.ID) (string, bool, error)
}
