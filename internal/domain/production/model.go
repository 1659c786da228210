// Package production holds production tasks and the fulfillment
// orchestration around them.
package production

import (
	"time"

	"craftflow/internal/core/id"
	"craftflow/internal/core/types"
)

// TaskStatus moves forward only: pending -> in_progress -> completed.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// Task is one unit of production work for a product.
type Task struct {
	ID        id.ID `db:"id" json:"id"`
	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// OrderLineID links tasks created for a specific order line, nil for
	// make-to-stock tasks
	OrderLineID *id.ID `db:"order_line_id" json:"orderLineId,omitempty"`

	Priority int        `db:"priority" json:"priority"`
	Status   TaskStatus `db:"status" json:"status"`

	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	StartedAt   *time.Time `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

// NewTask creates a pending task.
func NewTask(productID id.ID, qty types.Quantity, orderLineID *id.ID, priority int) *Task {
	return &Task{
		ID:          id.New(),
		ProductID:   productID,
		Quantity:    qty,
		OrderLineID: orderLineID,
		Priority:    priority,
		Status:      TaskPending,
		CreatedAt:   time.Now().UTC(),
	}
}
