package executor

import (
	"context"
	"fmt"

	"github.com/startupgate/startupgate/db"
)

// JobHandler processes a specific type of job.
type JobHandler interface {
	Handle(ctx context.Context, job db.Job) error
}

// Executor dispatches claimed jobs to the handler registered for their
// job type.
type Executor struct {
	registry map[string]JobHandler
}

func NewExecutor(handlers map[string]JobHandler) *Executor {
	if handlers == nil {
		handlers = make(map[string]JobHandler)
	}
	return &Executor{registry: handlers}
}

// Register adds or replaces the handler for a job type. Not safe for
// concurrent use with Execute; wire handlers before starting the
// scheduler.
func (e *Executor) Register(jobType string, handler JobHandler) {
	e.registry[jobType] = handler
}

func (e *Executor) Execute(ctx context.Context, job db.Job) error {
	handler, exists := e.registry[job.JobType]
	if !exists {
		return fmt.Errorf("no handler registered for job type: %s", job.JobType)
	}

	return handler.Handle(ctx, job)
}
