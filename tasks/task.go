package tasks

import (
	"context"
	"errors"
	"time"
)

// Task is a unit of work run by an Executor
type Task interface {
	Execute(ctx context.Context) error
	Describe() string
}

type funcTask struct {
	title string
	f     func(context.Context) error
}

func (t funcTask) Execute(ctx context.Context) error {
	return t.f(ctx)
}

func (t funcTask) Describe() string {
	return t.title
}

// Func wraps f into a Task with the given title
func Func(title string, f func(context.Context) error) Task {
	return funcTask{title: title, f: f}
}

type ExecutionStatus string

const (
	Pending   = ExecutionStatus("pending")
	Running   = ExecutionStatus("running")
	Completed = ExecutionStatus("completed")
	Error     = ExecutionStatus("error")
)

type TaskID uint64

type Execution struct {
	ID        TaskID          `json:"id"`
	Title     string          `json:"title"`
	Status    ExecutionStatus `json:"status"`
	Submitted time.Time       `json:"submitted,omitempty"`
	Completed time.Time       `json:"completed,omitempty"`
	Message   string          `json:"error,omitempty"`
	Err       error           `json:"-"`
	task      Task
}

func (e *Execution) finish(err error) {
	e.Completed = time.Now()
	e.Err = err
	if err != nil {
		e.Status = Error
		e.Message = err.Error()
	} else {
		e.Status = Completed
	}
}

// Executor runs tasks. Submit blocks until the task completed, ctx can only
// abort a submission that has not been accepted yet.
type Executor interface {
	Submit(context.Context, Task) (Execution, error)
	ListTasks(context.Context) []Execution
}

var ErrExecutorStopped = errors.New("TaskExecutor is not running")

// Do runs f on the executor and returns the error of either the executor or f
func Do(ctx context.Context, executor Executor, title string, f func(context.Context) error) error {
	e, err := executor.Submit(ctx, Func(title, f))
	if err != nil {
		return err
	}
	return e.Err
}
