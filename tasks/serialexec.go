package tasks

import (
	"context"
	"sort"
	"time"

	"bitbucket.org/kleinnic74/tourist/logging"
	"go.uber.org/zap"
)

type taskSubmission struct {
	task      Task
	result    chan Execution
	submitted time.Time
}

type executionQuery chan<- []Execution

// SerialExecutor runs every submitted task on a single worker goroutine, one
// after the other in submission order.
type SerialExecutor struct {
	ids      TaskID
	submitCh chan taskSubmission
	queryCh  chan executionQuery
	done     chan struct{}
}

func NewSerialExecutor() *SerialExecutor {
	return &SerialExecutor{
		submitCh: make(chan taskSubmission),
		queryCh:  make(chan executionQuery),
		done:     make(chan struct{}),
	}
}

// Submit queues task and waits for its execution. ctx only bounds the wait
// for the task to be accepted: once queued the task runs to completion and
// Submit reports its outcome, so a committed write is never reported as
// failed.
func (t *SerialExecutor) Submit(ctx context.Context, task Task) (Execution, error) {
	s := taskSubmission{task: task, result: make(chan Execution, 1), submitted: time.Now()}
	select {
	case t.submitCh <- s:
	case <-t.done:
		return Execution{}, ErrExecutorStopped
	case <-ctx.Done():
		return Execution{}, ctx.Err()
	}
	select {
	case e := <-s.result:
		return e, nil
	case <-t.done:
		return Execution{}, ErrExecutorStopped
	}
}

type runningTask struct {
	Execution
	result chan Execution
}

// DrainTasks runs the executor loop until ctx is done
func (t *SerialExecutor) DrainTasks(ctx context.Context) {
	logger := logging.From(ctx).Named("TaskExecutor")
	queue := make(map[TaskID]runningTask)
	taskCh := make(chan runningTask)
	resCh := make(chan runningTask, 1)
	go func() {
		log := logger.Named("Worker")
		for r := range taskCh {
			log.Debug("Executing task", zap.Uint64("taskID", uint64(r.ID)), zap.String("title", r.Title))
			r.finish(r.task.Execute(ctx))
			resCh <- r
		}
		log.Debug("Terminating")
	}()
	defer func() {
		close(taskCh)
		close(t.done)
	}()
	var pending []runningTask
	busy := false
	for {
		select {
		case s := <-t.submitCh:
			id := t.ids
			t.ids = t.ids + 1
			r := runningTask{
				Execution: Execution{ID: id, Title: s.task.Describe(), Status: Pending, Submitted: s.submitted, task: s.task},
				result:    s.result,
			}
			if !busy {
				r.Status = Running
				taskCh <- r
				busy = true
			} else {
				pending = append(pending, r)
			}
			queue[id] = r
		case r := <-resCh:
			if r.Err != nil {
				logger.Info("Task failed", zap.Uint64("taskID", uint64(r.ID)), zap.String("title", r.Title), zap.Error(r.Err))
			}
			delete(queue, r.ID)
			r.result <- r.Execution
			busy = false
			if len(pending) > 0 {
				next := pending[0]
				pending = pending[1:]
				next.Status = Running
				queue[next.ID] = next
				taskCh <- next
				busy = true
			}
		case q := <-t.queryCh:
			executions := []Execution{}
			for _, v := range queue {
				executions = append(executions, v.Execution)
			}
			sort.Slice(executions, func(i, j int) bool { return executions[i].ID < executions[j].ID })
			q <- executions
			close(q)
		case <-ctx.Done():
			logger.Info("Task executor interrupted", zap.Int("pending", len(pending)))
			return
		}
	}
}

// ListTasks returns the running and pending executions in submission order
func (t *SerialExecutor) ListTasks(ctx context.Context) []Execution {
	resCh := make(chan []Execution, 1)
	select {
	case t.queryCh <- resCh:
	case <-t.done:
		return []Execution{}
	case <-ctx.Done():
		return []Execution{}
	}
	return <-resCh
}
