package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/akhilbawari/taskpal/internal/models"
	"github.com/akhilbawari/taskpal/internal/repositories"
	"github.com/akhilbawari/taskpal/internal/services"
	"github.com/akhilbawari/taskpal/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// CalendarSyncer keeps at most one external calendar event per task
// consistent with the task's title, description, and all-day due window.
// Local state is authoritative: remote failures never corrupt or roll back
// the store.
type CalendarSyncer struct {
	provider services.CalendarProvider
	tasks    *repositories.TaskRepository
	logger   *log.Logger
	timeout  time.Duration
}

// NewCalendarSyncer creates a CalendarSyncer. timeout bounds each remote
// round trip; zero means 30 seconds.
func NewCalendarSyncer(provider services.CalendarProvider, tasks *repositories.TaskRepository, logger *log.Logger, timeout time.Duration) *CalendarSyncer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CalendarSyncer{
		provider: provider,
		tasks:    tasks,
		logger:   logger,
		timeout:  timeout,
	}
}

// TaskSyncResult reports the outcome of syncing a single task during backfill.
type TaskSyncResult struct {
	TaskID  string // Task that was synced
	Title   string // Task title for display
	EventID string // Created event id on success
	Success bool
	Error   error
}

// BackfillResult aggregates per-task outcomes of one backfill run.
type BackfillResult struct {
	TotalTasks int              // Tasks eligible for syncing
	Skipped    int              // Tasks already linked or without a due date
	Succeeded  int
	Failed     int
	Results    []TaskSyncResult // One entry per attempted task
}

// BackfillOpts contains tuning knobs for a backfill run.
type BackfillOpts struct {
	NumWorkers int     // Concurrent workers (default: 5, capped at 10)
	RateLimit  float64 // Requests per second against the provider (default: 5)
}

// eventWindow returns the all-day window [dueDate, dueDate+1) for a task.
// Fails with shared.ErrMissingDueDate when the task has no due date; a task
// without one can never be linked.
func eventWindow(task *models.Task) (time.Time, time.Time, error) {
	due := task.DueDate()
	if due == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: task %s", shared.ErrMissingDueDate, task.ID())
	}
	start := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.Local)
	return start, start.AddDate(0, 0, 1), nil
}

// CreateEvent creates the task's calendar event and persists the returned
// event id. The caller decides whether the owner is linked; an unlinked
// owner fails with shared.ErrNotLinked from the provider.
func (s *CalendarSyncer) CreateEvent(ctx context.Context, owner *models.User, task *models.Task) error {
	start, end, err := eventWindow(task)
	if err != nil {
		return err
	}

	cal, err := s.provider.ForUser(ctx, owner)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	eventID, err := cal.CreateEvent(callCtx, task.Title(), task.Description(), start, end)
	if err != nil {
		return err
	}

	task.SetEventID(&eventID)
	if err := s.tasks.SetEventID(task.ID(), &eventID); err != nil {
		return fmt.Errorf("event created but link not persisted: %w", err)
	}

	return nil
}

// UpdateEvent pushes the task's current state to its linked event. A no-op
// for unlinked tasks. Calling it on a task without a due date is a caller
// error and fails with shared.ErrInvalidArgument.
func (s *CalendarSyncer) UpdateEvent(ctx context.Context, owner *models.User, task *models.Task) error {
	if !task.Linked() {
		return nil
	}

	if task.DueDate() == nil {
		return fmt.Errorf("%w: update sync requires a due date on task %s", shared.ErrInvalidArgument, task.ID())
	}

	start, end, err := eventWindow(task)
	if err != nil {
		return err
	}

	cal, err := s.provider.ForUser(ctx, owner)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return cal.UpdateEvent(callCtx, *task.EventID(), task.Title(), task.Description(), start, end)
}

// DeleteEvent deletes the task's linked event and clears the link. The
// event id is cleared even when the provider reports the event already
// gone, so unlink stays idempotent. A no-op for unlinked tasks.
func (s *CalendarSyncer) DeleteEvent(ctx context.Context, owner *models.User, task *models.Task) error {
	if !task.Linked() {
		return nil
	}

	cal, err := s.provider.ForUser(ctx, owner)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	deleteErr := cal.DeleteEvent(callCtx, *task.EventID())

	task.SetEventID(nil)
	if err := s.tasks.SetEventID(task.ID(), nil); err != nil {
		return err
	}

	return deleteErr
}

// Backfill creates events for every one of the owner's tasks that is
// unlinked and has a due date. Each task is an independent unit of work:
// one failure is recorded against that task and never aborts the batch.
//
// Workers share a rate limiter so a large backlog cannot hammer the
// provider, and each attempt gets one retry with backoff for transient
// transport errors.
func (s *CalendarSyncer) Backfill(ctx context.Context, progress chan<- ProgressUpdate, owner *models.User, opts BackfillOpts) (*BackfillResult, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("%w: no calendar provider configured", shared.ErrNotLinked)
	}
	if _, err := s.provider.ForUser(ctx, owner); err != nil {
		return nil, err
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	sendProgress(progress, loadTasksUpdate())
	all, err := s.tasks.ListByOwner(owner.ID())
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{}
	var pending []*models.Task
	for _, task := range all {
		if task.Linked() || task.DueDate() == nil {
			result.Skipped++
			continue
		}
		pending = append(pending, task)
	}
	result.TotalTasks = len(pending)

	if len(pending) == 0 {
		sendProgress(progress, backfillDoneUpdate(0, 0))
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan *models.Task, len(pending))
	results := make(chan TaskSyncResult, len(pending))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go s.backfillWorker(ctx, &wg, owner, limiter, jobs, results)
	}

	for _, task := range pending {
		jobs <- task
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Succeeded++
			sendProgress(progress, syncTaskUpdate(completed, len(pending), res.Title))
		} else {
			result.Failed++
			s.logger.Error("failed to sync task", "task", res.TaskID, "err", res.Error)
			sendProgress(progress, syncFailedUpdate(completed, len(pending), res.Title, res.Error))
		}
	}

	sendProgress(progress, backfillDoneUpdate(result.Succeeded, result.Failed))
	return result, nil
}

// backfillWorker consumes tasks from the jobs channel, waiting on the
// shared limiter before each remote call.
func (s *CalendarSyncer) backfillWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	owner *models.User,
	limiter *rate.Limiter,
	jobs <-chan *models.Task,
	results chan<- TaskSyncResult,
) {
	defer wg.Done()

	for task := range jobs {
		res := TaskSyncResult{TaskID: task.ID(), Title: task.Title()}

		if err := limiter.Wait(ctx); err != nil {
			res.Error = err
			results <- res
			continue
		}

		if err := s.createWithRetry(ctx, owner, task); err != nil {
			res.Error = err
		} else {
			res.Success = true
			if id := task.EventID(); id != nil {
				res.EventID = *id
			}
		}

		results <- res
	}
}

// createWithRetry attempts the create, retrying once after a short backoff
// when the failure looks transient (a transport error rather than a bad
// request).
func (s *CalendarSyncer) createWithRetry(ctx context.Context, owner *models.User, task *models.Task) error {
	err := s.CreateEvent(ctx, owner, task)
	if err == nil || !errors.Is(err, shared.ErrSyncFailed) {
		return err
	}

	select {
	case <-ctx.Done():
		return err
	case <-time.After(time.Second):
	}

	return s.CreateEvent(ctx, owner, task)
}
