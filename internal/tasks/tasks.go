// package tasks implements the task tree engine and its calendar synchronization.
//
// The core abstraction is TaskEngine, which composes priority bookkeeping,
// the completion cascade, and the CalendarSyncer behind the public task
// operations. Long-running sync operations emit progress updates via
// channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/akhilbawari/taskpal/internal/models"
	"github.com/akhilbawari/taskpal/internal/repositories"
	"github.com/akhilbawari/taskpal/internal/shared"
	"github.com/charmbracelet/log"
)

// TaskSpec carries the caller-supplied fields for creating or updating a task.
type TaskSpec struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	DueDate      *time.Time `json:"-"`
	Weight       int        `json:"weight"`
	ParentTaskID *string    `json:"parent_task_id"`
}

// TaskNode is the response shape for a task with its subtasks nested.
type TaskNode struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	DueDate      *string    `json:"due_date"`
	Weight       int        `json:"weight"`
	Priority     int        `json:"priority"`
	Completed    bool       `json:"completed"`
	ParentTaskID *string    `json:"parent_task_id"`
	EventID      *string    `json:"event_id,omitempty"`
	Subtasks     []TaskNode `json:"subtasks"`
}

// TaskEngine exposes the task operations for one store, scoped per call to
// an authenticated owner id. It never derives identity itself.
type TaskEngine struct {
	tasks  *repositories.TaskRepository
	users  *repositories.UserRepository
	syncer *CalendarSyncer
	logger *log.Logger
}

// NewTaskEngine creates a TaskEngine. The syncer may be nil when no
// calendar provider is configured; all operations then behave as if every
// owner were unlinked.
func NewTaskEngine(tasks *repositories.TaskRepository, users *repositories.UserRepository, syncer *CalendarSyncer, logger *log.Logger) *TaskEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TaskEngine{
		tasks:  tasks,
		users:  users,
		syncer: syncer,
		logger: logger,
	}
}

// NextPriorityScore returns the score the owner's next task will receive:
// one more than the current maximum, or 1 for an owner with no tasks.
func (e *TaskEngine) NextPriorityScore(ownerID string) (int, error) {
	max, err := e.tasks.MaxPriorityScore(ownerID)
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

// Add validates spec, resolves the optional parent, persists the task with
// a fresh priority score, and attempts a calendar create when the owner is
// linked and the task has a due date. Calendar unavailability never fails
// the local creation.
func (e *TaskEngine) Add(ctx context.Context, ownerID string, spec TaskSpec) (*TaskNode, error) {
	owner, err := e.users.Get(ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: owner %s", shared.ErrNotFound, ownerID)
	}

	task := models.NewTask(0, ownerID, spec.Title, spec.Description)
	task.SetDueDate(spec.DueDate)
	if spec.Weight != 0 {
		task.SetWeight(spec.Weight)
	}

	if spec.ParentTaskID != nil {
		if _, err := e.tasks.GetByOwner(*spec.ParentTaskID, ownerID); err != nil {
			return nil, fmt.Errorf("%w: parent task %s", shared.ErrNotFound, *spec.ParentTaskID)
		}
		task.SetParentID(spec.ParentTaskID)
	}

	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	if err := e.tasks.Create(task); err != nil {
		return nil, err
	}

	if e.syncer != nil && owner.CalendarLinked() && task.DueDate() != nil {
		if err := e.syncer.CreateEvent(ctx, owner, task); err != nil {
			e.logger.Warn("calendar create failed, task persisted unlinked", "task", task.ID(), "err", err)
		}
	}

	node := taskToNode(task)
	node.Subtasks = []TaskNode{}
	return &node, nil
}

// Get returns one task with its direct subtasks nested.
func (e *TaskEngine) Get(ctx context.Context, ownerID, taskID string) (*TaskNode, error) {
	task, err := e.loadOwned(taskID, ownerID)
	if err != nil {
		return nil, err
	}
	return e.nodeWithChildren(task, ownerID)
}

// Update overwrites the task's mutable fields and, when the task is linked,
// pushes the new state to the calendar. A calendar failure does not roll
// back the local update; it is returned wrapped in shared.ErrSyncFailed
// alongside the committed result so callers can surface a warning.
func (e *TaskEngine) Update(ctx context.Context, ownerID, taskID string, spec TaskSpec) (*TaskNode, error) {
	task, err := e.loadOwned(taskID, ownerID)
	if err != nil {
		return nil, err
	}

	// A linked task always has a due date; the request is rejected before
	// anything is written.
	if task.Linked() && spec.DueDate == nil {
		return nil, fmt.Errorf("%w: task %s has a calendar event and cannot lose its due date", shared.ErrInvalidArgument, taskID)
	}

	task.SetTitle(spec.Title)
	task.SetDescription(spec.Description)
	task.SetDueDate(spec.DueDate)
	if spec.Weight != 0 {
		task.SetWeight(spec.Weight)
	}

	if err := e.tasks.Update(task); err != nil {
		return nil, err
	}

	var syncWarn error
	if e.syncer != nil && task.Linked() {
		owner, err := e.users.Get(ownerID)
		if err == nil {
			if err := e.syncer.UpdateEvent(ctx, owner, task); err != nil {
				e.logger.Warn("calendar update failed, local task updated", "task", task.ID(), "err", err)
				syncWarn = err
			}
		}
	}

	node, err := e.nodeWithChildren(task, ownerID)
	if err != nil {
		return nil, err
	}
	return node, syncWarn
}

// List returns all of the owner's tasks with subtasks nested recursively,
// ordered by priority score at every level.
func (e *TaskEngine) List(ctx context.Context, ownerID string) ([]TaskNode, error) {
	all, err := e.tasks.ListByOwner(ownerID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Task, len(all))
	children := make(map[string][]*models.Task)
	for _, task := range all {
		byID[task.ID()] = task
	}

	var roots []*models.Task
	for _, task := range all {
		parent := task.ParentID()
		if parent != nil {
			if _, ok := byID[*parent]; ok {
				children[*parent] = append(children[*parent], task)
				continue
			}
		}
		// No parent, or a dangling reference left by a parent delete.
		roots = append(roots, task)
	}

	visited := make(map[string]bool, len(all))
	nodes := make([]TaskNode, 0, len(roots))
	for _, root := range roots {
		node, err := buildNode(root, children, visited)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	if len(visited) != len(all) {
		return nil, fmt.Errorf("%w: %d tasks unreachable from any root", shared.ErrInvariantViolation, len(all)-len(visited))
	}

	return nodes, nil
}

// Delete removes the task, after deleting its calendar event when linked.
// Children are re-parented to the top level rather than cascade-deleted.
// A calendar failure is returned wrapped in shared.ErrSyncFailed but the
// local delete still happens.
func (e *TaskEngine) Delete(ctx context.Context, ownerID, taskID string) error {
	task, err := e.loadOwned(taskID, ownerID)
	if err != nil {
		return err
	}

	var syncWarn error
	if e.syncer != nil && task.Linked() {
		owner, err := e.users.Get(ownerID)
		if err == nil {
			if err := e.syncer.DeleteEvent(ctx, owner, task); err != nil {
				e.logger.Warn("calendar delete failed, local task removed anyway", "task", task.ID(), "err", err)
				syncWarn = err
			}
		}
	}

	if err := e.tasks.ClearParent(taskID); err != nil {
		return err
	}
	if err := e.tasks.Delete(taskID); err != nil {
		return err
	}

	return syncWarn
}

// Reorder swaps the priority scores of two tasks. Both must belong to the
// owner; a task that exists under someone else fails with the ownership
// error rather than not-found.
func (e *TaskEngine) Reorder(ctx context.Context, ownerID, sourceID, destinationID string) error {
	if sourceID == destinationID {
		return fmt.Errorf("%w: cannot reorder a task against itself", shared.ErrInvalidArgument)
	}

	if _, err := e.loadOwned(sourceID, ownerID); err != nil {
		return err
	}
	if _, err := e.loadOwned(destinationID, ownerID); err != nil {
		return err
	}

	return e.tasks.SwapPriorityScores(sourceID, destinationID)
}

// SetCompleted sets the completion flag on the task and every descendant.
// Propagation is strictly downward and all writes share one transaction.
func (e *TaskEngine) SetCompleted(ctx context.Context, ownerID, taskID string, completed bool) error {
	if _, err := e.loadOwned(taskID, ownerID); err != nil {
		return err
	}

	ids, err := e.collectSubtree(taskID, ownerID)
	if err != nil {
		return err
	}

	return e.tasks.SetCompletedAll(ids, completed)
}

// collectSubtree walks the task's descendants iteratively with an explicit
// stack. The visited set guards against unbounded traversal; the data
// model forbids cycles, so finding one is an invariant violation.
func (e *TaskEngine) collectSubtree(rootID, ownerID string) ([]string, error) {
	visited := map[string]bool{rootID: true}
	ids := []string{rootID}
	stack := []string{rootID}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := e.tasks.Children(current, ownerID)
		if err != nil {
			return nil, err
		}

		for _, child := range children {
			if visited[child.ID()] {
				return nil, fmt.Errorf("%w: task %s revisited under %s", shared.ErrInvariantViolation, child.ID(), rootID)
			}
			visited[child.ID()] = true
			ids = append(ids, child.ID())
			stack = append(stack, child.ID())
		}
	}

	return ids, nil
}

// loadOwned resolves a task by (id, owner), distinguishing a task held by
// another user from one that does not exist.
func (e *TaskEngine) loadOwned(taskID, ownerID string) (*models.Task, error) {
	task, err := e.tasks.GetByOwner(taskID, ownerID)
	if err == nil {
		return task, nil
	}

	if other, getErr := e.tasks.Get(taskID); getErr == nil && other.OwnerID() != ownerID {
		return nil, fmt.Errorf("%w: %s", shared.ErrOwnership, taskID)
	}

	return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, taskID)
}

func (e *TaskEngine) nodeWithChildren(task *models.Task, ownerID string) (*TaskNode, error) {
	node := taskToNode(task)
	node.Subtasks = []TaskNode{}

	children, err := e.tasks.Children(task.ID(), ownerID)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		childNode := taskToNode(child)
		childNode.Subtasks = []TaskNode{}
		node.Subtasks = append(node.Subtasks, childNode)
	}

	return &node, nil
}

// buildNode assembles a TaskNode subtree depth-first from the prefetched
// children index.
func buildNode(task *models.Task, children map[string][]*models.Task, visited map[string]bool) (TaskNode, error) {
	if visited[task.ID()] {
		return TaskNode{}, fmt.Errorf("%w: task %s revisited", shared.ErrInvariantViolation, task.ID())
	}
	visited[task.ID()] = true

	node := taskToNode(task)
	node.Subtasks = []TaskNode{}
	for _, child := range children[task.ID()] {
		childNode, err := buildNode(child, children, visited)
		if err != nil {
			return TaskNode{}, err
		}
		node.Subtasks = append(node.Subtasks, childNode)
	}

	return node, nil
}

func taskToNode(task *models.Task) TaskNode {
	node := TaskNode{
		ID:           task.ID(),
		Title:        task.Title(),
		Description:  task.Description(),
		Weight:       task.Weight(),
		Priority:     task.PriorityScore(),
		Completed:    task.Completed(),
		ParentTaskID: task.ParentID(),
		EventID:      task.EventID(),
	}
	if due := task.DueDate(); due != nil {
		formatted := due.Format(models.DueDateLayout)
		node.DueDate = &formatted
	}
	return node
}
