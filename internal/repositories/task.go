package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/akhilbawari/taskpal/internal/models"
	"github.com/akhilbawari/taskpal/internal/shared"
)

const taskColumns = `id, sequence, owner_id, title, description, due_date, weight, priority_score, completed, parent_id, event_id, created_at, updated_at, deleted_at`

// TaskRepository implements models.Repository[*models.Task] plus the
// owner-scoped lookups and multi-row transactions the task engine needs.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new TaskRepository with the given database connection
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task with a generated ID and sequence.
//
// The priority score is assigned inside the INSERT itself as one more than
// the owner's current maximum (or 1 for the owner's first task), so two
// concurrent creations can never produce duplicate scores.
func (r *TaskRepository) Create(task *models.Task) error {
	sequence, err := NextSequence(r.db, "tasks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	task.SetID(id)
	task.SetSequence(sequence)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tasks (id, sequence, owner_id, title, description, due_date, weight, priority_score, completed, parent_id, event_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(priority_score), 0) + 1 FROM tasks WHERE owner_id = ? AND deleted_at IS NULL),
			?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		task.OwnerID(),
		task.Title(),
		task.Description(),
		dueDateValue(task.DueDate()),
		task.Weight(),
		task.OwnerID(),
		task.Completed(),
		task.ParentID(),
		task.EventID(),
		task.CreatedAt(),
		task.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	var score int
	if err := r.db.QueryRow("SELECT priority_score FROM tasks WHERE id = ?", id).Scan(&score); err != nil {
		return fmt.Errorf("failed to read assigned priority score: %w", err)
	}
	task.SetPriorityScore(score)

	return nil
}

// Get retrieves a task by ID regardless of owner, excluding soft-deleted tasks.
//
// Callers that act on behalf of a user should prefer GetByOwner; Get exists
// so ownership mismatches can be distinguished from absence.
func (r *TaskRepository) Get(id string) (*models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE id = ? AND deleted_at IS NULL", taskColumns)
	return scanTask(r.db.QueryRow(query, id))
}

// GetByOwner retrieves a task by (id, owner), excluding soft-deleted tasks.
// Returns shared.ErrNotFound when no such task is visible to the owner.
func (r *TaskRepository) GetByOwner(id, ownerID string) (*models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE id = ? AND owner_id = ? AND deleted_at IS NULL", taskColumns)
	return scanTask(r.db.QueryRow(query, id, ownerID))
}

// ListByOwner retrieves all of an owner's tasks ordered by priority score,
// ties broken by id.
func (r *TaskRepository) ListByOwner(ownerID string) ([]*models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE owner_id = ? AND deleted_at IS NULL ORDER BY priority_score ASC, id ASC", taskColumns)
	return r.queryTasks(query, ownerID)
}

// Children retrieves the immediate subtasks of the given parent for an owner.
func (r *TaskRepository) Children(parentID, ownerID string) ([]*models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE parent_id = ? AND owner_id = ? AND deleted_at IS NULL ORDER BY priority_score ASC, id ASC", taskColumns)
	return r.queryTasks(query, parentID, ownerID)
}

// MaxPriorityScore returns the owner's current maximum priority score, or
// nil when the owner has no tasks.
func (r *TaskRepository) MaxPriorityScore(ownerID string) (*int, error) {
	var max sql.NullInt64
	err := r.db.QueryRow("SELECT MAX(priority_score) FROM tasks WHERE owner_id = ? AND deleted_at IS NULL", ownerID).Scan(&max)
	if err != nil {
		return nil, fmt.Errorf("failed to query max priority score: %w", err)
	}
	if !max.Valid {
		return nil, nil
	}
	score := int(max.Int64)
	return &score, nil
}

// Update modifies an existing task's mutable fields.
func (r *TaskRepository) Update(task *models.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	task.SetUpdatedAt(now)

	query := `
		UPDATE tasks
		SET title = ?, description = ?, due_date = ?, weight = ?, completed = ?, parent_id = ?, event_id = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		task.Title(),
		task.Description(),
		dueDateValue(task.DueDate()),
		task.Weight(),
		task.Completed(),
		task.ParentID(),
		task.EventID(),
		now,
		task.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return requireRow(result, task.ID())
}

// SetEventID updates only a task's external calendar event id.
// Pass nil to unlink the task.
func (r *TaskRepository) SetEventID(id string, eventID *string) error {
	result, err := r.db.Exec("UPDATE tasks SET event_id = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL", eventID, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set event id: %w", err)
	}
	return requireRow(result, id)
}

// SwapPriorityScores exchanges the priority scores of two tasks in a single
// transaction so concurrent reorders cannot interleave the pair of writes.
func (r *TaskRepository) SwapPriorityScores(aID, bID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var scoreA, scoreB int
	if err := tx.QueryRow("SELECT priority_score FROM tasks WHERE id = ? AND deleted_at IS NULL", aID).Scan(&scoreA); err != nil {
		return fmt.Errorf("failed to read score for %s: %w", aID, err)
	}
	if err := tx.QueryRow("SELECT priority_score FROM tasks WHERE id = ? AND deleted_at IS NULL", bID).Scan(&scoreB); err != nil {
		return fmt.Errorf("failed to read score for %s: %w", bID, err)
	}

	now := time.Now()
	if _, err := tx.Exec("UPDATE tasks SET priority_score = ?, updated_at = ? WHERE id = ?", scoreB, now, aID); err != nil {
		return fmt.Errorf("failed to update score for %s: %w", aID, err)
	}
	if _, err := tx.Exec("UPDATE tasks SET priority_score = ?, updated_at = ? WHERE id = ?", scoreA, now, bID); err != nil {
		return fmt.Errorf("failed to update score for %s: %w", bID, err)
	}

	return tx.Commit()
}

// SetCompletedAll writes one completion value to every listed task in a
// single transaction. A failure part-way leaves no task modified, which is
// what keeps a completion cascade from stranding a half-updated subtree.
func (r *TaskRepository) SetCompletedAll(ids []string, completed bool) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, id := range ids {
		if _, err := tx.Exec("UPDATE tasks SET completed = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL", completed, now, id); err != nil {
			return fmt.Errorf("failed to update completion for %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// ClearEventIDs drops every stored calendar event reference for an owner.
// Called when the owner unlinks their calendar.
func (r *TaskRepository) ClearEventIDs(ownerID string) error {
	_, err := r.db.Exec("UPDATE tasks SET event_id = NULL, updated_at = ? WHERE owner_id = ? AND event_id IS NOT NULL AND deleted_at IS NULL", time.Now(), ownerID)
	if err != nil {
		return fmt.Errorf("failed to clear event ids: %w", err)
	}
	return nil
}

// ClearParent nulls out the parent reference of every child of parentID.
// Called when a parent is deleted; orphans surface at the top level.
func (r *TaskRepository) ClearParent(parentID string) error {
	_, err := r.db.Exec("UPDATE tasks SET parent_id = NULL, updated_at = ? WHERE parent_id = ? AND deleted_at IS NULL", time.Now(), parentID)
	if err != nil {
		return fmt.Errorf("failed to clear parent reference: %w", err)
	}
	return nil
}

// Delete soft-deletes a task by ID
func (r *TaskRepository) Delete(id string) error {
	result, err := r.db.Exec("UPDATE tasks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireRow(result, id)
}

// List retrieves all tasks matching the given criteria, excluding soft-deleted tasks
func (r *TaskRepository) List(criteria map[string]any) ([]*models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE deleted_at IS NULL", taskColumns)
	args := []any{}

	if ownerID, ok := criteria["owner_id"].(string); ok && ownerID != "" {
		query += " AND owner_id = ?"
		args = append(args, ownerID)
	}

	if completed, ok := criteria["completed"].(bool); ok {
		query += " AND completed = ?"
		args = append(args, completed)
	}

	query += " ORDER BY priority_score ASC, id ASC"

	return r.queryTasks(query, args...)
}

func (r *TaskRepository) queryTasks(query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tasks, nil
}

// scanner abstracts *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*models.Task, error) {
	var (
		id          string
		sequence    int
		ownerID     string
		title       string
		description string
		dueDate     sql.NullString
		weight      int
		score       int
		completed   bool
		parentID    sql.NullString
		eventID     sql.NullString
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &ownerID, &title, &description, &dueDate, &weight, &score, &completed, &parentID, &eventID, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	task := models.NewTask(sequence, ownerID, title, description)
	task.SetID(id)
	task.SetWeight(weight)
	task.SetPriorityScore(score)
	task.SetCompleted(completed)
	task.SetCreatedAt(createdAt)
	task.SetUpdatedAt(updatedAt)

	if dueDate.Valid && dueDate.String != "" {
		due, err := time.ParseInLocation(models.DueDateLayout, dueDate.String, time.Local)
		if err != nil {
			return nil, fmt.Errorf("failed to parse due date %q: %w", dueDate.String, err)
		}
		task.SetDueDate(&due)
	}
	if parentID.Valid {
		task.SetParentID(&parentID.String)
	}
	if eventID.Valid && eventID.String != "" {
		task.SetEventID(&eventID.String)
	}
	if deletedAt.Valid {
		task.SetDeletedAt(&deletedAt.Time)
	}

	return task, nil
}

// dueDateValue converts an optional due date to its storage form.
func dueDateValue(due *time.Time) any {
	if due == nil {
		return nil
	}
	return due.Format(models.DueDateLayout)
}

// requireRow converts a zero-row update into a not-found error.
func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrNotFound, id)
	}
	return nil
}
