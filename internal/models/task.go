package models

import (
	"fmt"
	"time"
)

// Task is a single node in a user's task tree.
//
// Tasks reference their parent by id rather than holding a live pointer;
// child lookup goes through the repository's reverse index. The priority
// score is assigned once at creation and only ever changes through a
// two-task swap.
type Task struct {
	id            string
	sequence      int
	ownerID       string
	title         string
	description   string
	dueDate       *time.Time
	weight        int
	priorityScore int
	completed     bool
	parentID      *string
	eventID       *string
	createdAt     time.Time
	updatedAt     time.Time
	deletedAt     *time.Time
}

// NewTask creates a task owned by ownerID with the given display fields.
//
// The priority score and id are assigned by the repository at creation.
func NewTask(sequence int, ownerID, title, description string) *Task {
	now := time.Now()
	return &Task{
		sequence:    sequence,
		ownerID:     ownerID,
		title:       title,
		description: description,
		weight:      1,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (t *Task) ID() string           { return t.id }
func (t *Task) Sequence() int        { return t.sequence }
func (t *Task) OwnerID() string      { return t.ownerID }
func (t *Task) Title() string        { return t.title }
func (t *Task) Description() string  { return t.description }
func (t *Task) DueDate() *time.Time  { return t.dueDate }
func (t *Task) Weight() int          { return t.weight }
func (t *Task) PriorityScore() int   { return t.priorityScore }
func (t *Task) Completed() bool      { return t.completed }
func (t *Task) ParentID() *string    { return t.parentID }
func (t *Task) EventID() *string     { return t.eventID }
func (t *Task) CreatedAt() time.Time { return t.createdAt }
func (t *Task) UpdatedAt() time.Time { return t.updatedAt }
func (t *Task) DeletedAt() *time.Time { return t.deletedAt }

func (t *Task) SetID(id string)                { t.id = id }
func (t *Task) SetSequence(sequence int)       { t.sequence = sequence }
func (t *Task) SetTitle(title string)          { t.title = title }
func (t *Task) SetDescription(d string)        { t.description = d }
func (t *Task) SetDueDate(d *time.Time)        { t.dueDate = d }
func (t *Task) SetWeight(w int)                { t.weight = w }
func (t *Task) SetPriorityScore(score int)     { t.priorityScore = score }
func (t *Task) SetCompleted(completed bool)    { t.completed = completed }
func (t *Task) SetParentID(parentID *string)   { t.parentID = parentID }
func (t *Task) SetEventID(eventID *string)     { t.eventID = eventID }
func (t *Task) SetCreatedAt(at time.Time)      { t.createdAt = at }
func (t *Task) SetUpdatedAt(at time.Time)      { t.updatedAt = at }
func (t *Task) SetDeletedAt(at *time.Time)     { t.deletedAt = at }

// Linked reports whether the task currently has an external calendar event.
func (t *Task) Linked() bool {
	return t.eventID != nil && *t.eventID != ""
}

// Validate checks task invariants: ownership, a non-empty title, and a
// weight within [1,5].
func (t *Task) Validate() error {
	if t.ownerID == "" {
		return fmt.Errorf("task owner is required")
	}
	if t.title == "" {
		return fmt.Errorf("task title is required")
	}
	if t.weight < 1 || t.weight > 5 {
		return fmt.Errorf("task weight must be between 1 and 5, got %d", t.weight)
	}
	if t.parentID != nil && *t.parentID == t.id && t.id != "" {
		return fmt.Errorf("task cannot be its own parent")
	}
	return nil
}
