package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/akhilbawari/taskpal/internal/formatter"
	"github.com/akhilbawari/taskpal/internal/models"
	"github.com/akhilbawari/taskpal/internal/shared"
	"github.com/akhilbawari/taskpal/internal/tasks"
)

// TaskAdd creates a task for the given user, optionally nested under a parent.
func (r *Runner) TaskAdd(ctx context.Context, cmd *cli.Command) error {
	title := cmd.StringArg("title")
	if title == "" {
		return fmt.Errorf("%w: task title is required", shared.ErrMissingArgument)
	}

	if err := r.ensure(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd.String("user"))
	if err != nil {
		return err
	}

	due, err := parseDue(cmd.String("due"))
	if err != nil {
		return err
	}

	spec := tasks.TaskSpec{
		Title:       title,
		Description: cmd.String("description"),
		DueDate:     due,
		Weight:      cmd.Int("weight"),
	}
	if parent := cmd.String("parent"); parent != "" {
		spec.ParentTaskID = &parent
	}

	node, err := r.engine.Add(ctx, user.ID(), spec)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(node, true)
	}

	r.writePlain("✓ Created task %s (priority %d)\n", node.ID, node.Priority)
	if node.EventID != nil {
		r.writePlain("✓ Calendar event %s\n", *node.EventID)
	}
	return nil
}

// TaskList prints or exports the user's task tree.
func (r *Runner) TaskList(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd.String("user"))
	if err != nil {
		return err
	}

	nodes, err := r.engine.List(ctx, user.ID())
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		format := cmd.String("format")
		if format == "" {
			format = "json"
		}
		if err := formatter.WriteExport(nodes, format, path); err != nil {
			return err
		}
		return r.writePlain("✓ Exported %d tasks to %s\n", len(nodes), path)
	}

	if cmd.Bool("json") {
		return r.writeJSON(nodes, cmd.Bool("pretty"))
	}

	if len(nodes) == 0 {
		return r.writePlain("No tasks for %s\n", user.Email())
	}

	return r.writePlain("%s", formatter.ExportToText(nodes))
}

// TaskUpdate applies flag overrides to a task and resyncs its event.
func (r *Runner) TaskUpdate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: task id is required", shared.ErrMissingArgument)
	}

	if err := r.ensure(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd.String("user"))
	if err != nil {
		return err
	}

	current, err := r.engine.Get(ctx, user.ID(), id)
	if err != nil {
		return err
	}

	spec, err := specFromNode(current)
	if err != nil {
		return err
	}

	if cmd.IsSet("title") {
		spec.Title = cmd.String("title")
	}
	if cmd.IsSet("description") {
		spec.Description = cmd.String("description")
	}
	if cmd.IsSet("due") {
		if spec.DueDate, err = parseDue(cmd.String("due")); err != nil {
			return err
		}
	}
	if cmd.IsSet("weight") {
		spec.Weight = cmd.Int("weight")
	}

	node, err := r.engine.Update(ctx, user.ID(), id, spec)
	if err != nil && !errors.Is(err, shared.ErrSyncFailed) {
		return err
	}

	r.writePlain("✓ Updated task %s\n", node.ID)
	if err != nil {
		r.writePlain("⚠ Calendar out of date: %v\n", err)
	}
	return nil
}

// TaskDelete removes a task; its subtasks move to the top level.
func (r *Runner) TaskDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: task id is required", shared.ErrMissingArgument)
	}

	if err := r.ensure(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd.String("user"))
	if err != nil {
		return err
	}

	err = r.engine.Delete(ctx, user.ID(), id)
	if err != nil && !errors.Is(err, shared.ErrSyncFailed) {
		return err
	}

	r.writePlain("✓ Deleted task %s\n", id)
	if err != nil {
		r.writePlain("⚠ Calendar event may remain: %v\n", err)
	}
	return nil
}

// TaskReorder swaps the priority scores of two tasks.
func (r *Runner) TaskReorder(ctx context.Context, cmd *cli.Command) error {
	source := cmd.StringArg("source")
	destination := cmd.StringArg("destination")
	if source == "" || destination == "" {
		return fmt.Errorf("%w: source and destination task ids are required", shared.ErrMissingArgument)
	}

	if err := r.ensure(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd.String("user"))
	if err != nil {
		return err
	}

	if err := r.engine.Reorder(ctx, user.ID(), source, destination); err != nil {
		return err
	}

	return r.writePlain("✓ Swapped priority of %s and %s\n", source, destination)
}

// TaskComplete marks a task and its whole subtree complete or incomplete.
func (r *Runner) TaskComplete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: task id is required", shared.ErrMissingArgument)
	}

	if err := r.ensure(); err != nil {
		return err
	}

	user, err := r.resolveUser(cmd.String("user"))
	if err != nil {
		return err
	}

	completed := !cmd.Bool("undo")
	if err := r.engine.SetCompleted(ctx, user.ID(), id, completed); err != nil {
		return err
	}

	state := "complete"
	if !completed {
		state = "incomplete"
	}
	return r.writePlain("✓ Marked task %s and its subtasks %s\n", id, state)
}

// parseDue parses a YYYY-MM-DD flag value, empty meaning no due date.
func parseDue(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	due, err := time.ParseInLocation(models.DueDateLayout, value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: due date must be YYYY-MM-DD: %v", shared.ErrInvalidArgument, err)
	}
	return &due, nil
}

// specFromNode rebuilds a TaskSpec carrying a node's current field values,
// the baseline for partial flag updates.
func specFromNode(node *tasks.TaskNode) (tasks.TaskSpec, error) {
	spec := tasks.TaskSpec{
		Title:        node.Title,
		Description:  node.Description,
		Weight:       node.Weight,
		ParentTaskID: node.ParentTaskID,
	}
	if node.DueDate != nil {
		due, err := parseDue(*node.DueDate)
		if err != nil {
			return spec, err
		}
		spec.DueDate = due
	}
	return spec, nil
}
