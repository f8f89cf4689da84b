package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNotLinked        = fmt.Errorf("calendar account not linked")

	// Task domain errors
	ErrNotFound           = fmt.Errorf("task not found")
	ErrOwnership          = fmt.Errorf("task belongs to another user")
	ErrInvariantViolation = fmt.Errorf("parent/child cycle detected")

	// Calendar sync errors
	ErrMissingDueDate = fmt.Errorf("task has no due date")
	ErrSyncFailed     = fmt.Errorf("calendar sync failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
