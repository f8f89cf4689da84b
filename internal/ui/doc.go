// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a keyboard-driven task browser:
//  1. [TaskListView] : Browse the task tree ordered by priority
//  2. [ConfirmDeleteView] : Confirm before deleting a task
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Toggling completion runs the downward cascade, and moving a task swaps
// priority scores with its on-screen neighbor.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
