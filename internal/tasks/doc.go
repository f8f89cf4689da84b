// Package tasks is the core of TaskPal: the task tree operations and the
// one-way calendar synchronization that follows them.
//
// Three rules shape everything here. Priority scores are assigned once at
// creation (owner's max + 1) and only ever change through a two-task swap.
// Completion propagates strictly downward through a task's subtree, all
// writes of one cascade sharing a transaction. And calendar sync never gets
// to veto a local mutation: a failed remote call is logged (create,
// backfill) or surfaced as a warning (update, delete) while the store
// commits regardless.
package tasks
