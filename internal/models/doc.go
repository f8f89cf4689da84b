// Package models contains the persistent entities for TaskPal: users and
// their task trees.
//
// Tasks are owner-partitioned. Every query that resolves a task does so by
// (id, owner) so one user can never observe another's tasks. The
// parent/child relation is stored as a parent id on the child; the tree is
// acyclic by construction and traversal code guards against cycles anyway.
package models
