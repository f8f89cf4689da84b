// Package repositories persists TaskPal's users and task trees in SQLite.
//
// Tasks are soft-deleted and every owner-scoped query filters on
// (owner_id, deleted_at IS NULL). Priority scores are assigned at insert
// time from the owner's current maximum so they stay unique per owner, and
// the swap and cascade helpers run inside single transactions to keep the
// engine's atomicity guarantees out of the SQL callers' hands.
package repositories
