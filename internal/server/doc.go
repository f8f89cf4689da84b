// Package server holds the thin HTTP layer: a small router, the Google
// OAuth callback handler used when linking a calendar account, and the JSON
// task API. Transport stays dumb on purpose; all task semantics live in
// the tasks package.
package server
