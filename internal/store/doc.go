// Package store persists end-of-call summaries to Postgres. Persistence is
// optional; when no database is configured the service runs with report
// files only.
package store
