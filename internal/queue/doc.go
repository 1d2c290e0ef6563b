// Package queue persists conversion jobs in SQLite and feeds them to the
// worker pool.
//
// The Store is the pool's external job queue: it hands out pending tasks one
// at a time, records terminal outcomes, and keeps an append-only history log
// of everything processed. Ordering is FIFO by insertion; prioritization and
// retry policy live with whoever fills the queue, not here.
package queue
