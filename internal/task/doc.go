// Package task defines the unit of conversion work exchanged between the job
// queue, the worker pool, and the conversion engine.
package task
