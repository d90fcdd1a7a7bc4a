package worker

import "time"

// Status represents the current state of the worker pool
type Status string

const (
	// StatusIdle indicates the pool is ready but not processing
	StatusIdle Status = "idle"

	// StatusProcessing indicates files are being converted or queued
	StatusProcessing Status = "processing"

	// StatusShuttingDown indicates no more tasks are accepted and the queue is draining
	StatusShuttingDown Status = "shutting_down"

	// StatusStopped indicates the pool has been stopped
	StatusStopped Status = "stopped"
)

// Stats provides runtime statistics about the worker pool
type Stats struct {
	// ActiveWorkers is the number of workers currently running a task
	ActiveWorkers int

	// QueuedTasks is the number of tasks waiting for a worker
	QueuedTasks int

	// SubmittedTasks is the number of tasks accepted by Submit
	SubmittedTasks int

	// CompletedTasks counts tasks that returned without error
	CompletedTasks int

	// FailedTasks counts tasks whose Result carries an error
	FailedTasks int

	// Status is the current state of the pool
	Status Status

	// Uptime is how long the pool has been running
	Uptime time.Duration
}

// Done is the number of tasks that finished, successfully or not
func (s Stats) Done() int {
	return s.CompletedTasks + s.FailedTasks
}
