package interfaces

// SchedulerService runs periodic background maintenance, currently the
// retrieval index refresh.
type SchedulerService interface {
	// Start begins the scheduler with the given cron expression
	Start(cronExpr string) error

	// Stop halts the scheduler, waiting for a running job to finish
	Stop() error

	// IsRunning reports whether the scheduler is active
	IsRunning() bool
}
