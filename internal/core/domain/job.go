package domain

// JobStatus is the state reported by the parsing service for a parse job.
type JobStatus string

// Known job states.
const (
	JobPending        JobStatus = "PENDING"
	JobInProgress     JobStatus = "IN_PROGRESS"
	JobProcessing     JobStatus = "PROCESSING"
	JobSuccess        JobStatus = "SUCCESS"
	JobPartialSuccess JobStatus = "PARTIAL_SUCCESS"
	JobError          JobStatus = "ERROR"
	JobCancelled      JobStatus = "CANCELLED"
)

// JobUnknown is reported when the service returns no status at all.
const JobUnknown JobStatus = "unknown"

// IsTerminal returns true once the job will no longer change state.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobSuccess, JobPartialSuccess, JobError, JobCancelled:
		return true
	default:
		return false
	}
}

// IsSuccess returns true for states whose output can be extracted.
func (s JobStatus) IsSuccess() bool {
	return s == JobSuccess || s == JobPartialSuccess
}

// IsInProgress returns true for the documented in-flight states.
// Unknown states are neither terminal nor in progress; pollers treat
// them like in-progress.
func (s JobStatus) IsInProgress() bool {
	switch s {
	case JobPending, JobInProgress, JobProcessing:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s JobStatus) String() string {
	return string(s)
}
