package domain

// RunResult aggregates the outcome of one sync or prune run.
type RunResult struct {
	Total             int
	AlreadySynced     int
	NewlySynced       int
	Failed            int
	DeletedFromSource int
	Errors            []string
}

// AddError records a per-item failure or warning.
func (r *RunResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}
