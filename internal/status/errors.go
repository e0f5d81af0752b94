package status

import "errors"

var (
	// ErrNotFound covers both ids that never existed and jobs already purged
	// after their final status was delivered. The two cannot be told apart.
	ErrNotFound = errors.New("job not found")

	// ErrMissingOwner is returned when an external report names no owner.
	ErrMissingOwner = errors.New("owner id is required")

	// ErrUnauthorized is returned for non-admin access to the all-jobs view
	// and for any token mismatch. It never says which part was wrong.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnsupported is returned when a job kind accepts no external reports.
	ErrUnsupported = errors.New("job does not accept external status updates")
)
