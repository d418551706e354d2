package domain

import "errors"

// Error taxonomy for the permission core. All of these are synchronous
// validation failures: none of them is retryable, and a mutation that fails
// with one of them leaves the aggregate unchanged.
var (
	// ErrIllegalTransition is returned when a status transition is attempted
	// from a state where its guard is false.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrCapabilityViolation is returned when a mutation is attempted that the
	// permission type does not support (conditions, field restrictions).
	ErrCapabilityViolation = errors.New("capability violation")

	// ErrValidation is returned for malformed condition rules and invalid
	// enum values passed to value-object constructors.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is surfaced by the use-case layer when a repository lookup
	// misses. Repositories themselves report a miss as (nil, nil).
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is surfaced by the use-case layer when a code or name
	// would collide inside the tenant. Uniqueness is enforced by
	// query-then-compare before save, backed by the composite unique indexes.
	ErrAlreadyExists = errors.New("already exists")
)
