package stint

import "errors"

var (
	// Store errors.
	ErrNoStore = errors.New("stint: no store configured")
	ErrNoTimer = errors.New("stint: no timer scheduler configured")

	// Lifecycle errors.
	ErrJobBusy     = errors.New("stint: job is already running")
	ErrJobNotFound = errors.New("stint: job not found")

	// Registration errors.
	ErrTypeNotRegistered = errors.New("stint: job type not registered")

	// Spec construction errors.
	ErrNoLevels    = errors.New("stint: spec has no levels")
	ErrNoAction    = errors.New("stint: spec has no action")
	ErrLevelName   = errors.New("stint: level names must be unique and non-empty")
	ErrNoCandidate = errors.New("stint: level has no candidate lister")

	// Checkpoint errors.
	ErrStaleCheckpoint = errors.New("stint: checkpoint cursor exceeds candidate list")

	// Trigger errors.
	ErrTriggerNotFound = errors.New("stint: trigger not found")
)
