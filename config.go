package stint

import "time"

// Config holds timing configuration for the scheduler.
type Config struct {
	// Budget is the wall-clock allowance for a single invocation of the
	// advance loop. When elapsed time exceeds it, the job is suspended.
	Budget time.Duration

	// ResumeDelay is how long after suspension the one-shot resumption
	// trigger fires.
	ResumeDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Budget:      25 * time.Minute,
		ResumeDelay: 60 * time.Second,
	}
}
