package tasks

import (
	"math/big"
	"time"
)

// Config bounds the task lifecycle. The zero value is not useful; start from
// DefaultConfig.
type Config struct {
	// SubmitAttempts is how many times a submission is tried before giving up.
	SubmitAttempts int

	// SubmitBackoff is the pause between submission attempts. Zero retries immediately.
	SubmitBackoff time.Duration

	// PollInterval is the pause between task status queries.
	PollInterval time.Duration

	// PollTimeout bounds the total wait for confirmation. Zero disables the deadline.
	PollTimeout time.Duration

	// MaxPolls bounds the number of status queries after the first. Zero means no limit.
	MaxPolls int

	// ResourceLimit and ResourcePrice are attached to every call built by the Invoker.
	ResourceLimit uint64
	ResourcePrice *big.Int
}

// DefaultConfig returns three immediate submission attempts, one status query
// per second and a two minute confirmation deadline.
func DefaultConfig() Config {
	return Config{
		SubmitAttempts: 3,
		SubmitBackoff:  0,
		PollInterval:   time.Second,
		PollTimeout:    2 * time.Minute,
		MaxPolls:       0,
		ResourceLimit:  90_000_000,
		// 0.0001 ENG in grains (8 decimals)
		ResourcePrice: big.NewInt(10_000),
	}
}
