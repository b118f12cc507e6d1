package interfaces

import (
	"errors"
	"fmt"
)

// Task lifecycle errors. Callers match them with errors.Is; implementations wrap
// them with context using fmt.Errorf("%w: ...").
var (
	// ErrNotReady is returned when the backend connection has not finished initializing.
	ErrNotReady = errors.New("backend not ready")

	// ErrSubmission is returned when a call could not be submitted within the retry budget.
	ErrSubmission = errors.New("task submission failed")

	// ErrChain covers unexpected on-chain task states.
	ErrChain = errors.New("unexpected chain state")

	// ErrUnexpectedChainStatus is returned when a freshly submitted task is not recorded.
	ErrUnexpectedChainStatus = fmt.Errorf("%w: task not recorded after submission", ErrChain)

	// ErrStatusRegression is returned when the backend reports a chain status lower than one already observed.
	ErrStatusRegression = fmt.Errorf("%w: task chain status regressed", ErrChain)

	// ErrTimeout is returned when a task is not confirmed within the poll budget.
	ErrTimeout = errors.New("timed out waiting for task confirmation")

	// ErrNotConfirmed is returned when a result is requested for an unconfirmed task.
	ErrNotConfirmed = errors.New("task not confirmed")

	// ErrExecutionFailed is returned when a confirmed task did not execute successfully.
	ErrExecutionFailed = errors.New("task execution failed")

	// ErrDecode covers payloads that cannot be decrypted or decoded.
	ErrDecode = errors.New("could not decode task result")

	// ErrMalformedResult is returned for results that fail decryption or ABI decoding.
	ErrMalformedResult = fmt.Errorf("%w: malformed task result", ErrDecode)

	// ErrInvalidDomain is returned for names that cannot be registered or resolved.
	ErrInvalidDomain = errors.New("invalid domain name")

	// ErrTaskNotFound is returned by backends for unknown task ids.
	ErrTaskNotFound = errors.New("task not found")

	// ErrSnapshotNotFound is returned by snapshot stores that hold no snapshot yet.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidLocationURI is returned for unparseable storage URIs.
	ErrInvalidLocationURI = errors.New("invalid location URI")
)
