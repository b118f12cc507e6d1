package interfaces

import "context"

// StatusCode is the domain-level outcome returned by the name registry contract.
type StatusCode int64

const (
	StatusNone              StatusCode = 0
	StatusAlreadyRegistered StatusCode = 1
	StatusUnauthorized      StatusCode = 2
)

func (c StatusCode) String() string {
	switch c {
	case StatusNone:
		return "none"
	case StatusAlreadyRegistered:
		return "already_registered"
	case StatusUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// NameService is the caller-facing name registry. Failures of any kind are
// reported through the sentinels false and "".
type NameService interface {
	Register(ctx context.Context, domain, owner string) bool
	SetTarget(ctx context.Context, domain, target, owner string) bool
	Resolve(ctx context.Context, domain string) string
}

// ReadinessChecker reports whether the backend connection is usable.
type ReadinessChecker interface {
	Ready() bool
}

// UnsetTarget is the target of a registered domain whose owner has not set one yet.
const UnsetTarget = "na"

// NameRegistry exposes the registry outcomes behind NameService: status codes
// are values, and the error is set only when no outcome was obtained.
type NameRegistry interface {
	ReadinessChecker
	RegisterStatus(ctx context.Context, domain, owner string) (StatusCode, error)
	SetTargetStatus(ctx context.Context, domain, target, owner string) (StatusCode, error)
	ResolveTarget(ctx context.Context, domain string) (string, error)
}
