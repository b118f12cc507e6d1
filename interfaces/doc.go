// Package interfaces defines core interfaces and types for the secret-dns
// system, separating interface definitions from implementations.
//
// # Task lifecycle types
//
// RemoteCall describes a call to a secret contract: its signature, typed
// arguments and resource budget. Submitting it yields a TaskHandle, which
// moves through ChainStatusUnknown, ChainStatusRecorded and
// ChainStatusConfirmed and never backwards. A confirmed task has a
// TaskResult holding its encrypted output.
//
// # Collaborators
//
// TaskBackend: the asynchronous compute service (submit, status, result, decrypt).
//
// ArgumentCodec: ABI encoding of arguments and decoding of return values.
//
// NameService: register / set target / resolve with sentinel failure values.
//
// SnapshotStore: persistence for cache snapshots.
//
// # Errors
//
// errors.go lists the sentinel errors of the task lifecycle. Chain-level
// failures wrap ErrChain and result failures wrap ErrDecode.
package interfaces
