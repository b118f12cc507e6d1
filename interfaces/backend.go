package interfaces

import "context"

// TaskBackend is the asynchronous compute service that executes remote calls.
// Identity, credentials and connection bootstrap belong to the implementation.
type TaskBackend interface {
	// SubmitCall hands a call to the backend and returns the handle of the created task.
	SubmitCall(ctx context.Context, call *RemoteCall) (*TaskHandle, error)

	// GetStatus returns a fresh copy of the handle with the current chain and execution status.
	GetStatus(ctx context.Context, handle *TaskHandle) (*TaskHandle, error)

	// GetResult fetches the encrypted output of a confirmed task.
	GetResult(ctx context.Context, handle *TaskHandle) (*TaskResult, error)

	// Decrypt returns the plaintext output of a task result.
	Decrypt(ctx context.Context, result *TaskResult) ([]byte, error)
}

// ArgumentCodec encodes call arguments and decodes typed return payloads.
type ArgumentCodec interface {
	EncodeArguments(args []TypedArg) ([]byte, error)
	Decode(returnType TypeTag, data []byte) (any, error)
}
