// Package backend connects the task lifecycle client to a confidential
// compute worker.
//
// Client implements interfaces.TaskBackend over a Transport. Call arguments
// are ABI-encoded and ECIES-encrypted to the worker's secp256k1 key, and task
// outputs come back encrypted to the client's task key, which only Client.Decrypt
// can open.
//
// Two transports are provided:
//
//   - RPCTransport speaks JSON-RPC 2.0 (namespace "eng") through the
//     go-ethereum rpc client, over HTTP, WebSocket or in-process.
//   - SimulatedEngine executes the name registry contract in memory. It is
//     the backing worker of tests and of the simnode binary, and supports
//     fault injection (rejected submissions, stalled confirmation, failed
//     execution, corrupt output).
//
// NewRPCServer exposes any Transport over JSON-RPC, so a SimulatedEngine can be
// served to remote clients.
//
// # JSON-RPC methods
//
//   - eng_getWorkerEncryptionKey() -> hex bytes
//   - eng_submitTask(SubmitTaskRequest) -> TaskStatusResponse
//   - eng_getTaskStatus(taskId) -> TaskStatusResponse
//   - eng_getTaskResult(taskId) -> TaskResultResponse
//
// # Name registry contract
//
// register(string,string) returns int256 0 (none) or 1 (already registered).
// set_target(string,string,string) returns 0 or 2 (unauthorized) and fails
// the execution for unregistered domains. resolve(string) returns the target,
// "na" for a registered domain without target, or "" when unregistered.
package backend
