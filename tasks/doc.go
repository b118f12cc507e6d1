// Package tasks implements the client side of the remote task lifecycle.
//
// A call moves through three stages:
//
//  1. Submitter.Submit hands the call to the backend, retrying rejected
//     submissions up to Config.SubmitAttempts times.
//  2. Poller.AwaitConfirmation requires the task to be recorded, then polls
//     every Config.PollInterval until it is confirmed, bounded by
//     Config.PollTimeout and Config.MaxPolls.
//  3. Decoder.FetchAndDecode fetches the result, refuses failed executions,
//     decrypts the payload and ABI-decodes it.
//
// Invoker chains the three stages and Invoke adds a typed return value.
// Every failure wraps one of the sentinel errors of package interfaces.
package tasks
