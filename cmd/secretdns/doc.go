// Command secretdns serves the .enigma name registry.
//
// It connects to a task backend over JSON-RPC, exposes register, set-target
// and resolve over an HTTP API and answers DNS queries for the configured
// zone from the same registry. Resolutions are cached and, with
// --snapshot-uri, persisted across restarts.
package main
