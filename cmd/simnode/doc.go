// Command simnode serves a simulated task worker over JSON-RPC for local
// development. Registry state lives in memory and is lost on exit.
package main
