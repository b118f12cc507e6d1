// Command secretdns-cli talks to a running secretdns server: register,
// set-target and resolve go through the HTTP API, lookup queries the DNS
// listener directly.
package main
