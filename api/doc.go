/*
Package api holds the wire types of the secret-dns HTTP API.

	POST /api/v1/domains                   RegisterRequest  -> StatusResponse
	PUT  /api/v1/domains/{domain}/target   SetTargetRequest -> StatusResponse
	GET  /api/v1/domains/{domain}                           -> ResolveResponse

Failures are reported as ErrorResponse with a 4xx or 5xx status. While the task
backend is still connecting every endpoint answers 503.

The clients subpackage implements interfaces.NameRegistry over this API.
*/
package api
