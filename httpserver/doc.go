/*
Package httpserver serves the secret-dns HTTP API with chi.

# Endpoints

  - POST /api/v1/domains - Register a domain to an owner
  - PUT /api/v1/domains/{domain}/target - Point a domain at an IP address or hostname
  - GET /api/v1/domains/{domain} - Resolve a domain (404 when it has no target)
  - GET /livez - Liveness check
  - GET /readyz - Readiness check (503 while draining or while the task backend connects)
  - GET /drain - Mark server as not ready
  - GET /undrain - Mark server as ready
  - /debug/pprof - Profiling, when EnablePprof is set

Register and set target answer 200 with {"ok":bool,"status":...} for every
registry outcome, so "already_registered" and "unauthorized" are not HTTP
errors. Task lifecycle failures map to 502, 504 and 422; an unconnected
backend maps to 503.

Request logs go through flashbots' httplogger. Prometheus metrics are served
on a separate listener when MetricsAddr is set.
*/
package httpserver
