// Package server exposes the single-record update path over HTTP.
//
// POST / accepts {"id": <string or integer>, "content": <text>} and regenerates
// that record's embedding synchronously. Responses are JSON:
//
//	200 {"success": true, "id": "42"}
//	4xx/5xx {"success": false, "error": {"category": "bad_input", "detail": "..."}}
//
// Status codes follow the error category: bad_input is 400,
// upstream_provider_failure is 502, persistence_failure is 404 for an unknown id
// and 500 otherwise. CORS allows any origin. GET /healthz and GET /metrics
// serve liveness and Prometheus metrics.
package server
