// Package middleware holds the HTTP middleware chain of the API server:
// request IDs that double as log trace IDs, structured request logging,
// panic recovery and rate limiting with RFC 7807 responses, CORS, security
// headers, JSON body enforcement and OpenTelemetry request spans and metrics.
package middleware
