// Package http contains the chi handlers of the REST API.
//
// Routes:
//
//	POST /api/v1/runs                  start a batch run (202, body is the pending run)
//	GET  /api/v1/runs                  list recent runs, newest first
//	GET  /api/v1/runs/{runID}          run status and cleaning report
//	GET  /api/v1/categories            cleaned categories with counts
//	GET  /api/v1/categories/{category} cleaned records, undefined values as null
//	GET  /api/health                   version, uptime, active run, dependencies
//
// Handlers return plain errors to errors.ErrorHandler, which renders RFC 7807
// problem details.
package http
