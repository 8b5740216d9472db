// Package http implements the HTTP handlers of the bopweb service. Handlers
// stay thin: they parse the request, call a service and render the result.
//
// # Endpoints
//
//	POST /api/v1/runs                 upload a CSV or Excel file and run the pipeline
//	GET  /api/v1/runs/{id}            fetch a cached run result
//	GET  /api/v1/runs/{id}/records    records of a cached run, ?description= filters
//	GET  /api/v1/records              persisted records across runs
//	GET  /api/health                  liveness
//	GET  /api/health/ready            readiness, 503 when a dependency is unusable
//	GET  /api/version                 build information
//
// # Error Handling
//
// Every failure is rendered as RFC 7807 problem details through
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/data/invalid",
//	    "title": "Unprocessable Entity",
//	    "status": 422,
//	    "detail": "[PARSING] input could not be processed: ...",
//	    "instance": "/api/v1/runs",
//	    "run_id": "..."
//	}
//
// A failed run is still cached, so its run_id can be fetched for the partial
// result and per-step states.
package http
