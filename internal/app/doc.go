// Package app wires configuration, logging, telemetry, storage and the
// pipeline into a runnable process.
//
// # Initialization Flow
//
//	1. Initialize the JSON logger from the logging config
//	2. Initialize OpenTelemetry and the business metrics
//	3. Open the configured store (none, sqlite or postgres)
//	4. Build the pipeline: loader, normalizer, engine, writer, narrative
//	5. Create the run and health services
//	6. Set up the chi router and the HTTP server
//
// bopweb calls Run, which serves until SIGINT or SIGTERM and then drains
// in-flight requests within the shutdown timeout. bopcli only needs the
// Manager and calls Close when done.
//
// # Error Handling
//
// All initialization errors are returned to the caller. The package never
// calls os.Exit.
package app
