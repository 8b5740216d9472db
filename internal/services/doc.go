// Package services implements the logic behind the bopweb HTTP handlers.
//
// RunService accepts uploaded files, runs them through the operations
// pipeline and keeps results in a TTL cache so clients can poll by run ID.
// HealthService reports liveness, readiness and build information.
//
// Services return errors from bopcli/internal/errors so the transport layer
// can render them as RFC 7807 problem details without inspecting causes.
package services
